package forms

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/dmitrijs2005/procura/internal/client/models"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const MaxFileSize = 5 * 1024 * 1024

var maxAmount = decimal.NewFromInt(1_000_000_000)

// Field keys of the error map.
const (
	FieldTitle        = "title"
	FieldDescription  = "description"
	FieldAmount       = "amount"
	FieldProformaFile = "proforma_file"
	FieldReceipt      = "receipt"
)

// ValidationErrors maps a field key to the first rule it failed.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v ValidationErrors) clone() ValidationErrors {
	out := make(ValidationErrors, len(v))
	for k, msg := range v {
		out[k] = msg
	}
	return out
}

// Several schema fields can share one key (a file is checked for presence,
// size and type); only the first failure per key is kept.
type createInput struct {
	Title        string `form:"title" validate:"min=3,max=100"`
	Description  string `form:"description" validate:"min=10,max=500"`
	Amount       string `form:"amount" validate:"amount_number,amount_positive,amount_max"`
	ProformaFile string `form:"proforma_file" validate:"required"`
	ProformaSize int64  `form:"proforma_file" validate:"lte=5242880"`
	ProformaType string `form:"proforma_file" validate:"omitempty,oneof=application/pdf"`
}

type updateInput struct {
	Title        string `form:"title" validate:"omitempty,min=3,max=100"`
	Description  string `form:"description" validate:"omitempty,min=10,max=500"`
	Amount       string `form:"amount" validate:"omitempty,amount_number,amount_positive,amount_max"`
	ProformaSize int64  `form:"proforma_file" validate:"lte=5242880"`
	ProformaType string `form:"proforma_file" validate:"omitempty,oneof=application/pdf"`
}

type receiptInput struct {
	ReceiptFile string `form:"receipt" validate:"required"`
	ReceiptSize int64  `form:"receipt" validate:"lte=5242880"`
	ReceiptType string `form:"receipt" validate:"omitempty,oneof=application/pdf image/jpeg image/png"`
}

// messages is keyed by "<StructField>.<tag>".
var messages = map[string]string{
	"Title.min":              "Title must be at least 3 characters",
	"Title.max":              "Title must not exceed 100 characters",
	"Description.min":        "Description must be at least 10 characters",
	"Description.max":        "Description must not exceed 500 characters",
	"Amount.amount_number":   "Amount must be a valid number",
	"Amount.amount_positive": "Amount must be greater than 0",
	"Amount.amount_max":      "Amount must not exceed 1 billion",
	"ProformaFile.required":  "Proforma invoice is required",
	"ProformaSize.lte":       "File size must not exceed 5MB",
	"ProformaType.oneof":     "Only PDF files are allowed",
	"ReceiptFile.required":   "Receipt file is required",
	"ReceiptSize.lte":        "File size must not exceed 5MB",
	"ReceiptType.oneof":      "Only PDF, JPEG, and PNG files are allowed",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "amount_number", func(fl validator.FieldLevel) bool {
		_, ok := parseAmount(fl.Field().String())
		return ok
	})
	mustRegister(v, "amount_positive", func(fl validator.FieldLevel) bool {
		d, ok := parseAmount(fl.Field().String())
		return ok && d.IsPositive()
	})
	mustRegister(v, "amount_max", func(fl validator.FieldLevel) bool {
		d, ok := parseAmount(fl.Field().String())
		return ok && d.LessThanOrEqual(maxAmount)
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// parseAmount accepts a plain decimal number, surrounding spaces allowed.
func parseAmount(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func fileFields(a *models.Attachment) (path string, size int64, contentType string) {
	if a == nil {
		return "", 0, ""
	}
	path = a.Path
	if path == "" {
		path = a.Name
	}
	contentType = a.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return path, a.Size, contentType
}

func run(input any) ValidationErrors {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ValidationErrors{"_": err.Error()}
	}

	out := ValidationErrors{}
	for _, fe := range verrs {
		key := fe.Field()
		if _, seen := out[key]; seen {
			continue
		}
		msg, ok := messages[fe.StructField()+"."+fe.Tag()]
		if !ok {
			msg = fe.Error()
		}
		out[key] = msg
	}
	return out
}

// ValidateCreate checks a create draft. It returns nil when the draft is valid.
func ValidateCreate(d models.CreateDraft) ValidationErrors {
	path, size, ct := fileFields(d.ProformaFile)
	return run(createInput{
		Title:        d.Title,
		Description:  d.Description,
		Amount:       d.Amount,
		ProformaFile: path,
		ProformaSize: size,
		ProformaType: ct,
	})
}

// ValidateUpdate checks a partial update: unset fields are skipped, set
// fields follow the create rules.
func ValidateUpdate(d models.UpdateDraft) ValidationErrors {
	_, size, ct := fileFields(d.ProformaFile)
	return run(updateInput{
		Title:        d.Title,
		Description:  d.Description,
		Amount:       d.Amount,
		ProformaSize: size,
		ProformaType: ct,
	})
}

// ValidateReceipt checks a receipt attachment (PDF, JPEG or PNG, at most 5MB).
func ValidateReceipt(a *models.Attachment) ValidationErrors {
	path, size, ct := fileFields(a)
	return run(receiptInput{ReceiptFile: path, ReceiptSize: size, ReceiptType: ct})
}
