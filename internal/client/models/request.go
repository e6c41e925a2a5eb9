package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status is a purchase request status. The backend sends lowercase values;
// they are upper-cased on decode.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Statuses lists the known statuses in display order.
var Statuses = []Status{StatusPending, StatusApproved, StatusRejected}

func (s *Status) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = Status(strings.ToUpper(strings.TrimSpace(raw)))
	return nil
}

// Known reports whether s is one of the three workflow statuses.
func (s Status) Known() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Normalize upper-cases s and maps anything unknown to PENDING.
func (s Status) Normalize() Status {
	n := Status(strings.ToUpper(strings.TrimSpace(string(s))))
	if !n.Known() {
		return StatusPending
	}
	return n
}

// ValidationStatus is the receipt validation outcome reported by the backend.
type ValidationStatus string

const (
	ValidationPending ValidationStatus = "pending"
	ValidationValid   ValidationStatus = "valid"
	ValidationInvalid ValidationStatus = "invalid"
	ValidationError   ValidationStatus = "error"
)

// UserDetail is the backend's user summary, embedded in login responses and
// in requests (requester / approver).
type UserDetail struct {
	ID            string  `json:"id"`
	Username      string  `json:"username"`
	FullName      string  `json:"full_name"`
	Email         string  `json:"email"`
	PhoneNumber   *string `json:"phone_number"`
	Address       string  `json:"address"`
	UserType      string  `json:"user_type"`
	IsActive      *bool   `json:"is_active,omitempty"`
	AboutMe       *string `json:"about_me,omitempty"`
	Gender        string  `json:"gender,omitempty"`
	MaritalStatus string  `json:"marital_status,omitempty"`
	DateOfBirth   *string `json:"date_of_birth,omitempty"`
	Age           *int    `json:"age,omitempty"`
}

// DisplayName prefers the full name and falls back to the username.
func (u *UserDetail) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// ApprovalLog is one entry of a request's approval history.
type ApprovalLog struct {
	ID           int64     `json:"id"`
	Action       string    `json:"action"`
	Timestamp    time.Time `json:"timestamp"`
	ApproverName string    `json:"approver_name"`
}

type ValidationDiscrepancy struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

type ValidationExtractedData struct {
	Vendor      string   `json:"vendor,omitempty"`
	TotalAmount string   `json:"total_amount,omitempty"`
	Items       []string `json:"items,omitempty"`
}

// ReceiptValidationResult is the AI-derived comparison between the uploaded
// receipt and the purchase order.
type ReceiptValidationResult struct {
	IsValid         bool                    `json:"is_valid"`
	ConfidenceScore float64                 `json:"confidence_score"`
	Discrepancies   []ValidationDiscrepancy `json:"discrepancies"`
	ExtractedData   ValidationExtractedData `json:"extracted_data"`
	Summary         string                  `json:"summary"`
	Error           string                  `json:"error,omitempty"`
	RawResponse     string                  `json:"raw_response,omitempty"`
}

type POVendor struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Contact string `json:"contact"`
}

type POItem struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Total       string `json:"total"`
}

type POPricing struct {
	Subtotal string `json:"subtotal"`
	Tax      string `json:"tax"`
	Shipping string `json:"shipping"`
	Total    string `json:"total"`
}

type POTerms struct {
	Payment  string `json:"payment"`
	Delivery string `json:"delivery"`
	Validity string `json:"validity"`
}

// POData is the purchase order content extracted from the proforma after
// approval.
type POData struct {
	Vendor  *POVendor  `json:"vendor,omitempty"`
	Items   []POItem   `json:"items,omitempty"`
	Pricing *POPricing `json:"pricing,omitempty"`
	Terms   *POTerms   `json:"terms,omitempty"`
	Notes   string     `json:"notes,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// PurchaseRequest is the client's cached copy of a server-side request.
// It is never modified locally; a mutation is always followed by a re-fetch.
type PurchaseRequest struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Amount      string    `json:"amount"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	Timestamps  string    `json:"timestamps,omitempty"`

	Proforma      *string `json:"proforma"`
	PurchaseOrder *string `json:"purchase_order"`
	Receipt       *string `json:"receipt"`

	ReceiptValidationStatus *ValidationStatus        `json:"receipt_validation_status"`
	ReceiptValidationResult *ReceiptValidationResult `json:"receipt_validation_result"`

	POData *POData `json:"po_data,omitempty"`

	RequesterDetails UserDetail  `json:"requester_details"`
	ApproverDetails  *UserDetail `json:"approver_details"`
	ApprovedBy       *string     `json:"approved_by"`

	Logs []ApprovalLog `json:"logs,omitempty"`
}

// AmountValue parses Amount. Malformed amounts yield zero and false.
func (r PurchaseRequest) AmountValue() (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(r.Amount))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// HasReceipt reports whether a receipt document is attached.
func (r PurchaseRequest) HasReceipt() bool {
	return r.Receipt != nil && *r.Receipt != ""
}

// ShortID is the first eight characters of the id, used in listings.
func (r PurchaseRequest) ShortID() string {
	if len(r.ID) <= 8 {
		return r.ID
	}
	return r.ID[:8]
}
