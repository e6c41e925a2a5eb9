// Package forms owns the create-request draft and the client-side schemas
// for creating, editing and attaching receipts to purchase requests.
package forms

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/procura/internal/client/models"
)

var ErrSubmitInProgress = errors.New("submission already in progress")

// Creator is the part of the API client the form submits through.
type Creator interface {
	Create(ctx context.Context, draft models.CreateDraft) (*models.PurchaseRequest, error)
}

// CreateRequestForm holds a create-request draft and its field errors.
type CreateRequestForm struct {
	api Creator

	mu         sync.Mutex
	draft      models.CreateDraft
	errors     ValidationErrors
	submitting bool
}

func NewCreateRequestForm(api Creator) *CreateRequestForm {
	return &CreateRequestForm{api: api, errors: ValidationErrors{}}
}

// UpdateField sets one text field and clears that field's error only.
func (f *CreateRequestForm) UpdateField(field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch field {
	case FieldTitle:
		f.draft.Title = value
	case FieldDescription:
		f.draft.Description = value
	case FieldAmount:
		f.draft.Amount = value
	default:
		return fmt.Errorf("unknown field %q", field)
	}
	delete(f.errors, field)
	return nil
}

// AttachFile sets or, with nil, removes the proforma invoice.
func (f *CreateRequestForm) AttachFile(a *models.Attachment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.ProformaFile = a
	delete(f.errors, FieldProformaFile)
}

// Validate runs the schema and replaces the error map with its result.
func (f *CreateRequestForm) Validate() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validateLocked()
}

func (f *CreateRequestForm) validateLocked() bool {
	errs := ValidateCreate(f.draft)
	if errs == nil {
		errs = ValidationErrors{}
	}
	f.errors = errs
	return len(errs) == 0
}

// Errors returns a copy of the current error map.
func (f *CreateRequestForm) Errors() ValidationErrors {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errors.clone()
}

func (f *CreateRequestForm) Draft() models.CreateDraft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

func (f *CreateRequestForm) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// Reset restores the empty draft and clears all errors.
func (f *CreateRequestForm) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft = models.CreateDraft{}
	f.errors = ValidationErrors{}
}

// Submit validates the draft and, only if it is valid, creates the request.
// On success the form is reset before onSuccess runs. On failure the draft is
// kept and the error returned; a validation failure returns ValidationErrors
// and makes no call.
func (f *CreateRequestForm) Submit(ctx context.Context, onSuccess func(*models.PurchaseRequest)) error {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return ErrSubmitInProgress
	}
	if !f.validateLocked() {
		errs := f.errors.clone()
		f.mu.Unlock()
		return errs
	}
	f.submitting = true
	draft := f.draft
	f.mu.Unlock()

	created, err := f.api.Create(ctx, draft)

	f.mu.Lock()
	f.submitting = false
	if err != nil {
		f.mu.Unlock()
		return err
	}
	f.draft = models.CreateDraft{}
	f.errors = ValidationErrors{}
	f.mu.Unlock()

	if onSuccess != nil {
		onSuccess(created)
	}
	return nil
}
