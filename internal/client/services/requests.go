package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/procura/internal/client/forms"
	"github.com/dmitrijs2005/procura/internal/client/format"
	"github.com/dmitrijs2005/procura/internal/client/models"
	"github.com/dmitrijs2005/procura/internal/logging"
)

// ErrNotAllowed is returned when the signed-in user may not perform an
// action on a request in its current state.
var ErrNotAllowed = errors.New("action not allowed")

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Outcome is the notification shown to the user after an action.
type Outcome struct {
	Message string
	Level   Level
}

func success(msg string) Outcome { return Outcome{Message: msg, Level: LevelSuccess} }
func failure(msg string) Outcome { return Outcome{Message: msg, Level: LevelError} }

// RequestAPI is the subset of the API client used by request actions.
type RequestAPI interface {
	Update(ctx context.Context, id string, draft models.UpdateDraft) (*models.PurchaseRequest, error)
	Approve(ctx context.Context, id string) (*models.ApproveResult, error)
	Reject(ctx context.Context, id string) (*models.RejectResult, error)
	UploadReceipt(ctx context.Context, id string, receipt models.Attachment) (*models.ReceiptResult, error)
}

// Refresher reloads the request list after a successful mutation.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RequestService performs role-gated actions on a single request.
//
// Every action returns an Outcome suitable for display. On failure the
// Outcome carries the generic failure message and the error is returned as
// well; nothing local is changed, so the caller can retry. On success the
// request list is refreshed quietly.
type RequestService interface {
	Approve(ctx context.Context, user *models.Identity, req models.PurchaseRequest) (Outcome, error)
	Reject(ctx context.Context, user *models.Identity, req models.PurchaseRequest) (Outcome, error)
	UploadReceipt(ctx context.Context, user *models.Identity, req models.PurchaseRequest, receipt *models.Attachment) (Outcome, error)
	Update(ctx context.Context, user *models.Identity, req models.PurchaseRequest, draft models.UpdateDraft) (Outcome, error)
}

type requestService struct {
	api       RequestAPI
	refresher Refresher
	logger    logging.Logger
}

// NewRequestService builds a RequestService. refresher may be nil.
func NewRequestService(api RequestAPI, refresher Refresher, logger logging.Logger) RequestService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &requestService{api: api, refresher: refresher, logger: logger}
}

func (s *requestService) refresh(ctx context.Context) {
	if s.refresher == nil {
		return
	}
	if err := s.refresher.Refresh(ctx); err != nil {
		s.logger.Warn(ctx, "refresh after action failed", "error", err)
	}
}

func (s *requestService) Approve(ctx context.Context, user *models.Identity, req models.PurchaseRequest) (Outcome, error) {
	if !CanApprove(user, req) {
		return failure("Failed to approve request"), fmt.Errorf("approve %s: %w", req.ID, ErrNotAllowed)
	}

	res, err := s.api.Approve(ctx, req.ID)
	if err != nil {
		s.logger.Error(ctx, "approval failed", "request", req.ID, "error", err)
		return failure("Failed to approve request"), err
	}

	s.refresh(ctx)
	if res.POGenerated {
		return success("Request approved and Purchase Order generated successfully!"), nil
	}
	return success("Request approved successfully"), nil
}

func (s *requestService) Reject(ctx context.Context, user *models.Identity, req models.PurchaseRequest) (Outcome, error) {
	if !CanReject(user, req) {
		return failure("Failed to reject request"), fmt.Errorf("reject %s: %w", req.ID, ErrNotAllowed)
	}

	if _, err := s.api.Reject(ctx, req.ID); err != nil {
		s.logger.Error(ctx, "rejection failed", "request", req.ID, "error", err)
		return failure("Failed to reject request"), err
	}

	s.refresh(ctx)
	return success("Request rejected successfully"), nil
}

// UploadReceipt validates the attachment before sending it. The outcome
// depends on the validation status the backend reports for the receipt.
func (s *requestService) UploadReceipt(ctx context.Context, user *models.Identity, req models.PurchaseRequest, receipt *models.Attachment) (Outcome, error) {
	if !CanUploadReceipt(user, req) {
		return failure("Failed to upload receipt"), fmt.Errorf("upload receipt %s: %w", req.ID, ErrNotAllowed)
	}
	if errs := forms.ValidateReceipt(receipt); errs != nil {
		return failure(errs[forms.FieldReceipt]), errs
	}

	res, err := s.api.UploadReceipt(ctx, req.ID, *receipt)
	if err != nil {
		s.logger.Error(ctx, "receipt upload failed", "request", req.ID, "error", err)
		return failure("Failed to upload receipt"), err
	}

	s.refresh(ctx)
	return ReceiptOutcome(res), nil
}

// ReceiptOutcome maps a submit-receipt response to its notification.
func ReceiptOutcome(res *models.ReceiptResult) Outcome {
	switch res.ValidationStatus {
	case models.ValidationValid:
		return success("Receipt uploaded and validated successfully!")
	case models.ValidationInvalid:
		return failure("Receipt uploaded but discrepancies found. Check details.")
	case models.ValidationError:
		reason := res.Error
		if reason == "" && res.ValidationResult != nil {
			reason = res.ValidationResult.Error
		}
		if reason == "" {
			reason = "Unknown error"
		}
		return failure("Receipt uploaded but validation failed: " + reason)
	}
	return success("Receipt uploaded and validation is pending")
}

func (s *requestService) Update(ctx context.Context, user *models.Identity, req models.PurchaseRequest, draft models.UpdateDraft) (Outcome, error) {
	if !CanEdit(user, req) {
		return failure("Failed to update request"), fmt.Errorf("update %s: %w", req.ID, ErrNotAllowed)
	}
	if draft.Empty() {
		return failure("Nothing to update"), errors.New("update has no changes")
	}
	if errs := forms.ValidateUpdate(draft); errs != nil {
		return failure("Failed to update request"), errs
	}

	if _, err := s.api.Update(ctx, req.ID, draft); err != nil {
		s.logger.Error(ctx, "update failed", "request", req.ID, "error", err)
		return failure("Failed to update request"), err
	}

	s.refresh(ctx)
	return success("Request updated successfully"), nil
}

// ApproveConfirmation is the question asked before approving.
func ApproveConfirmation(req models.PurchaseRequest) string {
	return fmt.Sprintf("Are you sure you want to approve %q for %s?", req.Title, format.Currency(req.Amount, ""))
}

// RejectConfirmation is the question asked before rejecting.
func RejectConfirmation(req models.PurchaseRequest) string {
	return fmt.Sprintf("Are you sure you want to reject %q? This action cannot be undone.", req.Title)
}
