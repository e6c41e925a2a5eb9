package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/procura/internal/client/forms"
	"github.com/dmitrijs2005/procura/internal/client/format"
	"github.com/dmitrijs2005/procura/internal/client/models"
	"github.com/dmitrijs2005/procura/internal/client/services"
	"github.com/dmitrijs2005/procura/internal/client/view"
)

// getMultiline and confirm are swapped in tests like getSimpleText.
var getMultiline = GetMultiline
var confirm = Confirm

// Create walks the user through the create-request form. Empty answers keep
// the current draft value, so a failed attempt can be corrected field by
// field. "create reset" discards the draft.
func (a *App) Create(ctx context.Context, args []string) error {
	if !services.CanCreate(a.session.Identity()) {
		a.println("Only staff can create requests.")
		return services.ErrNotAllowed
	}
	if len(args) > 0 && args[0] == "reset" {
		a.form.Reset()
		a.println("Draft discarded.")
		return nil
	}

	draft := a.form.Draft()

	title, err := getSimpleText(a.reader, withCurrent("Title", draft.Title), a.out)
	if err != nil {
		return err
	}
	if title != "" {
		_ = a.form.UpdateField(forms.FieldTitle, title)
	}

	description, err := getMultiline(a.reader, withCurrent("Description", draft.Description), a.out)
	if err != nil {
		return err
	}
	if description != "" {
		_ = a.form.UpdateField(forms.FieldDescription, description)
	}

	amount, err := getSimpleText(a.reader, withCurrent("Amount ("+format.DefaultCurrency+")", draft.Amount), a.out)
	if err != nil {
		return err
	}
	if amount != "" {
		_ = a.form.UpdateField(forms.FieldAmount, amount)
	}

	current := ""
	if draft.ProformaFile != nil {
		current = draft.ProformaFile.Path
	}
	path, err := getSimpleText(a.reader, withCurrent("Proforma invoice (PDF, max 5MB)", current), a.out)
	if err != nil {
		return err
	}
	if path != "" {
		att, err := models.AttachmentFromFile(path)
		if err != nil {
			a.printf("Cannot use %s: %v\n", path, err)
			return err
		}
		a.form.AttachFile(att)
	}

	err = a.form.Submit(ctx, func(created *models.PurchaseRequest) {
		a.logger.Info(ctx, "request created", "request", created.ID)
		a.println("Request created successfully")
		a.router.Navigate(view.Dashboard)
		if err := a.refreshQuietly(ctx); err != nil {
			a.logger.Warn(ctx, "refresh after create failed", "error", err)
		}
	})

	var verr forms.ValidationErrors
	switch {
	case err == nil:
		return nil
	case errors.As(err, &verr):
		a.println("Please fix the following and run 'create' again:")
		a.printFieldErrors(verr)
	case errors.Is(err, forms.ErrSubmitInProgress):
		a.println("A submission is already in progress.")
	default:
		a.logger.Error(ctx, "create failed", "error", err)
		a.println("Failed to create request. Your draft was kept; run 'create' to retry.")
		a.report(err)
	}
	return err
}

// Edit changes a pending request the user owns. Empty answers leave the
// field as it is.
func (a *App) Edit(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.println("Usage: edit <id>")
		return nil
	}
	req, err := a.fetch(ctx, args[0])
	if err != nil {
		return err
	}
	user := a.session.Identity()
	if !services.CanEdit(user, req) {
		a.println("Only the requester can edit a pending request.")
		return services.ErrNotAllowed
	}

	a.println("Leave a field empty to keep its current value.")
	var draft models.UpdateDraft

	if draft.Title, err = getSimpleText(a.reader, withCurrent("Title", req.Title), a.out); err != nil {
		return err
	}
	if draft.Description, err = getMultiline(a.reader, "Description", a.out); err != nil {
		return err
	}
	if draft.Amount, err = getSimpleText(a.reader, withCurrent("Amount", req.Amount), a.out); err != nil {
		return err
	}
	path, err := getSimpleText(a.reader, "New proforma invoice file", a.out)
	if err != nil {
		return err
	}
	if path != "" {
		if draft.ProformaFile, err = models.AttachmentFromFile(path); err != nil {
			a.printf("Cannot use %s: %v\n", path, err)
			return err
		}
	}

	out, err := a.requests.Update(ctx, user, req, draft)
	a.printOutcome(out, err)
	return err
}

// Approve asks for confirmation and approves a pending request.
func (a *App) Approve(ctx context.Context, args []string) error {
	return a.decide(ctx, args, "approve", services.CanApprove, services.ApproveConfirmation, a.requests.Approve)
}

// Reject asks for confirmation and rejects a pending request.
func (a *App) Reject(ctx context.Context, args []string) error {
	return a.decide(ctx, args, "reject", services.CanReject, services.RejectConfirmation, a.requests.Reject)
}

type decision func(ctx context.Context, user *models.Identity, req models.PurchaseRequest) (services.Outcome, error)

func (a *App) decide(
	ctx context.Context,
	args []string,
	verb string,
	allowed func(*models.Identity, models.PurchaseRequest) bool,
	question func(models.PurchaseRequest) string,
	act decision,
) error {
	if len(args) == 0 {
		a.printf("Usage: %s <id>\n", verb)
		return nil
	}
	req, err := a.fetch(ctx, args[0])
	if err != nil {
		return err
	}
	user := a.session.Identity()
	if !allowed(user, req) {
		a.printf("You cannot %s this request.\n", verb)
		return services.ErrNotAllowed
	}

	ok, err := confirm(a.reader, question(req), a.out)
	if err != nil {
		return err
	}
	if !ok {
		a.println("Cancelled.")
		return nil
	}

	out, err := act(ctx, user, req)
	a.printOutcome(out, err)
	return err
}

// Receipt attaches a receipt file to an approved request and reports the
// validation result.
func (a *App) Receipt(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.println("Usage: receipt <id> [file]")
		return nil
	}
	req, err := a.fetch(ctx, args[0])
	if err != nil {
		return err
	}
	user := a.session.Identity()
	if !services.CanUploadReceipt(user, req) {
		a.println("Receipts can only be attached by staff to approved requests without one.")
		return services.ErrNotAllowed
	}

	path := ""
	if len(args) > 1 {
		path = args[1]
	} else if path, err = getSimpleText(a.reader, "Receipt file", a.out); err != nil {
		return err
	}

	att, err := models.AttachmentFromFile(path)
	if err != nil {
		a.printf("Cannot use %s: %v\n", path, err)
		return err
	}

	out, err := a.requests.UploadReceipt(ctx, user, req, att)
	a.printOutcome(out, err)
	return err
}

func (a *App) printOutcome(out services.Outcome, err error) {
	a.println(out.Message)
	if err == nil {
		return
	}
	var verr forms.ValidationErrors
	if errors.As(err, &verr) {
		a.printFieldErrors(verr)
		return
	}
	a.report(err)
}

func (a *App) printFieldErrors(errs forms.ValidationErrors) {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		a.printf("  %s: %s\n", k, errs[k])
	}
}

func withCurrent(prompt, current string) string {
	if current == "" {
		return prompt
	}
	return fmt.Sprintf("%s [%s]", prompt, ellipsis(current, 40))
}
