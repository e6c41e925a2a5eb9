package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/procura/internal/client/dashboard"
	"github.com/dmitrijs2005/procura/internal/client/format"
	"github.com/dmitrijs2005/procura/internal/client/models"
	"github.com/dmitrijs2005/procura/internal/client/services"
	"github.com/dmitrijs2005/procura/internal/client/view"
)

// List shows the dashboard. An argument changes the status filter first.
func (a *App) List(ctx context.Context, args []string) error {
	if len(args) > 0 {
		f, err := dashboard.ParseStatusFilter(args[0])
		if err != nil {
			a.println("Unknown status. Use one of: all, pending, approved, rejected.")
			return err
		}
		a.selection.SetStatus(f)
	}

	if a.router.Navigate(view.Dashboard) != view.Dashboard {
		a.println("Please log in first.")
		return nil
	}

	data := a.currentData()
	data.Mount(ctx)
	if err := data.Err(); err != nil {
		a.println("Failed to load requests.")
		a.report(err)
		return err
	}

	a.renderList(data.Requests())
	return nil
}

// Refresh reloads the list and shows it again.
func (a *App) Refresh(ctx context.Context) error {
	a.router.Navigate(view.Dashboard)

	data := a.currentData()
	if err := data.Fetch(ctx); err != nil {
		a.println("Failed to refresh requests.")
		a.report(err)
		return err
	}
	a.renderList(data.Requests())
	return nil
}

func (a *App) renderList(all []models.PurchaseRequest) {
	user := a.session.Identity()
	visible, n := a.selection.Apply(all, a.session.IsFinance())

	a.printf("%s (%d, %s)\n", format.PageTitle(user), n, format.StatusLabel(string(a.selection.Status())))
	if n == 0 {
		a.println("No requests found")
		return
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAMOUNT\tSTATUS\tREQUESTER\tCREATED")
	now := a.now()
	for _, r := range visible {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ShortID(),
			ellipsis(r.Title, 40),
			format.Currency(r.Amount, ""),
			format.StatusLabel(string(r.Status.Normalize())),
			r.RequesterDetails.DisplayName(),
			format.RelativeTime(now, r.CreatedAt),
		)
	}
	_ = tw.Flush()
}

// Show prints one request. The reference may be an id or a unique prefix of
// one from the current list.
func (a *App) Show(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.println("Usage: show <id>")
		return nil
	}

	req, err := a.fetch(ctx, args[0])
	if err != nil {
		return err
	}

	a.router.Open(view.Detail, req.ID)
	a.renderDetail(req)
	return nil
}

// resolve maps a reference to a full request id using the cached list.
func (a *App) resolve(ref string) string {
	if r, ok := a.currentData().Find(ref); ok {
		return r.ID
	}
	return ref
}

// fetch loads the latest copy of a request from the server.
func (a *App) fetch(ctx context.Context, ref string) (models.PurchaseRequest, error) {
	req, err := a.api.Get(ctx, a.resolve(ref))
	if err != nil {
		a.logger.Warn(ctx, "request lookup failed", "ref", ref, "error", err)
		a.println("Failed to load request.")
		a.report(err)
		return models.PurchaseRequest{}, err
	}
	return *req, nil
}

func (a *App) renderDetail(r models.PurchaseRequest) {
	user := a.session.Identity()

	a.printf("%s\n", r.Title)
	a.printf("  ID:          %s\n", r.ID)
	a.printf("  Status:      %s\n", format.StatusLabel(string(r.Status.Normalize())))
	a.printf("  Amount:      %s\n", format.Currency(r.Amount, ""))
	a.printf("  Created:     %s\n", format.Date(r.CreatedAt))
	a.printf("  Requester:   %s\n", r.RequesterDetails.DisplayName())
	if r.ApproverDetails != nil {
		a.printf("  Approver:    %s\n", r.ApproverDetails.DisplayName())
	}
	if r.Description != "" {
		a.println("  Description:")
		for _, line := range strings.Split(r.Description, "\n") {
			a.printf("    %s\n", line)
		}
	}

	a.println("Documents")
	a.printf("  Proforma:        %s\n", link(r.Proforma))
	a.printf("  Purchase order:  %s\n", link(r.PurchaseOrder))
	a.printf("  Receipt:         %s\n", link(r.Receipt))
	if r.HasReceipt() {
		a.printf("  Validation:      %s\n", format.ValidationLabel(r.ReceiptValidationStatus))
	}

	if r.POData != nil {
		a.renderPO(*r.POData)
	}
	if v := r.ReceiptValidationResult; v != nil {
		a.renderValidation(*v)
	}

	if len(r.Logs) > 0 {
		a.println("History")
		for _, l := range r.Logs {
			a.printf("  %s  %s by %s\n", format.Date(l.Timestamp), l.Action, l.ApproverName)
		}
	}

	var actions []string
	if services.CanEdit(user, r) {
		actions = append(actions, "edit")
	}
	if services.CanApprove(user, r) {
		actions = append(actions, "approve")
	}
	if services.CanReject(user, r) {
		actions = append(actions, "reject")
	}
	if services.CanUploadReceipt(user, r) {
		actions = append(actions, "receipt")
	}
	if len(actions) > 0 {
		a.printf("Actions: %s\n", strings.Join(actions, ", "))
	}
}

func (a *App) renderPO(po models.POData) {
	a.println("Purchase order")
	if po.Error != "" {
		a.printf("  Extraction failed: %s\n", po.Error)
		return
	}
	if po.Vendor != nil {
		a.printf("  Vendor:   %s\n", po.Vendor.Name)
		if po.Vendor.Address != "" {
			a.printf("            %s\n", po.Vendor.Address)
		}
	}
	if len(po.Items) > 0 {
		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "  ITEM\tQTY\tUNIT\tTOTAL")
		for _, it := range po.Items {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", it.Description, it.Quantity, it.UnitPrice, it.Total)
		}
		_ = tw.Flush()
	}
	if po.Pricing != nil && po.Pricing.Total != "" {
		a.printf("  Total:    %s\n", format.Currency(po.Pricing.Total, ""))
	}
	if po.Terms != nil && po.Terms.Payment != "" {
		a.printf("  Payment:  %s\n", po.Terms.Payment)
	}
}

func (a *App) renderValidation(v models.ReceiptValidationResult) {
	a.println("Receipt validation")
	if v.Error != "" {
		a.printf("  Error: %s\n", v.Error)
		return
	}
	a.printf("  Confidence: %.0f%%\n", v.ConfidenceScore*100)
	if v.Summary != "" {
		a.printf("  Summary:    %s\n", v.Summary)
	}
	for _, d := range v.Discrepancies {
		a.printf("  - %s: %s\n", d.Type, d.Description)
	}
}

func link(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func ellipsis(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
