package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/procura/internal/client/client"
	"github.com/dmitrijs2005/procura/internal/client/models"
	"github.com/dmitrijs2005/procura/internal/client/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList_RendersTableWithFilter(t *testing.T) {
	app := newTestApp(t, &manager, "")
	ctx := context.Background()

	require.NoError(t, app.List(ctx, []string{"pending"}))

	out := app.out.String()
	assert.Contains(t, out, "Approval Queue (1, Pending)")
	assert.Contains(t, out, "a1b2c3d4")
	assert.Contains(t, out, "RWF 1,500,000")
	assert.Contains(t, out, "2 hours ago")
	assert.NotContains(t, out, "Printer toner")
	assert.Equal(t, view.Dashboard, app.router.Current())
}

func TestList_FinanceSeesApprovedOnly(t *testing.T) {
	app := newTestApp(t, &finance, "")
	require.NoError(t, app.List(context.Background(), nil))

	out := app.out.String()
	assert.Contains(t, out, "Approved Requests (1, All Statuses)")
	assert.Contains(t, out, "Printer toner")
	assert.NotContains(t, out, "Office chairs")
}

func TestList_EmptyAndErrors(t *testing.T) {
	app := newTestApp(t, &staff, "")
	require.NoError(t, app.List(context.Background(), []string{"rejected"}))
	assert.Contains(t, app.out.String(), "No requests found")

	app = newTestApp(t, &staff, "")
	require.Error(t, app.List(context.Background(), []string{"archived"}))
	assert.Contains(t, app.out.String(), "Unknown status.")
	assert.Equal(t, 0, app.api.listCalls())

	app = newTestApp(t, &staff, "")
	app.api.listErr = errors.Join(client.ErrUnavailable, errors.New("dial tcp"))
	require.Error(t, app.List(context.Background(), nil))
	assert.Contains(t, app.out.String(), "Failed to load requests.")
	assert.Contains(t, app.out.String(), "Server unavailable")
}

func TestList_MountsOnce(t *testing.T) {
	app := newTestApp(t, &staff, "")
	ctx := context.Background()
	require.NoError(t, app.List(ctx, nil))
	require.NoError(t, app.List(ctx, []string{"all"}))
	assert.Equal(t, 1, app.api.listCalls())

	require.NoError(t, app.Refresh(ctx))
	assert.Equal(t, 2, app.api.listCalls())
}

func TestShow_RendersDetailAndActions(t *testing.T) {
	app := newTestApp(t, &manager, "")
	p := pendingRequest()
	po := "https://files.example/po.pdf"
	p.PurchaseOrder = &po
	p.Logs = []models.ApprovalLog{{Action: "created", ApproverName: "Sam Staff"}}
	app.api.byID[p.ID] = p

	require.NoError(t, app.Show(context.Background(), []string{p.ID}))

	out := app.out.String()
	assert.Contains(t, out, "Office chairs")
	assert.Contains(t, out, "Requester:   Sam Staff")
	assert.Contains(t, out, po)
	assert.Contains(t, out, "created by Sam Staff")
	assert.Contains(t, out, "Actions: approve, reject")
	assert.Equal(t, view.Detail, app.router.Current())
	assert.Equal(t, p.ID, app.router.Param())
}

func TestShow_NotFound(t *testing.T) {
	app := newTestApp(t, &staff, "")
	err := app.Show(context.Background(), []string{"nope"})
	require.ErrorIs(t, err, client.ErrNotFound)
	assert.Contains(t, app.out.String(), "Request not found.")
}
