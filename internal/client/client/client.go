package client

import (
	"context"

	"github.com/dmitrijs2005/procura/internal/client/models"
)

// Client is the contract the rest of the application uses to talk to the
// procurement API.
type Client interface {
	Login(ctx context.Context, username, password string) (*models.AuthResponse, error)
	List(ctx context.Context) ([]models.PurchaseRequest, error)
	Get(ctx context.Context, id string) (*models.PurchaseRequest, error)
	Create(ctx context.Context, draft models.CreateDraft) (*models.PurchaseRequest, error)
	Update(ctx context.Context, id string, draft models.UpdateDraft) (*models.PurchaseRequest, error)
	Approve(ctx context.Context, id string) (*models.ApproveResult, error)
	Reject(ctx context.Context, id string) (*models.RejectResult, error)
	UploadReceipt(ctx context.Context, id string, receipt models.Attachment) (*models.ReceiptResult, error)
}

// TokenSource supplies the access token attached to outgoing calls. An
// empty token means no Authorization header is sent.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// UnauthorizedHandler reacts to a 401 on any call other than login.
type UnauthorizedHandler interface {
	HandleUnauthorized(ctx context.Context, err *APIError)
}
