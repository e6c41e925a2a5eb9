// Package services contains the request actions of the procurement client:
// who may do what to a request, and what the user is told afterwards.
package services

import "github.com/dmitrijs2005/procura/internal/client/models"

func hasRole(user *models.Identity, r models.Role) bool {
	return user != nil && user.Role == r
}

// CanApprove: managers, pending requests.
func CanApprove(user *models.Identity, req models.PurchaseRequest) bool {
	return hasRole(user, models.RoleManagement) && req.Status.Normalize() == models.StatusPending
}

func CanReject(user *models.Identity, req models.PurchaseRequest) bool {
	return CanApprove(user, req)
}

// CanUploadReceipt: staff, approved requests that have no receipt yet.
func CanUploadReceipt(user *models.Identity, req models.PurchaseRequest) bool {
	return hasRole(user, models.RoleStaff) && req.Status.Normalize() == models.StatusApproved && !req.HasReceipt()
}

// CanEdit: the requester, while the request is pending.
func CanEdit(user *models.Identity, req models.PurchaseRequest) bool {
	return user != nil && user.ID != "" && user.ID == req.RequesterDetails.ID && req.Status.Normalize() == models.StatusPending
}

// CanCreate: staff only.
func CanCreate(user *models.Identity) bool {
	return hasRole(user, models.RoleStaff)
}
