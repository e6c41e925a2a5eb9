package format

import (
	"strings"

	"github.com/dmitrijs2005/procura/internal/client/models"
)

// StatusLabel is the human label for a status or the "ALL" filter.
func StatusLabel(status string) string {
	switch strings.ToUpper(status) {
	case "ALL":
		return "All Statuses"
	case string(models.StatusPending):
		return "Pending"
	case string(models.StatusApproved):
		return "Approved"
	case string(models.StatusRejected):
		return "Rejected"
	}
	return status
}

// PageTitle is the dashboard heading for the signed-in role.
func PageTitle(id *models.Identity) string {
	if id != nil {
		switch id.Role {
		case models.RoleStaff:
			return "My Spend Requests"
		case models.RoleFinance:
			return "Approved Requests"
		}
	}
	return "Approval Queue"
}

// ValidationLabel describes a receipt validation status.
func ValidationLabel(s *models.ValidationStatus) string {
	if s == nil {
		return "Not submitted"
	}
	switch *s {
	case models.ValidationValid:
		return "Validated"
	case models.ValidationInvalid:
		return "Discrepancies found"
	case models.ValidationError:
		return "Validation failed"
	}
	return "Validation pending"
}
