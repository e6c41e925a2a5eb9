package dashboard

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/procura/internal/client/models"
)

// StatusFilter is a request status or FilterAll.
type StatusFilter string

const FilterAll StatusFilter = "ALL"

// Filters lists every selectable filter in display order.
var Filters = []StatusFilter{
	FilterAll,
	StatusFilter(models.StatusPending),
	StatusFilter(models.StatusApproved),
	StatusFilter(models.StatusRejected),
}

// ParseStatusFilter accepts a status name in any case, "all" or "".
func ParseStatusFilter(s string) (StatusFilter, error) {
	f := StatusFilter(strings.ToUpper(strings.TrimSpace(s)))
	if f == "" {
		return FilterAll, nil
	}
	for _, known := range Filters {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown status filter %q", s)
}

// Apply returns the requests visible under filter and their count. Finance
// users only ever see approved requests.
func Apply(list []models.PurchaseRequest, filter StatusFilter, isFinance bool) ([]models.PurchaseRequest, int) {
	out := make([]models.PurchaseRequest, 0, len(list))
	for _, r := range list {
		status := r.Status.Normalize()
		if isFinance && status != models.StatusApproved {
			continue
		}
		if filter != FilterAll && StatusFilter(status) != filter {
			continue
		}
		out = append(out, r)
	}
	return out, len(out)
}

// Selection is the status currently selected on the dashboard.
type Selection struct {
	mu     sync.RWMutex
	status StatusFilter
}

func NewSelection() *Selection {
	return &Selection{status: FilterAll}
}

func (s *Selection) Status() StatusFilter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Selection) SetStatus(f StatusFilter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = f
}

// Apply filters list with the selected status.
func (s *Selection) Apply(list []models.PurchaseRequest, isFinance bool) ([]models.PurchaseRequest, int) {
	return Apply(list, s.Status(), isFinance)
}
