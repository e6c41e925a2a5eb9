package dashboard

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/procura/internal/client/models"
	"github.com/dmitrijs2005/procura/internal/logging"
)

// Lister is the part of the API client Data depends on.
type Lister interface {
	List(ctx context.Context) ([]models.PurchaseRequest, error)
}

type Data struct {
	api    Lister
	logger logging.Logger
	guard  bool

	issued atomic.Uint64
	mount  sync.Once

	mu       sync.RWMutex
	requests []models.PurchaseRequest
	loading  bool
	err      error
	applied  uint64
}

type Option func(*Data)

// WithSequenceGuard makes Data drop responses to fetches that were issued
// before the one whose result is currently applied.
func WithSequenceGuard() Option {
	return func(d *Data) { d.guard = true }
}

func WithLogger(l logging.Logger) Option {
	return func(d *Data) { d.logger = l }
}

// New returns Data in its initial state: empty, loading, no error.
func New(api Lister, opts ...Option) *Data {
	d := &Data{
		api:      api,
		logger:   logging.Discard(),
		requests: []models.PurchaseRequest{},
		loading:  true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Mount fetches the list the first time it is called and does nothing after
// that.
func (d *Data) Mount(ctx context.Context) {
	d.mount.Do(func() {
		_ = d.Fetch(ctx)
	})
}

// Fetch loads the list with the loading flag raised.
func (d *Data) Fetch(ctx context.Context) error {
	d.mu.Lock()
	d.loading = true
	d.err = nil
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.loading = false
		d.mu.Unlock()
	}()

	return d.load(ctx, "Failed to load requests")
}

// Refresh loads the list without touching the loading flag.
func (d *Data) Refresh(ctx context.Context) error {
	return d.load(ctx, "Failed to refresh requests")
}

func (d *Data) load(ctx context.Context, failure string) error {
	seq := d.issued.Add(1)
	list, err := d.api.List(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.guard && seq < d.applied {
		d.logger.Debug(ctx, "dropping stale response", "seq", seq, "applied", d.applied)
		return nil
	}
	d.applied = seq

	if err != nil {
		d.logger.Error(ctx, failure, "error", err)
		d.err = err
		return err
	}

	d.requests = list
	d.err = nil
	return nil
}

// Requests returns a copy of the cached list.
func (d *Data) Requests() []models.PurchaseRequest {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]models.PurchaseRequest, len(d.requests))
	copy(out, d.requests)
	return out
}

func (d *Data) Loading() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loading
}

// Err is the error of the last applied fetch, or nil.
func (d *Data) Err() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.err
}

// Find returns the cached request whose id equals ref or, failing that, the
// single one whose id starts with ref.
func (d *Data) Find(ref string) (models.PurchaseRequest, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var match *models.PurchaseRequest
	for i := range d.requests {
		id := d.requests[i].ID
		if id == ref {
			return d.requests[i], true
		}
		if ref != "" && strings.HasPrefix(id, ref) {
			if match != nil {
				return models.PurchaseRequest{}, false
			}
			match = &d.requests[i]
		}
	}
	if match == nil {
		return models.PurchaseRequest{}, false
	}
	return *match, true
}
