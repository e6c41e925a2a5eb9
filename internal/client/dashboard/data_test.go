package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dmitrijs2005/procura/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listResult struct {
	list []models.PurchaseRequest
	err  error
}

// seqLister blocks each List call until its result is released, so tests
// can control the order in which responses arrive.
type seqLister struct {
	mu      sync.Mutex
	calls   int
	gates   []chan listResult
	started chan int
}

func newSeqLister(n int) *seqLister {
	s := &seqLister{started: make(chan int, n)}
	for i := 0; i < n; i++ {
		s.gates = append(s.gates, make(chan listResult, 1))
	}
	return s
}

func (s *seqLister) List(ctx context.Context) ([]models.PurchaseRequest, error) {
	s.mu.Lock()
	idx := s.calls
	s.calls++
	s.mu.Unlock()

	s.started <- idx
	select {
	case r := <-s.gates[idx]:
		return r.list, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *seqLister) release(idx int, r listResult) { s.gates[idx] <- r }

func requests(n int) []models.PurchaseRequest {
	out := make([]models.PurchaseRequest, n)
	for i := range out {
		out[i] = models.PurchaseRequest{ID: string(rune('a' + i)), Status: models.StatusPending}
	}
	return out
}

type stubLister struct {
	mu    sync.Mutex
	list  []models.PurchaseRequest
	err   error
	calls int
}

func (s *stubLister) List(context.Context) ([]models.PurchaseRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.list, s.err
}

func TestData_InitialState(t *testing.T) {
	d := New(&stubLister{})
	assert.True(t, d.Loading())
	assert.NoError(t, d.Err())
	assert.Empty(t, d.Requests())
}

func TestData_FetchReplacesCache(t *testing.T) {
	api := &stubLister{list: requests(3)}
	d := New(api)

	require.NoError(t, d.Fetch(context.Background()))
	assert.False(t, d.Loading())
	assert.Len(t, d.Requests(), 3)

	api.list = requests(1)
	require.NoError(t, d.Fetch(context.Background()))
	assert.Len(t, d.Requests(), 1)
}

func TestData_FailureKeepsCache(t *testing.T) {
	api := &stubLister{list: requests(2)}
	d := New(api)
	require.NoError(t, d.Fetch(context.Background()))

	boom := errors.New("boom")
	api.err = boom

	require.ErrorIs(t, d.Fetch(context.Background()), boom)
	assert.ErrorIs(t, d.Err(), boom)
	assert.False(t, d.Loading())
	assert.Len(t, d.Requests(), 2)

	require.ErrorIs(t, d.Refresh(context.Background()), boom)
	assert.Len(t, d.Requests(), 2)

	api.err = nil
	require.NoError(t, d.Refresh(context.Background()))
	assert.NoError(t, d.Err())
}

func TestData_RefreshDoesNotTouchLoading(t *testing.T) {
	api := &stubLister{list: requests(1)}
	d := New(api)

	require.NoError(t, d.Refresh(context.Background()))
	assert.True(t, d.Loading())
	assert.Len(t, d.Requests(), 1)
}

func TestData_MountFetchesOnce(t *testing.T) {
	api := &stubLister{list: requests(1)}
	d := New(api)

	d.Mount(context.Background())
	d.Mount(context.Background())
	d.Mount(context.Background())

	assert.Equal(t, 1, api.calls)
	assert.False(t, d.Loading())
}

func TestData_LastResponseWins(t *testing.T) {
	api := newSeqLister(2)
	d := New(api)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = d.Refresh(ctx)
	}()
	require.Equal(t, 0, <-api.started)

	fetchDone := make(chan struct{})
	go func() {
		defer close(fetchDone)
		_ = d.Fetch(ctx)
	}()
	require.Equal(t, 1, <-api.started)

	api.release(1, listResult{list: requests(3)})
	<-fetchDone
	assert.Len(t, d.Requests(), 3)

	api.release(0, listResult{list: requests(2)})
	wg.Wait()
	assert.Len(t, d.Requests(), 2)
}

func TestData_SequenceGuardDropsStaleResponse(t *testing.T) {
	api := newSeqLister(2)
	d := New(api, WithSequenceGuard())
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = d.Refresh(ctx)
	}()
	require.Equal(t, 0, <-api.started)

	fetchDone := make(chan struct{})
	go func() {
		defer close(fetchDone)
		_ = d.Fetch(ctx)
	}()
	require.Equal(t, 1, <-api.started)

	api.release(1, listResult{list: requests(3)})
	<-fetchDone

	api.release(0, listResult{err: errors.New("late failure")})
	wg.Wait()

	assert.Len(t, d.Requests(), 3)
	assert.NoError(t, d.Err())
}

func TestData_Find(t *testing.T) {
	api := &stubLister{list: []models.PurchaseRequest{
		{ID: "3f2a9c10-aaaa"},
		{ID: "3f2b0000-bbbb"},
		{ID: "9e000000-cccc"},
	}}
	d := New(api)
	require.NoError(t, d.Fetch(context.Background()))

	r, ok := d.Find("9e")
	require.True(t, ok)
	assert.Equal(t, "9e000000-cccc", r.ID)

	r, ok = d.Find("3f2b0000-bbbb")
	require.True(t, ok)
	assert.Equal(t, "3f2b0000-bbbb", r.ID)

	_, ok = d.Find("3f2")
	assert.False(t, ok, "ambiguous prefix")

	_, ok = d.Find("zz")
	assert.False(t, ok)

	_, ok = d.Find("")
	assert.False(t, ok)
}
