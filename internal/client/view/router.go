// Package view tracks which screen the CLI is showing.
package view

import "sync"

type View string

const (
	Login     View = "login"
	Dashboard View = "dashboard"
	Detail    View = "detail"
)

// Router holds the current view. Private views redirect to Login while the
// session is anonymous and Login redirects to Dashboard once authenticated.
type Router struct {
	mu        sync.RWMutex
	current   View
	param     string
	authed    func() bool
	listeners []func(View)
}

func NewRouter(start View) *Router {
	return &Router{current: start}
}

// Guard sets the predicate used to decide whether private views are reachable.
func (r *Router) Guard(authenticated func() bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.authed = authenticated
}

// OnChange registers fn to be called after every effective view change.
func (r *Router) OnChange(fn func(View)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

func (r *Router) Current() View {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Param is the argument of the current view, such as the request id shown
// in Detail.
func (r *Router) Param() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.param
}

// Navigate moves to v and returns the view actually shown after guards.
func (r *Router) Navigate(v View) View {
	return r.Open(v, "")
}

func (r *Router) Open(v View, param string) View {
	r.mu.RLock()
	authed := r.authed
	r.mu.RUnlock()

	if authed != nil {
		ok := authed()
		switch {
		case v != Login && !ok:
			v, param = Login, ""
		case v == Login && ok:
			v, param = Dashboard, ""
		}
	}
	if v == "" {
		v = Dashboard
	}

	r.mu.Lock()
	changed := r.current != v || r.param != param
	r.current, r.param = v, param
	listeners := append([]func(View){}, r.listeners...)
	r.mu.Unlock()

	if changed {
		for _, fn := range listeners {
			fn(v)
		}
	}
	return v
}
