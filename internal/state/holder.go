// Package state holds what a front end renders: the current snapshot, the
// active screen and the active filter. Every successful mutating intent is
// followed by a full resync from the store.
package state

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"fintrack/internal/core"
)

type Screen string

const (
	ScreenOperations Screen = "operations"
	ScreenCategories Screen = "categories"
	ScreenSummary    Screen = "summary"
)

func ParseScreen(s string) (Screen, error) {
	switch Screen(strings.ToLower(strings.TrimSpace(s))) {
	case ScreenOperations:
		return ScreenOperations, nil
	case ScreenCategories:
		return ScreenCategories, nil
	case ScreenSummary:
		return ScreenSummary, nil
	}
	return "", fmt.Errorf("unknown screen %q", s)
}

// Service is the subset of services.FinanceService the holder drives.
type Service interface {
	Snapshot(ctx context.Context, from, to core.Date) (core.Snapshot, error)
	AddOperation(ctx context.Context, op core.Operation) (core.Operation, error)
	UpdateOperation(ctx context.Context, op core.Operation) error
	DeleteOperation(ctx context.Context, id int64, kind core.Kind) error
	AddCategory(ctx context.Context, name string, kind core.Kind) (core.Category, error)
	DeleteCategory(ctx context.Context, name string, kind core.Kind) error
}

// View is a consistent copy of the holder's state. The snapshot must be
// treated as read-only.
type View struct {
	Screen   Screen
	Filter   Filter
	Snapshot core.Snapshot
}

type Holder struct {
	svc Service
	now func() time.Time

	mu       sync.Mutex
	screen   Screen
	filter   Filter
	snapshot core.Snapshot
}

type Option func(*Holder)

// WithClock replaces time.Now for named filters.
func WithClock(now func() time.Time) Option {
	return func(h *Holder) { h.now = now }
}

func NewHolder(svc Service, opts ...Option) *Holder {
	h := &Holder{
		svc:    svc,
		now:    time.Now,
		screen: ScreenOperations,
		filter: Filter{Name: FilterAll},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Load performs the initial sync.
func (h *Holder) Load(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.resync(ctx, h.filter)
}

// Refresh re-reads the store under the active filter, picking up changes
// made by other processes.
func (h *Holder) Refresh(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.resync(ctx, h.filter)
}

func (h *Holder) State() View {
	h.mu.Lock()
	defer h.mu.Unlock()
	return View{Screen: h.screen, Filter: h.filter, Snapshot: h.snapshot}
}

// FilterNamed resolves a named filter against the holder's clock.
func (h *Holder) FilterNamed(name string) (Filter, error) {
	return NamedFilter(name, h.now())
}

// Peek builds a view under f without changing the active filter or
// snapshot.
func (h *Holder) Peek(ctx context.Context, f Filter) (View, error) {
	snap, err := h.svc.Snapshot(ctx, f.From, f.To)
	if err != nil {
		return View{}, err
	}

	h.mu.Lock()
	screen := h.screen
	h.mu.Unlock()
	return View{Screen: screen, Filter: f, Snapshot: snap}, nil
}

func (h *Holder) Navigate(screen Screen) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.screen = screen
}

// ApplyFilter switches to a named filter. On failure the previous filter
// and snapshot stay in place.
func (h *Holder) ApplyFilter(ctx context.Context, name string) error {
	f, err := NamedFilter(name, h.now())
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.resync(ctx, f)
}

func (h *Holder) ApplyRange(ctx context.Context, from, to core.Date) error {
	f, err := RangeFilter(from, to)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.resync(ctx, f)
}

func (h *Holder) AddOperation(ctx context.Context, op core.Operation) (core.Operation, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	added, err := h.svc.AddOperation(ctx, op)
	if err != nil {
		return core.Operation{}, err
	}
	return added, h.resync(ctx, h.filter)
}

func (h *Holder) EditOperation(ctx context.Context, op core.Operation) error {
	return h.mutate(ctx, func() error { return h.svc.UpdateOperation(ctx, op) })
}

func (h *Holder) DeleteOperation(ctx context.Context, id int64, kind core.Kind) error {
	return h.mutate(ctx, func() error { return h.svc.DeleteOperation(ctx, id, kind) })
}

func (h *Holder) AddCategory(ctx context.Context, name string, kind core.Kind) (core.Category, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, err := h.svc.AddCategory(ctx, name, kind)
	if err != nil {
		return core.Category{}, err
	}
	return c, h.resync(ctx, h.filter)
}

func (h *Holder) DeleteCategory(ctx context.Context, name string, kind core.Kind) error {
	return h.mutate(ctx, func() error { return h.svc.DeleteCategory(ctx, name, kind) })
}

func (h *Holder) mutate(ctx context.Context, fn func() error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := fn(); err != nil {
		return err
	}
	return h.resync(ctx, h.filter)
}

// resync rebuilds the snapshot under f and commits both only on success.
// Caller must hold mu.
func (h *Holder) resync(ctx context.Context, f Filter) error {
	snap, err := h.svc.Snapshot(ctx, f.From, f.To)
	if err != nil {
		slog.WarnContext(ctx, "Snapshot resync failed, keeping previous state", "filter", f.Name, "error", err)
		return fmt.Errorf("resync: %w", err)
	}
	h.filter = f
	h.snapshot = snap
	return nil
}
