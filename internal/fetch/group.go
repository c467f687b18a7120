// Package fetch coordinates the concurrent upstream calls that feed one view.
package fetch

import (
	"context"

	"commerce-dashboard/internal/util"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Status tells a view whether a section has data, has no data, or could not be fetched.
type Status string

const (
	StatusOK    Status = "ok"
	StatusEmpty Status = "empty"
	StatusError Status = "error"
)

// Section is the outcome of one list call in a fetch group.
type Section[T any] struct {
	Status Status `json:"status"`
	Items  []T    `json:"items"`
	Error  string `json:"error,omitempty"`

	err error
}

// Err returns the failure behind an error status.
func (s *Section[T]) Err() error {
	return s.err
}

func (s *Section[T]) Failed() bool {
	return s.Status == StatusError
}

func (s *Section[T]) set(items []T, err error) {
	if err != nil {
		s.Status = StatusError
		s.Error = err.Error()
		s.Items = []T{}
		s.err = err
		return
	}
	if len(items) == 0 {
		s.Status = StatusEmpty
		s.Items = []T{}
		return
	}
	s.Status = StatusOK
	s.Items = items
}

// Value is the outcome of one scalar call in a fetch group.
type Value[T any] struct {
	Status Status `json:"status"`
	Value  T      `json:"value"`
	Error  string `json:"error,omitempty"`

	err error
}

func (v *Value[T]) Err() error {
	return v.err
}

func (v *Value[T]) Failed() bool {
	return v.Status == StatusError
}

// Group runs the upstream calls of one view concurrently and joins them. A
// failing call only affects its own section.
type Group struct {
	ctx    context.Context
	view   string
	eg     errgroup.Group
	logger *zap.Logger
}

// NewGroup creates a fetch group bound to the lifetime of ctx.
func NewGroup(ctx context.Context, view string) *Group {
	return &Group{
		ctx:    ctx,
		view:   view,
		logger: util.GetLogger(),
	}
}

// List schedules a list call. The returned section is populated once Wait returns.
func List[T any](g *Group, section string, fn func(ctx context.Context) ([]T, error)) *Section[T] {
	s := &Section[T]{Status: StatusEmpty, Items: []T{}}
	g.eg.Go(func() error {
		items, err := fn(g.ctx)
		s.set(items, err)
		g.record(section, s.Status, err)
		return nil
	})
	return s
}

// One schedules a scalar call such as a count.
func One[T any](g *Group, section string, fn func(ctx context.Context) (T, error)) *Value[T] {
	v := &Value[T]{Status: StatusOK}
	g.eg.Go(func() error {
		value, err := fn(g.ctx)
		if err != nil {
			v.Status = StatusError
			v.Error = err.Error()
			v.err = err
		} else {
			v.Value = value
		}
		g.record(section, v.Status, err)
		return nil
	})
	return v
}

// Wait blocks until every call has settled. It returns the context error when the
// group was cancelled, in which case the sections must be discarded.
func (g *Group) Wait() error {
	_ = g.eg.Wait()
	return g.ctx.Err()
}

func (g *Group) record(section string, status Status, err error) {
	util.FetchSectionsTotal.WithLabelValues(g.view, section, string(status)).Inc()
	if err != nil && g.ctx.Err() == nil {
		g.logger.Warn("Fetch section failed",
			zap.String("view", g.view),
			zap.String("section", section),
			zap.Error(err))
	}
}

// Then derives a section from a settled one. An error status carries over unchanged.
func Then[T, U any](s *Section[T], fn func([]T) ([]U, error)) *Section[U] {
	out := &Section[U]{}
	if s.Failed() {
		out.set(nil, s.err)
		return out
	}
	out.set(fn(s.Items))
	return out
}
