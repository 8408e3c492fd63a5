package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Closer allows flushing and stopping the async handler.
type Closer interface {
	Close()
}

// nopCloser is a no-op Closer for synchronous mode.
type nopCloser struct{}

func (nopCloser) Close() {}

// asyncItem pairs a record with the inner handler it was enqueued
// through. Handlers derived via WithAttrs or WithGroup share one
// channel, so the record alone would not say which attrs apply.
type asyncItem struct {
	h   slog.Handler
	rec slog.Record
}

// AsyncHandler wraps an slog.Handler with a buffered channel and worker
// pool, so request paths never block on log output.
type AsyncHandler struct {
	inner   slog.Handler
	ch      chan asyncItem
	wg      *sync.WaitGroup
	dropped *atomic.Int64
}

// NewAsyncHandler creates an AsyncHandler with the given channel capacity and worker count.
func NewAsyncHandler(inner slog.Handler, chanSize, workers int) *AsyncHandler {
	h := &AsyncHandler{
		inner:   inner,
		ch:      make(chan asyncItem, chanSize),
		wg:      &sync.WaitGroup{},
		dropped: &atomic.Int64{},
	}
	for range workers {
		h.wg.Add(1)
		go h.drain()
	}
	return h
}

func (h *AsyncHandler) drain() {
	defer h.wg.Done()
	for it := range h.ch {
		_ = it.h.Handle(context.Background(), it.rec)
	}
}

// Enabled delegates to the inner handler.
func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle enqueues the record. Drops if the channel is full. The record
// is cloned because it outlives this call.
func (h *AsyncHandler) Handle(_ context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	select {
	case h.ch <- asyncItem{h: h.inner, rec: rec.Clone()}:
	default:
		h.dropped.Add(1)
	}
	return nil
}

// WithAttrs returns a derived handler sharing the same channel and
// worker pool; only the inner handler carries the new attrs.
func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{
		inner:   h.inner.WithAttrs(attrs),
		ch:      h.ch,
		wg:      h.wg,
		dropped: h.dropped,
	}
}

// WithGroup returns a derived handler sharing the same channel and
// worker pool; only the inner handler carries the group.
func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{
		inner:   h.inner.WithGroup(name),
		ch:      h.ch,
		wg:      h.wg,
		dropped: h.dropped,
	}
}

// DroppedCount returns the number of dropped records.
func (h *AsyncHandler) DroppedCount() int64 {
	return h.dropped.Load()
}

// Close closes the channel and waits for all workers to drain. Close
// only the root handler, never a derived one; they share the channel.
func (h *AsyncHandler) Close() {
	close(h.ch)
	h.wg.Wait()
}
