package library

import (
	"context"
	"sync"

	"booklib/internal/resolve"
)

// View owns the resolutions started on behalf of one screen. Once disposed,
// results of in-flight resolutions are dropped instead of applied.
type View struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	disposed bool
	wg       sync.WaitGroup

	// applyMu serializes apply callbacks. It is never held together with mu.
	applyMu sync.Mutex
}

// NewView creates a view bound to parent.
func NewView(parent context.Context) *View {
	ctx, cancel := context.WithCancel(parent)
	return &View{ctx: ctx, cancel: cancel}
}

// Load runs load in the background and hands its outcome to apply, unless the
// view was disposed first. Applies run one at a time. apply may call Load to
// refresh the view, but it must not call Dispose or Wait.
func (v *View) Load(load func(ctx context.Context) (resolve.Result, error), apply func(resolve.Result, error)) {
	v.mu.Lock()
	if v.disposed {
		v.mu.Unlock()
		return
	}
	v.wg.Add(1)
	v.mu.Unlock()

	go func() {
		defer v.wg.Done()
		res, err := load(v.ctx)

		v.applyMu.Lock()
		defer v.applyMu.Unlock()
		if v.Disposed() {
			return
		}
		apply(res, err)
	}()
}

// Wait blocks until every started load has finished.
func (v *View) Wait() {
	v.wg.Wait()
}

// Dispose cancels in-flight loads and suppresses their results. It waits for
// the background work to exit.
func (v *View) Dispose() {
	v.mu.Lock()
	v.disposed = true
	v.mu.Unlock()

	v.cancel()
	v.wg.Wait()
}

// Disposed reports whether Dispose was called.
func (v *View) Disposed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.disposed
}
