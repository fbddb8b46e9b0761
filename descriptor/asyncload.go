package descriptor

import (
	"context"
	"io"

	"github.com/worldiety/packfs/internal/packerr"
)

// Future is the handle returned by BeginLoad. The Catalog it eventually
// carries is not observable through any field access before Finish
// returns it: the result travels over a buffered channel, so there is no
// window in which a caller could see a half-populated Catalog.
type Future struct {
	done chan loadResult
}

type loadResult struct {
	catalog *Catalog
	err     error
}

// BeginLoad starts loader.Load on r in its own goroutine and returns
// immediately with a Future the caller can Finish later, possibly from a
// different goroutine than the one that called BeginLoad.
func BeginLoad(ctx context.Context, loader Loader, r io.Reader) *Future {
	f := &Future{done: make(chan loadResult, 1)}
	go func() {
		catalog, err := loader.Load(ctx, r)
		f.done <- loadResult{catalog: catalog, err: err}
		close(f.done)
	}()
	return f
}

// Finish blocks until the load completes or ctx is done, whichever comes
// first. Calling Finish more than once returns packerr.Cancelled on every
// call after the first, since the result channel is drained exactly once.
func (f *Future) Finish(ctx context.Context) (*Catalog, error) {
	select {
	case res, ok := <-f.done:
		if !ok {
			return nil, packerr.Cancelled(nil)
		}
		return res.catalog, res.err
	case <-ctx.Done():
		return nil, packerr.Cancelled(ctx.Err())
	}
}
