package world

import "context"

// TileFuture is the handle for an in-flight tile load. It resolves exactly
// once; all methods are safe for concurrent use.
type TileFuture struct {
	result TileData
	done   chan struct{}
}

func newTileFuture() *TileFuture {
	return &TileFuture{done: make(chan struct{})}
}

// complete stores the result and releases every waiter. Called exactly once
// by the producing goroutine.
func (f *TileFuture) complete(data TileData) {
	f.result = data
	close(f.done)
}

// Done reports whether the result is available.
func (f *TileFuture) Done() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Poll returns the result without blocking. The second return is false
// while the load is still running.
func (f *TileFuture) Poll() (TileData, bool) {
	select {
	case <-f.done:
		return f.result, true
	default:
		return TileData{}, false
	}
}

// Wait blocks until the result is available or the context is cancelled.
func (f *TileFuture) Wait(ctx context.Context) (TileData, error) {
	select {
	case <-f.done:
		return f.result, nil
	case <-ctx.Done():
		return TileData{}, ctx.Err()
	}
}
