package view

import (
	"context"
	"sync"

	"vehiclemodels/internal/catalog"
	"vehiclemodels/internal/core"
)

// ModelListView fetches the vehicle model list once per mount and renders it
// as a table. All methods are safe for concurrent use.
type ModelListView struct {
	fetcher core.ModelsFetcher
	logger  core.Logger

	mu         sync.RWMutex
	state      State
	mounted    bool
	settled    bool
	generation uint64
	cancel     context.CancelFunc
	done       chan struct{}
}

// New creates an unmounted view that loads its data through fetcher.
func New(fetcher core.ModelsFetcher, logger core.Logger) *ModelListView {
	if logger == nil {
		logger = &core.NopLogger{}
	}
	return &ModelListView{
		fetcher: fetcher,
		logger:  logger,
	}
}

// Mount resets the state to Loading and starts the single fetch for this
// mount. The fetch is bound to a context derived from ctx and cancelled by
// Unmount.
func (v *ModelListView) Mount(ctx context.Context) error {
	v.mu.Lock()
	if v.mounted {
		v.mu.Unlock()
		return core.ErrAlreadyMounted
	}

	fetchCtx, cancel := context.WithCancel(ctx)
	v.generation++
	gen := v.generation
	v.mounted = true
	v.settled = false
	v.cancel = cancel
	v.done = make(chan struct{})
	v.state = State{Status: StatusLoading}
	v.mu.Unlock()

	go func() {
		defer cancel()
		res := v.fetcher.FetchModels(fetchCtx)
		if !v.settle(gen, res) {
			v.logger.Debug("Dropped late fetch result for view generation %d", gen)
		}
	}()
	return nil
}

// HandleResponse decodes a raw models response and settles the current mount
// with it. A malformed body or a missing "models" field settles the view as
// Failed.
func (v *ModelListView) HandleResponse(body []byte) error {
	v.mu.RLock()
	mounted, gen := v.mounted, v.generation
	v.mu.RUnlock()
	if !mounted {
		return core.ErrNotMounted
	}

	models, err := catalog.DecodeModelsResponse(body)
	if err != nil {
		v.settle(gen, core.Failure(err))
		return nil
	}
	v.settle(gen, core.Success(models))
	return nil
}

// settle replaces the state wholesale with res if gen is still the active,
// unsettled mount. It reports whether the result was applied.
func (v *ModelListView) settle(gen uint64, res core.Result) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.mounted || v.settled || gen != v.generation {
		return false
	}
	v.state = stateFromResult(res)
	v.settled = true
	close(v.done)

	if res.Err != nil {
		v.logger.Debug("View settled as failed: %v", res.Err)
	}
	return true
}

// Unmount cancels an in-flight fetch and discards the state. Results that
// arrive afterwards are ignored. Unmounting an idle view is a no-op.
func (v *ModelListView) Unmount() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.mounted {
		return
	}
	v.cancel()
	if !v.settled {
		v.settled = true
		close(v.done)
	}
	v.mounted = false
	v.generation++
	v.state = State{}
}

// Mounted reports whether the view is currently mounted.
func (v *ModelListView) Mounted() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.mounted
}

// Wait blocks until the current mount settles, the view is unmounted, or ctx
// ends, and returns the state at that point.
func (v *ModelListView) Wait(ctx context.Context) (State, error) {
	v.mu.RLock()
	if !v.mounted {
		v.mu.RUnlock()
		return State{}, core.ErrNotMounted
	}
	done, gen := v.done, v.generation
	v.mu.RUnlock()

	select {
	case <-done:
	case <-ctx.Done():
		return v.Snapshot(), ctx.Err()
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	if gen != v.generation {
		return State{}, core.ErrUnmounted
	}
	return v.state.clone(), nil
}

// Snapshot returns a copy of the current state.
func (v *ModelListView) Snapshot() State {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state.clone()
}
