package server

import (
	"context"
	"time"

	"vehiclemodels/internal/cache"
	"vehiclemodels/internal/core"
	"vehiclemodels/internal/view"

	"github.com/google/uuid"
)

// viewRegistry keeps asynchronously mounted views addressable by ID. A view
// leaving the registry for any reason is unmounted.
type viewRegistry struct {
	views  *cache.LRUCache
	ttl    time.Duration
	logger core.Logger
}

func newViewRegistry(ttl time.Duration, logger core.Logger) *viewRegistry {
	if ttl <= 0 {
		ttl = core.DefaultViewTTL
	}
	r := &viewRegistry{ttl: ttl, logger: logger}
	r.views = cache.NewCache(
		cache.WithCapacity(core.CacheDefaultCapacity),
		cache.WithCleanupInterval(min(ttl, core.CacheCleanupInterval)),
		cache.WithEvictHandler(r.onEvict),
	)
	return r
}

func (r *viewRegistry) onEvict(id string, value any, reason cache.EvictReason) {
	v, ok := value.(*view.ModelListView)
	if !ok {
		return
	}
	v.Unmount()
	r.logger.Debug("Unmounted view %s (%s)", id, reason)
}

// mount creates a view, starts its fetch bound to ctx and registers it.
func (r *viewRegistry) mount(ctx context.Context, fetcher core.ModelsFetcher) (string, *view.ModelListView, error) {
	v := view.New(fetcher, r.logger)
	if err := v.Mount(ctx); err != nil {
		return "", nil, err
	}
	id := uuid.NewString()
	r.views.Set(id, v, r.ttl)
	return id, v, nil
}

func (r *viewRegistry) get(id string) (*view.ModelListView, error) {
	value, ok := r.views.Get(id)
	if !ok {
		return nil, core.ErrViewNotFound
	}
	v, ok := value.(*view.ModelListView)
	if !ok {
		return nil, core.ErrViewNotFound
	}
	return v, nil
}

// remove unmounts and forgets the view. It returns core.ErrViewNotFound for
// unknown or expired IDs.
func (r *viewRegistry) remove(id string) error {
	if !r.views.Delete(id) {
		return core.ErrViewNotFound
	}
	return nil
}

// list returns the registered view IDs, most recently used first.
func (r *viewRegistry) list() []string {
	return r.views.Keys()
}

func (r *viewRegistry) len() int {
	return r.views.Len()
}

func (r *viewRegistry) close() {
	r.views.Stop()
	r.views.Clear()
}
