package view

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"vehiclemodels/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedFetcher blocks every fetch until a result is pushed on results or the
// fetch context ends.
type gatedFetcher struct {
	results chan core.Result

	mu      sync.Mutex
	calls   int
	ctxErrs []error
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{results: make(chan core.Result, 4)}
}

func (f *gatedFetcher) FetchModels(ctx context.Context) core.Result {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	select {
	case res := <-f.results:
		return res
	case <-ctx.Done():
		f.mu.Lock()
		f.ctxErrs = append(f.ctxErrs, ctx.Err())
		f.mu.Unlock()
		return core.Failure(ctx.Err())
	}
}

func (f *gatedFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *gatedFetcher) cancelled() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ctxErrs)
}

type staticFetcher struct {
	result core.Result
}

func (f staticFetcher) FetchModels(context.Context) core.Result {
	return f.result
}

// levelLogger counts log calls per level.
type levelLogger struct {
	core.NopLogger

	mu     sync.Mutex
	counts map[string]int
}

func (l *levelLogger) record(level string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.counts == nil {
		l.counts = make(map[string]int)
	}
	l.counts[level]++
}

func (l *levelLogger) Debug(string, ...any) { l.record("debug") }
func (l *levelLogger) Warn(string, ...any)  { l.record("warn") }
func (l *levelLogger) Error(string, ...any) { l.record("error") }

func (l *levelLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[level]
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

var sampleModels = []core.VehicleModel{
	{ID: "1", Name: "Model X", PictureURL: "http://img/x.png", Manufacturer: core.Manufacturer{Name: "Acme"}},
	{ID: "2", Name: "Model Y", PictureURL: "http://img/y.png", Manufacturer: core.Manufacturer{Name: "Globex"}},
}

func TestModelListView_InitialState(t *testing.T) {
	v := New(newGatedFetcher(), nil)
	assert.False(t, v.Mounted())
	assert.Equal(t, StatusIdle, v.Snapshot().Status)

	_, err := v.Wait(waitCtx(t))
	assert.ErrorIs(t, err, core.ErrNotMounted)
}

func TestModelListView_MountLoads(t *testing.T) {
	fetcher := newGatedFetcher()
	v := New(fetcher, &core.NopLogger{})

	require.NoError(t, v.Mount(context.Background()))
	assert.True(t, v.Mounted())
	assert.Equal(t, StatusLoading, v.Snapshot().Status)

	fetcher.results <- core.Success(sampleModels)
	state, err := v.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, StatusLoaded, state.Status)
	assert.Equal(t, sampleModels, state.Models)
	assert.Equal(t, 1, fetcher.callCount())
}

func TestModelListView_MountTwice(t *testing.T) {
	v := New(newGatedFetcher(), nil)
	require.NoError(t, v.Mount(context.Background()))
	t.Cleanup(v.Unmount)

	assert.ErrorIs(t, v.Mount(context.Background()), core.ErrAlreadyMounted)
}

func TestModelListView_FetchFailure(t *testing.T) {
	cause := errors.New("connection refused")
	v := New(staticFetcher{result: core.Failure(cause)}, nil)
	require.NoError(t, v.Mount(context.Background()))

	state, err := v.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, state.Status)
	assert.ErrorIs(t, state.Err, cause)
	assert.Empty(t, state.Models)
}

func TestModelListView_FailureLeavesWarningToFetcher(t *testing.T) {
	logger := &levelLogger{}
	v := New(staticFetcher{result: core.Failure(errors.New("status 503"))}, logger)
	require.NoError(t, v.Mount(context.Background()))
	t.Cleanup(v.Unmount)

	_, err := v.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Zero(t, logger.count("warn"))
	assert.Zero(t, logger.count("error"))
	assert.Equal(t, 1, logger.count("debug"))
}

func TestModelListView_UnmountCancelsFetch(t *testing.T) {
	fetcher := newGatedFetcher()
	v := New(fetcher, nil)
	require.NoError(t, v.Mount(context.Background()))

	ctx := waitCtx(t)
	done := make(chan error, 1)
	go func() {
		_, err := v.Wait(ctx)
		done <- err
	}()

	require.Eventually(t, func() bool { return fetcher.callCount() == 1 }, time.Second, 5*time.Millisecond)
	v.Unmount()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, core.ErrUnmounted)
	case <-time.After(time.Second):
		t.Fatal("Wait should return after Unmount")
	}

	require.Eventually(t, func() bool { return fetcher.cancelled() == 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, v.Mounted())
	assert.Equal(t, StatusIdle, v.Snapshot().Status)
}

func TestModelListView_LateResultIgnored(t *testing.T) {
	v := New(newGatedFetcher(), nil)
	require.NoError(t, v.Mount(context.Background()))

	v.mu.RLock()
	staleGen := v.generation
	v.mu.RUnlock()

	v.Unmount()
	assert.False(t, v.settle(staleGen, core.Success(sampleModels)))
	assert.Equal(t, StatusIdle, v.Snapshot().Status)
	assert.Nil(t, v.Snapshot().Models)
}

func TestModelListView_RemountRestartsAtLoading(t *testing.T) {
	fetcher := newGatedFetcher()
	v := New(fetcher, nil)

	require.NoError(t, v.Mount(context.Background()))
	fetcher.results <- core.Success(sampleModels)
	_, err := v.Wait(waitCtx(t))
	require.NoError(t, err)
	v.Unmount()

	require.NoError(t, v.Mount(context.Background()))
	t.Cleanup(v.Unmount)
	assert.Equal(t, StatusLoading, v.Snapshot().Status)

	fetcher.results <- core.Success(sampleModels[:1])
	state, err := v.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, StatusLoaded, state.Status)
	assert.Len(t, state.Models, 1)
	assert.Equal(t, 2, fetcher.callCount())
}

func TestModelListView_SettlesOnce(t *testing.T) {
	fetcher := newGatedFetcher()
	v := New(fetcher, nil)
	require.NoError(t, v.Mount(context.Background()))
	t.Cleanup(v.Unmount)

	require.NoError(t, v.HandleResponse([]byte(`{"models":[{"id":1,"name":"Model X","picture_url":"http://img/x.png","manufacturer":{"name":"Acme"}}]}`)))
	fetcher.results <- core.Success(sampleModels)

	state, err := v.Wait(waitCtx(t))
	require.NoError(t, err)
	require.Len(t, state.Models, 1)
	assert.Equal(t, "Model X", state.Models[0].Name)

	// the fetch result that arrives later must not replace the settled state
	require.Eventually(t, func() bool { return len(fetcher.results) == 0 }, time.Second, 5*time.Millisecond)
	assert.Len(t, v.Snapshot().Models, 1)
}

func TestModelListView_HandleResponse(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus Status
		wantRows   int
		wantErr    error
	}{
		{"one model", `{"models":[{"id":1,"name":"Model X","picture_url":"http://img/x.png","manufacturer":{"name":"Acme"}}]}`, StatusLoaded, 1, nil},
		{"empty", `{"models":[]}`, StatusLoaded, 0, nil},
		{"missing models", `{"autos":[]}`, StatusFailed, 0, core.ErrMissingModels},
		{"not an object", `[1,2,3]`, StatusFailed, 0, core.ErrMalformedResponse},
		{"not json", `<html></html>`, StatusFailed, 0, core.ErrMalformedResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New(newGatedFetcher(), nil)
			require.NoError(t, v.Mount(context.Background()))
			t.Cleanup(v.Unmount)

			require.NoError(t, v.HandleResponse([]byte(tt.body)))
			state, err := v.Wait(waitCtx(t))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, state.Status)
			assert.Len(t, state.Models, tt.wantRows)
			if tt.wantErr != nil {
				assert.ErrorIs(t, state.Err, tt.wantErr)
			}
		})
	}
}

func TestModelListView_HandleResponseUnmounted(t *testing.T) {
	v := New(newGatedFetcher(), nil)
	assert.ErrorIs(t, v.HandleResponse([]byte(`{"models":[]}`)), core.ErrNotMounted)
}

func TestModelListView_WaitContextExpires(t *testing.T) {
	v := New(newGatedFetcher(), nil)
	require.NoError(t, v.Mount(context.Background()))
	t.Cleanup(v.Unmount)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	state, err := v.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StatusLoading, state.Status)
}

func TestModelListView_ParentContextCancel(t *testing.T) {
	fetcher := newGatedFetcher()
	v := New(fetcher, nil)
	parent, cancel := context.WithCancel(context.Background())
	require.NoError(t, v.Mount(parent))
	t.Cleanup(v.Unmount)

	cancel()
	state, err := v.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, state.Status)
	assert.ErrorIs(t, state.Err, context.Canceled)
}

func TestModelListView_SnapshotIsCopy(t *testing.T) {
	v := New(staticFetcher{result: core.Success(core.CloneModels(sampleModels))}, nil)
	require.NoError(t, v.Mount(context.Background()))
	t.Cleanup(v.Unmount)
	_, err := v.Wait(waitCtx(t))
	require.NoError(t, err)

	snap := v.Snapshot()
	snap.Models[0].Name = "mutated"
	assert.Equal(t, "Model X", v.Snapshot().Models[0].Name)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "idle", StatusIdle.String())
	assert.Equal(t, "loading", StatusLoading.String())
	assert.Equal(t, "loaded", StatusLoaded.String())
	assert.Equal(t, "failed", StatusFailed.String())

	text, err := StatusFailed.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "failed", string(text))
}
