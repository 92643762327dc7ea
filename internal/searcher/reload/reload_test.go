package reload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/textsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/resilience"
)

type fakeReloader struct {
	dirs []string
	errs []error
}

func (f *fakeReloader) Reload(dir string) error {
	f.dirs = append(f.dirs, dir)
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

type fakeCache struct{ invalidations int }

func (f *fakeCache) Invalidate(context.Context) error {
	f.invalidations++
	return nil
}

func watcher(r Reloader, c Invalidator) *Watcher {
	w := New(r, c, "output")
	w.retry = resilience.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond}
	return w
}

func TestHandleReloadsThenInvalidates(t *testing.T) {
	r := &fakeReloader{}
	c := &fakeCache{}
	w := watcher(r, c)

	require.NoError(t, w.Handle(context.Background(), kafka.IndexCompleteEvent{Dir: "/data/idx"}))
	require.NoError(t, w.Handle(context.Background(), kafka.IndexCompleteEvent{}))
	assert.Equal(t, []string{"/data/idx", "output"}, r.dirs)
	assert.Equal(t, 2, c.invalidations)
}

func TestHandleRetriesTransientErrors(t *testing.T) {
	r := &fakeReloader{errs: []error{errors.New("file busy")}}
	c := &fakeCache{}
	require.NoError(t, watcher(r, c).Handle(context.Background(), kafka.IndexCompleteEvent{Dir: "d"}))
	assert.Len(t, r.dirs, 2)
	assert.Equal(t, 1, c.invalidations)
}

func TestHandleMissingIndexKeepsCache(t *testing.T) {
	missing := fmt.Errorf("reloading index: %w", apperrors.ErrIndexNotFound)
	r := &fakeReloader{errs: []error{missing, missing, missing}}
	c := &fakeCache{}
	err := watcher(r, c).Handle(context.Background(), kafka.IndexCompleteEvent{Dir: "gone"})
	assert.ErrorIs(t, err, apperrors.ErrIndexNotFound)
	assert.Len(t, r.dirs, 1)
	assert.Zero(t, c.invalidations)
}

func TestHandlerDecodesEvents(t *testing.T) {
	r := &fakeReloader{}
	h := watcher(r, nil).Handler()

	value, err := json.Marshal(kafka.NewIndexCompleteEvent("/idx", 3, 8, 1))
	require.NoError(t, err)
	require.NoError(t, h(context.Background(), []byte("/idx"), value))
	assert.Equal(t, []string{"/idx"}, r.dirs)

	assert.Error(t, h(context.Background(), nil, []byte("{")))
}
