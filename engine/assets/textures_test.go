package assets

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubastard/rier/engine/gfx"
	"github.com/hubastard/rier/engine/gfx/gfxtest"
)

// fakeDecoder returns a 1x1 image per path, counts calls, and can hold
// decodes until released.
type fakeDecoder struct {
	calls atomic.Int32
	gate  chan struct{}
	mu    sync.Mutex
	fail  map[string]error
}

func (d *fakeDecoder) decode(path string) (gfx.RawImage, error) {
	d.calls.Add(1)
	if d.gate != nil {
		<-d.gate
	}
	d.mu.Lock()
	err := d.fail[path]
	d.mu.Unlock()
	if err != nil {
		return gfx.RawImage{}, err
	}
	return gfx.RawImage{Width: 1, Height: 1, Pixels: []byte{1, 2, 3, 4}}, nil
}

func newManager(t *testing.T, dec *fakeDecoder) (*TextureManager, *gfxtest.Device) {
	t.Helper()
	dev := gfxtest.NewDevice(64, 64)
	m := NewTextureManager(dev, Options{Decoder: dec.decode})
	t.Cleanup(func() { _ = m.Close() })
	return m, dev
}

// drainUntil polls DrainCompleted until cond holds, collecting errors.
func drainUntil(t *testing.T, m *TextureManager, cond func() bool) []error {
	t.Helper()
	var errs []error
	require.Eventually(t, func() bool {
		errs = append(errs, m.DrainCompleted()...)
		return cond()
	}, 2*time.Second, time.Millisecond)
	return errs
}

func pendingKey(m *TextureManager, key string) func() bool {
	return func() bool { _, ok := m.pending[key]; return ok }
}

func TestEnqueueTwiceRunsOneJob(t *testing.T) {
	dec := &fakeDecoder{gate: make(chan struct{})}
	m, _ := newManager(t, dec)

	assert.True(t, m.EnqueueLoad("a.png"))
	assert.False(t, m.EnqueueLoad("a.png"))
	close(dec.gate)

	drainUntil(t, m, pendingKey(m, "a.png"))
	assert.False(t, m.EnqueueLoad("a.png"), "pending keys are not enqueued again")
	assert.Equal(t, int32(1), dec.calls.Load())
}

func TestClaimNotReadyThenShared(t *testing.T) {
	dec := &fakeDecoder{gate: make(chan struct{})}
	m, dev := newManager(t, dec)

	m.EnqueueLoad("a.png")
	_, err := m.Claim("a.png")
	assert.ErrorIs(t, err, ErrNotReady)
	_, ok := m.Get("a.png")
	assert.False(t, ok)

	close(dec.gate)
	drainUntil(t, m, pendingKey(m, "a.png"))

	first, err := m.Claim("a.png")
	require.NoError(t, err)
	second, err := m.Claim("a.png")
	require.NoError(t, err)
	third, err := m.LoadSync("a.png")
	require.NoError(t, err)

	assert.Equal(t, first.Handle(), second.Handle())
	assert.Equal(t, first.Handle(), third.Handle())
	assert.Equal(t, first.Texture(), third.Texture())
	assert.Equal(t, 1, dev.LiveTextures(), "no fresh upload")
	assert.Equal(t, int32(1), dec.calls.Load())
	assert.Equal(t, Stats{Live: 1}, m.Stats())
}

func TestClaimUnknownKeyPanics(t *testing.T) {
	m, _ := newManager(t, &fakeDecoder{})
	assert.PanicsWithError(t, (&UsageError{Key: "never.png"}).Error(), func() {
		_, _ = m.Claim("never.png")
	})
	assert.Panics(t, func() { m.Get("never.png") })
}

func TestReleasedTextureIsLoadedAgain(t *testing.T) {
	dec := &fakeDecoder{}
	m, dev := newManager(t, dec)

	a, err := m.LoadSync("a.png")
	require.NoError(t, err)
	b := a.Clone()
	a.Release()
	assert.NotZero(t, b.Texture(), "one reference keeps it alive")
	assert.Empty(t, dev.Deleted)

	old := b.Handle()
	b.Release()
	b.Release()
	require.Len(t, dev.Deleted, 1)
	assert.Zero(t, b.Texture())
	assert.Equal(t, Stats{}, m.Stats())

	c, err := m.LoadSync("a.png")
	require.NoError(t, err)
	assert.NotEqual(t, old, c.Handle(), "expired handle is not reused as-is")
	assert.Equal(t, int32(2), dec.calls.Load())
	assert.Equal(t, 1, dev.LiveTextures())
}

func TestLoadSyncClaimsPending(t *testing.T) {
	dec := &fakeDecoder{}
	m, _ := newManager(t, dec)

	m.EnqueueLoad("a.png")
	drainUntil(t, m, pendingKey(m, "a.png"))

	ref, err := m.LoadSync("a.png")
	require.NoError(t, err)
	assert.Equal(t, int32(1), dec.calls.Load())
	assert.Equal(t, "a.png", ref.Key())
	assert.Empty(t, m.pending)
}

func TestLoadSyncSupersedesInFlightLoad(t *testing.T) {
	dec := &fakeDecoder{gate: make(chan struct{}, 2)}
	m, dev := newManager(t, dec)

	m.EnqueueLoad("a.png")
	dec.gate <- struct{}{}
	dec.gate <- struct{}{}
	ref, err := m.LoadSync("a.png")
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(m.results) == 1 }, 2*time.Second, time.Millisecond)
	assert.Empty(t, m.DrainCompleted())
	assert.Empty(t, m.pending, "stale result is dropped")
	assert.Equal(t, 1, dev.LiveTextures())
	assert.Equal(t, int32(2), dec.calls.Load())
	ref.Release()
}

func TestDecodeFailureIsPerKey(t *testing.T) {
	bad := errors.New("corrupt")
	dec := &fakeDecoder{fail: map[string]error{"bad.png": bad}}
	m, _ := newManager(t, dec)

	m.EnqueueLoad("bad.png")
	m.EnqueueLoad("good.png")
	errs := drainUntil(t, m, func() bool {
		return len(m.loading) == 0 && len(m.pending) == 1
	})

	require.Len(t, errs, 1)
	var le *LoadError
	require.ErrorAs(t, errs[0], &le)
	assert.Equal(t, "bad.png", le.Key)
	assert.ErrorIs(t, errs[0], bad)
	assert.False(t, m.Requested("bad.png"))
	assert.True(t, m.Requested("good.png"))

	_, ok := m.Get("good.png")
	assert.True(t, ok)
	assert.True(t, m.EnqueueLoad("bad.png"), "failed keys can be retried")
	assert.True(t, m.Requested("bad.png"))
}

func TestDecoderPanicDoesNotKillWorker(t *testing.T) {
	m, _ := newManager(t, &fakeDecoder{})
	m.decode = func(path string) (gfx.RawImage, error) {
		if path == "boom.png" {
			panic("bad header")
		}
		return gfx.RawImage{Width: 1, Height: 1, Pixels: make([]byte, 4)}, nil
	}

	m.EnqueueLoad("boom.png")
	m.EnqueueLoad("ok.png")
	errs := drainUntil(t, m, pendingKey(m, "ok.png"))
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "decoder panic")
}

func TestUploadFailure(t *testing.T) {
	m, dev := newManager(t, &fakeDecoder{})
	dev.TextureErr = errors.New("out of memory")

	_, err := m.LoadSync("a.png")
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.ErrorIs(t, err, dev.TextureErr)
}

func TestBacklogWhenQueueFull(t *testing.T) {
	dec := &fakeDecoder{}
	dev := gfxtest.NewDevice(64, 64)
	m := NewTextureManager(dev, Options{Decoder: dec.decode, Queue: 1})
	t.Cleanup(func() { _ = m.Close() })

	keys := []string{"a", "b", "c", "d", "e"}
	for _, k := range keys {
		require.True(t, m.EnqueueLoad(k))
	}
	drainUntil(t, m, func() bool { return len(m.pending) == len(keys) })
	assert.Empty(t, m.backlog)
	assert.Equal(t, int32(len(keys)), dec.calls.Load())
}

func TestReloadSwapsTextureInPlace(t *testing.T) {
	m, dev := newManager(t, &fakeDecoder{})

	ref, err := m.LoadSync("a.png")
	require.NoError(t, err)
	before := ref.Texture()

	assert.True(t, m.Reload("a.png"))
	assert.False(t, m.Reload("a.png"), "one reload in flight per key")
	assert.False(t, m.Reload("missing.png"))

	drainUntil(t, m, func() bool { return ref.Texture() != before })
	assert.Equal(t, []gfx.Texture{before}, dev.Deleted)
	assert.Equal(t, 1, dev.LiveTextures())
}

func TestCloseJoinsWorkerAndReleasesPending(t *testing.T) {
	dec := &fakeDecoder{}
	dev := gfxtest.NewDevice(64, 64)
	m := NewTextureManager(dev, Options{Decoder: dec.decode})

	m.EnqueueLoad("a.png")
	m.EnqueueLoad("b.png")
	drainUntil(t, m, pendingKey(m, "a.png"))
	drainUntil(t, m, pendingKey(m, "b.png"))
	b, err := m.Claim("b.png")
	require.NoError(t, err)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.Equal(t, 1, dev.LiveTextures(), "claimed refs outlive Close")
	assert.Nil(t, m.DrainCompleted())

	assert.False(t, m.EnqueueLoad("c.png"))
	assert.False(t, m.Requested("c.png"))
	assert.False(t, m.Reload("b.png"))
	b.Release()
	assert.Zero(t, dev.LiveTextures())
}
