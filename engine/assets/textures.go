package assets

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/hubastard/rier/engine/gfx"
	"github.com/hubastard/rier/engine/logging"
)

// TextureKey names a texture by its path relative to the manager root.
type TextureKey = string

// ErrNotReady is returned by Claim while a background load is in flight.
var ErrNotReady = errors.New("assets: texture not ready")

// LoadError reports a failed decode or upload for one key.
type LoadError struct {
	Key TextureKey
	Err error
}

func (e *LoadError) Error() string { return fmt.Sprintf("assets: load %q: %v", e.Key, e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

// UsageError is the panic value for Claim or Get on a key that was never
// loaded or enqueued.
type UsageError struct {
	Key TextureKey
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("assets: texture %q was never loaded; call EnqueueLoad or LoadSync first", e.Key)
}

// Decoder turns a file path into pixels. DecodeImage is the default.
type Decoder func(path string) (gfx.RawImage, error)

// Options configures a TextureManager.
type Options struct {
	Root    string  // directory keys are resolved against
	Decoder Decoder // defaults to DecodeImage
	Queue   int     // job and result channel capacity, default 64
}

// Handle identifies a slot in the texture arena. A handle whose generation
// no longer matches its slot refers to a released texture.
type Handle struct {
	index uint32
	gen   uint32
}

type slot struct {
	tex  gfx.Texture
	w, h int
	key  TextureKey
	refs int
	gen  uint32
}

type job struct {
	key    TextureKey
	reload bool
}

type result struct {
	key    TextureKey
	img    gfx.RawImage
	err    error
	reload bool
}

// TextureManager loads textures on a background goroutine and shares the
// uploaded result between callers.
//
// Every method except the worker runs on the goroutine that owns the GPU
// context; the only state shared with the worker is the job and result
// channels. A key is in at most one of live (with references), pending or
// loading at any time.
type TextureManager struct {
	dev    gfx.Device
	root   string
	decode Decoder

	slots []slot
	free  []uint32

	live    map[TextureKey]Handle
	pending map[TextureKey]*TextureRef
	loading map[TextureKey]struct{}
	reloads map[TextureKey]struct{}
	backlog []job

	jobs    chan job
	results chan result
	quit    chan struct{}
	wg      sync.WaitGroup
	closed  bool
}

func logger() *slog.Logger { return logging.Logger() }

// NewTextureManager starts the loader goroutine. Close must be called to
// stop it.
func NewTextureManager(dev gfx.Device, opts Options) *TextureManager {
	if opts.Decoder == nil {
		opts.Decoder = DecodeImage
	}
	if opts.Queue <= 0 {
		opts.Queue = 64
	}
	m := &TextureManager{
		dev:     dev,
		root:    opts.Root,
		decode:  opts.Decoder,
		live:    map[TextureKey]Handle{},
		pending: map[TextureKey]*TextureRef{},
		loading: map[TextureKey]struct{}{},
		reloads: map[TextureKey]struct{}{},
		jobs:    make(chan job, opts.Queue),
		results: make(chan result, opts.Queue),
		quit:    make(chan struct{}),
	}
	m.wg.Add(1)
	go m.worker()
	return m
}

// Root is the directory keys are resolved against.
func (m *TextureManager) Root() string { return m.root }

func (m *TextureManager) path(key TextureKey) string {
	if m.root == "" {
		return key
	}
	return filepath.Join(m.root, key)
}

func (m *TextureManager) worker() {
	defer m.wg.Done()
	logger().Debug("texture loader started")
	for {
		select {
		case <-m.quit:
			logger().Debug("texture loader stopped")
			return
		case j := <-m.jobs:
			r := result{key: j.key, reload: j.reload}
			r.img, r.err = m.safeDecode(j.key)
			select {
			case m.results <- r:
			case <-m.quit:
				logger().Debug("texture loader stopped")
				return
			}
		}
	}
}

func (m *TextureManager) safeDecode(key TextureKey) (img gfx.RawImage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decoder panic: %v", r)
		}
	}()
	return m.decode(m.path(key))
}

func (m *TextureManager) dispatch(j job) {
	select {
	case m.jobs <- j:
	default:
		m.backlog = append(m.backlog, j)
	}
}

func (m *TextureManager) flushBacklog() {
	for len(m.backlog) > 0 {
		select {
		case m.jobs <- m.backlog[0]:
			m.backlog = m.backlog[1:]
		default:
			return
		}
	}
	m.backlog = nil
}

// EnqueueLoad starts a background load of key. It returns false without
// doing anything when the key is already live, pending or loading, or
// once the manager is closed.
func (m *TextureManager) EnqueueLoad(key TextureKey) bool {
	if m.closed || m.alive(key) {
		return false
	}
	if _, ok := m.pending[key]; ok {
		return false
	}
	if _, ok := m.loading[key]; ok {
		return false
	}
	m.loading[key] = struct{}{}
	m.dispatch(job{key: key})
	return true
}

// LoadSync returns key, loading it on the calling goroutine if it is not
// already available. A background load in flight for key is superseded and
// its result discarded.
func (m *TextureManager) LoadSync(key TextureKey) (*TextureRef, error) {
	if ref := m.liveRef(key); ref != nil {
		return ref, nil
	}
	if _, ok := m.pending[key]; ok {
		return m.claimPending(key), nil
	}
	delete(m.loading, key)

	img, err := m.safeDecode(key)
	if err != nil {
		return nil, &LoadError{Key: key, Err: err}
	}
	ref, err := m.upload(key, img)
	if err != nil {
		return nil, &LoadError{Key: key, Err: err}
	}
	m.live[key] = ref.h
	return ref, nil
}

// DrainCompleted collects finished background loads without blocking and
// uploads them. Uploaded textures become pending until claimed. Each failed
// key is reported as a *LoadError and may be enqueued again.
func (m *TextureManager) DrainCompleted() []error {
	if m.closed {
		return nil
	}
	m.flushBacklog()

	var errs []error
	for {
		var r result
		select {
		case r = <-m.results:
		default:
			return errs
		}
		if err := m.complete(r); err != nil {
			errs = append(errs, err)
		}
	}
}

func (m *TextureManager) complete(r result) error {
	if r.reload {
		delete(m.reloads, r.key)
		return m.completeReload(r)
	}
	if _, ok := m.loading[r.key]; !ok {
		logger().Debug("dropping stale texture result", "key", r.key)
		return nil
	}
	delete(m.loading, r.key)
	if r.err != nil {
		return &LoadError{Key: r.key, Err: r.err}
	}
	ref, err := m.upload(r.key, r.img)
	if err != nil {
		return &LoadError{Key: r.key, Err: err}
	}
	m.pending[r.key] = ref
	return nil
}

func (m *TextureManager) completeReload(r result) error {
	h, ok := m.live[r.key]
	if !ok || !m.valid(h) {
		return nil
	}
	if r.err != nil {
		return &LoadError{Key: r.key, Err: r.err}
	}
	tex, err := m.dev.CreateTexture(r.img)
	if err != nil {
		return &LoadError{Key: r.key, Err: err}
	}
	s := &m.slots[h.index]
	m.dev.DeleteTexture(s.tex)
	s.tex, s.w, s.h = tex, r.img.Width, r.img.Height
	logger().Info("texture reloaded", "key", r.key)
	return nil
}

// Claim hands out a strong reference to key.
//
// A pending texture becomes live and is returned; a live one is shared.
// While a load is in flight Claim returns ErrNotReady. Claiming a key that
// was never requested is a programming error and panics with *UsageError.
func (m *TextureManager) Claim(key TextureKey) (*TextureRef, error) {
	if _, ok := m.pending[key]; ok {
		return m.claimPending(key), nil
	}
	if ref := m.liveRef(key); ref != nil {
		return ref, nil
	}
	if _, ok := m.loading[key]; ok {
		return nil, ErrNotReady
	}
	err := &UsageError{Key: key}
	logger().Error("texture misuse", "err", err)
	panic(err)
}

// Requested reports whether Claim(key) is safe: key is live, pending or
// still loading. A key whose load failed is no longer requested.
func (m *TextureManager) Requested(key TextureKey) bool {
	if _, ok := m.pending[key]; ok {
		return true
	}
	if _, ok := m.loading[key]; ok {
		return true
	}
	return m.alive(key)
}

// Get is Claim that reports "not ready" as false.
func (m *TextureManager) Get(key TextureKey) (*TextureRef, bool) {
	ref, err := m.Claim(key)
	if err != nil {
		return nil, false
	}
	return ref, true
}

// Reload re-decodes a live texture in the background and swaps the pixels
// in place on a later DrainCompleted; existing references keep working.
func (m *TextureManager) Reload(key TextureKey) bool {
	if m.closed || !m.alive(key) {
		return false
	}
	if _, ok := m.reloads[key]; ok {
		return false
	}
	m.reloads[key] = struct{}{}
	m.dispatch(job{key: key, reload: true})
	return true
}

// Stats reports how many keys are in each state.
type Stats struct {
	Live, Pending, Loading int
}

func (m *TextureManager) Stats() Stats {
	live := 0
	for key := range m.live {
		if m.alive(key) {
			live++
		}
	}
	return Stats{Live: live, Pending: len(m.pending), Loading: len(m.loading)}
}

// Close stops the loader goroutine, waits for it and releases pending
// textures. Live references stay valid until released.
func (m *TextureManager) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	close(m.quit)
	m.wg.Wait()

	for key, ref := range m.pending {
		ref.Release()
		delete(m.pending, key)
	}
	clear(m.loading)
	clear(m.reloads)
	m.backlog = nil
	return nil
}

func (m *TextureManager) claimPending(key TextureKey) *TextureRef {
	ref := m.pending[key]
	delete(m.pending, key)
	m.live[key] = ref.h
	return ref
}

func (m *TextureManager) liveRef(key TextureKey) *TextureRef {
	h, ok := m.live[key]
	if !ok {
		return nil
	}
	if !m.valid(h) {
		delete(m.live, key)
		return nil
	}
	m.slots[h.index].refs++
	return &TextureRef{m: m, h: h}
}

func (m *TextureManager) alive(key TextureKey) bool {
	h, ok := m.live[key]
	return ok && m.valid(h)
}

func (m *TextureManager) valid(h Handle) bool {
	if int(h.index) >= len(m.slots) {
		return false
	}
	s := &m.slots[h.index]
	return s.gen == h.gen && s.refs > 0
}

func (m *TextureManager) upload(key TextureKey, img gfx.RawImage) (*TextureRef, error) {
	tex, err := m.dev.CreateTexture(img)
	if err != nil {
		return nil, err
	}
	var idx uint32
	if n := len(m.free); n > 0 {
		idx = m.free[n-1]
		m.free = m.free[:n-1]
	} else {
		m.slots = append(m.slots, slot{})
		idx = uint32(len(m.slots) - 1)
	}
	s := &m.slots[idx]
	s.tex, s.w, s.h, s.key, s.refs = tex, img.Width, img.Height, key, 1
	return &TextureRef{m: m, h: Handle{index: idx, gen: s.gen}}, nil
}

func (m *TextureManager) release(h Handle) {
	if !m.valid(h) {
		return
	}
	s := &m.slots[h.index]
	s.refs--
	if s.refs > 0 {
		return
	}
	m.dev.DeleteTexture(s.tex)
	if cur, ok := m.live[s.key]; ok && cur == h {
		delete(m.live, s.key)
	}
	delete(m.reloads, s.key)
	logger().Debug("texture released", "key", s.key)
	*s = slot{gen: s.gen + 1}
	m.free = append(m.free, h.index)
}

// TextureRef is a counted reference to an uploaded texture. Each ref must
// be released exactly once; the texture is deleted with the last one.
type TextureRef struct {
	m        *TextureManager
	h        Handle
	released bool
}

// Handle identifies the underlying texture; two refs to the same texture
// have equal handles.
func (r *TextureRef) Handle() Handle { return r.h }

// Texture is the GPU texture, or 0 once released.
func (r *TextureRef) Texture() gfx.Texture {
	if r.released || !r.m.valid(r.h) {
		return 0
	}
	return r.m.slots[r.h.index].tex
}

func (r *TextureRef) Size() (int, int) {
	if r.released || !r.m.valid(r.h) {
		return 0, 0
	}
	s := &r.m.slots[r.h.index]
	return s.w, s.h
}

func (r *TextureRef) Key() TextureKey {
	if !r.m.valid(r.h) {
		return ""
	}
	return r.m.slots[r.h.index].key
}

// Clone returns another reference to the same texture.
func (r *TextureRef) Clone() *TextureRef {
	if r.released {
		panic("assets: clone of released TextureRef")
	}
	r.m.slots[r.h.index].refs++
	return &TextureRef{m: r.m, h: r.h}
}

func (r *TextureRef) Release() {
	if r.released {
		return
	}
	r.released = true
	r.m.release(r.h)
}
