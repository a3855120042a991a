package events

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/chainsub/chainsub-go/ledger"
	"github.com/chainsub/chainsub-go/logger"
)

const (
	// defaultCacheKeys bounds how many distinct cache keys are retained.
	defaultCacheKeys = 256
	// defaultCachePerKey bounds the event tail kept under one key.
	defaultCachePerKey = 1024
)

// BatchFunc receives newly observed events for one watch.
type BatchFunc func([]Typed)

// ErrorFunc receives watch-scoped failures, most importantly
// ledger.ErrStaleFilter when the underlying subscription drops. The registry
// never resubscribes on its own: resuming from an assumed point risks missing
// or double-delivering events, so the policy belongs to the caller.
type ErrorFunc func(watchID uuid.UUID, err error)

// WatchRegistry owns a set of named, cancellable live subscriptions plus a
// bounded per-key event cache. It is an explicitly owned instance with a
// clear lifecycle; there is no process-wide singleton.
type WatchRegistry struct {
	gateway ledger.Gateway
	logger  *zap.Logger
	onError ErrorFunc

	mu      sync.RWMutex
	watches map[uuid.UUID]*watch

	cacheMu     sync.Mutex
	cache       *lru.Cache[string, []Typed]
	cachePerKey int
}

type watch struct {
	id     uuid.UUID
	filter ledger.Filter
	cancel ledger.CancelFunc

	// deliverMu serializes deliveries and fences them against StopWatch:
	// once StopWatch flips active under this mutex, no further callback can
	// fire, even for a batch already in flight.
	deliverMu sync.Mutex
	active    bool

	// high-water mark of delivered events, so a batch is never re-delivered
	// to the same watch
	seen      bool
	lastBlock uint64
	lastIndex uint
}

// RegistryOption customizes registry construction.
type RegistryOption func(*WatchRegistry)

// WithOnError sets the registry-wide error callback.
func WithOnError(fn ErrorFunc) RegistryOption {
	return func(r *WatchRegistry) { r.onError = fn }
}

// WithCacheBounds overrides the cache key count and per-key tail length.
func WithCacheBounds(keys, perKey int) RegistryOption {
	return func(r *WatchRegistry) {
		cache, err := lru.New[string, []Typed](keys)
		if err != nil {
			panic("invalid cache size: " + err.Error())
		}
		r.cache = cache
		r.cachePerKey = perKey
	}
}

// NewWatchRegistry creates a registry multiplexing logical watches over
// gateway subscriptions.
func NewWatchRegistry(gateway ledger.Gateway, opts ...RegistryOption) *WatchRegistry {
	cache, err := lru.New[string, []Typed](defaultCacheKeys)
	if err != nil {
		panic("invalid cache size: " + err.Error())
	}

	r := &WatchRegistry{
		gateway:     gateway,
		logger:      logger.Log,
		watches:     make(map[uuid.UUID]*watch),
		cache:       cache,
		cachePerKey: defaultCachePerKey,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r
}

// StartWatch registers a live watch and returns its id. onEvents is invoked
// with batches of newly observed, decoded events matching the filter; a
// batch already delivered to this watch is never delivered again.
func (r *WatchRegistry) StartWatch(ctx context.Context, filter ledger.Filter, onEvents BatchFunc) (uuid.UUID, error) {
	w := &watch{
		id:     uuid.New(),
		filter: filter,
		active: true,
	}

	// Register the entry before subscribing so two racing StartWatch calls
	// always land in independent table slots.
	r.mu.Lock()
	r.watches[w.id] = w
	r.mu.Unlock()

	cancel, err := r.gateway.WatchEvents(ctx, filter,
		func(batch []ledger.Event) { r.deliver(w, onEvents, batch) },
		func(err error) { r.surface(w, err) },
	)
	if err != nil {
		r.mu.Lock()
		delete(r.watches, w.id)
		r.mu.Unlock()
		return uuid.Nil, err
	}

	r.mu.Lock()
	w.cancel = cancel
	r.mu.Unlock()

	r.logger.Debug("Started event watch",
		zap.String("watch_id", w.id.String()),
		zap.String("event", string(filter.Event)),
	)

	return w.id, nil
}

// StopWatch cancels a watch. It is idempotent and returns false when the
// watch was already stopped or never existed. After it returns, no further
// callback fires for this watch.
func (r *WatchRegistry) StopWatch(id uuid.UUID) bool {
	r.mu.Lock()
	w, ok := r.watches[id]
	if ok {
		delete(r.watches, id)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}

	w.deliverMu.Lock()
	w.active = false
	w.deliverMu.Unlock()

	if w.cancel != nil {
		w.cancel()
	}

	r.logger.Debug("Stopped event watch", zap.String("watch_id", id.String()))
	return true
}

// StopAll cancels every active watch. Used at teardown.
func (r *WatchRegistry) StopAll() {
	r.mu.Lock()
	stopped := make([]*watch, 0, len(r.watches))
	for _, w := range r.watches {
		stopped = append(stopped, w)
	}
	r.watches = make(map[uuid.UUID]*watch)
	r.mu.Unlock()

	for _, w := range stopped {
		w.deliverMu.Lock()
		w.active = false
		w.deliverMu.Unlock()
		if w.cancel != nil {
			w.cancel()
		}
	}
}

// ActiveWatches reports how many watches are live.
func (r *WatchRegistry) ActiveWatches() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.watches)
}

func (r *WatchRegistry) deliver(w *watch, onEvents BatchFunc, batch []ledger.Event) {
	w.deliverMu.Lock()
	defer w.deliverMu.Unlock()

	if !w.active {
		// In-flight batch raced a cancel; drop it.
		return
	}

	fresh := make([]ledger.Event, 0, len(batch))
	for _, ev := range batch {
		if w.seen && (ev.BlockNumber < w.lastBlock ||
			(ev.BlockNumber == w.lastBlock && ev.LogIndex <= w.lastIndex)) {
			continue
		}
		w.seen = true
		w.lastBlock = ev.BlockNumber
		w.lastIndex = ev.LogIndex
		fresh = append(fresh, ev)
	}
	if len(fresh) == 0 {
		return
	}

	typed, err := DecodeAll(fresh)
	if err != nil {
		r.notifyError(w.id, err)
		return
	}

	onEvents(typed)
}

func (r *WatchRegistry) surface(w *watch, err error) {
	if errors.Is(err, ledger.ErrStaleFilter) {
		// The underlying subscription is dead. Deactivate so late batches
		// are dropped, but leave resubscription to the caller.
		r.mu.Lock()
		delete(r.watches, w.id)
		r.mu.Unlock()

		w.deliverMu.Lock()
		w.active = false
		w.deliverMu.Unlock()

		r.logger.Warn("Event watch lost its subscription",
			zap.String("watch_id", w.id.String()),
			zap.String("event", string(w.filter.Event)),
			zap.Error(err),
		)
	}

	r.notifyError(w.id, err)
}

func (r *WatchRegistry) notifyError(id uuid.UUID, err error) {
	if r.onError != nil {
		r.onError(id, err)
		return
	}
	r.logger.Error("Event watch error",
		zap.String("watch_id", id.String()),
		zap.Error(err),
	)
}

// Cache appends events under a caller-chosen key, keeping only the most
// recent cachePerKey entries.
func (r *WatchRegistry) Cache(key string, events []Typed) {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	existing, _ := r.cache.Get(key)
	combined := append(append([]Typed{}, existing...), events...)
	if len(combined) > r.cachePerKey {
		combined = combined[len(combined)-r.cachePerKey:]
	}
	r.cache.Add(key, combined)
}

// Cached returns the events stored under key.
func (r *WatchRegistry) Cached(key string) ([]Typed, bool) {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()
	return r.cache.Get(key)
}

// Clear removes the given keys, or everything when called with none.
func (r *WatchRegistry) Clear(keys ...string) {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	if len(keys) == 0 {
		r.cache.Purge()
		return
	}
	for _, key := range keys {
		r.cache.Remove(key)
	}
}
