package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cinematch/cinematch/internal/metadata"
	"github.com/cinematch/cinematch/internal/metrics"
)

// Backend runs the catalog operations a session issues.
type Backend interface {
	Search(ctx context.Context, q metadata.SearchQuery) ([]metadata.MediaItem, error)
	Resolve(ctx context.Context, id int, mediaType metadata.MediaType) (*metadata.SelectedItem, []metadata.MediaItem, error)
}

// Subscriber receives every new state of a coordinator. It is called with the
// coordinator's lock held so it must not block or dispatch.
type Subscriber func(id string, s State)

// Coordinator serializes the transitions of one session. Each issued request
// carries the generation it was issued under. Issuing a new request cancels
// the previous one, and late responses are discarded.
type Coordinator struct {
	id      string
	backend Backend
	logger  zerolog.Logger

	ctx      context.Context
	shutdown context.CancelFunc
	wg       sync.WaitGroup

	mu         sync.Mutex
	state      State
	cancel     context.CancelFunc
	subs       map[int]Subscriber
	nextSub    int
	lastActive time.Time
}

// NewCoordinator creates a coordinator in the initial state.
func NewCoordinator(id string, backend Backend, logger zerolog.Logger) *Coordinator {
	ctx, shutdown := context.WithCancel(context.Background())
	return &Coordinator{
		id:         id,
		backend:    backend,
		logger:     logger.With().Str("component", "session").Str("session", id).Logger(),
		ctx:        ctx,
		shutdown:   shutdown,
		state:      Initial(),
		subs:       make(map[int]Subscriber),
		lastActive: time.Now(),
	}
}

// ID returns the session id.
func (c *Coordinator) ID() string {
	return c.id
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastActive returns the time of the last user event.
func (c *Coordinator) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// Subscribed reports whether anyone is listening to the session.
func (c *Coordinator) Subscribed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs) > 0
}

// Subscribe calls fn with the current state and then with every new one. It
// returns the func that removes fn.
func (c *Coordinator) Subscribe(fn Subscriber) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := c.nextSub
	c.nextSub++
	c.subs[key] = fn
	fn(c.id, c.state)

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, key)
		c.lastActive = time.Now()
	}
}

// Dispatch applies e and returns the resulting state. QueryChanged with
// non-blank text and ItemSelected launch a catalog request in the background.
func (c *Coordinator) Dispatch(e Event) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if Stale(c.state, e) {
		kind := responseKind(e)
		metrics.StaleResponsesTotal.WithLabelValues(kind).Inc()
		c.logger.Debug().Str("kind", kind).Uint64("generation", c.state.Generation).Msg("Discarded stale response")
		return c.state
	}

	c.state = Reduce(c.state, e)

	switch ev := e.(type) {
	case QueryChanged:
		c.lastActive = time.Now()
		c.cancelInflight()
		if !isBlank(ev.Text) {
			c.launchSearch(c.state.Generation, metadata.SearchQuery{Text: ev.Text, Filter: c.state.Filter})
		}
	case FilterChanged:
		c.lastActive = time.Now()
	case ItemSelected:
		c.lastActive = time.Now()
		c.cancelInflight()
		c.launchResolve(c.state.Generation, ev.ID, ev.MediaType)
	case SearchFailed:
		c.logger.Warn().Err(ev.Err).Msg("Search failed")
	case ResolveFailed:
		c.logger.Warn().Err(ev.Err).Msg("Resolve failed")
	}

	for _, fn := range c.subs {
		fn(c.id, c.state)
	}
	return c.state
}

// Wait blocks until every launched request has been applied.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Close cancels in-flight requests and waits for them to finish.
func (c *Coordinator) Close() {
	c.shutdown()
	c.wg.Wait()
}

func (c *Coordinator) cancelInflight() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Coordinator) launchSearch(generation uint64, q metadata.SearchQuery) {
	ctx, cancel := context.WithCancel(c.ctx)
	c.cancel = cancel
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()
		defer cancel()

		items, err := c.backend.Search(ctx, q)
		if err != nil {
			c.Dispatch(SearchFailed{Generation: generation, Err: err})
			return
		}
		c.Dispatch(SearchSucceeded{Generation: generation, Items: items})
	}()
}

func (c *Coordinator) launchResolve(generation uint64, id int, mediaType metadata.MediaType) {
	ctx, cancel := context.WithCancel(c.ctx)
	c.cancel = cancel
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()
		defer cancel()

		selected, recommendations, err := c.backend.Resolve(ctx, id, mediaType)
		if err != nil {
			c.Dispatch(ResolveFailed{Generation: generation, Err: err})
			return
		}
		c.Dispatch(ResolveSucceeded{Generation: generation, Selected: selected, Recommendations: recommendations})
	}()
}

func responseKind(e Event) string {
	switch e.(type) {
	case ResolveSucceeded, ResolveFailed:
		return "resolve"
	default:
		return "search"
	}
}
