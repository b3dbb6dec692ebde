// Package feedsync keeps a locally cached feed coherent with the remote API
// as connectivity comes and goes.
//
// A Coordinator owns one feed session. It shows cached posts first, fetches
// when the network is reachable, persists every fetch before re-reading the
// canonical list from the store, and polls reachability to recover from an
// outage that left the feed empty.
package feedsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/anonto42/nano-midea/feedsync/internal/models"
	"github.com/anonto42/nano-midea/feedsync/internal/repositories"
	apperrors "github.com/anonto42/nano-midea/feedsync/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultPollInterval is the period of the reachability re-evaluation loop
const DefaultPollInterval = 5 * time.Second

const fetchKey = "fetch-and-merge"

// ErrAlreadyStarted is returned by Start on a running session
var ErrAlreadyStarted = errors.New("feed session already started")

// Fetcher retrieves the remote feed
type Fetcher interface {
	FetchPosts(ctx context.Context) ([]models.Post, error)
}

// Reachability reports whether the network is usable
type Reachability interface {
	CheckReachable(ctx context.Context) bool
	ForceCheck(ctx context.Context) bool
}

// State is the coordinator's coarse session state
type State int

const (
	StateIdle State = iota
	StateLoadingFromCache
	StateAwaitingNetworkResult
	StateReady
	StateOfflineNotified
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoadingFromCache:
		return "loading_from_cache"
	case StateAwaitingNetworkResult:
		return "awaiting_network_result"
	case StateReady:
		return "ready"
	case StateOfflineNotified:
		return "offline_notified"
	default:
		return "unknown"
	}
}

// Coordinator drives one feed session
type Coordinator struct {
	store        repositories.PostRecordRepository
	client       Fetcher
	monitor      Reachability
	view         View
	logger       *zap.Logger
	pollInterval time.Duration

	flight singleflight.Group

	// writeMu orders store writes: a like persist never runs between the
	// save and the reload of a fetch-and-merge.
	writeMu sync.Mutex

	mu    sync.Mutex
	posts []models.Post
	// pendingLikes are toggles not yet written; storedLikes is the like
	// flag the store last confirmed for each id.
	pendingLikes    map[int]pendingLike
	storedLikes     map[int]bool
	likeSeq         uint64
	offlineNotified bool
	state           State

	loopMu sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// pendingLike is the desired like value of a post and the callers waiting
// for it to be written
type pendingLike struct {
	liked   bool
	seq     uint64
	waiters []chan error
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithPollInterval overrides the reachability loop period
func WithPollInterval(d time.Duration) Option {
	return func(c *Coordinator) { c.pollInterval = d }
}

// WithLogger sets the coordinator's logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// NewCoordinator creates a Coordinator. A nil view discards presentation calls.
func NewCoordinator(store repositories.PostRecordRepository, client Fetcher, monitor Reachability, view View, opts ...Option) *Coordinator {
	if view == nil {
		view = NopView{}
	}
	c := &Coordinator{
		store:        store,
		client:       client,
		monitor:      monitor,
		view:         view,
		logger:       zap.NewNop(),
		pollInterval: DefaultPollInterval,
		pendingLikes: make(map[int]pendingLike),
		storedLikes:  make(map[int]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start runs the startup sequence: load the cache, fetch if reachable or
// notify once if not, then start the reachability loop. The loop stops when
// Stop is called or ctx is cancelled.
func (c *Coordinator) Start(ctx context.Context) error {
	c.loopMu.Lock()
	defer c.loopMu.Unlock()
	if c.cancel != nil {
		return ErrAlreadyStarted
	}

	c.mu.Lock()
	c.offlineNotified = false
	c.transitionLocked(StateIdle)
	c.mu.Unlock()

	c.LoadFromCache(ctx)

	if c.monitor.CheckReachable(ctx) {
		if err := c.fetchAndMerge(ctx); err != nil {
			c.logger.Warn("initial fetch failed", zap.Error(err))
		}
	} else {
		c.notifyOfflineOnce()
	}

	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.run(loopCtx, c.done)

	c.logger.Info("feed session started", zap.Duration("poll_interval", c.pollInterval))
	return nil
}

// Stop cancels the reachability loop and waits for it to exit. In-flight
// fetches are left to complete.
func (c *Coordinator) Stop() {
	c.loopMu.Lock()
	defer c.loopMu.Unlock()
	if c.cancel == nil {
		return
	}
	c.cancel()
	<-c.done
	c.cancel = nil
	c.done = nil
	c.logger.Info("feed session stopped")
}

// LoadFromCache replaces the in-memory list with the stored posts and renders
// them when there are any. Read failures leave the list empty.
func (c *Coordinator) LoadFromCache(ctx context.Context) {
	c.setState(StateLoadingFromCache)

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	var posts []models.Post
	has, err := c.store.HasCachedRecords(ctx)
	if err != nil {
		c.logger.Warn("failed to check cached posts", zap.Error(err))
	}
	if has {
		posts, err = c.store.LoadRecords(ctx)
		if err != nil {
			c.logger.Warn("failed to load cached posts", zap.Error(err))
			posts = nil
		}
	}

	snapshot := c.replacePosts(posts)
	c.logger.Debug("loaded posts from cache", zap.Int("count", len(snapshot)))
	if len(snapshot) > 0 {
		c.view.Render(snapshot)
	}
}

// Refresh handles pull-to-refresh: it probes the network without debounce and
// fetches when reachable. When offline it always notifies and returns an
// offline error.
func (c *Coordinator) Refresh(ctx context.Context) error {
	defer c.view.EndRefreshing()

	if !c.monitor.ForceCheck(ctx) {
		c.logger.Info("refresh requested while offline")
		c.view.Notify(offlineNotification())
		return apperrors.NewOffline("network unreachable")
	}
	return c.fetchAndMerge(ctx)
}

// ToggleLike flips the like flag of post id in memory and renders it at once,
// then persists it in the background. The returned channel yields the
// result of the write that carried this toggle exactly once. If that write
// fails the post is restored to the stored value and the view notified.
func (c *Coordinator) ToggleLike(ctx context.Context, id int) (models.Post, <-chan error, error) {
	done := make(chan error, 1)

	c.mu.Lock()
	idx := c.indexLocked(id)
	if idx < 0 {
		c.mu.Unlock()
		return models.Post{}, nil, apperrors.NewNotFound(fmt.Sprintf("post %d not found", id))
	}
	c.posts[idx].IsLiked = !c.posts[idx].IsLiked
	post := c.posts[idx]
	c.likeSeq++
	pending := c.pendingLikes[id]
	c.pendingLikes[id] = pendingLike{
		liked:   post.IsLiked,
		seq:     c.likeSeq,
		waiters: append(pending.waiters, done),
	}
	c.mu.Unlock()

	c.view.RenderPost(post)

	go c.persistLike(context.WithoutCancel(ctx), id)
	return post, done, nil
}

// Posts returns a copy of the in-memory list
func (c *Coordinator) Posts() []models.Post {
	c.mu.Lock()
	defer c.mu.Unlock()
	return clonePosts(c.posts)
}

// Post returns the in-memory post with the given id
func (c *Coordinator) Post(id int) (models.Post, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if idx := c.indexLocked(id); idx >= 0 {
		return c.posts[idx], true
	}
	return models.Post{}, false
}

// State returns the current session state
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OfflineNotified reports whether the current outage has been announced
func (c *Coordinator) OfflineNotified() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offlineNotified
}

func (c *Coordinator) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

// tick re-evaluates reachability. Coming back online only triggers a fetch
// when there is nothing to show; an outage is announced once.
func (c *Coordinator) tick(ctx context.Context) {
	if !c.monitor.CheckReachable(ctx) {
		c.notifyOfflineOnce()
		return
	}

	c.mu.Lock()
	empty := len(c.posts) == 0
	wasOffline := c.offlineNotified
	c.offlineNotified = false
	c.settleLocked()
	c.mu.Unlock()

	if wasOffline {
		c.logger.Info("network restored", zap.Bool("refetch", empty))
	}
	if empty {
		if err := c.fetchAndMerge(ctx); err != nil {
			c.logger.Warn("recovery fetch failed", zap.Error(err))
		}
	}
}

// notifyOfflineOnce notifies unless the current outage was already announced
func (c *Coordinator) notifyOfflineOnce() {
	c.mu.Lock()
	if c.offlineNotified {
		c.mu.Unlock()
		return
	}
	c.offlineNotified = true
	c.transitionLocked(StateOfflineNotified)
	c.mu.Unlock()

	c.logger.Info("network unreachable, showing cached posts")
	c.view.Notify(offlineNotification())
}

// fetchAndMerge joins an in-flight run if there is one. The run itself is
// detached from ctx cancellation; ctx only bounds how long this caller waits.
func (c *Coordinator) fetchAndMerge(ctx context.Context) error {
	ch := c.flight.DoChan(fetchKey, func() (interface{}, error) {
		return nil, c.runFetchAndMerge(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Shared {
			c.logger.Debug("joined in-flight fetch")
		}
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) runFetchAndMerge(ctx context.Context) error {
	c.setState(StateAwaitingNetworkResult)

	fetched, err := c.client.FetchPosts(ctx)
	if err != nil {
		c.settle()
		c.logger.Warn("failed to load posts", zap.Error(err))
		c.view.Notify(loadFailedNotification(err))
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.store.SaveRecords(ctx, fetched); err != nil {
		c.settle()
		c.logger.Error("failed to persist fetched posts", zap.Error(err), zap.Int("count", len(fetched)))
		return apperrors.Wrap(err, "save fetched posts")
	}

	loaded, err := c.store.LoadRecords(ctx)
	if err != nil {
		c.settle()
		c.logger.Error("failed to reload posts after save", zap.Error(err))
		return apperrors.Wrap(err, "reload posts")
	}

	snapshot := c.replacePosts(loaded)
	c.logger.Info("feed refreshed", zap.Int("fetched", len(fetched)), zap.Int("stored", len(snapshot)))
	c.view.Render(snapshot)
	return nil
}

// persistLike writes the latest desired like value for id and reports the
// outcome to every toggle it carries. Toggles already carried by an earlier
// write leave nothing to do.
func (c *Coordinator) persistLike(ctx context.Context, id int) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	pending, ok := c.pendingLikes[id]
	if ok {
		// later toggles register new waiters and are carried by the next write
		c.pendingLikes[id] = pendingLike{liked: pending.liked, seq: pending.seq}
	}
	c.mu.Unlock()
	if !ok || len(pending.waiters) == 0 {
		return
	}

	err := c.store.UpdateLikeState(ctx, id, pending.liked)

	c.mu.Lock()
	superseded := c.pendingLikes[id].seq != pending.seq
	if !superseded {
		delete(c.pendingLikes, id)
	}
	if err == nil {
		c.storedLikes[id] = pending.liked
	}
	var reverted *models.Post
	if err != nil && !superseded {
		stored := c.storedLikes[id]
		if idx := c.indexLocked(id); idx >= 0 && c.posts[idx].IsLiked != stored {
			c.posts[idx].IsLiked = stored
			p := c.posts[idx]
			reverted = &p
		}
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("failed to save like state",
			zap.Int("post_id", id),
			zap.Bool("is_liked", pending.liked),
			zap.Bool("reverted", reverted != nil),
			zap.Error(err),
		)
		if reverted != nil {
			c.view.RenderPost(*reverted)
		}
		c.view.Notify(likeFailedNotification(err))
		err = apperrors.Wrap(err, "save like state")
	} else {
		c.logger.Debug("like state saved", zap.Int("post_id", id), zap.Bool("is_liked", pending.liked))
	}

	for _, w := range pending.waiters {
		w <- err
		close(w)
	}
}

// replacePosts installs posts as the in-memory list, re-applying likes that
// are toggled but not yet persisted, and returns a copy.
func (c *Coordinator) replacePosts(posts []models.Post) []models.Post {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.posts = clonePosts(posts)
	c.storedLikes = make(map[int]bool, len(c.posts))
	for i := range c.posts {
		c.storedLikes[c.posts[i].ID] = c.posts[i].IsLiked
		if pending, ok := c.pendingLikes[c.posts[i].ID]; ok {
			c.posts[i].IsLiked = pending.liked
		}
	}
	c.settleLocked()
	return clonePosts(c.posts)
}

func (c *Coordinator) indexLocked(id int) int {
	for i := range c.posts {
		if c.posts[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Coordinator) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transitionLocked(s)
}

func (c *Coordinator) settle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settleLocked()
}

// settleLocked moves to the resting state implied by the flags and data
func (c *Coordinator) settleLocked() {
	switch {
	case c.offlineNotified:
		c.transitionLocked(StateOfflineNotified)
	case len(c.posts) > 0:
		c.transitionLocked(StateReady)
	default:
		c.transitionLocked(StateIdle)
	}
}

func (c *Coordinator) transitionLocked(s State) {
	if c.state == s {
		return
	}
	c.logger.Debug("feed state changed", zap.Stringer("from", c.state), zap.Stringer("to", s))
	c.state = s
}

func clonePosts(posts []models.Post) []models.Post {
	if posts == nil {
		return nil
	}
	out := make([]models.Post, len(posts))
	copy(out, posts)
	return out
}
