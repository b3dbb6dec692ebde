package handlers

import (
	"sync"
	"time"

	"github.com/anonto42/nano-midea/feedsync/internal/feedsync"
	"github.com/anonto42/nano-midea/feedsync/internal/models"
	"github.com/google/uuid"
)

const maxNotifications = 50

// NotificationEntry is a notification as served to HTTP clients
type NotificationEntry struct {
	ID        string                    `json:"id"`
	Kind      feedsync.NotificationKind `json:"kind"`
	Title     string                    `json:"title"`
	Message   string                    `json:"message"`
	CreatedAt time.Time                 `json:"created_at"`
}

// FeedView is the HTTP-facing feedsync.View. It keeps what a screen would
// display so that handlers can serve it.
type FeedView struct {
	mu            sync.RWMutex
	posts         []models.Post
	refreshing    bool
	notifications []NotificationEntry
	now           func() time.Time
}

// NewFeedView creates an empty FeedView
func NewFeedView() *FeedView {
	return &FeedView{now: time.Now}
}

// Render replaces the displayed list
func (v *FeedView) Render(posts []models.Post) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.posts = append([]models.Post(nil), posts...)
}

// RenderPost updates one displayed post in place
func (v *FeedView) RenderPost(post models.Post) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.posts {
		if v.posts[i].ID == post.ID {
			v.posts[i] = post
			return
		}
	}
}

// Notify records a notification, newest first, dropping the oldest past the limit
func (v *FeedView) Notify(n feedsync.Notification) {
	entry := NotificationEntry{
		ID:        uuid.NewString(),
		Kind:      n.Kind,
		Title:     n.Title,
		Message:   n.Message,
		CreatedAt: v.now(),
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.notifications = append([]NotificationEntry{entry}, v.notifications...)
	if len(v.notifications) > maxNotifications {
		v.notifications = v.notifications[:maxNotifications]
	}
}

// BeginRefreshing marks a pull-to-refresh as in progress
func (v *FeedView) BeginRefreshing() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.refreshing = true
}

// EndRefreshing clears the in-progress mark
func (v *FeedView) EndRefreshing() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.refreshing = false
}

// Posts returns the displayed posts
func (v *FeedView) Posts() []models.Post {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]models.Post(nil), v.posts...)
}

// Refreshing reports whether a pull-to-refresh is in progress
func (v *FeedView) Refreshing() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.refreshing
}

// Notifications returns recorded notifications, newest first
func (v *FeedView) Notifications() []NotificationEntry {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]NotificationEntry(nil), v.notifications...)
}
