package feedsync

import "github.com/anonto42/nano-midea/feedsync/internal/models"

// NotificationKind identifies a user-visible notification
type NotificationKind string

const (
	NotificationOffline    NotificationKind = "offline"
	NotificationLoadFailed NotificationKind = "load_failed"
	NotificationLikeFailed NotificationKind = "like_failed"
)

// Notification is an alert the presentation layer shows to the user
type Notification struct {
	Kind    NotificationKind
	Title   string
	Message string
	Err     error
}

func offlineNotification() Notification {
	return Notification{
		Kind:    NotificationOffline,
		Title:   "No connection",
		Message: "Showing cached posts. The feed will refresh automatically when the connection is restored.",
	}
}

func loadFailedNotification(err error) Notification {
	return Notification{
		Kind:    NotificationLoadFailed,
		Title:   "Error",
		Message: "Failed to load posts",
		Err:     err,
	}
}

func likeFailedNotification(err error) Notification {
	return Notification{
		Kind:    NotificationLikeFailed,
		Title:   "Error",
		Message: "Your like could not be saved",
		Err:     err,
	}
}

// View is the presentation side of a feed session. Methods are called from
// the coordinator's goroutines and must not block for long.
type View interface {
	// Render replaces the displayed list.
	Render(posts []models.Post)
	// RenderPost updates a single displayed post, e.g. after a like toggle.
	RenderPost(post models.Post)
	// Notify shows a notification.
	Notify(n Notification)
	// EndRefreshing hides a pull-to-refresh indicator.
	EndRefreshing()
}

// NopView discards everything
type NopView struct{}

func (NopView) Render([]models.Post)  {}
func (NopView) RenderPost(models.Post) {}
func (NopView) Notify(Notification)    {}
func (NopView) EndRefreshing()         {}
