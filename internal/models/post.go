package models

import "time"

// DefaultAvatarURL is the placeholder avatar shown for every post
const DefaultAvatarURL = "https://picsum.photos/seed/avatar/100/100"

// Post is a feed post as the application sees it. ID is the merge key between
// the remote feed and the local store.
type Post struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	IsLiked bool   `json:"is_liked"`
}

// AvatarURL returns the avatar image location for the post's author
func (p Post) AvatarURL() string {
	return DefaultAvatarURL
}

// RemotePost is the wire shape returned by GET /posts
type RemotePost struct {
	ID     int    `json:"id"`
	UserID int    `json:"userId"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// ToPost converts a wire record into a fresh, not-yet-liked Post
func (r RemotePost) ToPost() Post {
	return Post{ID: r.ID, Title: r.Title, Body: r.Body, IsLiked: false}
}

// PostRecord is the persisted form of a Post, stored in SQL through GORM and in
// MongoDB as a document. Title and body are nullable so that incomplete rows
// can be recognised and skipped on read.
type PostRecord struct {
	ID        uint      `json:"-" bson:"-" gorm:"primaryKey"`
	PostID    int       `json:"post_id" bson:"post_id" gorm:"uniqueIndex;not null"`
	PostTitle *string   `json:"post_title" bson:"post_title"`
	PostBody  *string   `json:"post_body" bson:"post_body"`
	IsLiked   bool      `json:"is_liked" bson:"is_liked" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// NewPostRecord builds the record that persists p
func NewPostRecord(p Post) PostRecord {
	title, body := p.Title, p.Body
	return PostRecord{
		PostID:    p.ID,
		PostTitle: &title,
		PostBody:  &body,
		IsLiked:   p.IsLiked,
	}
}

// ToPost converts a record back into a Post. ok is false when the record is
// missing its title or body.
func (r PostRecord) ToPost() (post Post, ok bool) {
	if r.PostTitle == nil || r.PostBody == nil {
		return Post{}, false
	}
	return Post{
		ID:      r.PostID,
		Title:   *r.PostTitle,
		Body:    *r.PostBody,
		IsLiked: r.IsLiked,
	}, true
}

// PostsFromRecords converts records in order, dropping incomplete ones.
// It returns how many were dropped.
func PostsFromRecords(records []PostRecord) ([]Post, int) {
	posts := make([]Post, 0, len(records))
	dropped := 0
	for _, r := range records {
		p, ok := r.ToPost()
		if !ok {
			dropped++
			continue
		}
		posts = append(posts, p)
	}
	return posts, dropped
}
