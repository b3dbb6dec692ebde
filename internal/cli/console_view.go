package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/anonto42/nano-midea/feedsync/internal/feedsync"
	"github.com/anonto42/nano-midea/feedsync/internal/models"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

const maxBodyWidth = 60

// ConsoleView renders a feed session to a terminal
type ConsoleView struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleView creates a ConsoleView writing to out
func NewConsoleView(out io.Writer) *ConsoleView {
	return &ConsoleView{out: out}
}

// Render prints the list as a table
func (v *ConsoleView) Render(posts []models.Post) {
	v.mu.Lock()
	defer v.mu.Unlock()
	writePostTable(v.out, posts)
}

// RenderPost prints a one-line update for a single post
func (v *ConsoleView) RenderPost(post models.Post) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, "%s post %d %s\n", likeMark(post.IsLiked), post.ID, likeLabel(post.IsLiked))
}

// Notify prints a notification, in red for errors and yellow otherwise
func (v *ConsoleView) Notify(n feedsync.Notification) {
	v.mu.Lock()
	defer v.mu.Unlock()

	c := color.New(color.FgYellow, color.Bold)
	if n.Kind != feedsync.NotificationOffline {
		c = color.New(color.FgRed, color.Bold)
	}
	c.Fprintf(v.out, "%s: ", n.Title)
	fmt.Fprintln(v.out, n.Message)
}

// EndRefreshing is a no-op; the terminal has no refresh indicator
func (v *ConsoleView) EndRefreshing() {}

func writePostTable(out io.Writer, posts []models.Post) {
	if len(posts) == 0 {
		fmt.Fprintln(out, "No posts to show.")
		return
	}

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"ID", "Title", "Body", "Liked"})
	table.SetAutoWrapText(false)

	for _, p := range posts {
		row := []string{
			strconv.Itoa(p.ID),
			p.Title,
			truncate(p.Body, maxBodyWidth),
			likeMark(p.IsLiked),
		}
		if p.IsLiked {
			table.Rich(row, []tablewriter.Colors{{tablewriter.Bold}, {}, {}, {tablewriter.FgRedColor}})
		} else {
			table.Append(row)
		}
	}
	table.Render()
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func likeMark(liked bool) string {
	if liked {
		return "♥"
	}
	return "♡"
}

func likeLabel(liked bool) string {
	if liked {
		return "liked"
	}
	return "unliked"
}
