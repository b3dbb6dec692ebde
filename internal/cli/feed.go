package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch the feed once, store it and print it",
	Args:  cobra.NoArgs,
	RunE:  syncFeed,
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Print the cached feed without touching the network",
	Args:    cobra.NoArgs,
	RunE:    listFeed,
}

var likeCmd = &cobra.Command{
	Use:   "like <post-id>",
	Short: "Toggle the like state of a cached post",
	Args:  cobra.ExactArgs(1),
	RunE:  toggleLike,
}

func init() {
	RootCmd.AddCommand(syncCmd)
	RootCmd.AddCommand(listCmd)
	RootCmd.AddCommand(likeCmd)
}

func syncFeed(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	view := NewConsoleView(cmd.OutOrStdout())
	coordinator := a.coordinator(view)
	coordinator.LoadFromCache(cmd.Context())
	// the view has already printed the result or the notification
	return coordinator.Refresh(cmd.Context())
}

func listFeed(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	coordinator := a.coordinator(nil)
	coordinator.LoadFromCache(cmd.Context())
	writePostTable(cmd.OutOrStdout(), coordinator.Posts())
	return nil
}

func toggleLike(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil || id < 1 {
		return fmt.Errorf("invalid post id %q", args[0])
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	coordinator := a.coordinator(NewConsoleView(cmd.OutOrStdout()))
	coordinator.LoadFromCache(cmd.Context())

	_, done, err := coordinator.ToggleLike(cmd.Context(), id)
	if err != nil {
		return err
	}
	return <-done
}
