package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

const releaseSlug = "happyhackingspace/wordseg"

func (c *CLI) newUpCommand() *cobra.Command {
	var checkOnly bool

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Self-update to the latest release and refresh the cached model",
		Example: `  wordseg up
  wordseg up --check`,
		RunE: func(cmd *cobra.Command, args []string) error {
			updated, err := c.selfUpdate(cmd.Context(), cmd.OutOrStdout(), checkOnly)
			if err != nil || !updated {
				return err
			}
			refreshCachedModel()
			return nil
		},
	}
	cmd.Flags().BoolVar(&checkOnly, "check", false, "Only report whether a newer release exists")
	return cmd
}

// selfUpdate replaces the running binary with the latest release and
// reports whether it did.
func (c *CLI) selfUpdate(ctx context.Context, w io.Writer, checkOnly bool) (bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	current := c.version
	if current == "dev" {
		current = "0.0.0"
	}

	updater, err := selfupdate.NewUpdater(selfupdate.Config{})
	if err != nil {
		return false, err
	}
	latest, found, err := updater.DetectLatest(ctx, selfupdate.ParseSlug(releaseSlug))
	if err != nil {
		return false, fmt.Errorf("detect latest version: %w", err)
	}
	if !found {
		return false, errors.New("no release found")
	}
	if latest.LessOrEqual(current) {
		fmt.Fprintf(w, "wordseg %s is the latest release\n", c.version)
		return false, nil
	}
	if checkOnly {
		fmt.Fprintf(w, "wordseg %s is available (running %s)\n", latest.Version(), c.version)
		return false, nil
	}

	exe, err := os.Executable()
	if err != nil {
		return false, err
	}
	slog.Info("Updating", "from", c.version, "to", latest.Version())
	if err := updater.UpdateTo(ctx, latest, exe); err != nil {
		return false, fmt.Errorf("update: %w", err)
	}
	fmt.Fprintf(w, "Updated to wordseg %s\n", latest.Version())
	return true, nil
}

// refreshCachedModel re-downloads the cached default model if one exists.
// A failed or invalid download keeps the current model.
func refreshCachedModel() {
	dest := cachedModelPath()
	if _, err := os.Stat(dest); err != nil {
		return
	}
	if _, err := fetchModel(modelURL, dest); err != nil {
		slog.Warn("Keeping cached model", "path", dest, "error", err)
	}
}
