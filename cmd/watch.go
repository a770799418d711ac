package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"parcelgrid/internal/bus"
	"parcelgrid/internal/config"
	"parcelgrid/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the storage file and print external-change events",
	Long: `Watches the sqlite storage file for writes by other processes and
prints the bus event each debounced change produces. Requires
watcher.enabled: true in the config.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := validateConfig(); err != nil {
		return err
	}
	if !cfg.Watcher.Enabled {
		return fmt.Errorf("watcher is disabled: set watcher.enabled: true in the config")
	}
	if cfg.Storage.Driver == "memory" {
		return fmt.Errorf("watch requires the sqlite storage driver")
	}

	path := cfg.Storage.Path
	if path == "" {
		path = config.DefaultStoragePath()
	}

	out := cmd.OutOrStdout()

	b := bus.New()
	b.Subscribe(func(event bus.Event) {
		if event.Type != watcher.ExternalChange {
			return
		}
		payload, _ := event.Payload.(bus.CustomPayload)
		fmt.Fprintf(out, "%s v%d %v\n", event.Type, event.Version, payload["path"])
	})

	w, err := watcher.New(watcher.Config{
		DBPath:      path,
		DebounceDur: cfg.Debounce(),
	}, b)
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.Start(); err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}

	fmt.Fprintf(out, "watching %s (ctrl-c to stop)\n", path)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	return w.Stop()
}
