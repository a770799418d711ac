package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"parcelgrid/internal/layout"
)

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Inspect and manage persisted panel layouts",
}

var layoutListCmd = &cobra.Command{
	Use:   "list",
	Short: "List persisted panel geometry",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateConfig(); err != nil {
			return err
		}
		backend := openBackend()
		defer func() { _ = backend.Close() }()

		store := layout.NewStore(backend, cfg.CheckpointInterval())
		ids, err := store.PersistedPanelIDs()
		if err != nil {
			return fmt.Errorf("listing layouts: %w", err)
		}
		if len(ids) == 0 {
			cmd.Println("no persisted layouts")
			return nil
		}

		for _, id := range ids {
			panelCfg, ok := store.PersistedConfig(id)
			if !ok {
				cmd.Printf("%-20s (corrupt record)\n", id)
				continue
			}
			flags := ""
			if !panelCfg.Visible {
				flags += " hidden"
			}
			if panelCfg.Minimized {
				flags += " minimized"
			}
			if panelCfg.Maximized {
				flags += " maximized"
			}
			cmd.Printf("%-20s %dx%d at (%d,%d)%s\n", id,
				panelCfg.Geometry.Size.Width, panelCfg.Geometry.Size.Height,
				panelCfg.Geometry.Position.X, panelCfg.Geometry.Position.Y, flags)
		}
		return nil
	},
}

var layoutResetCmd = &cobra.Command{
	Use:   "reset [panel-id...]",
	Short: "Clear persisted layouts (all panels, or only the given ids)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateConfig(); err != nil {
			return err
		}
		backend := openBackend()
		defer func() { _ = backend.Close() }()

		store := layout.NewStore(backend, cfg.CheckpointInterval())
		ids := args
		if len(ids) == 0 {
			var err error
			ids, err = store.PersistedPanelIDs()
			if err != nil {
				return fmt.Errorf("listing layouts: %w", err)
			}
		}

		for _, id := range ids {
			if err := store.Reset(id); err != nil {
				return fmt.Errorf("resetting %s: %w", id, err)
			}
			cmd.Printf("reset %s\n", id)
		}
		return nil
	},
}

func init() {
	layoutCmd.AddCommand(layoutListCmd)
	layoutCmd.AddCommand(layoutResetCmd)
	rootCmd.AddCommand(layoutCmd)
}
