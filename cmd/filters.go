package cmd

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"parcelgrid/internal/bus"
	"parcelgrid/internal/filter"
)

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "Manage saved filter presets",
}

var filtersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved filters, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateConfig(); err != nil {
			return err
		}
		backend := openBackend()
		defer func() { _ = backend.Close() }()

		store := filter.NewStore(bus.SystemSource, bus.New(), backend, nil)
		defer store.Close()

		saved, err := store.SavedFilters()
		if err != nil {
			return err
		}
		if len(saved) == 0 {
			cmd.Println("no saved filters")
			return nil
		}
		for _, sf := range saved {
			cmd.Printf("%s  %-24s %d scope(s)  %s\n",
				sf.ID, sf.Name, len(sf.Filters), sf.CreatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var filtersExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export saved filters as YAML (stdout when no file given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateConfig(); err != nil {
			return err
		}
		backend := openBackend()
		defer func() { _ = backend.Close() }()

		store := filter.NewStore(bus.SystemSource, bus.New(), backend, nil)
		defer store.Close()

		if len(args) == 0 {
			return store.ExportSaved(cmd.OutOrStdout())
		}
		f, err := os.Create(args[0])
		if err != nil {
			return fmt.Errorf("creating export file: %w", err)
		}
		defer func() { _ = f.Close() }()
		return store.ExportSaved(f)
	},
}

var filtersImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import saved filters from a YAML export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateConfig(); err != nil {
			return err
		}
		backend := openBackend()
		defer func() { _ = backend.Close() }()

		store := filter.NewStore(bus.SystemSource, bus.New(), backend, nil)
		defer store.Close()

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening import file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if err := store.ImportSaved(f); err != nil {
			return err
		}
		cmd.Println("imported saved filters")
		return nil
	},
}

var filtersDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved filter by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateConfig(); err != nil {
			return err
		}
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid filter id %q: %w", args[0], err)
		}

		backend := openBackend()
		defer func() { _ = backend.Close() }()

		store := filter.NewStore(bus.SystemSource, bus.New(), backend, nil)
		defer store.Close()

		if err := store.DeleteFilter(id); err != nil {
			return err
		}
		cmd.Printf("deleted %s\n", id)
		return nil
	},
}

func init() {
	filtersCmd.AddCommand(filtersListCmd)
	filtersCmd.AddCommand(filtersExportCmd)
	filtersCmd.AddCommand(filtersImportCmd)
	filtersCmd.AddCommand(filtersDeleteCmd)
	rootCmd.AddCommand(filtersCmd)
}
