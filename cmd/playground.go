package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"parcelgrid/internal/bus"
	"parcelgrid/internal/entity"
	"parcelgrid/internal/filter"
	"parcelgrid/internal/kv"
	"parcelgrid/internal/panel"
	"parcelgrid/internal/tracing"
)

var playgroundCmd = &cobra.Command{
	Use:   "playground",
	Short: "Demo of the cross-panel sync flow",
	Long: `Wires a sync context with three panels and a stub data source, then
walks through selection propagation, filter conflicts and dataset
filtering, printing every bus event as it happens.`,
	RunE: runPlayground,
}

func init() {
	rootCmd.AddCommand(playgroundCmd)
}

// demoFetcher serves a fixed set of demo entities.
func demoFetcher(ctx context.Context, typ entity.Type, id string) (entity.Entity, error) {
	demo := map[string]entity.Entity{
		"county-042": {ID: "county-042", Type: entity.TypeCounty, Name: "Jefferson County",
			Attrs: map[string]any{"state": "CO", "population": 582910}},
		"prop-7": {ID: "prop-7", Type: entity.TypeProperty, Name: "14 Maple Street",
			Attrs: map[string]any{"price": 425000, "status": "active", "county": "county-042"}},
	}
	if e, ok := demo[id]; ok {
		return e, nil
	}
	return entity.Entity{ID: id, Type: typ, Name: id}, nil
}

func demoRows() []filter.Row {
	return []filter.Row{
		{"id": "prop-1", "name": "3 Oak Avenue", "price": 150000, "status": "active"},
		{"id": "prop-7", "name": "14 Maple Street", "price": 425000, "status": "active"},
		{"id": "prop-9", "name": "22 Birch Lane", "price": 310000, "status": "sold"},
		{"id": "prop-12", "name": "8 Cedar Court", "price": 515000, "status": "active"},
	}
}

func runPlayground(cmd *cobra.Command, args []string) error {
	if err := validateConfig(); err != nil {
		return err
	}

	provider, err := tracing.NewProvider(tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		Exporter:     cfg.Tracing.Exporter,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRate:   cfg.Tracing.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() { _ = provider.Shutdown(context.Background()) }()

	ctx, span := provider.Tracer().Start(cmd.Context(), "playground")
	defer span.End()

	out := cmd.OutOrStdout()

	// Everything in-memory: the playground never touches configured
	// storage.
	sc := panel.New(panel.Options{
		Backend: kv.NewMemory(),
		Fetcher: entity.NewCachedFetcher(entity.FetcherFunc(demoFetcher), cfg.CacheTTL(), cfg.Cache.Disabled),
		OnConflict: func(scope filter.Scope, discarded, adopted filter.Criteria) {
			fmt.Fprintf(out, "    conflict on scope %q: local edit discarded for newer write\n", scope)
		},
	})
	defer sc.Close()

	sc.Bus().Subscribe(func(event bus.Event) {
		fmt.Fprintf(out, "  [bus] %-28s v%-3d from %s\n", event.Type, event.Version, event.Source)
	})

	sc.Registry().RegisterComponent("county_map", func() (any, error) { return "county-map-view", nil })
	sc.Registry().RegisterLazy("property_list", func(ctx context.Context) (any, error) {
		return "property-list-view", nil
	})

	mapPanel, err := sc.Attach(panel.Descriptor{
		ID: "map-1", ContentType: "county_map", Title: "County Map", Visible: true,
	})
	if err != nil {
		return err
	}
	listPanel, err := sc.Attach(panel.Descriptor{
		ID: "list-1", ContentType: "property_list", Title: "Listings", Visible: true,
	})
	if err != nil {
		return err
	}
	detailPanel, err := sc.Attach(panel.Descriptor{
		ID: "detail-1", ContentType: "property_list", Title: "Detail", Visible: true,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "panels attached:")
	for _, d := range sc.Panels() {
		component, err := sc.Registry().Resolve(ctx, d.ContentType)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  %-10s %-16s -> %v\n", d.ID, d.ContentType, component)
	}

	fmt.Fprintln(out, "\nmap panel selects county-042:")
	if _, err := mapPanel.Entity().SelectEntity(ctx, "county-042", entity.TypeCounty); err != nil {
		return err
	}
	adopted := listPanel.Entity().Snapshot(entity.TypeCounty)
	fmt.Fprintf(out, "  list panel now sees: %s (v%d)\n", adopted.Entity.Name, adopted.Version)

	fmt.Fprintln(out, "\ndetail panel selects prop-7 and edits the price:")
	if _, err := detailPanel.Entity().SelectEntity(ctx, "prop-7", entity.TypeProperty); err != nil {
		return err
	}
	detailPanel.Entity().UpdateEntity(entity.TypeProperty, map[string]any{"price": 430000})
	echoed := listPanel.Entity().Snapshot(entity.TypeProperty)
	fmt.Fprintf(out, "  list panel sees price: %v\n", echoed.Entity.Attrs["price"])

	fmt.Fprintln(out, "\nlist panel filters 100k-450k, then map panel overrides with 300k-600k:")
	listPanel.Filters().ApplyFilters(filter.FilterSet{
		filter.ScopeGlobal: {"price": {Range: &filter.Range{Min: 100000, Max: 450000}}},
	})
	mapPanel.Filters().ApplyFilters(filter.FilterSet{
		filter.ScopeGlobal: {"price": {Range: &filter.Range{Min: 300000, Max: 600000}}},
	})

	fmt.Fprintln(out, "\nlist panel evaluates its (adopted) filters:")
	for _, row := range listPanel.Filters().FilterData(demoRows(), nil) {
		fmt.Fprintf(out, "  %-10v %-16v $%v\n", row["id"], row["name"], row["price"])
	}

	fmt.Fprintln(out, "\ndetaching list panel; selections no longer reach it:")
	listPanel.Detach()
	if _, err := mapPanel.Entity().SelectEntity(ctx, "county-042", entity.TypeCounty); err != nil {
		return err
	}
	fmt.Fprintf(out, "  %d panel(s) still attached\n", len(sc.Panels()))

	return nil
}
