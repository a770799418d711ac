package filter

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"parcelgrid/internal/log"
)

const savedPrefix = "filters/saved/"

// SavedFilter is a named, immutable snapshot of a FilterSet. Saved
// filters persist independently of the active filters; duplicate names
// are permitted and disambiguated by id.
type SavedFilter struct {
	ID        uuid.UUID `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Filters   FilterSet `json:"filters" yaml:"filters"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// SaveFilter persists a snapshot of the given filters under a fresh id.
func (s *Store) SaveFilter(name string, fs FilterSet) (uuid.UUID, error) {
	saved := SavedFilter{
		ID:        uuid.New(),
		Name:      name,
		Filters:   fs.Clone(),
		CreatedAt: time.Now().UTC(),
	}
	raw, err := json.Marshal(saved)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encoding saved filter: %w", err)
	}
	if err := s.backend.Set(savedPrefix+saved.ID.String(), raw); err != nil {
		return uuid.Nil, fmt.Errorf("persisting saved filter: %w", err)
	}
	log.Debug(log.CatFilter, "saved filter", "id", saved.ID, "name", name)
	return saved.ID, nil
}

// LoadFilter applies a saved snapshot as if via ApplyFilters.
func (s *Store) LoadFilter(id uuid.UUID) error {
	saved, err := s.savedByID(id)
	if err != nil {
		return err
	}
	s.ApplyFilters(saved.Filters)
	return nil
}

// DeleteFilter removes a saved filter. Currently active filters are
// unaffected.
func (s *Store) DeleteFilter(id uuid.UUID) error {
	return s.backend.Delete(savedPrefix + id.String())
}

// SavedFilters lists all saved filters, newest first. Corrupt records
// are skipped with a warning rather than failing the listing.
func (s *Store) SavedFilters() ([]SavedFilter, error) {
	keys, err := s.backend.Keys(savedPrefix)
	if err != nil {
		return nil, fmt.Errorf("listing saved filters: %w", err)
	}

	saved := make([]SavedFilter, 0, len(keys))
	for _, key := range keys {
		raw, found, err := s.backend.Get(key)
		if err != nil || !found {
			continue
		}
		var sf SavedFilter
		if err := json.Unmarshal(raw, &sf); err != nil {
			log.Warn(log.CatFilter, "skipping corrupt saved filter", "key", key, "error", err)
			continue
		}
		saved = append(saved, sf)
	}
	sort.Slice(saved, func(i, j int) bool {
		return saved[i].CreatedAt.After(saved[j].CreatedAt)
	})
	return saved, nil
}

func (s *Store) savedByID(id uuid.UUID) (SavedFilter, error) {
	raw, found, err := s.backend.Get(savedPrefix + id.String())
	if err != nil {
		return SavedFilter{}, fmt.Errorf("reading saved filter: %w", err)
	}
	if !found {
		return SavedFilter{}, fmt.Errorf("saved filter %s not found", id)
	}
	var sf SavedFilter
	if err := json.Unmarshal(raw, &sf); err != nil {
		return SavedFilter{}, fmt.Errorf("decoding saved filter %s: %w", id, err)
	}
	return sf, nil
}

// exportRecord is the yaml shape for saved filter export; ids travel
// as strings.
type exportRecord struct {
	ID        string    `yaml:"id"`
	Name      string    `yaml:"name"`
	Filters   FilterSet `yaml:"filters"`
	CreatedAt time.Time `yaml:"created_at"`
}

// ExportSaved writes every saved filter as a yaml document, for sharing
// or backup.
func (s *Store) ExportSaved(w io.Writer) error {
	saved, err := s.SavedFilters()
	if err != nil {
		return err
	}
	records := make([]exportRecord, 0, len(saved))
	for _, sf := range saved {
		records = append(records, exportRecord{
			ID:        sf.ID.String(),
			Name:      sf.Name,
			Filters:   sf.Filters,
			CreatedAt: sf.CreatedAt,
		})
	}
	return yaml.NewEncoder(w).Encode(records)
}

// ImportSaved reads yaml produced by ExportSaved and persists each
// entry under its original id, overwriting existing entries with the
// same id.
func (s *Store) ImportSaved(r io.Reader) error {
	var records []exportRecord
	if err := yaml.NewDecoder(r).Decode(&records); err != nil {
		return fmt.Errorf("decoding saved filters: %w", err)
	}
	for _, rec := range records {
		id, err := uuid.Parse(rec.ID)
		if err != nil {
			return fmt.Errorf("parsing saved filter id %q: %w", rec.ID, err)
		}
		raw, err := json.Marshal(SavedFilter{
			ID:        id,
			Name:      rec.Name,
			Filters:   rec.Filters,
			CreatedAt: rec.CreatedAt,
		})
		if err != nil {
			return fmt.Errorf("encoding saved filter %s: %w", id, err)
		}
		if err := s.backend.Set(savedPrefix+id.String(), raw); err != nil {
			return fmt.Errorf("persisting saved filter %s: %w", id, err)
		}
	}
	return nil
}
