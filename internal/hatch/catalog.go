package hatch

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Catalog is the registry of species known to the game. It is read-only once
// built and safe for concurrent use.
type Catalog struct {
	Name    string
	species map[SpeciesID]*Species
}

// NewCatalog creates an empty catalog with the given name.
func NewCatalog(name string) *Catalog {
	return &Catalog{
		Name:    name,
		species: make(map[SpeciesID]*Species),
	}
}

// WithSpecies adds species definitions to the catalog and returns the catalog
// for method chaining.
func (c *Catalog) WithSpecies(species ...*Species) *Catalog {
	for _, sp := range species {
		c.species[sp.ID] = sp
	}
	return c
}

// Species retrieves a species by ID.
// Returns the species and a boolean indicating if it was found.
func (c *Catalog) Species(id SpeciesID) (*Species, bool) {
	sp, ok := c.species[id]
	return sp, ok
}

// All returns every species ordered by ID.
func (c *Catalog) All() []*Species {
	out := make([]*Species, 0, len(c.species))
	for _, sp := range c.species {
		out = append(out, sp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Roots returns the distinct root species IDs ordered ascending.
func (c *Catalog) Roots() []SpeciesID {
	seen := make(map[SpeciesID]struct{})
	roots := make([]SpeciesID, 0)
	for _, sp := range c.species {
		root := sp.RootSpeciesID()
		if _, ok := seen[root]; ok {
			continue
		}
		seen[root] = struct{}{}
		roots = append(roots, root)
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })
	return roots
}

// BuildCatalogFromConfig validates cfg and converts it into a Catalog.
func BuildCatalogFromConfig(cfg CatalogConfig) (*Catalog, error) {
	if err := ValidateCatalogConfig(cfg); err != nil {
		return nil, err
	}

	catalog := NewCatalog(cfg.Name)
	for _, sc := range cfg.Species {
		tier, err := ParseTier(sc.Tier)
		if err != nil {
			return nil, fmt.Errorf("species %d: %w", sc.ID, err)
		}

		moves := make([]Move, 0, len(sc.EggMoves))
		for _, mc := range sc.EggMoves {
			moves = append(moves, Move{ID: mc.ID, Name: mc.Name, Type: mc.Type})
		}

		catalog.WithSpecies(&Species{
			ID:        SpeciesID(sc.ID),
			Name:      sc.Name,
			RootID:    SpeciesID(sc.Root),
			Tier:      tier,
			EggMoves:  moves,
			Abilities: [3]string{sc.Abilities.First, sc.Abilities.Second, sc.Abilities.Hidden},
			EggIcon:   sc.EggIcon,
		})
	}
	return catalog, nil
}

// DecodeCatalogYAML parses a YAML catalog document and builds the catalog.
func DecodeCatalogYAML(data []byte) (CatalogConfig, *Catalog, error) {
	var cfg CatalogConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return CatalogConfig{}, nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	catalog, err := BuildCatalogFromConfig(cfg)
	if err != nil {
		return CatalogConfig{}, nil, err
	}
	return cfg, catalog, nil
}

// LoadCatalog reads and builds a catalog from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	_, catalog, err := DecodeCatalogYAML(data)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return catalog, nil
}
