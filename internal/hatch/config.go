package hatch

// MoveConfig is the YAML form of an egg move.
type MoveConfig struct {
	ID   int    `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type,omitempty" json:"type,omitempty"`
}

// AbilitiesConfig names the three ability slots of a species.
type AbilitiesConfig struct {
	First  string `yaml:"first" json:"first"`
	Second string `yaml:"second,omitempty" json:"second,omitempty"`
	Hidden string `yaml:"hidden,omitempty" json:"hidden,omitempty"`
}

type SpeciesConfig struct {
	ID        int             `yaml:"id" json:"id"`
	Name      string          `yaml:"name" json:"name"`
	Root      int             `yaml:"root,omitempty" json:"root,omitempty"`
	Tier      string          `yaml:"tier" json:"tier"`
	Abilities AbilitiesConfig `yaml:"abilities" json:"abilities"`
	EggMoves  []MoveConfig    `yaml:"egg_moves,omitempty" json:"egg_moves,omitempty"`
	EggIcon   string          `yaml:"egg_icon,omitempty" json:"egg_icon,omitempty"`
}

type CatalogConfig struct {
	Name    string          `yaml:"name" json:"name"`
	Species []SpeciesConfig `yaml:"species" json:"species"`
}
