package hatch

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// HatchConfig describes one hatched creature in a batch file or request.
type HatchConfig struct {
	Species     int    `yaml:"species" json:"species"`
	Form        int    `yaml:"form,omitempty" json:"form,omitempty"`
	Gender      string `yaml:"gender,omitempty" json:"gender,omitempty"`
	Shiny       bool   `yaml:"shiny,omitempty" json:"shiny,omitempty"`
	Variant     int    `yaml:"variant,omitempty" json:"variant,omitempty"`
	Nature      int    `yaml:"nature,omitempty" json:"nature,omitempty"`
	Ability     int    `yaml:"ability,omitempty" json:"ability,omitempty"`
	IVs         []int  `yaml:"ivs,omitempty" json:"ivs,omitempty"`
	EggMoveSlot int    `yaml:"egg_move_slot" json:"egg_move_slot"`
}

// BatchConfig is a batch of hatches, in hatch order.
type BatchConfig struct {
	ShowMessages bool          `yaml:"show_messages,omitempty" json:"show_messages,omitempty"`
	Hatches      []HatchConfig `yaml:"hatches" json:"hatches"`
}

// ParseGender parses a gender name. The empty string is genderless.
func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(s) {
	case "", "genderless", "none":
		return GenderGenderless, nil
	case "male", "m":
		return GenderMale, nil
	case "female", "f":
		return GenderFemale, nil
	default:
		return 0, fmt.Errorf("unknown gender %q", s)
	}
}

// ValidateBatchConfig checks every hatch against catalog and reports all
// issues at once.
func ValidateBatchConfig(cfg BatchConfig, catalog *Catalog) error {
	err := &ValidationError{Subject: "batch"}

	for i, hc := range cfg.Hatches {
		prefix := fmt.Sprintf("hatch %d", i)

		sp, ok := catalog.Species(SpeciesID(hc.Species))
		if !ok {
			err.Add(fmt.Sprintf("%s: species %d not found in catalog", prefix, hc.Species))
		}
		if _, gErr := ParseGender(hc.Gender); gErr != nil {
			err.Add(fmt.Sprintf("%s: %v", prefix, gErr))
		}
		if hc.Variant < 0 || hc.Variant > 2 {
			err.Add(fmt.Sprintf("%s: variant must be between 0 and 2", prefix))
		}
		if hc.Form < 0 {
			err.Add(fmt.Sprintf("%s: form must not be negative", prefix))
		}
		if hc.Nature < 0 || hc.Nature >= NatureCount {
			err.Add(fmt.Sprintf("%s: nature must be between 0 and %d", prefix, NatureCount-1))
		}
		if hc.Ability < AbilitySlot1 || hc.Ability > AbilitySlotHidden {
			err.Add(fmt.Sprintf("%s: ability must be between 0 and 2", prefix))
		} else if ok && sp.Abilities[hc.Ability] == "" {
			err.Add(fmt.Sprintf("%s: species %d has no ability in slot %d", prefix, hc.Species, hc.Ability))
		}
		if len(hc.IVs) != 0 && len(hc.IVs) != StatCount {
			err.Add(fmt.Sprintf("%s: expected %d IVs, got %d", prefix, StatCount, len(hc.IVs)))
		}
		for _, iv := range hc.IVs {
			if iv < 0 || iv > MaxIV {
				err.Add(fmt.Sprintf("%s: IVs must be between 0 and %d", prefix, MaxIV))
				break
			}
		}
		if hc.EggMoveSlot < 0 || hc.EggMoveSlot >= EggMoveSlots {
			err.Add(fmt.Sprintf("%s: egg move slot must be between 0 and %d", prefix, EggMoveSlots-1))
		}
	}

	if err.HasIssues() {
		return err
	}
	return nil
}

// BuildHatches validates cfg and resolves it into creatures from catalog.
// Every creature gets a fresh ID and is marked as hatched from an egg.
func BuildHatches(cfg BatchConfig, catalog *Catalog) ([]Hatch, error) {
	if err := ValidateBatchConfig(cfg, catalog); err != nil {
		return nil, err
	}

	hatches := make([]Hatch, 0, len(cfg.Hatches))
	for _, hc := range cfg.Hatches {
		sp, _ := catalog.Species(SpeciesID(hc.Species))
		gender, _ := ParseGender(hc.Gender)

		c := &Creature{
			ID:           NewCreatureID(),
			Species:      sp,
			FormIndex:    hc.Form,
			Gender:       gender,
			Shiny:        hc.Shiny,
			Variant:      hc.Variant,
			Nature:       hc.Nature,
			AbilityIndex: hc.Ability,
			FromEgg:      true,
		}
		copy(c.IVs[:], hc.IVs)
		hatches = append(hatches, Hatch{Creature: c, EggMoveSlot: hc.EggMoveSlot})
	}
	return hatches, nil
}

// DecodeBatchYAML parses a YAML batch document.
func DecodeBatchYAML(data []byte) (BatchConfig, error) {
	var cfg BatchConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return BatchConfig{}, fmt.Errorf("failed to decode batch: %w", err)
	}
	return cfg, nil
}

// LoadBatch reads a YAML batch file.
func LoadBatch(path string) (BatchConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BatchConfig{}, fmt.Errorf("read batch %s: %w", path, err)
	}
	cfg, err := DecodeBatchYAML(data)
	if err != nil {
		return BatchConfig{}, fmt.Errorf("load batch %s: %w", path, err)
	}
	return cfg, nil
}
