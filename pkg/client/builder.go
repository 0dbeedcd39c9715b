package client

import "github.com/daniacca/hatchery/internal/hatch"

// BatchBuilder provides a fluent API for building hatch batches.
// A batch is a list of eggs hatched together and shown on one summary.
type BatchBuilder struct {
	showMessages bool
	hatches      []*HatchBuilder
}

// NewBatch creates an empty batch builder. Discovery messages are off
// until ShowMessages is called.
func NewBatch() *BatchBuilder {
	return &BatchBuilder{hatches: make([]*HatchBuilder, 0)}
}

// ShowMessages sets whether commits announce first catches and egg move
// unlocks to the registered notifiers.
func (bb *BatchBuilder) ShowMessages(show bool) *BatchBuilder {
	bb.showMessages = show
	return bb
}

// Hatch adds one or more eggs to the batch.
func (bb *BatchBuilder) Hatch(hbs ...*HatchBuilder) *BatchBuilder {
	bb.hatches = append(bb.hatches, hbs...)
	return bb
}

// Build converts the builder to a BatchConfig that can be submitted to a
// server or validated locally with hatch.ValidateBatchConfig.
func (bb *BatchBuilder) Build() hatch.BatchConfig {
	hatches := make([]hatch.HatchConfig, 0, len(bb.hatches))
	for _, hb := range bb.hatches {
		hatches = append(hatches, hb.Build())
	}
	return hatch.BatchConfig{
		ShowMessages: bb.showMessages,
		Hatches:      hatches,
	}
}

// HatchBuilder describes one hatched creature.
type HatchBuilder struct {
	cfg hatch.HatchConfig
}

// NewHatch creates a hatch of the given species with default attributes:
// genderless, non-shiny, default form, first ability and egg move slot 0.
func NewHatch(species int) *HatchBuilder {
	return &HatchBuilder{cfg: hatch.HatchConfig{Species: species}}
}

// Shiny marks the creature shiny with the given variant (0-2).
func (hb *HatchBuilder) Shiny(variant int) *HatchBuilder {
	hb.cfg.Shiny = true
	hb.cfg.Variant = variant
	return hb
}

// Gender sets the gender by name: "male", "female" or "genderless".
func (hb *HatchBuilder) Gender(gender string) *HatchBuilder {
	hb.cfg.Gender = gender
	return hb
}

// Form sets the form index.
func (hb *HatchBuilder) Form(form int) *HatchBuilder {
	hb.cfg.Form = form
	return hb
}

// Nature sets the nature index (0-24).
func (hb *HatchBuilder) Nature(nature int) *HatchBuilder {
	hb.cfg.Nature = nature
	return hb
}

// Ability sets the ability slot: 0 and 1 are the regular abilities, 2 is
// the hidden one.
func (hb *HatchBuilder) Ability(slot int) *HatchBuilder {
	hb.cfg.Ability = slot
	return hb
}

// IVs sets the six individual values.
func (hb *HatchBuilder) IVs(hp, atk, def, spatk, spdef, spd int) *HatchBuilder {
	hb.cfg.IVs = []int{hp, atk, def, spatk, spdef, spd}
	return hb
}

// EggMoveSlot sets which of the species' egg moves the hatch may unlock.
func (hb *HatchBuilder) EggMoveSlot(slot int) *HatchBuilder {
	hb.cfg.EggMoveSlot = slot
	return hb
}

// Build converts the builder to a HatchConfig.
func (hb *HatchBuilder) Build() hatch.HatchConfig {
	cfg := hb.cfg
	if cfg.IVs != nil {
		cfg.IVs = append([]int(nil), cfg.IVs...)
	}
	return cfg
}
