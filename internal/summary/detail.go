package summary

import (
	"fmt"
	"strings"

	"github.com/daniacca/hatchery/internal/hatch"
)

var statNames = [hatch.StatCount]string{"HP", "Atk", "Def", "SpA", "SpD", "Spe"}

// Badges returns the short markers shown next to an entry in the grid.
func (e Entry) Badges() string {
	var b strings.Builder
	if e.Shiny {
		b.WriteByte('*')
	}
	if e.HiddenAbility {
		b.WriteByte('H')
	}
	if e.NewCatch {
		b.WriteByte('N')
	}
	if e.EggMoveUnlocked {
		b.WriteByte('E')
	}
	return b.String()
}

// DetailLines renders the detail panel for an entry.
func DetailLines(e Entry) []string {
	lines := []string{
		fmt.Sprintf("#%s %s", e.Number, e.Name),
		fmt.Sprintf("Egg: %s", e.Icon),
	}

	var flags []string
	if e.Shiny {
		flags = append(flags, fmt.Sprintf("shiny (variant %d)", e.Variant+1))
	}
	if e.HiddenAbility {
		flags = append(flags, "hidden ability")
	}
	if e.NewCatch {
		flags = append(flags, "new catch")
	}
	if len(flags) > 0 {
		lines = append(lines, strings.Join(flags, ", "))
	}

	var news []string
	d := e.Delta
	if !e.NewCatch {
		if d.NewShiny {
			news = append(news, "shiny")
		}
		if d.NewVariant && !d.NewShiny {
			news = append(news, "variant")
		}
		if d.NewGender {
			news = append(news, "gender")
		}
		if d.NewForm {
			news = append(news, "form")
		}
	}
	if d.NewNature {
		news = append(news, "nature")
	}
	if d.NewAbility {
		news = append(news, "ability")
	}
	if len(news) > 0 {
		lines = append(lines, "New: "+strings.Join(news, ", "))
	}

	ivs := make([]string, 0, hatch.StatCount)
	for i, v := range e.IVs {
		s := fmt.Sprintf("%s %2d", statNames[i], v)
		if diff := d.IVs[i]; diff > 0 && !e.NewCatch {
			s += fmt.Sprintf(" (+%d)", diff)
		}
		ivs = append(ivs, s)
	}
	lines = append(lines, "IVs: "+strings.Join(ivs, "  "))

	lines = append(lines, "Egg moves:")
	for slot, name := range e.EggMoves {
		marker := " "
		if slot == e.EggMoveSlot && e.EggMoveUnlocked {
			marker = "+"
		}
		lines = append(lines, fmt.Sprintf(" %s %d. %s", marker, slot+1, name))
	}
	return lines
}
