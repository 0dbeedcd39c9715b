package hatch

import (
	"fmt"
	"strings"
)

// ValidationError collects multiple validation issues
type ValidationError struct {
	// Subject names what was validated; it defaults to "catalog".
	Subject string
	Issues  []string
}

func (e *ValidationError) Error() string {
	subject := e.Subject
	if subject == "" {
		subject = "catalog"
	}
	if len(e.Issues) == 0 {
		return "invalid " + subject + ": unknown validation error"
	}
	if len(e.Issues) == 1 {
		return e.Issues[0]
	}
	return subject + " validation errors: " + strings.Join(e.Issues, "; ")
}

func (e *ValidationError) Add(issue string) {
	e.Issues = append(e.Issues, issue)
}

func (e *ValidationError) HasIssues() bool {
	return len(e.Issues) > 0
}

// ValidateCatalogConfig performs comprehensive validation of a CatalogConfig
func ValidateCatalogConfig(cfg CatalogConfig) error {
	err := &ValidationError{}

	if cfg.Name == "" {
		err.Add("catalog name is required")
	}

	ids := make(map[int]bool)
	for i, sc := range cfg.Species {
		prefix := fmt.Sprintf("species at index %d", i)
		if sc.ID != 0 {
			prefix = fmt.Sprintf("species %d", sc.ID)
		}

		if sc.ID <= 0 {
			err.Add(prefix + ": species ID must be positive")
		} else if ids[sc.ID] {
			err.Add(fmt.Sprintf("duplicate species ID: %d", sc.ID))
		} else {
			ids[sc.ID] = true
		}

		if sc.Name == "" {
			err.Add(prefix + ": species name is required")
		}
		if _, tierErr := ParseTier(sc.Tier); tierErr != nil {
			err.Add(prefix + ": " + tierErr.Error())
		}
		if sc.Abilities.First == "" {
			err.Add(prefix + ": first ability is required")
		}
		if len(sc.EggMoves) > EggMoveSlots {
			err.Add(fmt.Sprintf("%s: at most %d egg moves allowed, found %d", prefix, EggMoveSlots, len(sc.EggMoves)))
		}
		for j, mc := range sc.EggMoves {
			if mc.Name == "" {
				err.Add(fmt.Sprintf("%s egg move at index %d: move name is required", prefix, j))
			}
		}
	}

	// Roots must point at registered species that are their own root.
	roots := make(map[int]int)
	for _, sc := range cfg.Species {
		roots[sc.ID] = sc.Root
	}
	for _, sc := range cfg.Species {
		if sc.Root == 0 || sc.Root == sc.ID {
			continue
		}
		parentRoot, ok := roots[sc.Root]
		if !ok {
			err.Add(fmt.Sprintf("species %d: root species %d does not exist", sc.ID, sc.Root))
			continue
		}
		if parentRoot != 0 && parentRoot != sc.Root {
			err.Add(fmt.Sprintf("species %d: root species %d is not a root", sc.ID, sc.Root))
		}
	}

	if err.HasIssues() {
		return err
	}
	return nil
}
