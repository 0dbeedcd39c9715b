package hatch

// Stat indexes the six permanent stats.
type Stat int

const (
	StatHP Stat = iota
	StatAttack
	StatDefense
	StatSpAttack
	StatSpDefense
	StatSpeed
)

// StatCount is the number of permanent stats.
const StatCount = 6

// MaxIV is the highest individual value a stat can roll.
const MaxIV = 31

// IVs holds one individual value per stat. It is an array so that copies
// never alias.
type IVs [StatCount]int

type Gender int

const (
	GenderGenderless Gender = iota
	GenderMale
	GenderFemale
)

// NatureCount is the number of natures.
const NatureCount = 25

// DexAttr is the bitmask of seen/caught appearance attributes.
type DexAttr uint64

const (
	DexAttrNonShiny DexAttr = 1 << iota
	DexAttrShiny
	DexAttrMale
	DexAttrFemale
	DexAttrDefaultVariant
	DexAttrVariant2
	DexAttrVariant3
	DexAttrDefaultForm
)

// DexAttrForm returns the attribute bit for a form index.
func DexAttrForm(formIndex int) DexAttr {
	return DexAttrDefaultForm << uint(formIndex)
}

// Creature is a hatched creature. The caller owns it; records only hold a
// reference.
type Creature struct {
	ID           string
	Species      *Species
	FormIndex    int
	Gender       Gender
	Shiny        bool
	Variant      int
	Nature       int
	AbilityIndex int
	IVs          IVs
	FromEgg      bool
}

// DexAttr returns the appearance attributes this creature registers in the
// collection when seen or caught.
func (c *Creature) DexAttr() DexAttr {
	var attr DexAttr
	if c.Shiny {
		attr |= DexAttrShiny
	} else {
		attr |= DexAttrNonShiny
	}
	if c.Gender == GenderFemale {
		attr |= DexAttrFemale
	} else {
		attr |= DexAttrMale
	}
	switch {
	case !c.Shiny || c.Variant <= 0:
		attr |= DexAttrDefaultVariant
	case c.Variant == 1:
		attr |= DexAttrVariant2
	default:
		attr |= DexAttrVariant3
	}
	attr |= DexAttrForm(c.FormIndex)
	return attr
}

// NatureAttr returns the nature bit registered when the creature is caught.
func (c *Creature) NatureAttr() uint32 {
	return 1 << uint(c.Nature+1)
}

// AbilityAttr returns the progression ability bit for the creature's ability.
func (c *Creature) AbilityAttr() uint8 {
	return 1 << uint(c.AbilityIndex)
}

// HasHiddenAbility reports whether the creature rolled its hidden ability.
func (c *Creature) HasHiddenAbility() bool {
	return c.AbilityIndex == AbilitySlotHidden && c.Species != nil && c.Species.HasHiddenAbility()
}
