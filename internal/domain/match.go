package domain

import "fmt"

// Variant is the ruleset flavor of a match
type Variant string

// Variant constants
const (
	VariantNormal Variant = "normal"
	VariantFast   Variant = "fast"
	VariantCastle Variant = "castle"
)

// ForgeLevel is the team resource-speed upgrade. Levels are ordered.
type ForgeLevel int

const (
	ForgeOrdinary ForgeLevel = iota
	ForgeIron
	ForgeGolden
	ForgeEmerald
	ForgeMolten
)

// ForgeLevels lists every level in enumeration order
var ForgeLevels = []ForgeLevel{ForgeOrdinary, ForgeIron, ForgeGolden, ForgeEmerald, ForgeMolten}

var forgeNames = map[ForgeLevel]string{
	ForgeOrdinary: "Ordinary Forge",
	ForgeIron:     "Iron Forge",
	ForgeGolden:   "Golden Forge",
	ForgeEmerald:  "Emerald Forge",
	ForgeMolten:   "Molten Forge",
}

// String returns the in-game shop name of the forge level
func (f ForgeLevel) String() string {
	if name, ok := forgeNames[f]; ok {
		return name
	}
	return fmt.Sprintf("ForgeLevel(%d)", int(f))
}

// Purchasable reports whether a shop purchase announces this level.
// The ordinary forge is what every team starts with.
func (f ForgeLevel) Purchasable() bool {
	return f > ForgeOrdinary && f <= ForgeMolten
}

// MarshalText encodes the level by name for snapshots
func (f ForgeLevel) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// TrapKind identifies a purchasable base trap
type TrapKind string

// Trap constants, named as the shop names them
const (
	TrapItsATrap         TrapKind = "It's a Trap!"
	TrapCounterOffensive TrapKind = "Counter-Offensive Trap"
	TrapAlarm            TrapKind = "Alarm Trap"
	TrapMinerFatigue     TrapKind = "Miner Fatigue Trap"
)

// TrapKinds lists every trap kind
var TrapKinds = []TrapKind{TrapItsATrap, TrapCounterOffensive, TrapAlarm, TrapMinerFatigue}

// GeneratorKind identifies a shared resource generator on the map
type GeneratorKind string

const (
	GeneratorDiamond GeneratorKind = "diamond"
	GeneratorEmerald GeneratorKind = "emerald"
)

// ParseGeneratorKind converts a lowercase generator name
func ParseGeneratorKind(s string) (GeneratorKind, error) {
	switch GeneratorKind(s) {
	case GeneratorDiamond, GeneratorEmerald:
		return GeneratorKind(s), nil
	default:
		return "", fmt.Errorf("unknown generator %q", s)
	}
}

// VariantRules holds the per-variant starting conditions of a match
type VariantRules struct {
	InitialForge ForgeLevel
	UsesPerTrap  int
	InitialTraps []TrapKind // pre-filled queue, front first
}

var variantRules = map[Variant]VariantRules{
	VariantNormal: {InitialForge: ForgeOrdinary, UsesPerTrap: 1},
	VariantFast:   {InitialForge: ForgeIron, UsesPerTrap: 1},
	VariantCastle: {
		InitialForge: ForgeOrdinary,
		UsesPerTrap:  2,
		InitialTraps: []TrapKind{TrapCounterOffensive, TrapCounterOffensive, TrapCounterOffensive},
	},
}

// Rules returns the starting conditions for the variant.
// Unknown variants fall back to the normal ruleset.
func (v Variant) Rules() VariantRules {
	if r, ok := variantRules[v]; ok {
		return r
	}
	return variantRules[VariantNormal]
}

// ParseVariant converts a lowercase variant name
func ParseVariant(s string) (Variant, error) {
	v := Variant(s)
	if _, ok := variantRules[v]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownVariant, s)
	}
	return v, nil
}
