package match

import (
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/ernie/bedtrack/internal/domain"
)

// Change describes which part of the state a line updated
type Change string

// Change types
const (
	ChangeForge        Change = "forge"
	ChangeTrapPurchase Change = "trap_purchase"
	ChangeTrapSetOff   Change = "trap_set_off"
	ChangeUpgrade      Change = "upgrade"
)

// Shop names of the team upgrades
const (
	upgradeSharpenedSwords = "Sharpened Swords"
	upgradeHealPool        = "Heal Pool"
)

var (
	// Player names are 1-16 word characters
	purchaseRegex = regexp.MustCompile(`^\w{1,16} purchased (.+)$`)
	setOffRegex   = regexp.MustCompile(`^(.+) was set off!$`)
	armorRegex    = regexp.MustCompile(`^Reinforced Armor (\S+)$`)

	armorTiers = map[string]int{"I": 1, "II": 2, "III": 3, "IV": 4}
)

// State is the upgrade and trap model of one match
type State struct {
	id        string
	variant   domain.Variant
	createdAt time.Time
	uses      int

	forge           domain.ForgeLevel
	sharpenedSwords bool
	healPool        bool
	armorTier       int
	traps           TrapQueue

	timer *generatorTimer
}

// NewState creates the state of a freshly classified match. world may be
// nil, in which case generator timing is never available.
func NewState(variant domain.Variant, world WorldQuery) *State {
	rules := variant.Rules()
	return &State{
		id:        uuid.NewString(),
		variant:   variant,
		createdAt: time.Now().UTC(),
		uses:      rules.UsesPerTrap,
		forge:     rules.InitialForge,
		traps:     newTrapQueue(rules.InitialTraps, rules.UsesPerTrap),
		timer:     newGeneratorTimer(world),
	}
}

// ID returns the match identifier
func (s *State) ID() string {
	return s.id
}

// Variant returns the classified variant
func (s *State) Variant() domain.Variant {
	return s.variant
}

// ApplyLine routes a cleaned chat line to the forge, trap and upgrade
// handlers in that order. Lines matching nothing are ignored.
func (s *State) ApplyLine(line string) (Change, bool) {
	if m := purchaseRegex.FindStringSubmatch(line); m != nil {
		item := m[1]
		if s.applyForge(item) {
			return ChangeForge, true
		}
		for _, kind := range domain.TrapKinds {
			if item == string(kind) {
				s.ApplyPurchase(kind)
				return ChangeTrapPurchase, true
			}
		}
		if s.applyUpgrade(item) {
			return ChangeUpgrade, true
		}
		return "", false
	}

	if m := setOffRegex.FindStringSubmatch(line); m != nil {
		for _, kind := range domain.TrapKinds {
			if m[1] == string(kind) {
				s.ApplySetOff(kind)
				return ChangeTrapSetOff, true
			}
		}
	}

	return "", false
}

// applyForge sets the first level in enumeration order whose name matches.
// The level is applied as announced.
func (s *State) applyForge(item string) bool {
	for _, level := range domain.ForgeLevels {
		if level.Purchasable() && item == level.String() {
			s.forge = level
			return true
		}
	}
	return false
}

func (s *State) applyUpgrade(item string) bool {
	switch item {
	case upgradeSharpenedSwords:
		s.sharpenedSwords = true
		return true
	case upgradeHealPool:
		s.healPool = true
		return true
	}

	m := armorRegex.FindStringSubmatch(item)
	if m == nil {
		return false
	}
	tier, ok := armorTiers[m[1]]
	if !ok {
		// unknown ordinal, keep the current tier
		return false
	}
	if tier > s.armorTier {
		s.armorTier = tier
	}
	return true
}

// ApplyPurchase queues a new trap with this variant's uses per trap
func (s *State) ApplyPurchase(kind domain.TrapKind) {
	s.traps.Purchase(kind, s.uses)
}

// ApplySetOff consumes one use of kind, skipping past missed set-offs
func (s *State) ApplySetOff(kind domain.TrapKind) {
	s.traps.SetOff(kind)
}

// GeneratorTiming returns the seconds until the next spawn of the nearest
// generator of the given kind
func (s *State) GeneratorTiming(kind domain.GeneratorKind) (int, bool) {
	return s.timer.remaining(kind)
}

// Snapshot is a read-only copy of the match state
type Snapshot struct {
	MatchID         string            `json:"match_id"`
	Variant         domain.Variant    `json:"variant"`
	CreatedAt       time.Time         `json:"created_at"`
	Forge           domain.ForgeLevel `json:"forge"`
	SharpenedSwords bool              `json:"sharpened_swords"`
	HealPool        bool              `json:"heal_pool"`
	ArmorTier       int               `json:"armor_tier"`
	Traps           []CountedTrap     `json:"traps"`
}

// Snapshot copies the current state. The result does not alias the state.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		MatchID:         s.id,
		Variant:         s.variant,
		CreatedAt:       s.createdAt,
		Forge:           s.forge,
		SharpenedSwords: s.sharpenedSwords,
		HealPool:        s.healPool,
		ArmorTier:       s.armorTier,
		Traps:           s.traps.Entries(),
	}
}
