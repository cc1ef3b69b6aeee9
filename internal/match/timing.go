package match

import "github.com/ernie/bedtrack/internal/domain"

// Locator identifies a generator in the loaded world
type Locator struct {
	X, Y, Z int
}

// WorldQuery reads generator countdown labels from the loaded world
type WorldQuery interface {
	// LocateGenerator finds the nearest generator of the kind
	LocateGenerator(kind domain.GeneratorKind) (Locator, bool)
	// GeneratorCountdown reads the countdown label at loc, in seconds
	GeneratorCountdown(loc Locator) (int, bool)
}

// generatorTimer caches the last known locator per generator kind
type generatorTimer struct {
	world    WorldQuery
	locators map[domain.GeneratorKind]Locator
}

func newGeneratorTimer(world WorldQuery) *generatorTimer {
	return &generatorTimer{
		world:    world,
		locators: make(map[domain.GeneratorKind]Locator),
	}
}

// remaining reads the countdown through the cached locator. A miss drops
// the cached locator so the next call locates the generator again.
func (t *generatorTimer) remaining(kind domain.GeneratorKind) (int, bool) {
	if t.world == nil {
		return 0, false
	}

	loc, ok := t.locators[kind]
	if !ok {
		loc, ok = t.world.LocateGenerator(kind)
		if !ok {
			return 0, false
		}
		t.locators[kind] = loc
	}

	secs, ok := t.world.GeneratorCountdown(loc)
	if !ok || secs < 0 {
		delete(t.locators, kind)
		return 0, false
	}
	return secs, true
}
