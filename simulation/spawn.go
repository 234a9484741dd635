package simulation

// Spawner turns schedule entries into active trains once the simulated
// clock reaches their scheduled arrival (§3 Lifecycles).
type Spawner struct {
	world   *WorldState
	pending []ScheduleEntry
}

// NewSpawner builds a spawner over a schedule's entries. Entries are
// consumed in arrival order as the clock advances.
func NewSpawner(world *WorldState, schedule ScheduleSource) *Spawner {
	var entries []ScheduleEntry
	if schedule != nil {
		entries = append(entries, schedule.Entries()...)
	}
	return &Spawner{world: world, pending: entries}
}

// Spawn admits up to MaxSpawnPerTick due trains this tick, in schedule
// order, and returns the trains it created. Each starts in WAITING_PLAN
// (§3), picked up by the next Planner pass.
func (s *Spawner) Spawn() []*Train {
	var spawned []*Train
	for len(s.pending) > 0 && len(spawned) < MaxSpawnPerTick {
		next := s.pending[0]
		if next.ArrivalTime > s.world.Clock {
			break
		}
		s.pending = s.pending[1:]
		t := NewTrain(next)
		t.WaitingSince = s.world.Clock
		s.world.AddTrain(t)
		spawned = append(spawned, t)
	}
	return spawned
}

// Pending reports how many schedule entries have not yet been spawned.
func (s *Spawner) Pending() int {
	return len(s.pending)
}
