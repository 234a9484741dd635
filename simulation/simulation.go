// Copyright (C) 2008-2019 by Nicolas Piganeau and the TS2 TEAM
// (See AUTHORS file)
//
// This program is free software; you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation; either version 2 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program; if not, write to the
// Free Software Foundation, Inc.,
// 59 Temple Place - Suite 330, Boston, MA  02111-1307, USA.

package simulation

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	log "gopkg.in/inconshreveable/log15.v2"
)

var logger log.Logger

// InitializeLogger binds this package's logger under a parent, matching
// the rest of the repo's per-package logging convention.
func InitializeLogger(parent log.Logger) {
	logger = parent.New("module", "simulation")
}

func init() {
	logger = log.New("module", "simulation")
	logger.SetHandler(log.DiscardHandler())
}

// Options holds the operator-tunable knobs a Simulation carries for its
// lifetime: dispatch priorities, AI control, and timing.
type Options struct {
	SectionCode    string     `json:"sectionCode"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Version        string     `json:"version"`
	SimSpeed       int        `json:"simSpeed"`
	AIControl      bool       `json:"aiControlEnabled"`
	Priorities     Priorities `json:"priorities"`
	PlatformPrefix string     `json:"platformPrefix"`

	SuggestionsEnabled         bool `json:"suggestionsEnabled"`
	SuggestionsIntervalMinutes int  `json:"suggestionsIntervalMinutes"`
}

// DefaultOptions returns the Options a freshly loaded section starts with.
func DefaultOptions() Options {
	return Options{
		Title:                      "Untitled Section",
		Version:                    "1.0",
		SimSpeed:                   1,
		PlatformPrefix:             DefaultPlatformPrefix,
		SuggestionsEnabled:         true,
		SuggestionsIntervalMinutes: 3,
		Priorities: Priorities{
			Congestion:     true,
			TrackCondition: true,
		},
	}
}

// Simulation is the driver (§5, §9 "Global mutable state... becomes
// fields of a Driver struct"): it owns the World State, runs the tick
// loop on a dedicated goroutine, and is the sole writer to it. Commands
// arrive over a channel; the loop is the only reader of World.
type Simulation struct {
	Options  Options
	World    *WorldState
	Schedule ScheduleSource

	// Suggestions is the most recent advisory pass published by
	// RecomputeSuggestions; nil until the first recompute runs.
	Suggestions *SuggestionSet

	dispatcher *Dispatcher
	planner    *Planner
	ai         *AIController
	spawner    *Spawner

	sink EventSink

	commands chan command
	pause    chan struct{}
	resume   chan struct{}
	cancel   context.CancelFunc

	mu        sync.Mutex
	started   bool
	isPlaying bool

	planNeeded   bool
	isOptimizing bool
	planMu       sync.Mutex
}

// NewSimulation builds a Simulation over a loaded layout and schedule,
// with default options. Call Initialize before Start.
func NewSimulation(layout *Layout, schedule ScheduleSource, opts Options) *Simulation {
	world := NewWorldState(layout)
	world.PlatformPrefix = opts.PlatformPrefix
	if world.PlatformPrefix == "" {
		world.PlatformPrefix = DefaultPlatformPrefix
	}
	world.ApplyWeatherAwareness(opts.Priorities.Weather)

	sim := &Simulation{
		Options:    opts,
		World:      world,
		Schedule:   schedule,
		sink:       NullEventSink,
		commands:   make(chan command, 32),
		planNeeded: true,
	}
	sim.wire()
	return sim
}

// wire (re)builds the component objects that share pointers to the live
// Options.Priorities struct, so mutating a command handler's copy of
// Priorities is visible to the dispatcher/planner/AI controller on the
// very next tick without re-wiring.
func (s *Simulation) wire() {
	s.dispatcher = NewDispatcher(s.World, &s.Options.Priorities)
	s.planner = NewPlanner(s.World, &s.Options.Priorities)
	s.ai = NewAIController(s.World, &s.Options.Priorities)
	s.spawner = NewSpawner(s.World, s.Schedule)
}

// SetEventSink attaches the sink the driver emits outbound events to
// (the server package wires its Hub here).
func (s *Simulation) SetEventSink(sink EventSink) {
	if sink == nil {
		sink = NullEventSink
	}
	s.sink = sink
}

// Initialize prepares a freshly constructed or freshly unmarshaled
// Simulation for Start: re-wiring component pointers (a JSON round trip
// loses them) and re-deriving locked FAULTY segments (I6).
func (s *Simulation) Initialize() error {
	if s.World == nil || s.World.Layout == nil {
		return fmt.Errorf("simulation: cannot initialize without a loaded layout")
	}
	if s.World.Locked == nil {
		s.World.Locked = make(LockedResourceSet)
	}
	if s.World.Trains == nil {
		s.World.Trains = make(map[string]*Train)
	}
	s.World.reconcileFaultyLocks()
	s.World.ApplyWeatherAwareness(s.Options.Priorities.Weather)
	s.wire()
	s.planNeeded = true
	return nil
}

// IsStarted reports whether the tick loop goroutine is currently running.
func (s *Simulation) IsStarted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// IsPlaying reports whether the tick loop is currently advancing (as
// opposed to paused at the top of a tick).
func (s *Simulation) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isPlaying
}

// Start launches the tick loop goroutine (§5, §9 "tick-driven loop on a
// dedicated goroutine/thread"). It is a no-op if already started.
func (s *Simulation) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.isPlaying = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	// Buffered so Pause's non-blocking send is kept until the loop reaches
	// the top of its next tick.
	s.pause = make(chan struct{}, 1)
	s.resume = make(chan struct{}, 1)

	go s.run(ctx)
	s.sink.Send(Event{Name: EventSimulationStarted})
}

// Pause toggles the cooperative pause gate: the loop blocks at the top of
// the next tick until Pause is called again (§5 Cancellation).
func (s *Simulation) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	if s.isPlaying {
		s.isPlaying = false
		select {
		case s.pause <- struct{}{}:
		default:
		}
	} else {
		s.isPlaying = true
		select {
		case s.resume <- struct{}{}:
		default:
		}
	}
	s.sink.Send(Event{Name: EventSimulationStateChg, Data: StateChangedPayload{IsPlaying: s.isPlaying}})
}

// Stop cancels the tick loop. The driver exits at the next suspension
// point; any in-flight planner result that arrives after is discarded.
func (s *Simulation) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.sink.Send(Event{Name: EventSimulationStopped})
}

// Enqueue delivers an operator command to be processed at the next
// well-defined point in the tick (§5). It never blocks the caller for
// long: the channel is buffered, and commands are drained even while
// paused.
func (s *Simulation) Enqueue(cmd Command) {
	s.commands <- command{cmd: cmd}
}

// command wraps a Command for internal channel delivery; kept separate
// from the public Command type so the channel element can grow
// bookkeeping fields later without touching the public API.
type command struct {
	cmd Command
}

// run is the tick loop goroutine body: spawn → dispatch → move →
// AI signals → emit snapshot, exactly the phase order of §5.
func (s *Simulation) run(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.started = false
		s.mu.Unlock()
	}()

	s.emitInitialState()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.pause:
			for paused := true; paused; {
				select {
				case <-s.resume:
					paused = false
				case c := <-s.commands:
					s.apply(c.cmd)
				case <-ctx.Done():
					return
				}
			}
		default:
		}

		s.drainCommands()

		if err := s.tick(); err != nil {
			logger.Error("tick failed", "err", err)
			s.sink.Send(Event{Name: EventSimulationError, Data: ErrorPayload{Message: err.Error()}})
		}

		speed := s.Options.SimSpeed
		if speed < 1 {
			speed = 1
		}
		select {
		case <-time.After(time.Second / time.Duration(speed)):
		case <-ctx.Done():
			return
		}
	}
}

// drainCommands processes every command currently queued without
// blocking, so a burst of operator input is applied before the next tick
// computes anything from it.
func (s *Simulation) drainCommands() {
	for {
		select {
		case c := <-s.commands:
			s.apply(c.cmd)
		default:
			return
		}
	}
}

// tick runs exactly one phase sequence. Panics inside a phase are
// recovered and turned into a returned error (§7 "Tick-phase exception").
func (s *Simulation) tick() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in tick: %v", r)
		}
	}()

	if spawned := s.spawner.Spawn(); len(spawned) > 0 {
		s.planNeeded = true
		for _, t := range spawned {
			logger.Debug("train spawned", "train", t.ID, "start", t.StartNodeID, "end", t.EndNodeID)
		}
	}

	waitingBefore := s.World.TrainsInState(StateReadyToProceed, StateAwaitingClearance)
	s.dispatcher.Dispatch()
	for _, t := range waitingBefore {
		if t.State == StateRunning {
			s.sink.Send(Event{Name: EventTrainDeparted, Data: TrainEventPayload{
				Train: t, NodeID: t.CurrentNodeID, Clock: s.World.Clock, ScheduledArrival: t.ScheduledArrival,
			}})
		}
	}

	runningBefore := s.World.TrainsInState(StateRunning)
	if s.World.Move() {
		s.planNeeded = true
	}
	for _, t := range runningBefore {
		if t.State == StateBoarding || t.State == StateAwaitingClearance || t.State == StateExited {
			s.sink.Send(Event{Name: EventTrainStopped, Data: TrainEventPayload{
				Train: t, NodeID: t.CurrentNodeID, Clock: s.World.Clock, ScheduledArrival: t.ScheduledArrival,
			}})
		}
	}

	s.maybePlan()

	if s.Options.AIControl {
		for _, change := range s.ai.Run() {
			s.sink.Send(Event{Name: EventSignalSet, Data: change})
		}
	}

	s.World.Clock += Clock(s.Options.SimSpeed)
	if s.Options.SimSpeed < 1 {
		s.World.Clock++
	}

	s.sink.Send(Event{Name: EventNetworkUpdate, Data: s.World.GetState()})
	return nil
}

// maybePlan invokes the Planner when planNeeded is set and any trains are
// WAITING_PLAN, under the isOptimizing single-flight guard (§4.7). The
// greedy planner here is synchronous, but the guard and flag protocol
// mirror the concurrent design the spec calls for so a future solver-
// backed Planner can be dropped in behind the same seam without touching
// callers (§9 "Planner invocation is dispatched to a worker").
func (s *Simulation) maybePlan() {
	s.planMu.Lock()
	if !s.planNeeded || s.isOptimizing {
		s.planMu.Unlock()
		return
	}
	if len(s.World.TrainsInState(StateWaitingPlan)) == 0 {
		s.planNeeded = false
		s.planMu.Unlock()
		return
	}
	s.isOptimizing = true
	s.planMu.Unlock()

	s.sink.Send(Event{Name: EventPlanThinking})
	plan := s.planner.Plan()
	s.World.ApplyPlan(plan)
	s.sink.Send(Event{Name: EventPlanUpdate, Data: plan})

	s.planMu.Lock()
	s.isOptimizing = false
	s.planNeeded = false
	s.planMu.Unlock()
}

func (s *Simulation) emitInitialState() {
	s.sink.Send(Event{Name: EventInitialState, Data: s.World.GetState()})
}

// simulationJSON is the on-the-wire shape used by MarshalJSON/UnmarshalJSON,
// mirroring the teacher's restart-from-snapshot round trip
// (hub_simulation.go's `json.Unmarshal(initialSimSnapshot, &fresh)`).
type simulationJSON struct {
	Options  Options             `json:"options"`
	Clock    Clock               `json:"clock"`
	Nodes    []*Node             `json:"nodes"`
	Segments []*Segment          `json:"segments"`
	Trains   []*Train            `json:"trains"`
	Schedule []ScheduleEntry     `json:"pendingSchedule"`
}

// MarshalJSON serializes the Simulation for UnmarshalJSON+Initialize: this
// is what the server's restart flow snapshots at startup and restores on
// demand. Train.RouteIndex and manual-override timestamps are not included,
// and pendingSchedule holds the whole schedule, including entries already
// spawned, so a snapshot taken after trains have spawned does not restore
// their progress.
func (s *Simulation) MarshalJSON() ([]byte, error) {
	nodes := make([]*Node, 0, len(s.World.Layout.Nodes))
	for _, n := range s.World.Layout.Nodes {
		nodes = append(nodes, n)
	}
	segments := make([]*Segment, 0, len(s.World.Layout.Segments))
	for _, seg := range s.World.Layout.Segments {
		segments = append(segments, seg)
	}
	trains := make([]*Train, 0, len(s.World.Trains))
	for _, t := range s.World.ActiveTrains() {
		trains = append(trains, t)
	}
	var pending []ScheduleEntry
	if ss, ok := s.Schedule.(*StaticSchedule); ok {
		pending = ss.entries
	}
	return json.Marshal(simulationJSON{
		Options:  s.Options,
		Clock:    s.World.Clock,
		Nodes:    nodes,
		Segments: segments,
		Trains:   trains,
		Schedule: pending,
	})
}

// UnmarshalJSON rebuilds a Simulation from a MarshalJSON snapshot. Callers
// must call Initialize afterward to re-wire component pointers.
func (s *Simulation) UnmarshalJSON(data []byte) error {
	var doc simulationJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("simulation: unmarshal snapshot: %w", err)
	}
	layout, err := NewLayout(doc.Nodes, doc.Segments)
	if err != nil {
		return fmt.Errorf("simulation: rebuild layout: %w", err)
	}
	s.Options = doc.Options
	s.World = NewWorldState(layout)
	s.World.Clock = doc.Clock
	for _, t := range doc.Trains {
		s.World.AddTrain(t)
	}
	for _, segID := range lockedFromTrains(doc.Trains) {
		s.World.Locked.Lock(segID)
	}
	s.Schedule = &StaticSchedule{entries: doc.Schedule}
	s.sink = NullEventSink
	s.commands = make(chan command, 32)
	return nil
}

// lockedFromTrains recomputes which segments/nodes a restored train set
// must hold, since locks themselves aren't part of the wire snapshot.
func lockedFromTrains(trains []*Train) []string {
	var ids []string
	for _, t := range trains {
		if t.State == StateRunning && t.CurrentSegmentID != "" {
			ids = append(ids, t.CurrentSegmentID)
		}
		if t.CurrentNodeID != "" {
			ids = append(ids, t.CurrentNodeID)
		}
	}
	return ids
}
