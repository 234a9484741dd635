package simulation

import (
	"fmt"
	"sort"
)

// CommandKind is a tagged variant of the operator command envelopes (§6).
type CommandKind string

const (
	CmdStartSimulation CommandKind = "StartSimulation"
	CmdStopSimulation  CommandKind = "StopSimulation"
	CmdTogglePause     CommandKind = "TogglePause"
	CmdSetSimSpeed     CommandKind = "SetSimSpeed"
	CmdSetPriorities   CommandKind = "SetPriorities"
	CmdSetTrackStatus  CommandKind = "SetTrackStatus"
	CmdSetSignal       CommandKind = "SetSignal"
	CmdSetAllSignalsRed CommandKind = "SetAllSignalsRed"
	CmdToggleAIControl CommandKind = "ToggleAIControl"
	CmdGetPlan         CommandKind = "GetPlan"
)

// Command is one operator input envelope (§6 Inputs). Only the fields
// relevant to Kind are populated; the zero value of the others is ignored.
type Command struct {
	Kind CommandKind

	SectionCode string

	IsPlaying *bool

	Speed int

	Priorities PriorityUpdate

	TrackID string
	Status  SegmentStatus

	SignalID string
	State    *Aspect

	AIEnabled *bool
}

// PriorityUpdate carries the subset of SetPriorities fields an operator
// actually sent; nil-like zero values mean "leave unchanged" except where
// noted (§6: Congestion and TrackCondition are force-true server-side
// regardless of what's sent).
type PriorityUpdate struct {
	TrainType   *bool
	Punctuality *bool
	Weather     *bool
}

// apply executes one command against the live simulation. It runs on the
// tick-loop goroutine (drained at the top of each tick, §5), so it may
// freely touch World without additional synchronization.
func (s *Simulation) apply(cmd Command) {
	switch cmd.Kind {
	case CmdStartSimulation:
		s.Start()

	case CmdStopSimulation:
		s.Stop()

	case CmdTogglePause:
		s.Pause()

	case CmdSetSimSpeed:
		if cmd.Speed < 1 {
			cmd.Speed = 1
		}
		s.Options.SimSpeed = cmd.Speed

	case CmdSetPriorities:
		if cmd.Priorities.TrainType != nil {
			s.Options.Priorities.TrainType = *cmd.Priorities.TrainType
		}
		if cmd.Priorities.Punctuality != nil {
			s.Options.Priorities.Punctuality = *cmd.Priorities.Punctuality
		}
		if cmd.Priorities.Weather != nil {
			s.applyWeatherPriority(*cmd.Priorities.Weather)
		}
		// Congestion and TrackCondition are force-true regardless of
		// operator input (§6).
		s.Options.Priorities.Congestion = true
		s.Options.Priorities.TrackCondition = true

	case CmdSetTrackStatus:
		seg, ok := s.World.Layout.Segments[cmd.TrackID]
		if !ok {
			logger.Warn("SetTrackStatus: unknown segment, ignored", "segment", cmd.TrackID)
			return
		}
		seg.Status = cmd.Status
		if cmd.Status == StatusFaulty {
			s.World.Locked.Lock(cmd.TrackID)
		} else if seg.Weather != WeatherBad || !s.Options.Priorities.Weather {
			s.World.Locked.Unlock(cmd.TrackID)
		}
		s.planNeeded = true

	case CmdSetSignal:
		node, ok := s.World.Layout.Nodes[cmd.SignalID]
		if !ok || !node.IsSignal() {
			logger.Warn("SetSignal: unknown signal, ignored", "signal", cmd.SignalID)
			return
		}
		aspect := node.Aspect
		if cmd.State != nil {
			aspect = *cmd.State
		} else if aspect == AspectGreen {
			aspect = AspectRed
		} else {
			aspect = AspectGreen
		}
		s.World.SetManualOverride(cmd.SignalID, aspect)

	case CmdSetAllSignalsRed:
		for _, n := range s.World.Layout.Nodes {
			if n.IsSignal() {
				s.World.SetManualOverride(n.ID, AspectRed)
			}
		}

	case CmdToggleAIControl:
		if cmd.AIEnabled != nil {
			s.Options.AIControl = *cmd.AIEnabled
		} else {
			s.Options.AIControl = !s.Options.AIControl
		}
		s.sink.Send(Event{Name: EventAIControlChanged, Data: AIControlChangedPayload{Enabled: s.Options.AIControl}})

	case CmdGetPlan:
		s.planNeeded = true

	default:
		logger.Warn("unrecognized command, ignored", "kind", fmt.Sprintf("%v", cmd.Kind))
	}
}

// applyWeatherPriority toggles the weather flag and, matching the
// original service's behavior, marks a handful of segments BAD (locking
// them) when turning it on, and clears all weather when turning it off.
func (s *Simulation) applyWeatherPriority(enabled bool) {
	s.Options.Priorities.Weather = enabled
	if !enabled {
		for _, seg := range s.World.Layout.Segments {
			if seg.Weather == WeatherBad {
				seg.Weather = WeatherGood
				if seg.Status != StatusFaulty {
					s.World.Locked.Unlock(seg.ID)
				}
			}
		}
		s.World.ApplyWeatherAwareness(false)
		s.planNeeded = true
		return
	}

	s.World.ApplyWeatherAwareness(true)
	segIDs := make([]string, 0, len(s.World.Layout.Segments))
	for id := range s.World.Layout.Segments {
		segIDs = append(segIDs, id)
	}
	sort.Strings(segIDs)

	count := 0
	target := 2 + len(s.World.Layout.Segments)%2 // 2 or 3, deterministic on layout size
	for _, id := range segIDs {
		if count >= target {
			break
		}
		seg := s.World.Layout.Segments[id]
		if seg.Status == StatusFaulty {
			continue
		}
		seg.Weather = WeatherBad
		s.World.Locked.Lock(seg.ID)
		count++
	}
	s.planNeeded = true
}
