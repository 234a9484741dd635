package simulation

// EventName is a tagged variant of the outbound event names the driver
// emits (§6 Outputs).
type EventName string

const (
	EventInitialState        EventName = "initial-state"
	EventNetworkUpdate       EventName = "network-update"
	EventPlanThinking        EventName = "ai:plan-thinking"
	EventPlanUpdate          EventName = "ai:plan-update"
	EventSignalSet           EventName = "ai:signal-set"
	EventAIControlChanged    EventName = "ai:control_state_changed"
	EventSimulationStarted   EventName = "simulation:started"
	EventSimulationStopped   EventName = "simulation:stopped"
	EventSimulationStateChg  EventName = "simulation:state_changed"
	EventSimulationError     EventName = "simulation:error"
	EventTrainStopped        EventName = "train:stopped_at_platform"
	EventTrainDeparted       EventName = "train:departed"
	EventSuggestionsUpdated  EventName = "ai:suggestions_updated"
)

// Event is one outbound notification. Data is whatever payload shape the
// event name implies (Snapshot, PlanInstruction slice, or a payload struct);
// callers on the transport side type-assert it before marshaling.
type Event struct {
	Name EventName
	Data interface{}
}

// EventSink receives events emitted by the driver during a tick. The
// server package supplies an implementation that fans these out over the
// Hub; tests can supply one that just appends to a slice.
type EventSink interface {
	Send(Event)
}

// EventSinkFunc adapts a plain function to EventSink.
type EventSinkFunc func(Event)

// Send implements EventSink.
func (f EventSinkFunc) Send(e Event) { f(e) }

// NullEventSink discards every event; the default in tests that don't
// care about the notification stream.
var NullEventSink EventSink = EventSinkFunc(func(Event) {})

// SignalSetPayload is the payload of an ai:signal-set event.
type SignalSetPayload struct {
	Signal string `json:"signal"`
	State  Aspect `json:"state"`
}

// AIControlChangedPayload is the payload of ai:control_state_changed.
type AIControlChangedPayload struct {
	Enabled bool `json:"enabled"`
}

// StateChangedPayload is the payload of simulation:state_changed.
type StateChangedPayload struct {
	IsPlaying bool `json:"isPlaying"`
}

// ErrorPayload is the payload of simulation:error.
type ErrorPayload struct {
	Message string `json:"message"`
}

// TrainEventPayload is the payload of train:stopped_at_platform and
// train:departed: enough of the train and its timing to let a listener
// compute punctuality/throughput without reaching back into WorldState.
type TrainEventPayload struct {
	Train            *Train `json:"train"`
	NodeID           string `json:"nodeId"`
	Clock            Clock  `json:"clock"`
	ScheduledArrival Clock  `json:"scheduledArrival"`
}
