package server

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/railyard/interlocking-sim/simulation"
)

// AuditEntry represents a single audit log item sent to FE
type AuditEntry struct {
	ID        string                 `json:"id"`
	Timestamp string                 `json:"timestamp"`
	Event     string                 `json:"event"`
	Category  string                 `json:"category"`
	Severity  string                 `json:"severity"`
	Object    map[string]interface{} `json:"object"`
	Details   map[string]interface{} `json:"details"`
}

type auditState struct {
	mu          sync.RWMutex
	entries     []AuditEntry
	capacity    int
	nextID      int64
	subscribers map[chan AuditEntry]bool
}

var audits = &auditState{}

func init() {
	// default capacity for audit ring buffer
	audits.capacity = 1000
	audits.entries = make([]AuditEntry, 0, audits.capacity)
	audits.subscribers = make(map[chan AuditEntry]bool)
}

func (a *auditState) append(entry AuditEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	// assign ID and timestamp if missing
	a.nextID++
	entry.ID = strconv.FormatInt(a.nextID, 10)
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	if len(a.entries) == a.capacity {
		// drop the oldest (ring buffer behavior)
		copy(a.entries[0:], a.entries[1:])
		a.entries[len(a.entries)-1] = entry
	} else {
		a.entries = append(a.entries, entry)
	}
	// broadcast non-blocking to subscribers
	for ch := range a.subscribers {
		select {
		case ch <- entry:
		default:
			// drop if subscriber is slow
		}
	}
}

func (a *auditState) subscribe() chan AuditEntry {
	ch := make(chan AuditEntry, 256)
	a.mu.Lock()
	a.subscribers[ch] = true
	a.mu.Unlock()
	return ch
}

func (a *auditState) unsubscribe(ch chan AuditEntry) {
	a.mu.Lock()
	delete(a.subscribers, ch)
	a.mu.Unlock()
	close(ch)
}

// getSince returns up to limit entries with ID strictly greater than sinceID
func (a *auditState) getSince(sinceID int64, limit int) []AuditEntry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]AuditEntry, 0, limit)
	for i := 0; i < len(a.entries); i++ {
		id, _ := strconv.ParseInt(a.entries[i].ID, 10, 64)
		if id > sinceID {
			out = append(out, a.entries[i])
			if len(out) >= limit {
				break
			}
		}
	}
	return out
}

// recordAuditFromEvent converts a simulation event to an AuditEntry and appends it
func recordAuditFromEvent(e *simulation.Event) {
	if e == nil {
		return
	}
	entry := AuditEntry{
		Severity: "INFO",
		Object:   map[string]interface{}{},
		Details:  map[string]interface{}{},
	}
	switch e.Name {
	case simulation.EventSignalSet:
		entry.Event = "SIGNAL_SET"
		entry.Category = "signal"
		if p, ok := e.Data.(simulation.SignalSetPayload); ok {
			entry.Object["id"] = p.Signal
			entry.Details["aspect"] = string(p.State)
		}
	case simulation.EventAIControlChanged:
		entry.Event = "AI_CONTROL_CHANGED"
		entry.Category = "system"
		if p, ok := e.Data.(simulation.AIControlChangedPayload); ok {
			entry.Details["enabled"] = p.Enabled
		}
	case simulation.EventTrainStopped:
		entry.Event = "TRAIN_STOPPED"
		entry.Category = "train"
		if p, ok := e.Data.(simulation.TrainEventPayload); ok && p.Train != nil {
			entry.Object["id"] = p.Train.ID
			entry.Details["node"] = p.NodeID
			entry.Details["state"] = string(p.Train.State)
			entry.Details["delayTicks"] = int(p.Clock - p.ScheduledArrival)
		}
	case simulation.EventTrainDeparted:
		entry.Event = "TRAIN_DEPARTED"
		entry.Category = "train"
		if p, ok := e.Data.(simulation.TrainEventPayload); ok && p.Train != nil {
			entry.Object["id"] = p.Train.ID
			entry.Details["node"] = p.NodeID
			entry.Details["segment"] = p.Train.CurrentSegmentID
		}
	case simulation.EventSuggestionsUpdated:
		entry.Event = "SUGGESTIONS_UPDATED"
		entry.Category = "ai"
		if s, ok := e.Data.(*simulation.SuggestionSet); ok && s != nil {
			entry.Details["count"] = len(s.Items)
		}
	case simulation.EventSimulationError:
		entry.Event = "SIMULATION_ERROR"
		entry.Category = "system"
		entry.Severity = "ERROR"
		if p, ok := e.Data.(simulation.ErrorPayload); ok {
			entry.Details["message"] = p.Message
		}
	default:
		// ignore the chatty per-tick network-update event by default
		if e.Name == simulation.EventNetworkUpdate {
			return
		}
		entry.Event = strings.ToUpper(string(e.Name))
		entry.Category = "system"
	}
	audits.append(entry)
}


