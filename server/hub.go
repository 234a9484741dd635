// Copyright (C) 2008-2018 by Nicolas Piganeau and the TS2 TEAM
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

package server

import (
	"encoding/json"
	"fmt"

	"github.com/railyard/interlocking-sim/simulation"
)

// Request is one inbound message from a connected client: an RPC-style
// envelope addressed to an object/action pair (§6 operator commands are
// delivered this way).
type Request struct {
	ID     string          `json:"id"`
	Object string          `json:"object"`
	Action string          `json:"action"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is the Hub's reply to a Request, or an unsolicited push of an
// outbound event (§6 Outputs); ID is empty for pushes.
type Response struct {
	ID    string      `json:"id,omitempty"`
	Event string      `json:"event,omitempty"`
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// RawJSON wraps an already-marshaled JSON blob so Response doesn't
// double-encode it.
type RawJSON json.RawMessage

// MarshalJSON implements json.Marshaler by passing the raw bytes through.
func (r RawJSON) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

// NewResponse builds a successful reply carrying arbitrary data.
func NewResponse(id string, data interface{}) Response {
	return Response{ID: id, OK: true, Data: data}
}

// NewOkResponse builds a successful reply carrying a human-readable
// message.
func NewOkResponse(id string, message string) Response {
	return Response{ID: id, OK: true, Data: message}
}

// NewErrorResponse builds a failed reply.
func NewErrorResponse(id string, err error) Response {
	return Response{ID: id, OK: false, Error: err.Error()}
}

// newEventResponse turns a simulation.Event into an unsolicited Response pushed
// to every connection.
func newEventResponse(ev simulation.Event) Response {
	return Response{Event: string(ev.Name), OK: true, Data: ev.Data}
}

// hubObject handles Requests addressed to one object name ("simulation",
// "layout", "trains", "suggestions", ...).
type hubObject interface {
	dispatch(h *Hub, req Request, conn *connection)
}

// Hub is the websocket fan-out point (§5 "external events... interact via
// message passing"): it tracks connections, routes inbound Requests to the
// hubObject that owns them, and broadcasts outbound simulation.Events to
// every connection.
type Hub struct {
	objects map[string]hubObject

	connections map[*connection]bool
	register    chan *connection
	unregister  chan *connection
	broadcast   chan Response
}

func newHub() *Hub {
	return &Hub{
		objects:     make(map[string]hubObject),
		connections: make(map[*connection]bool),
		register:    make(chan *connection),
		unregister:  make(chan *connection),
		broadcast:   make(chan Response, 256),
	}
}

var hub = newHub()

// run is the Hub's own single-writer loop over its connection set; it
// never touches the Simulation directly.
func (h *Hub) run(up chan bool) {
	close(up)
	for {
		select {
		case c := <-h.register:
			h.connections[c] = true
		case c := <-h.unregister:
			if _, ok := h.connections[c]; ok {
				delete(h.connections, c)
				close(c.pushChan)
			}
		case resp := <-h.broadcast:
			for c := range h.connections {
				select {
				case c.pushChan <- resp:
				default:
					delete(h.connections, c)
					close(c.pushChan)
				}
			}
		}
	}
}

// Send implements simulation.EventSink: every tick's events are broadcast
// to all connected clients (§6 Outputs), and also fed to the metrics and
// audit-log listeners before going out over the wire.
func (h *Hub) Send(ev simulation.Event) {
	updateMetrics(&ev)
	recordAuditFromEvent(&ev)
	h.broadcast <- newEventResponse(ev)
}

// dispatch routes one Request to its object's handler, or replies with an
// error if the object is unknown (§7 "Command referring to unknown
// node/segment → ignored with a warning" generalizes to unknown objects
// too).
func (h *Hub) dispatch(req Request, conn *connection) {
	obj, ok := h.objects[req.Object]
	if !ok {
		conn.pushChan <- NewErrorResponse(req.ID, fmt.Errorf("unknown object %q", req.Object))
		return
	}
	obj.dispatch(h, req, conn)
}
