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

// Clock is the simulated time, in abstract seconds since the section
// started. It only ever moves forward (P6).
type Clock int64

// Tuning constants. These are configuration knobs, not values derived from
// segment length/speed — a layout's segments carry length and max speed for
// display and future use, but dwell and transit times are fixed durations.
const (
	// TravelTimeTicks is how long a train spends crossing any one segment.
	TravelTimeTicks = 30
	// JunctionOccupancyTicks is how long a train holds an intermediate node
	// while transiting it.
	JunctionOccupancyTicks = 10
	// BoardingDwellTicks is the minimum time spent at a platform node.
	BoardingDwellTicks = 100
	// ManualOverrideGraceTicks is how long after a manual signal override
	// the AI controller must leave that signal alone.
	ManualOverrideGraceTicks = 15
	// PlannerHorizonTicks bounds how far into the future the planner
	// reasons about reservations.
	PlannerHorizonTicks = 7200
	// DefaultPlatformPrefix is the node-id prefix that marks a platform.
	DefaultPlatformPrefix = "S-PF-"
	// MaxSpawnPerTick caps how many scheduled trains enter in one tick.
	MaxSpawnPerTick = 3
)
