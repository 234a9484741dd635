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

package main

import (
	"os"

	"github.com/railyard/interlocking-sim/server"
	"github.com/railyard/interlocking-sim/simulation"
	log "gopkg.in/inconshreveable/log15.v2"
)

func main() {
	cfg, err := server.ParseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	root := log.New()
	root.SetHandler(log.LvlFilterHandler(log.LvlInfo, log.StdoutHandler))
	simulation.InitializeLogger(root)
	server.InitializeLogger(root)

	if cfg.LayoutFile == "" || cfg.ScheduleFile == "" {
		root.Crit("both -layout and -schedule are required")
		os.Exit(1)
	}

	sim, err := server.LoadSimulation(cfg)
	if err != nil {
		root.Crit("failed to load simulation", "error", err)
		os.Exit(1)
	}
	if err := sim.Initialize(); err != nil {
		root.Crit("failed to initialize simulation", "error", err)
		os.Exit(1)
	}
	sim.Start()

	server.Run(sim, cfg.Addr, cfg.Port)
}
