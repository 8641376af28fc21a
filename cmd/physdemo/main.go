// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

// Command physdemo loads a scenario YAML file, steps it for a fixed
// number of simulation ticks, and prints each named rigid body's world
// position every few steps. It plays the role eg/eg.go plays for the
// rendering engine: a small harness that runs one named piece of content
// and reports what happened, without a renderer attached.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/gazed/dynamics/body"
	"github.com/gazed/dynamics/config"
	"github.com/gazed/dynamics/world"
)

func main() {
	scenarioPath := flag.String("scenario", "", "path to a scenario YAML file")
	steps := flag.Int("steps", 300, "number of simulation steps to run")
	every := flag.Int("report-every", 60, "print body positions every N steps")
	flag.Parse()

	if *scenarioPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: physdemo -scenario <file.yaml> [-steps N] [-report-every N]")
		os.Exit(2)
	}

	data, err := os.ReadFile(*scenarioPath)
	if err != nil {
		log.Fatalf("physdemo: reading %s: %v", *scenarioPath, err)
	}

	descriptor, err := config.Load(data)
	if err != nil {
		log.Fatalf("physdemo: %v", err)
	}

	w, handles, err := config.Build(descriptor)
	if err != nil {
		log.Fatalf("physdemo: %v", err)
	}

	names := make(map[body.Handle]string, len(handles))
	for name, h := range handles {
		if h == body.Ground {
			continue
		}
		names[h] = name
	}

	for i := 0; i < *steps; i++ {
		if err := w.Step(); err != nil {
			log.Fatalf("physdemo: step %d: %v", i, err)
		}
		if *every > 0 && i%*every == 0 {
			report(w, names, i)
		}
	}
	report(w, names, *steps)
}

func report(w *world.World, names map[body.Handle]string, step int) {
	fmt.Printf("step %d:\n", step)
	w.Bodies().Each(func(h body.Handle, d body.DOF) {
		name, ok := names[h]
		if !ok {
			return
		}
		rb, ok := d.(*body.RigidBody)
		if !ok {
			fmt.Printf("  %-12s kind=%v\n", name, d.Kind())
			return
		}
		loc := rb.World().Loc
		fmt.Printf("  %-12s pos=(% .3f % .3f % .3f)\n", name, loc.X, loc.Y, loc.Z)
	})
}
