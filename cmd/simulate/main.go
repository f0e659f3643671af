// Package main runs emitter presets headless and prints per-tick statistics.
//
// Usage:
//
//	go run ./cmd/simulate --presets data/particles/fountain.yaml [flags]
//
// Flags:
//
//	--presets <file>    Preset file to load (required)
//	--emitter <name>    Only simulate the named emitter
//	--ticks <n>         Number of ticks to run (default 300)
//	--dt <seconds>      Tick length (default 1/60)
//	--every <n>         Print statistics every n ticks (default 30)
//	--seed <n>          Override every preset seed (0 keeps preset seeds)
//	--save <name>       Save a snapshot of each emitter after the run
//	--restore <name>    Restore each emitter from a snapshot before the run
//	--verbose           Enable verbose logging (default off)
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"text/tabwriter"

	"github.com/quasilyte/gdata/v2"

	"github.com/decker502/particlesim/pkg/config"
	"github.com/decker502/particlesim/pkg/game"
)

var (
	presetsFlag = flag.String("presets", "", "Preset file to load")
	emitterFlag = flag.String("emitter", "", "Only simulate the named emitter")
	ticksFlag   = flag.Int("ticks", 300, "Number of ticks to run")
	dtFlag      = flag.Float64("dt", 1.0/60.0, "Tick length in seconds")
	everyFlag   = flag.Int("every", 30, "Print statistics every n ticks")
	seedFlag    = flag.Uint64("seed", 0, "Override preset seeds (0 keeps preset seeds)")
	saveFlag    = flag.String("save", "", "Save a snapshot of each emitter after the run")
	restoreFlag = flag.String("restore", "", "Restore each emitter from a snapshot before the run")
	verboseFlag = flag.Bool("verbose", false, "Enable verbose logging (default off)")
)

type namedSimulation struct {
	name string
	id   game.SimulationID
}

func main() {
	flag.Parse()

	rt, err := config.LoadRuntimeConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load runtime config:", err)
		os.Exit(1)
	}
	if !*verboseFlag && !rt.Verbose {
		log.SetOutput(io.Discard)
	}

	if err := run(rt, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(rt config.RuntimeConfig, out io.Writer) error {
	if *presetsFlag == "" {
		return fmt.Errorf("--presets is required")
	}
	if *dtFlag <= 0 || math.IsNaN(*dtFlag) {
		return fmt.Errorf("--dt must be positive, got %v", *dtFlag)
	}

	file, err := config.LoadEmitterPresets(*presetsFlag)
	if err != nil {
		return err
	}

	var store *game.SnapshotStore
	if *saveFlag != "" || *restoreFlag != "" {
		manager, err := gdata.Open(gdata.Config{AppName: rt.AppName})
		if err != nil {
			return fmt.Errorf("failed to open gdata storage: %w", err)
		}
		store = game.NewSnapshotStore(manager)
	}

	seed := *seedFlag
	if seed == 0 {
		seed = rt.Seed
	}

	manager := game.NewSimulationManager()
	manager.SetBoundingMode(rt.Bounding())

	var sims []namedSimulation
	for i := range file.Emitters {
		preset := &file.Emitters[i]
		if *emitterFlag != "" && preset.Name != *emitterFlag {
			continue
		}
		e, err := preset.NewEmitter(seed)
		if err != nil {
			return err
		}
		if rt.TimeMultiplier != 1 {
			p := e.Policies()
			p.Timing.TimeMultiplier *= rt.TimeMultiplier
			e.SetPolicies(p)
		}
		if *restoreFlag != "" {
			if err := store.RestoreEmitter(snapshotName(*restoreFlag, preset.Name), e); err != nil {
				return err
			}
		}
		e.Play()
		sims = append(sims, namedSimulation{name: preset.Name, id: manager.Allocate(e)})
	}
	if len(sims) == 0 {
		return fmt.Errorf("no emitter named %q in %s", *emitterFlag, *presetsFlag)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "tick\temitter\tstate\tparticles\ttime\tmax_dist\tmax_speed\tbbox_min\tbbox_max")
	for tick := 1; tick <= *ticksFlag; tick++ {
		manager.UpdateAllSimulations(*dtFlag)
		if *everyFlag > 0 && (tick%*everyFlag == 0 || tick == *ticksFlag) {
			for _, sim := range sims {
				st := manager.GetEmitter(sim.id).Stats()
				fmt.Fprintf(w, "%d\t%s\t%v\t%d\t%.3f\t%.3f\t%.3f\t%.2v\t%.2v\n",
					tick, sim.name, st.State, st.ParticleCount, st.TotalTime,
					math.Sqrt(st.MaxDistSq), math.Sqrt(st.MaxSpeedSq),
					st.BoundingBox.Min, st.BoundingBox.Max)
			}
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write statistics: %w", err)
	}
	fmt.Fprintf(out, "total particles: %d\n", manager.TotalParticles())

	if *saveFlag != "" {
		for _, sim := range sims {
			name := snapshotName(*saveFlag, sim.name)
			if err := store.Save(name, manager.GetEmitter(sim.id)); err != nil {
				return err
			}
			fmt.Fprintf(out, "saved snapshot %s\n", name)
		}
	}
	return nil
}

// snapshotName 每个发射器一个快照：<prefix>_<emitter>
func snapshotName(prefix, emitter string) string {
	return prefix + "_" + emitter
}
