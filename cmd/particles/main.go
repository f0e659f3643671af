// Package main provides an interactive viewer for particle emitter presets.
//
// Usage:
//
//	go run ./cmd/particles [flags]
//
// Flags:
//
//	--presets <glob>    Preset files to load (default data/particles/*.yaml)
//	--emitter <name>    Only register the named emitter
//	--seed <n>          Override every preset seed (0 keeps preset seeds)
//	--verbose           Enable verbose logging (default off)
//
// Controls:
//
//	Space             - Play / pause all emitters
//	R                 - Restart all emitters
//	S                 - Stop all emitters
//	Tab               - Select next emitter
//	Mouse Left        - Drag the selected emitter
//	B                 - Toggle bounding mode (general / per particle)
//	F5 / F9           - Save / load a snapshot of the selected emitter
//	Q/Escape          - Quit
package main

import (
	"flag"
	"fmt"
	"image/color"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/quasilyte/gdata/v2"

	"github.com/decker502/particlesim/pkg/components"
	"github.com/decker502/particlesim/pkg/config"
	"github.com/decker502/particlesim/pkg/game"
	"github.com/decker502/particlesim/pkg/policy"
	"github.com/decker502/particlesim/pkg/systems"
)

const (
	screenWidth  = 1024
	screenHeight = 768

	pixelsPerUnit = 60.0
	groundY       = screenHeight - 120
	spacing       = 4.0 // 发射器之间的世界距离
)

var (
	presetsFlag = flag.String("presets", "data/particles/*.yaml", "Glob of preset files to load")
	emitterFlag = flag.String("emitter", "", "Only register the named emitter")
	seedFlag    = flag.Uint64("seed", 0, "Override preset seeds (0 keeps preset seeds)")
	verboseFlag = flag.Bool("verbose", false, "Enable verbose logging (default off)")
)

// viewerEmitter 视图中的一个发射器
type viewerEmitter struct {
	id   game.SimulationID
	name string
	home mgl64.Vec3
}

// ParticleViewerGame implements ebiten.Game for the emitter viewer
type ParticleViewerGame struct {
	manager   *game.SimulationManager
	snapshots *game.SnapshotStore
	runtime   config.RuntimeConfig

	emitters []viewerEmitter
	selected int

	playing  bool
	dragging bool
	lastPos  mgl64.Vec3

	statusMessage string
}

// NewParticleViewerGame loads the presets and registers one emitter per preset.
func NewParticleViewerGame(rt config.RuntimeConfig) (*ParticleViewerGame, error) {
	paths, err := filepath.Glob(*presetsFlag)
	if err != nil {
		return nil, fmt.Errorf("failed to scan presets: %w", err)
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return nil, fmt.Errorf("no preset files match %q", *presetsFlag)
	}

	gdataManager, err := gdata.Open(gdata.Config{AppName: rt.AppName})
	if err != nil {
		log.Printf("Warning: Failed to open gdata storage: %v (snapshots kept in memory)", err)
		gdataManager = nil
	}

	g := &ParticleViewerGame{
		manager:   game.NewSimulationManager(),
		snapshots: game.NewSnapshotStore(gdataManager),
		runtime:   rt,
	}
	g.manager.SetBoundingMode(rt.Bounding())

	seed := *seedFlag
	if seed == 0 {
		seed = rt.Seed
	}

	for _, path := range paths {
		file, err := config.LoadEmitterPresets(path)
		if err != nil {
			return nil, err
		}
		for i := range file.Emitters {
			preset := &file.Emitters[i]
			if *emitterFlag != "" && preset.Name != *emitterFlag {
				continue
			}
			if err := g.addEmitter(preset, seed); err != nil {
				return nil, err
			}
		}
	}
	if len(g.emitters) == 0 {
		return nil, fmt.Errorf("no emitters loaded (filter %q)", *emitterFlag)
	}

	// 发射器沿 X 轴居中排列
	offset := -spacing * float64(len(g.emitters)-1) / 2
	for i := range g.emitters {
		g.emitters[i].home = mgl64.Vec3{offset + spacing*float64(i), 0, 0}
		g.manager.SetParent(g.emitters[i].id, g.emitters[i].home, mgl64.Vec3{})
	}

	g.manager.OnPlay(false)
	g.playing = true
	g.statusMessage = fmt.Sprintf("Loaded %d emitters", len(g.emitters))
	log.Printf("Particle Viewer initialized: %d emitters from %d files", len(g.emitters), len(paths))
	return g, nil
}

func (g *ParticleViewerGame) addEmitter(preset *config.EmitterPreset, seed uint64) error {
	e, err := preset.NewEmitter(seed)
	if err != nil {
		return err
	}
	if g.runtime.TimeMultiplier != 1 {
		p := e.Policies()
		p.Timing.TimeMultiplier *= g.runtime.TimeMultiplier
		e.SetPolicies(p)
	}
	id := g.manager.Allocate(e)
	g.emitters = append(g.emitters, viewerEmitter{id: id, name: preset.Name})
	log.Printf("Registered emitter %q as %d", preset.Name, id)
	return nil
}

// Update advances every emitter by one frame.
func (g *ParticleViewerGame) Update() error {
	dt := 1.0 / float64(ebiten.TPS())

	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	g.handlePlayback()
	g.handleSelection()
	g.handleSnapshots()
	g.handleDrag(dt)

	g.manager.UpdateAllSimulations(dt)
	return nil
}

func (g *ParticleViewerGame) handlePlayback() {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		if g.playing {
			g.manager.OnPause()
			g.statusMessage = "Paused"
		} else {
			g.manager.OnPlay(true)
			g.statusMessage = "Playing"
		}
		g.playing = !g.playing
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		g.manager.OnPlay(false)
		g.playing = true
		g.statusMessage = "Restarted"
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		g.manager.OnStop()
		g.playing = false
		g.statusMessage = "Stopped"
	case inpututil.IsKeyJustPressed(ebiten.KeyB):
		mode := systems.BoundingPerParticle
		if g.manager.BoundingMode() == systems.BoundingPerParticle {
			mode = systems.BoundingGeneral
		}
		g.manager.SetBoundingMode(mode)
		g.statusMessage = fmt.Sprintf("Bounding mode: %v", mode)
	}
}

func (g *ParticleViewerGame) handleSelection() {
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		g.selected = (g.selected + 1) % len(g.emitters)
		g.statusMessage = fmt.Sprintf("Selected: %s", g.emitters[g.selected].name)
	}
}

func (g *ParticleViewerGame) handleSnapshots() {
	sel := g.emitters[g.selected]
	name := "viewer_" + sel.name

	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		if err := g.snapshots.Save(name, g.manager.GetEmitter(sel.id)); err != nil {
			log.Printf("Failed to save snapshot: %v", err)
			g.statusMessage = fmt.Sprintf("Error: %v", err)
			return
		}
		g.statusMessage = fmt.Sprintf("Saved snapshot %s", name)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF9) {
		if err := g.snapshots.RestoreEmitter(name, g.manager.GetEmitter(sel.id)); err != nil {
			log.Printf("Failed to load snapshot: %v", err)
			g.statusMessage = fmt.Sprintf("Error: %v", err)
			return
		}
		g.statusMessage = fmt.Sprintf("Loaded snapshot %s", name)
	}
}

// handleDrag moves the selected emitter with the mouse, feeding the cursor
// velocity as parent velocity.
func (g *ParticleViewerGame) handleDrag(dt float64) {
	sel := &g.emitters[g.selected]
	if !ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if g.dragging {
			g.dragging = false
			g.manager.SetParent(sel.id, g.lastPos, mgl64.Vec3{})
		}
		return
	}

	mx, my := ebiten.CursorPosition()
	pos := screenToWorld(float64(mx), float64(my))
	vel := mgl64.Vec3{}
	if g.dragging && dt > 0 {
		vel = pos.Sub(g.lastPos).Mul(1 / dt)
	}
	g.dragging = true
	g.lastPos = pos
	sel.home = pos
	g.manager.SetParent(sel.id, pos, vel)
}

// Draw renders every live particle and the overlay.
func (g *ParticleViewerGame) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{25, 25, 38, 255})
	vector.StrokeLine(screen, 0, groundY, screenWidth, groundY, 1, color.RGBA{70, 70, 90, 255}, false)

	for i, ve := range g.emitters {
		e := g.manager.GetEmitter(ve.id)
		if e == nil {
			continue
		}
		g.drawEmitter(screen, e, i == g.selected)
	}
	g.drawUI(screen)
}

func (g *ParticleViewerGame) drawEmitter(screen *ebiten.Image, e *systems.Emitter, selected bool) {
	p := e.Policies()
	offset := mgl64.Vec3{}
	if p.LocalSpace {
		offset = e.ParentPosition()
	}

	for _, particle := range e.Particles() {
		x, y := worldToScreen(particle.Position.Add(offset))
		r := float32(math.Max(1.5, particle.Radius*pixelsPerUnit))
		vector.DrawFilledCircle(screen, x, y, r, particleColor(p, particle), true)
	}

	if selected {
		box := e.BoundingBox()
		if p.LocalSpace {
			box = box.Offset(offset)
		}
		x0, y0 := worldToScreen(mgl64.Vec3{box.Min[0], box.Max[1], 0})
		x1, y1 := worldToScreen(mgl64.Vec3{box.Max[0], box.Min[1], 0})
		vector.StrokeRect(screen, x0, y0, x1-x0, y1-y0, 1, color.RGBA{120, 200, 120, 255}, false)

		px, py := worldToScreen(e.ParentPosition())
		vector.DrawFilledCircle(screen, px, py, 4, color.RGBA{255, 255, 0, 255}, false)
	}
}

// particleColor 根据混合模式和光照选择颜色，随寿命淡出
func particleColor(p systems.Policies, particle components.Particle) color.RGBA {
	base := mgl64.Vec3{0.9, 0.9, 0.9}
	switch p.Blend {
	case policy.BlendAlpha:
		base = mgl64.Vec3{0.5, 0.7, 1}
	case policy.BlendAdditive:
		base = mgl64.Vec3{1, 0.6, 0.2}
	case policy.BlendMultiply:
		base = mgl64.Vec3{0.4, 0.4, 0.5}
	}
	if p.Light.Enabled {
		base = particle.Light.Color
	}

	alpha := 1.0
	if particle.MaxLifetime > 0 {
		alpha = 1 - particle.Age/particle.MaxLifetime
	}
	alpha = mgl64.Clamp(alpha, 0.15, 1)

	to8 := func(v float64) uint8 {
		return uint8(mgl64.Clamp(v, 0, 1) * alpha * 255)
	}
	return color.RGBA{to8(base[0]), to8(base[1]), to8(base[2]), uint8(alpha * 255)}
}

func (g *ParticleViewerGame) drawUI(screen *ebiten.Image) {
	sel := g.emitters[g.selected]
	e := g.manager.GetEmitter(sel.id)
	st := e.Stats()

	lines := []string{
		fmt.Sprintf("Particle Viewer - Emitter %d/%d: %s", g.selected+1, len(g.emitters), sel.name),
		fmt.Sprintf("State: %v  Particles: %d  Total: %d", st.State, st.ParticleCount, g.manager.TotalParticles()),
		fmt.Sprintf("Time: %.2fs  MaxDist: %.2f  MaxSpeed: %.2f", st.TotalTime, math.Sqrt(st.MaxDistSq), math.Sqrt(st.MaxSpeedSq)),
		fmt.Sprintf("Bounding: %v  Blend: %v  Light: %v", g.manager.BoundingMode(), e.Policies().Blend, g.manager.EmitterHasLight(sel.id)),
		fmt.Sprintf("FPS: %.0f  TPS: %.0f", ebiten.ActualFPS(), ebiten.ActualTPS()),
		g.statusMessage,
	}
	for i, line := range lines {
		ebitenutil.DebugPrintAt(screen, line, 10, 10+i*16)
	}

	help := "Space: play/pause  R: restart  S: stop  Tab: select  B: bounding  F5/F9: snapshot  Q: quit"
	ebitenutil.DebugPrintAt(screen, help, 10, screenHeight-24)
}

// Layout returns the fixed logical screen size.
func (g *ParticleViewerGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

// worldToScreen 正交投影：X 向右，Y 向上，Z 轻微斜向偏移以显示深度
func worldToScreen(p mgl64.Vec3) (float32, float32) {
	x := screenWidth/2 + (p[0]+p[2]*0.3)*pixelsPerUnit
	y := groundY - (p[1]+p[2]*0.2)*pixelsPerUnit
	return float32(x), float32(y)
}

func screenToWorld(x, y float64) mgl64.Vec3 {
	return mgl64.Vec3{(x - screenWidth/2) / pixelsPerUnit, (groundY - y) / pixelsPerUnit, 0}
}

func main() {
	flag.Parse()

	rt, err := config.LoadRuntimeConfig()
	if err != nil {
		log.Fatal("Failed to load runtime config:", err)
	}
	if !*verboseFlag && !rt.Verbose {
		log.SetOutput(io.Discard)
	}

	log.Println("=== Particle Emitter Viewer ===")
	log.Printf("Presets: %q", *presetsFlag)

	g, err := NewParticleViewerGame(rt)
	if err != nil {
		log.SetOutput(os.Stderr)
		log.Fatal("Failed to initialize viewer:", err)
	}

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("Particle Emitter Viewer")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(g); err != nil && err != ebiten.Termination {
		log.Fatal(err)
	}
	log.Println("Particle viewer closed")
}
