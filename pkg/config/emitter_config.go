package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/decker502/particlesim/internal/particle"
	"github.com/decker502/particlesim/pkg/policy"
	"github.com/decker502/particlesim/pkg/systems"
)

// PresetFile 粒子预设文件
// 一个文件可以包含多个发射器预设
type PresetFile struct {
	Emitters []EmitterPreset `yaml:"emitters"`
}

// EmitterPreset 单个发射器预设
//
// Scalar generators are authoring strings: fixed "2", range "[1 3]" or a
// keyframe curve "0,0 1,10 EaseOut". An empty string means "none".
type EmitterPreset struct {
	Name         string         `yaml:"name"`
	Seed         uint64         `yaml:"seed"`
	MaxParticles int            `yaml:"maxParticles"`
	Lifetime     string         `yaml:"lifetime"`
	Blend        string         `yaml:"blend"`
	LocalSpace   bool           `yaml:"localSpace"`
	InheritSpeed bool           `yaml:"inheritSpeed"`
	Timing       TimingConfig   `yaml:"timing"`
	Position     ShapeConfig    `yaml:"position"`
	Speed        VectorConfig   `yaml:"speed"`
	Acceleration VectorConfig   `yaml:"acceleration"`
	Interval     IntervalConfig `yaml:"interval"`
	Spawn        SpawnConfig    `yaml:"spawn"`
	Boundary     BoundaryConfig `yaml:"boundary"`
	Collider     ColliderConfig `yaml:"collider"`
	Light        LightConfig    `yaml:"light"`
}

// TimingConfig 播放时间配置
type TimingConfig struct {
	StartDelay     float64  `yaml:"startDelay"`
	MaxTime        float64  `yaml:"maxTime"`        // <= 0 不限时
	Loop           *bool    `yaml:"loop"`           // 缺省为 true
	TimeMultiplier *float64 `yaml:"timeMultiplier"` // 缺省为 1
}

// ShapeConfig 发射形状配置
type ShapeConfig struct {
	Type    string     `yaml:"type"` // point, line, circle, sphere, box
	Offset  mgl64.Vec3 `yaml:"offset"`
	Radius  float64    `yaml:"radius"`
	Extents mgl64.Vec3 `yaml:"extents"`
	Surface bool       `yaml:"surface"`
}

// VectorConfig 向量生成器配置
type VectorConfig struct {
	Type      string     `yaml:"type"` // none, value, range, cone, curve
	Value     mgl64.Vec3 `yaml:"value"`
	Min       mgl64.Vec3 `yaml:"min"`
	Max       mgl64.Vec3 `yaml:"max"`
	Direction mgl64.Vec3 `yaml:"direction"`
	Angle     float64    `yaml:"angle"` // 半角（度）
	Speed     string     `yaml:"speed"`
	X         string     `yaml:"x"`
	Y         string     `yaml:"y"`
	Z         string     `yaml:"z"`
}

// IntervalConfig 发射区间配置
type IntervalConfig struct {
	Type   string  `yaml:"type"` // none, periodic, once
	Active float64 `yaml:"active"`
	Sleep  float64 `yaml:"sleep"`
	Offset float64 `yaml:"offset"`
}

// SpawnConfig 发射模式配置
type SpawnConfig struct {
	Type   string  `yaml:"type"` // none, flow, burst, maintain
	Rate   string  `yaml:"rate"`
	Count  string  `yaml:"count"`
	Period float64 `yaml:"period"`
}

// BoundaryConfig 边界配置
type BoundaryConfig struct {
	Type     string     `yaml:"type"`     // none, plane, aabb, sphere
	Response string     `yaml:"response"` // kill, bounce
	Point    mgl64.Vec3 `yaml:"point"`
	Normal   mgl64.Vec3 `yaml:"normal"`
	Min      mgl64.Vec3 `yaml:"min"`
	Max      mgl64.Vec3 `yaml:"max"`
	Radius   float64    `yaml:"radius"`
}

// ColliderConfig 碰撞配置
type ColliderConfig struct {
	Type            string `yaml:"type"` // none, point, sphere
	Mass            string `yaml:"mass"`
	Radius          string `yaml:"radius"`
	Restitution     string `yaml:"restitution"`
	InterCollisions bool   `yaml:"interCollisions"`
}

// LightConfig 粒子光照配置
type LightConfig struct {
	Enabled   bool         `yaml:"enabled"`
	Color     VectorConfig `yaml:"color"`
	Intensity string       `yaml:"intensity"`
	Specular  string       `yaml:"specular"`
}

// LoadEmitterPresets 从 YAML 文件加载发射器预设
//
// 参数：
//   - path: 预设文件路径
//
// 返回：
//   - *PresetFile: 解析并验证后的预设
//   - error: 读取、解析或验证失败时返回错误
func LoadEmitterPresets(path string) (*PresetFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read emitter preset file %s: %w", path, err)
	}

	presets, err := ParsePresets(data)
	if err != nil {
		return nil, fmt.Errorf("invalid emitter preset file %s: %w", path, err)
	}
	return presets, nil
}

// ParsePresets decodes and validates preset YAML.
func ParsePresets(data []byte) (*PresetFile, error) {
	var file PresetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse emitter preset YAML: %w", err)
	}
	if err := file.Validate(); err != nil {
		return nil, err
	}
	return &file, nil
}

// Validate checks every preset and rejects duplicate names.
func (f *PresetFile) Validate() error {
	if len(f.Emitters) == 0 {
		return fmt.Errorf("at least one emitter is required")
	}
	seen := make(map[string]bool, len(f.Emitters))
	for i := range f.Emitters {
		e := &f.Emitters[i]
		if err := e.Validate(); err != nil {
			return fmt.Errorf("emitter %d (%s): %w", i, e.Name, err)
		}
		if seen[e.Name] {
			return fmt.Errorf("emitter %d: duplicate name %q", i, e.Name)
		}
		seen[e.Name] = true
	}
	return nil
}

// Find returns the preset with the given name.
func (f *PresetFile) Find(name string) (*EmitterPreset, bool) {
	for i := range f.Emitters {
		if f.Emitters[i].Name == name {
			return &f.Emitters[i], true
		}
	}
	return nil, false
}

// Validate checks field ranges and that every generator string parses.
func (e *EmitterPreset) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("name is required")
	}
	if e.MaxParticles < 0 || e.MaxParticles > systems.MaxParticlesCap {
		return fmt.Errorf("maxParticles must be between 0 and %d, got %d", systems.MaxParticlesCap, e.MaxParticles)
	}
	if e.Timing.StartDelay < 0 {
		return fmt.Errorf("timing.startDelay cannot be negative")
	}
	if e.Timing.TimeMultiplier != nil && *e.Timing.TimeMultiplier < 0 {
		return fmt.Errorf("timing.timeMultiplier cannot be negative")
	}
	_, err := e.Policies()
	return err
}

// Policies translates the preset into emitter policies.
func (e *EmitterPreset) Policies() (systems.Policies, error) {
	p := systems.DefaultPolicies()
	p.MaxParticles = e.MaxParticles
	p.LocalSpace = e.LocalSpace
	p.InheritSpeed = e.InheritSpeed

	var err error
	if p.Lifetime, err = parseSingle("lifetime", e.Lifetime); err != nil {
		return p, err
	}
	if p.Blend, err = parseBlend(e.Blend); err != nil {
		return p, err
	}

	p.Timing = systems.Timing{
		StartDelay:     e.Timing.StartDelay,
		MaxTime:        e.Timing.MaxTime,
		Loop:           true,
		TimeMultiplier: 1,
	}
	if e.Timing.Loop != nil {
		p.Timing.Loop = *e.Timing.Loop
	}
	if e.Timing.TimeMultiplier != nil {
		p.Timing.TimeMultiplier = *e.Timing.TimeMultiplier
	}

	if p.Position, err = e.Position.shape(); err != nil {
		return p, fmt.Errorf("position: %w", err)
	}
	if p.Speed, err = e.Speed.vector(); err != nil {
		return p, fmt.Errorf("speed: %w", err)
	}
	if p.Acceleration, err = e.Acceleration.vector(); err != nil {
		return p, fmt.Errorf("acceleration: %w", err)
	}
	if p.Interval, err = e.Interval.interval(); err != nil {
		return p, fmt.Errorf("interval: %w", err)
	}
	if p.Mode, err = e.Spawn.mode(); err != nil {
		return p, fmt.Errorf("spawn: %w", err)
	}
	if p.Boundary, err = e.Boundary.boundary(); err != nil {
		return p, fmt.Errorf("boundary: %w", err)
	}
	if p.Collider, err = e.Collider.collider(); err != nil {
		return p, fmt.Errorf("collider: %w", err)
	}
	if p.Light, err = e.Light.light(); err != nil {
		return p, fmt.Errorf("light: %w", err)
	}
	return p, nil
}

// NewEmitter builds a stopped emitter from the preset. seed overrides the
// preset seed when non-zero.
func (e *EmitterPreset) NewEmitter(seed uint64) (*systems.Emitter, error) {
	p, err := e.Policies()
	if err != nil {
		return nil, fmt.Errorf("invalid emitter preset %s: %w", e.Name, err)
	}
	if seed == 0 {
		seed = e.Seed
	}
	return systems.NewEmitter(p, seed), nil
}

// parseSingle converts an authoring string into a scalar generator.
func parseSingle(field, s string) (policy.SingleValue, error) {
	v, err := particle.ParseValue(s)
	if err != nil {
		return policy.SingleValue{}, fmt.Errorf("%s: %w", field, err)
	}
	return singleFromParsed(v), nil
}

func singleFromParsed(v particle.ParsedValue) policy.SingleValue {
	switch {
	case v.Empty:
		return policy.NoValue()
	case v.IsCurve():
		return policy.CurveValue(policy.NewCurve(v.Interpolation, v.Keyframes...))
	case v.IsRange():
		return policy.Range(v.Min, v.Max)
	default:
		return policy.Fixed(v.Min)
	}
}

// parseCurve converts an authoring string into a curve. Fixed values become
// flat single-key curves.
func parseCurve(field, s string) (policy.Curve, error) {
	v, err := particle.ParseValue(s)
	if err != nil {
		return policy.Curve{}, fmt.Errorf("%s: %w", field, err)
	}
	switch {
	case v.Empty:
		return policy.Curve{}, nil
	case v.IsCurve():
		return policy.NewCurve(v.Interpolation, v.Keyframes...), nil
	case v.IsRange():
		return policy.Curve{}, fmt.Errorf("%s: ranges are not allowed in curves", field)
	default:
		return policy.NewCurve(particle.InterpLinear, particle.Keyframe{Value: v.Min}), nil
	}
}

func kind(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (c ShapeConfig) shape() (policy.Shape, error) {
	s := policy.Shape{
		Offset:  c.Offset,
		Radius:  c.Radius,
		Extents: c.Extents,
		Surface: c.Surface,
	}
	switch kind(c.Type) {
	case "", "point":
		s.Kind = policy.ShapePoint
	case "line":
		s.Kind = policy.ShapeLine
	case "circle":
		s.Kind = policy.ShapeCircle
	case "sphere":
		s.Kind = policy.ShapeSphere
	case "box":
		s.Kind = policy.ShapeBox
	default:
		return s, fmt.Errorf("unknown shape type %q", c.Type)
	}
	return s, nil
}

func (c VectorConfig) vector() (policy.Vector, error) {
	switch kind(c.Type) {
	case "", "none":
		return policy.ZeroVector(), nil
	case "value":
		return policy.FixedVector(c.Value), nil
	case "range":
		return policy.RangeVector(c.Min, c.Max), nil
	case "cone":
		speed, err := parseSingle("speed", c.Speed)
		if err != nil {
			return policy.Vector{}, err
		}
		return policy.ConeVector(c.Direction, mgl64.DegToRad(c.Angle), speed), nil
	case "curve":
		x, err := parseCurve("x", c.X)
		if err != nil {
			return policy.Vector{}, err
		}
		y, err := parseCurve("y", c.Y)
		if err != nil {
			return policy.Vector{}, err
		}
		z, err := parseCurve("z", c.Z)
		if err != nil {
			return policy.Vector{}, err
		}
		return policy.CurveVector(x, y, z), nil
	default:
		return policy.Vector{}, fmt.Errorf("unknown vector type %q", c.Type)
	}
}

func (c IntervalConfig) interval() (policy.Interval, error) {
	switch kind(c.Type) {
	case "", "none":
		return policy.AlwaysInterval(), nil
	case "periodic":
		if c.Active < 0 || c.Sleep < 0 {
			return policy.Interval{}, fmt.Errorf("active and sleep cannot be negative")
		}
		return policy.PeriodicInterval(c.Active, c.Sleep), nil
	case "once":
		if c.Offset < 0 {
			return policy.Interval{}, fmt.Errorf("offset cannot be negative")
		}
		return policy.OnceInterval(c.Offset, c.Active), nil
	default:
		return policy.Interval{}, fmt.Errorf("unknown interval type %q", c.Type)
	}
}

func (c SpawnConfig) mode() (policy.SpawnMode, error) {
	switch kind(c.Type) {
	case "none":
		return policy.NoSpawn(), nil
	case "", "flow":
		rate, err := parseSingle("rate", c.Rate)
		if err != nil {
			return policy.SpawnMode{}, err
		}
		if rate.IsNone() {
			rate = policy.Fixed(10)
		}
		return policy.FlowMode(rate), nil
	case "burst":
		count, err := parseSingle("count", c.Count)
		if err != nil {
			return policy.SpawnMode{}, err
		}
		return policy.BurstMode(count, c.Period), nil
	case "maintain":
		count, err := parseSingle("count", c.Count)
		if err != nil {
			return policy.SpawnMode{}, err
		}
		return policy.MaintainMode(count), nil
	default:
		return policy.SpawnMode{}, fmt.Errorf("unknown spawn type %q", c.Type)
	}
}

func (c BoundaryConfig) boundary() (policy.Boundary, error) {
	var response policy.BoundaryResponse
	switch kind(c.Response) {
	case "", "kill":
		response = policy.ResponseKill
	case "bounce":
		response = policy.ResponseBounce
	default:
		return policy.Boundary{}, fmt.Errorf("unknown boundary response %q", c.Response)
	}

	switch kind(c.Type) {
	case "", "none":
		return policy.NoBoundary(), nil
	case "plane":
		if c.Normal == (mgl64.Vec3{}) {
			return policy.Boundary{}, fmt.Errorf("plane normal cannot be zero")
		}
		return policy.PlaneBoundary(c.Point, c.Normal, response), nil
	case "aabb":
		return policy.AABBBoundary(c.Min, c.Max, response), nil
	case "sphere":
		return policy.SphereBoundary(c.Point, c.Radius, response), nil
	default:
		return policy.Boundary{}, fmt.Errorf("unknown boundary type %q", c.Type)
	}
}

func (c ColliderConfig) collider() (policy.Collider, error) {
	col := policy.Collider{InterCollisions: c.InterCollisions}
	switch kind(c.Type) {
	case "", "none":
		return policy.NoCollider(), nil
	case "point":
		col.Kind = policy.ColliderPoint
	case "sphere":
		col.Kind = policy.ColliderSphere
	default:
		return col, fmt.Errorf("unknown collider type %q", c.Type)
	}

	var err error
	if col.Mass, err = parseSingle("mass", c.Mass); err != nil {
		return col, err
	}
	if col.Radius, err = parseSingle("radius", c.Radius); err != nil {
		return col, err
	}
	if col.Restitution, err = parseSingle("restitution", c.Restitution); err != nil {
		return col, err
	}
	return col, nil
}

func (c LightConfig) light() (policy.Light, error) {
	if !c.Enabled {
		return policy.Light{}, nil
	}
	color, err := c.Color.vector()
	if err != nil {
		return policy.Light{}, fmt.Errorf("color: %w", err)
	}
	intensity, err := parseSingle("intensity", c.Intensity)
	if err != nil {
		return policy.Light{}, err
	}
	specular, err := parseSingle("specular", c.Specular)
	if err != nil {
		return policy.Light{}, err
	}
	return policy.Light{Enabled: true, Color: color, Intensity: intensity, Specular: specular}, nil
}

func parseBlend(s string) (policy.BlendMode, error) {
	switch kind(s) {
	case "", "none":
		return policy.BlendNone, nil
	case "alpha":
		return policy.BlendAlpha, nil
	case "additive":
		return policy.BlendAdditive, nil
	case "multiply":
		return policy.BlendMultiply, nil
	default:
		return policy.BlendNone, fmt.Errorf("unknown blend mode %q", s)
	}
}
