package policy

import (
	"fmt"
	"math/rand/v2"

	"github.com/decker502/particlesim/pkg/components"
)

// Light describes the per-particle light attributes sampled at spawn.
type Light struct {
	Enabled   bool        `yaml:"enabled"`
	Color     Vector      `yaml:"color"`
	Intensity SingleValue `yaml:"intensity"`
	Specular  SingleValue `yaml:"specular"`
}

// Sample returns the light of one new particle. A disabled light yields the zero value.
func (l Light) Sample(r *rand.Rand, t float64) components.ParticleLight {
	if !l.Enabled {
		return components.ParticleLight{}
	}
	return components.ParticleLight{
		Color:     l.Color.Sample(r, t),
		Intensity: l.Intensity.Sample(r, t),
		Specular:  l.Specular.Sample(r, t),
	}
}

// Clone returns a deep copy of the light policy.
func (l Light) Clone() Light {
	l.Color = l.Color.Clone()
	l.Intensity = l.Intensity.Clone()
	l.Specular = l.Specular.Clone()
	return l
}

// BlendMode controls how particle colours composite with the scene.
type BlendMode uint8

const (
	BlendNone     BlendMode = iota // opaque, no blending
	BlendAlpha                     // standard alpha blend (smoke, mist, dust)
	BlendAdditive                  // additive blend (fire, sparks, glow)
	BlendMultiply                  // multiplicative darkening
)

func (b BlendMode) String() string {
	switch b {
	case BlendNone:
		return "none"
	case BlendAlpha:
		return "alpha"
	case BlendAdditive:
		return "additive"
	case BlendMultiply:
		return "multiply"
	default:
		return fmt.Sprintf("BlendMode(%d)", uint8(b))
	}
}
