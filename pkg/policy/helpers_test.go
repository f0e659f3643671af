package policy

import (
	"math"
	"math/rand/v2"
	"testing"
)

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("%s = %f, want %f", name, got, want)
	}
}

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}
