// File: internal/geometry/mapper_test.go
package geometry

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/webeval-cli/api/schemas"
)

func TestNewMapper(t *testing.T) {
	t.Run("accepts positive scale", func(t *testing.T) {
		m, err := NewMapper(2.0, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, 2.0, m.Scale)
	})

	t.Run("rejects zero and negative scale", func(t *testing.T) {
		for _, scale := range []float64{0, -1, -0.001} {
			_, err := NewMapper(scale, 0, 0)
			require.Error(t, err)
			assert.True(t, schemas.IsKind(err, schemas.KindInvalidConfiguration))
		}
	})

	t.Run("rejects non-finite scale", func(t *testing.T) {
		for _, scale := range []float64{math.NaN(), math.Inf(1)} {
			_, err := NewMapper(scale, 0, 0)
			assert.Error(t, err)
		}
	})
}

func TestToPhysical(t *testing.T) {
	m, err := NewMapper(2.0, 10, 20)
	require.NoError(t, err)

	p := m.ToPhysical(Point{X: 100, Y: 50})
	assert.Equal(t, 210.0, p.X)
	assert.Equal(t, 120.0, p.Y)
}

func TestToPhysicalRounds(t *testing.T) {
	m, err := NewMapper(1.5, 0, 0)
	require.NoError(t, err)

	// 33.3 * 1.5 = 49.95 -> 50
	p := m.ToPhysical(Point{X: 33.3, Y: 33.3})
	assert.Equal(t, 50.0, p.X)
	assert.Equal(t, 50.0, p.Y)
}

// The logical -> physical -> logical round trip must stay within half a
// physical pixel of the original position, across realistic scale factors.
func TestRoundTripAccuracy(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 2000; i++ {
		scale := 0.5 + rng.Float64()*3.5 // [0.5, 4.0)
		offX := float64(rng.Intn(100))
		offY := float64(rng.Intn(100))

		m, err := NewMapper(scale, offX, offY)
		require.NoError(t, err)

		orig := Point{
			X: rng.Float64() * 1920,
			Y: rng.Float64() * 1080,
		}

		back := m.ToLogical(m.ToPhysical(orig))

		// Rounding to an integer physical pixel perturbs by at most 0.5
		// physical px, i.e. 0.5/scale logical px.
		tol := 0.5 / scale
		assert.InDelta(t, orig.X, back.X, tol+1e-9,
			"scale=%v off=(%v,%v)", scale, offX, offY)
		assert.InDelta(t, orig.Y, back.Y, tol+1e-9)
	}
}

func TestFromViewport(t *testing.T) {
	m, err := FromViewport(schemas.Viewport{Width: 1280, Height: 720, Scale: 2.0})
	require.NoError(t, err)
	assert.Equal(t, 2.0, m.Scale)

	_, err = FromViewport(schemas.Viewport{Scale: 0})
	assert.Error(t, err)
}

func TestScaleDistance(t *testing.T) {
	m, err := NewMapper(2.0, 5, 5)
	require.NoError(t, err)
	assert.Equal(t, 240.0, m.ScaleDistance(120))
}
