// Package fixmath provides the fixed-point geometry used by the world core.
//
// Angles are unsigned 32-bit turns: adding or subtracting wraps modulo a full
// turn. Every helper is table-driven with integer indexing so results are
// bit-reproducible from run to run.
package fixmath

import (
	"math"
	"math/bits"
)

// Angle is a fraction of a full turn; 1<<32 is one revolution.
type Angle uint32

// Angle constants.
const (
	FlipAngle Angle = 1 << 31 // half turn
	Angle90   Angle = 1 << 30 // quarter turn
)

// Tile geometry, in world units.
const (
	TileOrder = 24
	TileSize  = 1 << TileOrder
	TileMask  = TileSize - 1
)

// MaxR2 is the "nothing observed" sentinel for squared distances.
const MaxR2 = math.MaxUint64

// Lookup table resolution.
const (
	sinOrder = 12
	sinSize  = 1 << sinOrder
	sinShift = 30 // Q30 table values

	atanOrder = 10
	atanSize  = 1 << atanOrder
)

var (
	sinLUT  [sinSize]int64
	atanLUT [atanSize + 1]uint32 // atan(i/atanSize) in turns, one octant
)

func init() {
	for i := 0; i < sinSize; i++ {
		rad := 2 * math.Pi * float64(i) / sinSize
		sinLUT[i] = int64(math.Round(math.Sin(rad) * (1 << sinShift)))
	}
	for i := 0; i <= atanSize; i++ {
		turns := math.Atan(float64(i)/atanSize) / (2 * math.Pi)
		atanLUT[i] = uint32(math.Round(turns * (1 << 32)))
	}
}

// RSin returns dist*sin(a)/4, dist being given in quarter units.
// The result is floored, so equal inputs always give equal deltas.
func RSin(dist uint32, a Angle) int64 {
	return int64(dist) * sinLUT[a>>(32-sinOrder)] >> (sinShift + 2)
}

// Displace returns the (dx, dy) offset of length dist/4 along direction a.
func Displace(dist uint32, a Angle) (dx, dy int64) {
	return RSin(dist, a+Angle90), RSin(dist, a)
}

// CalcAngle returns the direction of the vector (dx, dy).
// The zero vector has no direction and maps to 0.
func CalcAngle(dx, dy int32) Angle {
	if dx == 0 && dy == 0 {
		return 0
	}
	ax, ay := abs64(dx), abs64(dy)

	var oct uint32
	if ax >= ay {
		oct = atanLUT[ay*atanSize/ax]
	} else {
		oct = uint32(Angle90) - atanLUT[ax*atanSize/ay]
	}
	a := Angle(oct)

	switch {
	case dx >= 0 && dy >= 0:
		return a
	case dx < 0 && dy >= 0:
		return FlipAngle - a
	case dx < 0:
		return FlipAngle + a
	default:
		return -a
	}
}

// CalcRadius maps a squared distance to a closeness code: 255 at zero
// distance, falling monotonically to 0 for MaxR2.
func CalcRadius(r2 uint64) uint8 {
	n := bits.Len64(r2)
	code := 4 * n
	if n >= 3 {
		code += int(r2>>(n-3)) & 3
	}
	if code >= 255 {
		return 0
	}
	return uint8(255 - code)
}

// Delta returns the signed coordinate difference a-b truncated to 32 bits.
// It does not special-case the toroidal wrap.
func Delta(a, b uint64) int32 {
	return int32(a - b)
}

// Dist2 returns the squared length of (dx, dy).
func Dist2(dx, dy int32) uint64 {
	return uint64(int64(dx)*int64(dx) + int64(dy)*int64(dy))
}

// InCone reports whether test lies within half of center.
func InCone(test, center, half Angle) bool {
	if half >= FlipAngle {
		return true
	}
	return test-center+half <= 2*half
}

// SatAdd32 adds without wrapping past math.MaxUint32.
func SatAdd32(a, b uint32) uint32 {
	s, carry := bits.Add32(a, b, 0)
	if carry != 0 {
		return math.MaxUint32
	}
	return s
}

func abs64(v int32) uint64 {
	if v < 0 {
		return uint64(-int64(v))
	}
	return uint64(v)
}
