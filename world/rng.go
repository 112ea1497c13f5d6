package world

import "math"

// Rand is a per-tile xorshift64* generator. Its whole state is one word, so a
// tile can be saved and restored exactly.
type Rand struct {
	state uint64
}

// NewRand seeds a generator for one tile.
func NewRand(seed uint64, index int) Rand {
	z := seed + uint64(index+1)*0x9E3779B97F4A7C15
	z = (z ^ z>>30) * 0xBF58476D1CE4E5B9
	z = (z ^ z>>27) * 0x94D049BB133111EB
	z ^= z >> 31
	if z == 0 {
		z = 1
	}
	return Rand{state: z}
}

// Uint32 returns a uniformly distributed value.
func (r *Rand) Uint32() uint32 {
	x := r.state
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	r.state = x
	return uint32(x * 0x2545F4914F6CDD1D >> 32)
}

// Poisson draws a count by multiplying uniforms until the running product
// falls to exp/2^32. exp encodes e^-mean in Q32: 0xFFFFFFFF means "never",
// 0xEFFFFFFF about 0.065 events per draw.
func (r *Rand) Poisson(exp uint32) uint32 {
	p := uint64(1) << 32
	var k uint32
	for {
		p = p * uint64(r.Uint32()) >> 32
		if p <= uint64(exp) {
			return k
		}
		k++
	}
}

// PoissonParam converts a mean event count to the Q32 parameter Poisson takes.
func PoissonParam(mean float64) uint32 {
	if mean <= 0 {
		return math.MaxUint32
	}
	v := math.Round(math.Exp(-mean) * (1 << 32))
	if v >= math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(v)
}

// PoissonMean is the inverse of PoissonParam.
func PoissonMean(exp uint32) float64 {
	if exp == 0 {
		return math.Inf(1)
	}
	return -math.Log(float64(exp) / (1 << 32))
}
