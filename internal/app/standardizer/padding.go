package standardizer

import (
	"hash/fnv"
	"math"
	"math/rand/v2"
)

// padZeros appends zero-valued entries.
func padZeros(dst, src []float32) {
	copy(dst, src)
}

// padRepeat re-reads src cyclically from index 0: dst[i] = src[i % len(src)].
func padRepeat(dst, src []float32) {
	copy(dst, src)
	for i := len(src); i < len(dst); i++ {
		dst[i] = src[i%len(src)]
	}
}

// padRandom fills the tail with values drawn uniformly from [min(src), max(src)].
//
// Seed policy: the generator is seeded from an FNV-1a hash of the bit pattern
// of src together with the target length, so the same input always pads the
// same way and distinct inputs get independent streams. No global RNG state is
// touched, which keeps the function safe for concurrent use.
func padRandom(dst, src []float32) {
	copy(dst, src)

	lo, hi := src[0], src[0]
	for _, v := range src[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}

	seed := randomSeed(src, len(dst))
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	span := hi - lo
	for i := len(src); i < len(dst); i++ {
		dst[i] = lo + span*rng.Float32()
	}
}

func randomSeed(src []float32, target int) uint64 {
	h := fnv.New64a()
	var buf [4]byte
	for _, v := range src {
		bits := math.Float32bits(v)
		buf[0] = byte(bits)
		buf[1] = byte(bits >> 8)
		buf[2] = byte(bits >> 16)
		buf[3] = byte(bits >> 24)
		h.Write(buf[:])
	}
	t := uint32(target)
	h.Write([]byte{byte(t), byte(t >> 8), byte(t >> 16), byte(t >> 24)})
	return h.Sum64()
}
