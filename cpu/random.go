package cpu

import (
	"math/rand/v2"
	"time"
)

// RandomSource supplies the bytes used by the RND instruction.
type RandomSource interface {
	RandomByte() uint8
}

// Random is a seeded PCG random byte source.
type Random struct {
	rng *rand.Rand
}

var _ RandomSource = (*Random)(nil)

// NewRandom returns a deterministic source for the given seed.
func NewRandom(seed uint64) *Random {
	return &Random{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// newTimeRandom returns a source seeded from the wall clock.
func newTimeRandom() *Random {
	return NewRandom(uint64(time.Now().UnixNano()))
}

func (r *Random) RandomByte() uint8 {
	return uint8(r.rng.UintN(256))
}

// RandomSequence replays a fixed list of bytes, wrapping at the end.
type RandomSequence struct {
	Bytes []uint8
	next  int
}

var _ RandomSource = (*RandomSequence)(nil)

func (rs *RandomSequence) RandomByte() (value uint8) {
	if len(rs.Bytes) == 0 {
		return
	}
	value = rs.Bytes[rs.next%len(rs.Bytes)]
	rs.next++
	return
}
