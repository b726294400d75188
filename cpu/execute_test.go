package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExecute(t *testing.T) {
	type state struct {
		v     map[int]uint8
		index uint16
		pc    uint16
	}

	table := []struct {
		name  string
		code  Code
		setup func(cpu *Cpu)
		want  state
	}{
		{name: "jp", code: 0x1345, want: state{pc: 0x345}},
		{name: "sys", code: 0x0123, want: state{pc: 0x123}},
		{name: "se-byte-taken", code: 0x3312,
			setup: func(cpu *Cpu) { cpu.Register[3] = 0x12 },
			want:  state{v: map[int]uint8{3: 0x12}, pc: 0x204}},
		{name: "se-byte-not", code: 0x3312,
			want: state{pc: 0x202}},
		{name: "sne-byte-taken", code: 0x4312,
			want: state{pc: 0x204}},
		{name: "se-reg", code: 0x5120,
			setup: func(cpu *Cpu) { cpu.Register[1], cpu.Register[2] = 7, 7 },
			want:  state{v: map[int]uint8{1: 7, 2: 7}, pc: 0x204}},
		{name: "sne-reg", code: 0x9120,
			setup: func(cpu *Cpu) { cpu.Register[1], cpu.Register[2] = 7, 7 },
			want:  state{v: map[int]uint8{1: 7, 2: 7}, pc: 0x202}},
		{name: "add-byte-wraps", code: 0x7402,
			setup: func(cpu *Cpu) { cpu.Register[4], cpu.Register[0xf] = 0xFF, 0x55 },
			want:  state{v: map[int]uint8{4: 0x01, 0xf: 0x55}, pc: 0x202}},
		{name: "ld-reg", code: 0x8120,
			setup: func(cpu *Cpu) { cpu.Register[2] = 0x99 },
			want:  state{v: map[int]uint8{1: 0x99, 2: 0x99}, pc: 0x202}},
		{name: "or", code: 0x8121,
			setup: func(cpu *Cpu) { cpu.Register[1], cpu.Register[2] = 0xF0, 0x0C },
			want:  state{v: map[int]uint8{1: 0xFC, 2: 0x0C}, pc: 0x202}},
		{name: "and", code: 0x8122,
			setup: func(cpu *Cpu) { cpu.Register[1], cpu.Register[2] = 0xF0, 0x3C },
			want:  state{v: map[int]uint8{1: 0x30, 2: 0x3C}, pc: 0x202}},
		{name: "xor", code: 0x8123,
			setup: func(cpu *Cpu) { cpu.Register[1], cpu.Register[2] = 0xF0, 0x3C },
			want:  state{v: map[int]uint8{1: 0xCC, 2: 0x3C}, pc: 0x202}},
		{name: "add-vf-destination", code: 0x8F14,
			setup: func(cpu *Cpu) { cpu.Register[0xf], cpu.Register[1] = 0xF0, 0x20 },
			want:  state{v: map[int]uint8{1: 0x20, 0xf: 1}, pc: 0x202}},
		{name: "sub-vf-destination", code: 0x8F15,
			setup: func(cpu *Cpu) { cpu.Register[0xf], cpu.Register[1] = 0x10, 0x20 },
			want:  state{v: map[int]uint8{1: 0x20, 0xf: 0}, pc: 0x202}},
		{name: "shr", code: 0x8306,
			setup: func(cpu *Cpu) { cpu.Register[3] = 0x05 },
			want:  state{v: map[int]uint8{3: 0x02, 0xf: 1}, pc: 0x202}},
		{name: "shr-even", code: 0x8306,
			setup: func(cpu *Cpu) { cpu.Register[3] = 0x04 },
			want:  state{v: map[int]uint8{3: 0x02, 0xf: 0}, pc: 0x202}},
		{name: "shl", code: 0x830E,
			setup: func(cpu *Cpu) { cpu.Register[3] = 0x81 },
			want:  state{v: map[int]uint8{3: 0x02, 0xf: 1}, pc: 0x202}},
		{name: "shl-vf-destination", code: 0x8F0E,
			setup: func(cpu *Cpu) { cpu.Register[0xf] = 0x40 },
			want:  state{v: map[int]uint8{0xf: 0}, pc: 0x202}},
		{name: "ld-i", code: 0xA123, want: state{index: 0x123, pc: 0x202}},
		{name: "jp-v0", code: 0xB300,
			setup: func(cpu *Cpu) { cpu.Register[0] = 0x10 },
			want:  state{v: map[int]uint8{0: 0x10}, pc: 0x310}},
		{name: "skp", code: 0xE29E,
			setup: func(cpu *Cpu) { cpu.Register[2] = 0xA; cpu.SetKey(0xA, true) },
			want:  state{v: map[int]uint8{2: 0xA}, pc: 0x204}},
		{name: "skp-not", code: 0xE29E,
			setup: func(cpu *Cpu) { cpu.Register[2] = 0xA },
			want:  state{v: map[int]uint8{2: 0xA}, pc: 0x202}},
		{name: "sknp-taken", code: 0xE2A1,
			setup: func(cpu *Cpu) { cpu.Register[2] = 0xA },
			want:  state{v: map[int]uint8{2: 0xA}, pc: 0x204}},
		{name: "sknp", code: 0xE2A1,
			setup: func(cpu *Cpu) { cpu.Register[2] = 0xA; cpu.SetKey(0xA, true) },
			want:  state{v: map[int]uint8{2: 0xA}, pc: 0x202}},
		{name: "ld-vx-dt", code: 0xF507,
			setup: func(cpu *Cpu) { cpu.Delay = 0x33 },
			want:  state{v: map[int]uint8{5: 0x33}, pc: 0x202}},
		{name: "add-i", code: 0xF11E,
			setup: func(cpu *Cpu) { cpu.Index = 0xFFF; cpu.Register[1] = 2 },
			want:  state{v: map[int]uint8{1: 2}, index: 0x1001, pc: 0x202}},
		{name: "ld-f", code: 0xF129,
			setup: func(cpu *Cpu) { cpu.Register[1] = 0xB },
			want:  state{v: map[int]uint8{1: 0xB}, index: 0xB * FONT_GLYPH, pc: 0x202}},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			assert := assert.New(t)

			cpu := newTestCpu(t)
			if entry.setup != nil {
				entry.setup(cpu)
			}

			err := cpu.Execute(entry.code)
			assert.NoError(err)

			var want [16]uint8
			for n, val := range entry.want.v {
				want[n] = val
			}
			assert.Equal(want, cpu.Register)
			assert.Equal(entry.want.index, cpu.Index)
			assert.Equal(entry.want.pc, cpu.Pc)
			assert.Equal(1, cpu.Ticks)
		})
	}
}

func TestExecuteCallRet(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(t)

	err := cpu.Execute(0x2400) // CALL 0x400
	assert.NoError(err)
	assert.Equal(uint16(0x400), cpu.Pc)
	assert.Equal(1, cpu.Stack.Sp)

	err = cpu.Execute(0x00EE) // RET
	assert.NoError(err)
	assert.Equal(uint16(0x202), cpu.Pc)
	assert.True(cpu.Stack.Empty())

	err = cpu.Execute(0x00EE)
	assert.ErrorIs(err, ErrOutOfBounds)
	assert.ErrorIs(err, ErrStackEmpty)
	assert.Equal(uint16(0x202), cpu.Pc)
}

func TestExecuteStackOverflow(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(t)
	for range STACK_LIMIT {
		err := cpu.Execute(0x2200)
		assert.NoError(err)
	}

	before := cpu.Stack
	err := cpu.Execute(0x2200)
	assert.ErrorIs(err, ErrOutOfBounds)
	assert.ErrorIs(err, ErrStackFull)
	assert.Equal(before, cpu.Stack)
	assert.Equal(uint16(0x200), cpu.Pc)
}

func TestExecuteCls(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(t)
	cpu.Display[0] = true
	cpu.Display[2047] = true

	err := cpu.Execute(0x00E0)
	assert.NoError(err)
	assert.Equal(0, cpu.Display.Lit())
}

func TestExecuteRnd(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(t)
	cpu.Random = &RandomSequence{Bytes: []uint8{0xAB, 0xFF}}

	err := cpu.Execute(0xC30F) // RND V3, 0x0F
	assert.NoError(err)
	assert.Equal(uint8(0x0B), cpu.Register[3])

	err = cpu.Execute(0xC3F0)
	assert.NoError(err)
	assert.Equal(uint8(0xF0), cpu.Register[3])

	// Mask zero always yields zero.
	cpu.Random = NewRandom(99)
	for range 100 {
		assert.NoError(cpu.Execute(0xC400))
		assert.Equal(uint8(0), cpu.Register[4])
	}
}

func TestExecuteTimers(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(t)
	cpu.Register[6] = 30

	assert.NoError(cpu.Execute(0xF615))
	assert.NoError(cpu.Execute(0xF618))
	assert.Equal(uint8(30), cpu.Delay)
	assert.Equal(uint8(30), cpu.Sound)
	assert.True(cpu.SoundActive())
}

func TestExecuteBcd(t *testing.T) {
	assert := assert.New(t)

	table := map[uint8][3]byte{
		0:   {0, 0, 0},
		7:   {0, 0, 7},
		42:  {0, 4, 2},
		156: {1, 5, 6},
		255: {2, 5, 5},
	}

	for value, digits := range table {
		cpu := newTestCpu(t)
		cpu.Index = 0x300
		cpu.Register[2] = value
		err := cpu.Execute(0xF233)
		assert.NoError(err)
		assert.Equal(digits[:], cpu.Memory[0x300:0x303], "%d", value)
		assert.Equal(uint16(0x300), cpu.Index)
	}
}

func TestExecuteStoreLoad(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(t)
	for n := range cpu.Register {
		cpu.Register[n] = uint8(0x10 + n)
	}
	cpu.Index = 0x400

	err := cpu.Execute(0xF355) // LD [I], V3
	assert.NoError(err)
	assert.Equal([]byte{0x10, 0x11, 0x12, 0x13, 0x00}, cpu.Memory[0x400:0x405])
	assert.Equal(uint16(0x400), cpu.Index)

	clear(cpu.Register[:])
	err = cpu.Execute(0xF265) // LD V2, [I]
	assert.NoError(err)
	assert.Equal([16]uint8{0x10, 0x11, 0x12}, cpu.Register)
	assert.Equal(uint16(0x400), cpu.Index)
}

func TestExecuteOutOfBounds(t *testing.T) {
	table := []struct {
		name  string
		code  Code
		index uint16
	}{
		{"bcd", 0xF033, 0xFFE},
		{"store", 0xF355, 0xFFD},
		{"load", 0xF365, 0xFFD},
		{"draw", 0xD012, 0xFFF},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			assert := assert.New(t)

			cpu := newTestCpu(t)
			cpu.Index = entry.index
			cpu.Register[0xf] = 0x77
			cpu.Display[0] = true
			before := *cpu

			err := cpu.Execute(entry.code)
			assert.ErrorIs(err, ErrOutOfBounds)
			assert.Equal(before.Register, cpu.Register)
			assert.Equal(before.Memory, cpu.Memory)
			assert.Equal(before.Display, cpu.Display)
			assert.Equal(before.Pc, cpu.Pc)
			assert.Equal(0, cpu.Ticks)
		})
	}
}

func TestExecuteKeyInvalid(t *testing.T) {
	table := []struct {
		name string
		code Code
	}{
		{"skp", 0xE29E},
		{"sknp", 0xE2A1},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			assert := assert.New(t)

			cpu := newTestCpu(t)
			cpu.Register[2] = 0x1A
			cpu.SetKey(0xA, true)

			err := cpu.Execute(entry.code)
			assert.ErrorIs(err, ErrOutOfBounds)
			assert.ErrorIs(err, ErrKeyInvalid(0x1A))
			assert.Equal(uint16(PROGRAM_START), cpu.Pc)
			assert.Equal(0, cpu.Ticks)
		})
	}
}

func TestExecuteDrawWrap(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(t)
	cpu.Index = FONT_START // glyph 0: F0 90 90 90 F0
	cpu.Register[0] = 62
	cpu.Register[1] = 30

	err := cpu.Execute(0xD015)
	assert.NoError(err)
	assert.Equal(uint8(0), cpu.Register[0xf])

	assert.True(cpu.Display.Pixel(62, 30))
	assert.True(cpu.Display.Pixel(1, 30))
	assert.True(cpu.Display.Pixel(62, 0))
	assert.True(cpu.Display.Pixel(1, 2))
	assert.False(cpu.Display.Pixel(63, 0))
	assert.Equal(4+2+2+2+4, cpu.Display.Lit())

	// Coordinates beyond the screen wrap before drawing.
	cpu.Display.Clear()
	cpu.Register[0] = 64 + 3
	cpu.Register[1] = 32 + 4
	assert.NoError(cpu.Execute(0xD011))
	assert.True(cpu.Display.Pixel(3, 4))
	assert.Equal(4, cpu.Display.Lit())
}

func TestExecuteQuirks(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(t)
	cpu.Quirks = QuirksStrict

	cpu.Index = 0xFFF
	cpu.Register[1] = 1
	assert.NoError(cpu.Execute(0xF11E))
	assert.Equal(uint16(0x1000), cpu.Index)
	assert.Equal(uint8(1), cpu.Register[0xf])

	cpu.Index = 0x100
	assert.NoError(cpu.Execute(0xF11E))
	assert.Equal(uint8(0), cpu.Register[0xf])

	cpu.Register[2] = 0x1C
	assert.NoError(cpu.Execute(0xF229))
	assert.Equal(uint16(FONT_START+0xC*FONT_GLYPH), cpu.Index)
	assert.Equal(byte(0xF0), cpu.Memory[cpu.Index])

	err := cpu.Execute(0x0000)
	assert.ErrorIs(err, ErrOpcodeUnknown)
}
