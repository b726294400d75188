package cpu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func FuzzCpu(f *testing.F) {
	for _, word := range []uint16{0x0000, 0x00E0, 0x00EE, 0x2FFF, 0x8FF4, 0xD00F, 0xF00A, 0xF033, 0xFF55, 0xFF65, 0xFFFF} {
		f.Add(word, uint16(0x200), uint16(0xFFF), uint8(0xFF), uint16(0x8421))
		f.Add(word, uint16(0xFFE), uint16(0x000), uint8(0x00), uint16(0x0000))
	}

	f.Fuzz(func(t *testing.T, word uint16, index uint16, pc uint16, fill uint8, keys uint16) {
		assert := assert.New(t)

		cpu := NewCpu()
		cpu.Random = &RandomSequence{Bytes: []uint8{fill}}
		cpu.Index = index
		cpu.Pc = pc & 0xffe
		for n := range cpu.Register {
			cpu.Register[n] = fill + uint8(n)
		}
		for n := range cpu.Keypad {
			cpu.SetKey(n, keys&(1<<n) != 0)
		}

		before := *cpu
		err := cpu.Execute(Code(word))
		if err != nil {
			// Failed instructions leave no trace.
			assert.True(errors.Is(err, ErrOutOfBounds) || errors.Is(err, ErrOpcodeUnknown), err.Error())
			assert.Equal(before.Register, cpu.Register)
			assert.Equal(before.Index, cpu.Index)
			assert.Equal(before.Pc, cpu.Pc)
			assert.Equal(before.Stack, cpu.Stack)
			assert.Equal(before.Memory, cpu.Memory)
			assert.Equal(before.Display, cpu.Display)
			assert.Equal(before.Ticks, cpu.Ticks)
			return
		}

		op, ok := Code(word).Op()
		assert.True(ok)

		switch op {
		case OP_HALT:
			assert.Equal(before.Pc, cpu.Pc)
		case OP_LD_VX_K:
			if keys == 0 {
				assert.Equal(before.Pc, cpu.Pc)
			} else {
				assert.Equal(before.Pc+2, cpu.Pc)
			}
		case OP_DRW:
			assert.LessOrEqual(cpu.Register[0xf], uint8(1))
		}

		// The font is only overwritten by explicit stores.
		if op != OP_LD_B && op != OP_LD_MEM {
			assert.Equal(Font[:], cpu.Memory[FONT_START:FONT_START+len(Font)])
		}
	})
}
