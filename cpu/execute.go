package cpu

import (
	"errors"
	"log"
)

// Execute executes a single decoded instruction word as if fetched from
// the program counter. On error the CPU state is unchanged.
func (cpu *Cpu) Execute(code Code) (err error) {
	if cpu.Verbose {
		log.Printf("%03x: %04x %v", cpu.Pc, uint16(code), code)
	}

	op, ok := code.Op()
	if !ok || (op == OP_HALT && !cpu.Quirks.HaltOnZero) {
		err = ErrOpcode{Code: code, Pc: cpu.Pc}
		return
	}

	v := &cpu.Register
	x, y := code.X(), code.Y()
	kk, nnn := code.KK(), code.NNN()

	next_pc := cpu.Pc + 2

	switch op {
	case OP_HALT:
		// Stall here.
		return
	case OP_CLS:
		cpu.Display.Clear()
	case OP_RET:
		next_pc, ok = cpu.Stack.Pop()
		if !ok {
			err = errors.Join(ErrOutOfBounds, ErrStackEmpty)
			return
		}
	case OP_SYS, OP_JP:
		next_pc = nnn
	case OP_CALL:
		if !cpu.Stack.Push(next_pc) {
			err = errors.Join(ErrOutOfBounds, ErrStackFull)
			return
		}
		next_pc = nnn
	case OP_SE_BYTE:
		if v[x] == kk {
			next_pc += 2
		}
	case OP_SNE_BYTE:
		if v[x] != kk {
			next_pc += 2
		}
	case OP_SE_REG:
		if v[x] == v[y] {
			next_pc += 2
		}
	case OP_LD_BYTE:
		v[x] = kk
	case OP_ADD_BYTE:
		v[x] += kk
	case OP_LD_REG:
		v[x] = v[y]
	case OP_OR:
		v[x] |= v[y]
	case OP_AND:
		v[x] &= v[y]
	case OP_XOR:
		v[x] ^= v[y]
	case OP_ADD_REG:
		sum := uint16(v[x]) + uint16(v[y])
		cpu.setFlagged(x, uint8(sum), sum > 0xff)
	case OP_SUB:
		a, b := v[x], v[y]
		cpu.setFlagged(x, a-b, a >= b)
	case OP_SHR:
		a := v[x]
		cpu.setFlagged(x, a>>1, a&0x01 != 0)
	case OP_SUBN:
		a, b := v[x], v[y]
		cpu.setFlagged(x, b-a, b >= a)
	case OP_SHL:
		a := v[x]
		cpu.setFlagged(x, a<<1, a&0x80 != 0)
	case OP_SNE_REG:
		if v[x] != v[y] {
			next_pc += 2
		}
	case OP_LD_I:
		cpu.Index = nnn
	case OP_JP_V0:
		next_pc = nnn + uint16(v[0])
	case OP_RND:
		if cpu.Random == nil {
			cpu.Random = newTimeRandom()
		}
		v[x] = cpu.Random.RandomByte() & kk
	case OP_DRW:
		err = cpu.draw(v[x], v[y], code.N())
		if err != nil {
			return
		}
	case OP_SKP, OP_SKNP:
		key := int(v[x])
		if key >= len(cpu.Keypad) {
			err = errors.Join(ErrOutOfBounds, ErrKeyInvalid(key))
			return
		}
		if cpu.Keypad[key] == (op == OP_SKP) {
			next_pc += 2
		}
	case OP_LD_VX_DT:
		v[x] = cpu.Delay
	case OP_LD_VX_K:
		key, pressed := cpu.firstKey()
		if !pressed {
			// Retry on the next cycle.
			next_pc = cpu.Pc
		} else {
			v[x] = uint8(key)
		}
	case OP_LD_DT:
		cpu.Delay = v[x]
	case OP_LD_ST:
		cpu.Sound = v[x]
	case OP_ADD_I:
		sum := uint32(cpu.Index) + uint32(v[x])
		cpu.Index = uint16(sum)
		if cpu.Quirks.IndexOverflow {
			v[0xf] = flag(sum > 0xfff)
		}
	case OP_LD_F:
		if cpu.Quirks.FontOffset {
			cpu.Index = FONT_START + uint16(v[x]&0xf)*FONT_GLYPH
		} else {
			cpu.Index = uint16(v[x]) * FONT_GLYPH
		}
	case OP_LD_B:
		addr := int(cpu.Index)
		err = cpu.Memory.Check(addr, 3)
		if err != nil {
			return
		}
		value := v[x]
		cpu.Memory[addr+0] = value / 100
		cpu.Memory[addr+1] = (value / 10) % 10
		cpu.Memory[addr+2] = value % 10
	case OP_LD_MEM:
		addr := int(cpu.Index)
		err = cpu.Memory.Check(addr, x+1)
		if err != nil {
			return
		}
		copy(cpu.Memory[addr:addr+x+1], v[:x+1])
	case OP_LD_REGS:
		addr := int(cpu.Index)
		err = cpu.Memory.Check(addr, x+1)
		if err != nil {
			return
		}
		copy(v[:x+1], cpu.Memory[addr:addr+x+1])
	default:
		err = ErrOpcode{Code: code, Pc: cpu.Pc}
		return
	}

	cpu.Pc = next_pc
	cpu.Ticks++

	return
}

// flag converts a condition to a VF value.
func flag(cond bool) uint8 {
	if cond {
		return 1
	}
	return 0
}

// setFlagged stores an ALU result and then its flag, so that the flag
// wins when the destination is VF.
func (cpu *Cpu) setFlagged(x int, result uint8, cond bool) {
	cpu.Register[x] = result
	cpu.Register[0xf] = flag(cond)
}

// firstKey returns the lowest numbered pressed key.
func (cpu *Cpu) firstKey() (key int, pressed bool) {
	for n, down := range cpu.Keypad {
		if down {
			return n, true
		}
	}
	return
}

// draw XORs an n-row sprite from memory at I onto the display at (vx, vy).
// Coordinates wrap. VF is set if any lit pixel was turned off.
func (cpu *Cpu) draw(vx, vy uint8, rows uint8) (err error) {
	addr := int(cpu.Index)
	err = cpu.Memory.Check(addr, int(rows))
	if err != nil {
		return
	}

	cpu.Register[0xf] = 0
	for row := range int(rows) {
		sprite := cpu.Memory[addr+row]
		py := (int(vy) + row) % DISPLAY_HEIGHT
		for bit := range 8 {
			if sprite&(0x80>>bit) == 0 {
				continue
			}
			px := (int(vx) + bit) % DISPLAY_WIDTH
			pixel := &cpu.Display[px+py*DISPLAY_WIDTH]
			if *pixel {
				cpu.Register[0xf] = 1
			}
			*pixel = !*pixel
		}
	}

	return
}
