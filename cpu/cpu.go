package cpu

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"
)

var _cpu_defines = map[string]string{
	"FONT_START":    fmt.Sprintf("0x%03x", FONT_START),
	"FONT_GLYPH":    fmt.Sprintf("%d", FONT_GLYPH),
	"PROGRAM_START": fmt.Sprintf("0x%03x", PROGRAM_START),
	"MEMORY_SIZE":   fmt.Sprintf("0x%03x", MEMORY_SIZE),
	"WIDTH":         fmt.Sprintf("%d", DISPLAY_WIDTH),
	"HEIGHT":        fmt.Sprintf("%d", DISPLAY_HEIGHT),
}

// Cpu is the simulation context for the CHIP-8 interpreter.
//
// A Cpu is not safe for concurrent use; callers stepping it from one
// goroutine and reading it from another must serialize access.
type Cpu struct {
	Verbose bool         // Set to enable verbose logging.
	Random  RandomSource // Byte source for RND.
	Quirks  Quirks       // Instruction interpretation options.

	Register [16]uint8   // V0 through VF. VF doubles as the flag register.
	Index    uint16      // I, the address register.
	Pc       uint16      // Address of the next instruction.
	Stack    Stack       // Return address stack.
	Delay    uint8       // Delay timer.
	Sound    uint8       // Sound timer.
	Memory   Memory      // Address space.
	Display  Framebuffer // Monochrome display.
	Keypad   [16]bool    // Hex keypad state.

	Ticks int // Instructions executed since reset.
}

// NewCpu creates a new CPU in its power-on state, with the default quirks
// and a clock seeded random source.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{
		Random: newTimeRandom(),
		Quirks: QuirksReference,
	}

	cpu.Reset()

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// Reset the CPU state.
// - Clears registers, index, timers, stack, display and keypad.
// - Zeros memory and reinstalls the font.
// - Sets the program counter to the program start.
// The previously loaded program is not restored.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	clear(cpu.Register[:])
	cpu.Index = 0
	cpu.Pc = PROGRAM_START
	cpu.Stack.Reset()
	cpu.Delay = 0
	cpu.Sound = 0
	cpu.Memory.Reset()
	cpu.Display.Clear()
	clear(cpu.Keypad[:])
	cpu.Ticks = 0
}

// LoadProgram copies a program image to PROGRAM_START. No other state
// is changed. Images larger than the program area are rejected without
// touching memory.
func (cpu *Cpu) LoadProgram(data []byte) (err error) {
	if len(data) > PROGRAM_LIMIT {
		err = errors.Join(ErrProgramSize, ErrAddress{Address: PROGRAM_START, Length: len(data)})
		return
	}

	copy(cpu.Memory[PROGRAM_START:], data)

	if cpu.Verbose {
		log.Printf("cpu: loaded %d bytes", len(data))
	}

	return
}

// SetKey sets the state of one keypad key. Indices outside 0..15 are ignored.
func (cpu *Cpu) SetKey(index int, pressed bool) {
	if index < 0 || index >= len(cpu.Keypad) {
		if cpu.Verbose {
			log.Printf("cpu: key %d ignored", index)
		}
		return
	}

	cpu.Keypad[index] = pressed
}

// Framebuffer returns a copy of the display.
func (cpu *Cpu) Framebuffer() Framebuffer {
	return cpu.Display
}

// SoundActive is true while the sound timer is running.
func (cpu *Cpu) SoundActive() bool {
	return cpu.Sound > 0
}

// Halted is true when the next instruction is the 0000 stall word.
func (cpu *Cpu) Halted() bool {
	if !cpu.Quirks.HaltOnZero {
		return false
	}
	code, err := cpu.FetchCode()
	return err == nil && code == 0x0000
}

// TickTimers counts the delay and sound timers down by one, stopping at zero.
func (cpu *Cpu) TickTimers() {
	if cpu.Delay > 0 {
		cpu.Delay--
	}
	if cpu.Sound > 0 {
		cpu.Sound--
	}
}

// FetchCode fetches the big-endian instruction word at the program counter.
func (cpu *Cpu) FetchCode() (code Code, err error) {
	pc := int(cpu.Pc)
	err = cpu.Memory.Check(pc, 2)
	if err != nil {
		return
	}

	code = Code(uint16(cpu.Memory[pc])<<8 | uint16(cpu.Memory[pc+1]))
	return
}

// Cycle fetches, decodes and executes a single instruction.
func (cpu *Cpu) Cycle() (err error) {
	code, err := cpu.FetchCode()
	if err != nil {
		return
	}

	err = cpu.Execute(code)

	return
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	text += fmt.Sprintf("   pc: %04X\n", cpu.Pc)
	text += fmt.Sprintf("    i: %04X\n", cpu.Index)
	text += fmt.Sprintf("   sp: %02X\n", cpu.Stack.Sp)
	text += fmt.Sprintf("   dt: %02X\n", cpu.Delay)
	text += fmt.Sprintf("   st: %02X\n", cpu.Sound)
	for n, val := range cpu.Register {
		text += fmt.Sprintf("   v%X: %02X\n", n, val)
	}
	ret, ok := cpu.Stack.Peek()
	if ok {
		text += fmt.Sprintf("stack: %04X\n", ret)
	} else {
		text += "stack: ----\n"
	}
	keys := ""
	for n, pressed := range cpu.Keypad {
		if pressed {
			keys += fmt.Sprintf("%X", n)
		} else {
			keys += "-"
		}
	}
	text += fmt.Sprintf(" keys: %v\n", keys)

	return
}
