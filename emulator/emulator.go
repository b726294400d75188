// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"context"
	"fmt"
	"iter"
	"log"
	"maps"
	"sync"
	"time"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/internal"
)

const (
	CYCLES_PER_FRAME = 10 // Instructions executed per 60Hz frame.
	FRAME_RATE       = 60 // Frames per second; the timer tick rate.
)

var _emulator_defines = map[string]string{
	"CYCLES_PER_FRAME": fmt.Sprintf("%v", CYCLES_PER_FRAME),
	"FRAME_RATE":       fmt.Sprintf("%v", FRAME_RATE),
}

// KeyEvent is a keypad edge reported by an Input.
type KeyEvent struct {
	Key     int  // Keypad index, 0x0 to 0xF.
	Pressed bool // True for key down, false for key up.
}

// Video displays the framebuffer once per frame.
type Video interface {
	Render(fb cpu.Framebuffer) error
}

// Audio is told once per frame whether the tone should sound.
type Audio interface {
	SetTone(active bool)
}

// Input is polled once per frame for keypad edges and quit requests.
type Input interface {
	Poll() (events []KeyEvent, quit bool)
}

// Emulator state. CPU, program listing and host collaborators.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently running program listing.

	CyclesPerFrame int // Instructions per frame.
	FrameRate      int // Frames per second for Run.

	Video Video // Optional display.
	Audio Audio // Optional tone output.
	Input Input // Optional keypad source.

	Frames int // Frames run since reset.

	lock sync.Mutex
}

// Snapshot is a copy of the emulator state, safe to inspect while the
// emulator runs on another goroutine.
type Snapshot struct {
	Pc          uint16
	Index       uint16
	Register    [16]uint8
	Delay       uint8
	Sound       uint8
	Framebuffer cpu.Framebuffer
	Ticks       int
	Frames      int
	LineNo      int
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu:            cpu.NewCpu(),
		Program:        &cpu.Program{},
		CyclesPerFrame: CYCLES_PER_FRAME,
		FrameRate:      FRAME_RATE,
	}

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.Concat2(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
	)
}

// Reset the cpu and load the current program.
func (emu *Emulator) Reset() (err error) {
	emu.lock.Lock()
	defer emu.lock.Unlock()

	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Reset()
	emu.Frames = 0

	err = emu.Cpu.LoadProgram(emu.Program.Binary())
	if err != nil {
		return
	}

	if emu.Audio != nil {
		emu.Audio.SetTone(false)
	}

	return
}

// LoadRom replaces the program with a disassembled binary image and resets.
func (emu *Emulator) LoadRom(data []byte) (err error) {
	emu.Program = cpu.Disassemble(data)

	err = emu.Reset()

	return
}

// LineNo returns the current line number for the executing opcode.
func (emu *Emulator) LineNo() int {
	dbg := emu.Program.Debug(emu.Cpu.Pc)
	if dbg.Opcode == nil {
		return 0
	}

	return dbg.LineNo
}

// Step executes a single instruction outside of frame pacing.
func (emu *Emulator) Step() (err error) {
	emu.lock.Lock()
	defer emu.lock.Unlock()

	err = emu.cycle()

	return
}

// cycle executes one instruction, wrapping errors with their location.
func (emu *Emulator) cycle() (err error) {
	pc := emu.Cpu.Pc
	err = emu.Cpu.Cycle()
	if err != nil {
		err = &ErrRuntime{Pc: pc, LineNo: emu.LineNo(), Err: err}
	}

	return
}

// Frame runs one 60Hz frame: input, CyclesPerFrame instructions, one timer
// tick, then video and audio output. done is set when the input requests
// quit or the program has halted.
func (emu *Emulator) Frame() (done bool, err error) {
	emu.lock.Lock()
	defer emu.lock.Unlock()

	emu.Cpu.Verbose = emu.Verbose

	if emu.Input != nil {
		var events []KeyEvent
		events, done = emu.Input.Poll()
		for _, ev := range events {
			emu.Cpu.SetKey(ev.Key, ev.Pressed)
		}
		if done {
			if emu.Verbose {
				log.Printf("emulator: quit requested")
			}
			return
		}
	}

	for range emu.CyclesPerFrame {
		if emu.Cpu.Halted() {
			done = true
			break
		}
		err = emu.cycle()
		if err != nil {
			return
		}
	}

	emu.Cpu.TickTimers()
	emu.Frames++

	if emu.Video != nil {
		err = emu.Video.Render(emu.Cpu.Framebuffer())
		if err != nil {
			return
		}
	}

	if emu.Audio != nil {
		emu.Audio.SetTone(emu.Cpu.SoundActive())
	}

	if done && emu.Verbose {
		log.Printf("emulator: halted at %03x", emu.Cpu.Pc)
	}

	return
}

// Run paces Frame at FrameRate until the program halts, the input requests
// quit, an error occurs, or the context is done. The context error is
// returned in the last case.
func (emu *Emulator) Run(ctx context.Context) (err error) {
	rate := emu.FrameRate
	if rate <= 0 {
		rate = FRAME_RATE
	}

	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			return
		case <-ticker.C:
			var done bool
			done, err = emu.Frame()
			if err != nil || done {
				return
			}
		}
	}
}

// Snapshot copies the emulator state.
func (emu *Emulator) Snapshot() (snap Snapshot) {
	emu.lock.Lock()
	defer emu.lock.Unlock()

	snap = Snapshot{
		Pc:          emu.Cpu.Pc,
		Index:       emu.Cpu.Index,
		Register:    emu.Cpu.Register,
		Delay:       emu.Cpu.Delay,
		Sound:       emu.Cpu.Sound,
		Framebuffer: emu.Cpu.Framebuffer(),
		Ticks:       emu.Cpu.Ticks,
		Frames:      emu.Frames,
		LineNo:      emu.LineNo(),
	}

	return
}
