package emulator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/chip8/cpu"
)

type fakeVideo struct {
	frames []cpu.Framebuffer
	err    error
}

func (fv *fakeVideo) Render(fb cpu.Framebuffer) error {
	fv.frames = append(fv.frames, fb)
	return fv.err
}

type fakeAudio struct {
	tones []bool
}

func (fa *fakeAudio) SetTone(active bool) {
	fa.tones = append(fa.tones, active)
}

type fakeInput struct {
	events [][]KeyEvent
	quit   bool
}

func (fi *fakeInput) Poll() (events []KeyEvent, quit bool) {
	if len(fi.events) > 0 {
		events = fi.events[0]
		fi.events = fi.events[1:]
	}
	quit = fi.quit
	return
}

func newProgram(t *testing.T, program []string) (emu *Emulator) {
	asm := &cpu.Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	if err != nil {
		t.Fatal(err)
	}

	emu = NewEmulator()
	emu.Program = prog
	err = emu.Reset()
	if err != nil {
		t.Fatal(err)
	}

	return
}

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	assert.False(emu.Verbose)
	assert.NotNil(emu.Cpu)
	assert.NotNil(emu.Program)
	assert.Equal(CYCLES_PER_FRAME, emu.CyclesPerFrame)
	assert.Equal(FRAME_RATE, emu.FrameRate)

	defines := map[string]string{}
	for key, value := range emu.Defines() {
		defines[key] = value
	}
	assert.Equal("10", defines["CYCLES_PER_FRAME"])
	assert.Equal("0x050", defines["FONT_START"])
}

func TestEmulatorFrame(t *testing.T) {
	assert := assert.New(t)

	emu := newProgram(t, []string{
		"loop:",
		"  add v1, 1",
		"  jp loop",
	})
	video := &fakeVideo{}
	audio := &fakeAudio{}
	emu.Video = video
	emu.Audio = audio

	done, err := emu.Frame()
	assert.NoError(err)
	assert.False(done)
	assert.Equal(10, emu.Ticks)
	assert.Equal(uint8(5), emu.Register[1])
	assert.Equal(1, emu.Frames)
	assert.Equal(1, len(video.frames))
	assert.Equal([]bool{false}, audio.tones)

	emu.CyclesPerFrame = 4
	done, err = emu.Frame()
	assert.NoError(err)
	assert.False(done)
	assert.Equal(14, emu.Ticks)
	assert.Equal(uint8(7), emu.Register[1])
}

func TestEmulatorSound(t *testing.T) {
	assert := assert.New(t)

	emu := newProgram(t, []string{
		"  ld v0, 2",
		"  ld st, v0",
		"  ld dt, v0",
		"loop: jp loop",
	})
	audio := &fakeAudio{}
	emu.Audio = audio

	for range 3 {
		done, err := emu.Frame()
		assert.NoError(err)
		assert.False(done)
	}

	assert.Equal([]bool{true, false, false}, audio.tones)
	assert.Equal(uint8(0), emu.Delay)
}

func TestEmulatorHalt(t *testing.T) {
	assert := assert.New(t)

	emu := newProgram(t, []string{
		"ld v0, 1",
		"halt",
	})

	done, err := emu.Frame()
	assert.NoError(err)
	assert.True(done)
	assert.Equal(1, emu.Ticks)
	assert.Equal(uint16(0x202), emu.Pc)
	assert.Equal(2, emu.LineNo())
}

func TestEmulatorHalt_Timers(t *testing.T) {
	assert := assert.New(t)

	emu := newProgram(t, []string{
		"ld v0, 3",
		"ld st, v0",
		"ld dt, v0",
		"halt",
	})
	audio := &fakeAudio{}
	emu.Audio = audio

	for range 4 {
		done, err := emu.Frame()
		assert.NoError(err)
		assert.True(done)
	}

	assert.Equal(3, emu.Ticks)
	assert.Equal(uint8(0), emu.Sound)
	assert.Equal(uint8(0), emu.Delay)
	assert.Equal([]bool{true, true, false, false}, audio.tones)
}

func TestEmulatorInput(t *testing.T) {
	assert := assert.New(t)

	emu := newProgram(t, []string{
		"ld v3, k",
		"halt",
	})
	input := &fakeInput{
		events: [][]KeyEvent{
			nil,
			{{Key: 5, Pressed: true}},
			{{Key: 5, Pressed: false}},
		},
	}
	emu.Input = input

	done, err := emu.Frame()
	assert.NoError(err)
	assert.False(done)
	assert.Equal(uint16(0x200), emu.Pc)

	done, err = emu.Frame()
	assert.NoError(err)
	assert.True(done)
	assert.Equal(uint8(5), emu.Register[3])
	assert.True(emu.Keypad[5])

	_, err = emu.Frame()
	assert.NoError(err)
	assert.False(emu.Keypad[5])

	input.quit = true
	ticks := emu.Ticks
	done, err = emu.Frame()
	assert.NoError(err)
	assert.True(done)
	assert.Equal(ticks, emu.Ticks)
}

func TestEmulatorRuntimeError(t *testing.T) {
	assert := assert.New(t)

	emu := newProgram(t, []string{
		"ld v0, 1",
		"ret",
	})

	done, err := emu.Frame()
	assert.False(done)
	assert.ErrorIs(err, cpu.ErrStackEmpty)
	assert.ErrorIs(err, cpu.ErrOutOfBounds)

	var re *ErrRuntime
	assert.True(errors.As(err, &re))
	assert.Equal(uint16(0x202), re.Pc)
	assert.Equal(2, re.LineNo)
	assert.Contains(re.Error(), "line 2")
}

func TestEmulatorVideoError(t *testing.T) {
	assert := assert.New(t)

	emu := newProgram(t, []string{"loop: jp loop"})
	failure := errors.New("display lost")
	emu.Video = &fakeVideo{err: failure}

	_, err := emu.Frame()
	assert.ErrorIs(err, failure)
}

func TestEmulatorLoadRom(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	err := emu.LoadRom([]byte{0x60, 0x0A, 0x70, 0x05})
	assert.NoError(err)
	assert.Equal(2, len(emu.Program.Opcodes))

	assert.NoError(emu.Step())
	assert.NoError(emu.Step())
	assert.Equal(uint8(15), emu.Register[0])
	assert.Equal(uint16(0x204), emu.Pc)

	err = emu.LoadRom(make([]byte, cpu.PROGRAM_LIMIT+1))
	assert.ErrorIs(err, cpu.ErrProgramSize)
}

func TestEmulatorRun(t *testing.T) {
	assert := assert.New(t)

	emu := newProgram(t, []string{"loop: jp loop"})
	emu.FrameRate = 1000

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error)
	go func() {
		result <- emu.Run(ctx)
	}()

	assert.Eventually(func() bool {
		return emu.Snapshot().Frames >= 3
	}, 5*time.Second, time.Millisecond)

	cancel()
	err := <-result
	assert.ErrorIs(err, context.Canceled)

	snap := emu.Snapshot()
	assert.Equal(uint16(0x200), snap.Pc)
	assert.Equal(snap.Frames*CYCLES_PER_FRAME, snap.Ticks)
}

func TestEmulatorRun_Halt(t *testing.T) {
	assert := assert.New(t)

	emu := newProgram(t, []string{
		"ld v0, 0x42",
		"halt",
	})
	emu.FrameRate = 1000

	err := emu.Run(context.Background())
	assert.NoError(err)

	snap := emu.Snapshot()
	assert.Equal(uint8(0x42), snap.Register[0])
	assert.Equal(1, snap.Frames)
	assert.Equal(2, snap.LineNo)
}
