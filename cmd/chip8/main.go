// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/emulator"
	"github.com/ezrec/chip8/host"
	"github.com/ezrec/chip8/io"
	"github.com/ezrec/chip8/script"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code, after deferred cleanup such as
// finishing the .wav file has happened.
func run() int {
	var compile string
	var output string
	var disassemble bool
	var terminal bool
	var layoutName string
	var cycles int
	var fps int
	var scale int
	var seed uint64
	var strict bool
	var wavFile string
	var scriptFile string
	var verbose bool

	flag.StringVar(&compile, "c", "", ".c8s assembly file to compile")
	flag.StringVar(&output, "o", "", "Write the program binary here, do not execute")
	flag.BoolVar(&disassemble, "d", false, "Disassemble the program, do not execute")
	flag.BoolVar(&terminal, "t", false, "Run in the terminal")
	flag.StringVar(&layoutName, "layout", "colemak-dh", "Keyboard layout: "+strings.Join(layoutNames(), ", "))
	flag.IntVar(&cycles, "cycles", emulator.CYCLES_PER_FRAME, "Instructions per frame")
	flag.IntVar(&fps, "fps", emulator.FRAME_RATE, "Frames per second")
	flag.IntVar(&scale, "scale", 10, "Window pixels per display pixel")
	flag.Uint64Var(&seed, "seed", 0, "Random seed; zero seeds from the clock")
	flag.BoolVar(&strict, "strict", false, "Strict instruction quirks")
	flag.StringVar(&wavFile, "wav", "", "Record the buzzer to a .wav file")
	flag.StringVar(&scriptFile, "script", "", "Run a starlark script instead of interactive play")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	var rom string
	switch flag.NArg() {
	case 0:
	case 1:
		rom = flag.Arg(0)
	default:
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args()[1:])
	}

	if len(rom) != 0 && io.IsSource(rom) && len(compile) == 0 {
		compile, rom = rom, ""
	}

	prog := &cpu.Program{}

	switch {
	case len(compile) != 0:
		// Compile a new instruction stream.
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		asm := &cpu.Assembler{Verbose: verbose}
		prog, err = asm.Parse(inf)
		inf.Close()
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
	case len(rom) != 0:
		dir, name := filepath.Split(rom)
		if len(dir) == 0 {
			dir = "."
		}
		data, err := io.OpenRom(os.DirFS(dir), name)
		if err != nil {
			log.Fatalf("%v", err)
		}
		prog = cpu.Disassemble(data)
	default:
		log.Fatalf("%v: no program given", os.Args[0])
	}

	if disassemble {
		err := prog.Listing(os.Stdout)
		if err != nil {
			log.Fatalf("%v", err)
		}
		return 0
	}

	if len(output) != 0 {
		err := os.WriteFile(output, prog.Binary(), 0o644)
		if err != nil {
			log.Fatalf("%v", err)
		}
		return 0
	}

	if cycles < 0 {
		log.Fatalf("-cycles %v: must not be negative", cycles)
	}
	if fps <= 0 {
		log.Fatalf("-fps %v: must be positive", fps)
	}

	layout, err := io.LayoutByName(layoutName)
	if err != nil {
		log.Fatalf("%v: %v", layoutName, err)
	}

	emu := emulator.NewEmulator()
	emu.Verbose = verbose
	emu.Program = prog
	emu.CyclesPerFrame = cycles
	emu.FrameRate = fps
	if seed != 0 {
		emu.Cpu.Random = cpu.NewRandom(seed)
	}
	if strict {
		emu.Cpu.Quirks = cpu.QuirksStrict
	}

	if len(wavFile) != 0 {
		ouf, err := os.Create(wavFile)
		if err != nil {
			log.Fatalf("%v: %v", wavFile, err)
		}
		defer ouf.Close()
		wr := io.NewWavRecorder(ouf, io.SAMPLE_RATE, fps)
		wr.Verbose = verbose
		defer func() {
			err := wr.Close()
			if err != nil {
				log.Printf("%v: %v", wavFile, err)
			}
		}()
		emu.Audio = wr
	}

	err = emu.Reset()
	if err != nil {
		log.Printf("%v", err)
		return 1
	}

	switch {
	case len(scriptFile) != 0:
		err = script.Run(emu, scriptFile, nil)
	case terminal:
		err = runTerminal(emu, layout)
	default:
		err = runWindow(emu, layout, scale, title(compile, rom))
		if errors.Is(err, host.ErrNoDisplay) {
			log.Printf("%v, using the terminal", err)
			err = runTerminal(emu, layout)
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("%v", err)
		if verbose {
			log.Printf("\n%v", emu.Cpu.String())
		}
		return 1
	}

	return 0
}

// layoutNames lists the keyboard layouts for the usage text.
func layoutNames() (names []string) {
	for name := range io.Layouts() {
		names = append(names, name)
	}
	return
}

// title names the window after the program file.
func title(compile, rom string) string {
	name := rom
	if len(compile) != 0 {
		name = compile
	}
	return "CHIP-8: " + filepath.Base(name)
}

// runWindow runs the emulator in a window, with the speaker unless audio
// is already being recorded.
func runWindow(emu *emulator.Emulator, layout io.Layout, scale int, name string) (err error) {
	if emu.Audio == nil {
		speaker, err := host.NewSpeaker(io.SAMPLE_RATE)
		if err != nil {
			log.Printf("audio: %v", err)
		} else {
			defer speaker.Close()
			emu.Audio = speaker
		}
	}

	err = host.RunWindow(emu, name, scale, layout)

	return
}

// runTerminal runs the emulator on a raw terminal until ESC, Ctrl-C or halt.
func runTerminal(emu *emulator.Emulator, layout io.Layout) (err error) {
	fd := int(os.Stdin.Fd())
	if io.IsTerminal(fd) {
		var restore func() error
		restore, err = io.MakeRaw(fd)
		if err != nil {
			return
		}
		defer restore()
	}

	emu.Video = &io.Terminal{Output: os.Stdout}
	keys := io.NewTerminalKeys(os.Stdin, layout)
	keys.Verbose = emu.Verbose
	emu.Input = keys

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = emu.Run(ctx)

	return
}
