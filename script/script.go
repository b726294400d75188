// Package script drives an emulator from a starlark program, for scripted
// ROM checks without a display.
package script

import (
	"errors"
	"fmt"
	"io"
	"log"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/emulator"
	"github.com/ezrec/chip8/translate"
)

var f = translate.From

var (
	ErrScriptFail = errors.New(f("script failed"))
	ErrRange      = errors.New(f("argument out of range"))
)

// Script runs starlark programs against an emulator.
type Script struct {
	Verbose  bool
	Emulator *emulator.Emulator
	Output   io.Writer // Destination of print(); the log when nil.

	halted bool
}

// Run executes a starlark program against the emulator. src is the program
// text as a string, []byte or io.Reader; when nil, filename is read.
func Run(emu *emulator.Emulator, filename string, src any) (err error) {
	sc := &Script{Emulator: emu, Verbose: emu.Verbose}
	err = sc.Run(filename, src)
	return
}

// Builtins returns the emulator bindings visible to scripts.
func (sc *Script) Builtins() starlark.StringDict {
	builtins := map[string]func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error){
		"press":   sc.press,
		"release": sc.release,
		"frames":  sc.frames,
		"cycles":  sc.cycles,
		"reg":     sc.reg,
		"pc":      sc.pc,
		"index":   sc.index,
		"delay":   sc.delay,
		"sound":   sc.sound,
		"ticks":   sc.ticks,
		"halted":  sc.isHalted,
		"peek":    sc.peek,
		"screen":  sc.screen,
		"digest":  sc.digest,
		"fail":    sc.fail,
	}

	dict := starlark.StringDict{}
	for name, fn := range builtins {
		dict[name] = starlark.NewBuiltin(name, fn)
	}

	return dict
}

// Run executes a starlark program.
func (sc *Script) Run(filename string, src any) (err error) {
	thread := &starlark.Thread{
		Name: filename,
		Print: func(_ *starlark.Thread, msg string) {
			if sc.Output == nil {
				log.Printf("%v: %v", filename, msg)
			} else {
				fmt.Fprintln(sc.Output, msg)
			}
		},
	}
	opts := syntax.FileOptions{
		While:           true,
		TopLevelControl: true,
	}

	_, err = starlark.ExecFileOptions(&opts, thread, filename, src, sc.Builtins())

	return
}

// key unpacks a keypad index.
func key(b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (k int, err error) {
	err = starlark.UnpackArgs(b.Name(), args, kwargs, "key", &k)
	if err != nil {
		return
	}
	if k < 0 || k > 0xf {
		err = fmt.Errorf("%s: %w: %d", b.Name(), ErrRange, k)
	}
	return
}

func (sc *Script) press(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	k, err := key(b, args, kwargs)
	if err != nil {
		return nil, err
	}
	sc.Emulator.SetKey(k, true)
	return starlark.None, nil
}

func (sc *Script) release(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	k, err := key(b, args, kwargs)
	if err != nil {
		return nil, err
	}
	sc.Emulator.SetKey(k, false)
	return starlark.None, nil
}

// frames runs up to n frames, stopping early when the program halts.
// Returns the number of frames run.
func (sc *Script) frames(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	n := 1
	err := starlark.UnpackArgs(b.Name(), args, kwargs, "n?", &n)
	if err != nil {
		return nil, err
	}

	count := 0
	for count < n && !sc.halted {
		var done bool
		done, err = sc.Emulator.Frame()
		if err != nil {
			return nil, err
		}
		count++
		sc.halted = done
	}

	if sc.Verbose {
		log.Printf("script: %d frames, pc %03x", count, sc.Emulator.Pc)
	}

	return starlark.MakeInt(count), nil
}

// cycles executes n single instructions without timer ticks.
func (sc *Script) cycles(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	n := 1
	err := starlark.UnpackArgs(b.Name(), args, kwargs, "n?", &n)
	if err != nil {
		return nil, err
	}

	for range n {
		err = sc.Emulator.Step()
		if err != nil {
			return nil, err
		}
	}

	return starlark.None, nil
}

func (sc *Script) reg(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var r int
	err := starlark.UnpackArgs(b.Name(), args, kwargs, "reg", &r)
	if err != nil {
		return nil, err
	}
	if r < 0 || r > 0xf {
		return nil, fmt.Errorf("%s: %w: %d", b.Name(), ErrRange, r)
	}
	return starlark.MakeInt(int(sc.Emulator.Register[r])), nil
}

// noArgs wraps a value getter as a builtin taking no arguments.
func noArgs(b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple, value int) (starlark.Value, error) {
	err := starlark.UnpackArgs(b.Name(), args, kwargs)
	if err != nil {
		return nil, err
	}
	return starlark.MakeInt(value), nil
}

func (sc *Script) pc(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	return noArgs(b, args, kwargs, int(sc.Emulator.Pc))
}

func (sc *Script) index(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	return noArgs(b, args, kwargs, int(sc.Emulator.Index))
}

func (sc *Script) delay(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	return noArgs(b, args, kwargs, int(sc.Emulator.Delay))
}

func (sc *Script) sound(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	return noArgs(b, args, kwargs, int(sc.Emulator.Sound))
}

func (sc *Script) ticks(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	return noArgs(b, args, kwargs, sc.Emulator.Ticks)
}

func (sc *Script) isHalted(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	err := starlark.UnpackArgs(b.Name(), args, kwargs)
	if err != nil {
		return nil, err
	}
	return starlark.Bool(sc.halted || sc.Emulator.Halted()), nil
}

func (sc *Script) peek(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var addr int
	err := starlark.UnpackArgs(b.Name(), args, kwargs, "addr", &addr)
	if err != nil {
		return nil, err
	}
	if addr < 0 || addr >= cpu.MEMORY_SIZE {
		return nil, fmt.Errorf("%s: %w: %#x", b.Name(), ErrRange, addr)
	}
	return starlark.MakeInt(int(sc.Emulator.Memory[addr])), nil
}

func (sc *Script) screen(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	err := starlark.UnpackArgs(b.Name(), args, kwargs)
	if err != nil {
		return nil, err
	}
	fb := sc.Emulator.Framebuffer()
	return starlark.String(fb.String()), nil
}

func (sc *Script) digest(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	err := starlark.UnpackArgs(b.Name(), args, kwargs)
	if err != nil {
		return nil, err
	}
	fb := sc.Emulator.Framebuffer()
	return starlark.String(fb.Digest()), nil
}

func (sc *Script) fail(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var msg string
	err := starlark.UnpackArgs(b.Name(), args, kwargs, "msg", &msg)
	if err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %s", ErrScriptFail, msg)
}
