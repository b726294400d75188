//go:build !headless

package host

import (
	"errors"
	"image/color"
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/emulator"
	"github.com/ezrec/chip8/io"
)

var (
	ColorOn  = color.RGBA{0xE0, 0xF0, 0xD0, 0xFF}
	ColorOff = color.RGBA{0x10, 0x18, 0x10, 0xFF}
)

// _ebitenKeys maps the characters used by keyboard layouts to ebiten keys.
var _ebitenKeys = map[rune]ebiten.Key{
	'0': ebiten.KeyDigit0, '1': ebiten.KeyDigit1, '2': ebiten.KeyDigit2,
	'3': ebiten.KeyDigit3, '4': ebiten.KeyDigit4, '5': ebiten.KeyDigit5,
	'6': ebiten.KeyDigit6, '7': ebiten.KeyDigit7, '8': ebiten.KeyDigit8,
	'9': ebiten.KeyDigit9,
	'a': ebiten.KeyA, 'b': ebiten.KeyB, 'c': ebiten.KeyC, 'd': ebiten.KeyD,
	'e': ebiten.KeyE, 'f': ebiten.KeyF, 'g': ebiten.KeyG, 'h': ebiten.KeyH,
	'i': ebiten.KeyI, 'j': ebiten.KeyJ, 'k': ebiten.KeyK, 'l': ebiten.KeyL,
	'm': ebiten.KeyM, 'n': ebiten.KeyN, 'o': ebiten.KeyO, 'p': ebiten.KeyP,
	'q': ebiten.KeyQ, 'r': ebiten.KeyR, 's': ebiten.KeyS, 't': ebiten.KeyT,
	'u': ebiten.KeyU, 'v': ebiten.KeyV, 'w': ebiten.KeyW, 'x': ebiten.KeyX,
	'y': ebiten.KeyY, 'z': ebiten.KeyZ,
}

// Window is an ebiten game running the emulator one frame per tick. It is
// both the emulator's video and its input.
type Window struct {
	Verbose  bool
	Emulator *emulator.Emulator
	Keys     io.Layout

	image   *ebiten.Image
	pixels  []byte
	pressed [16]bool
	quit    bool
	halted  bool
}

var (
	_ ebiten.Game    = (*Window)(nil)
	_ emulator.Video = (*Window)(nil)
	_ emulator.Input = (*Window)(nil)
)

// NewWindow attaches a window to the emulator as its video and input.
func NewWindow(emu *emulator.Emulator, keys io.Layout) (w *Window) {
	w = &Window{
		Emulator: emu,
		Keys:     keys,
		pixels:   make([]byte, cpu.DISPLAY_WIDTH*cpu.DISPLAY_HEIGHT*4),
	}

	var blank cpu.Framebuffer
	_ = w.Render(blank)

	emu.Video = w
	emu.Input = w

	return
}

// Render converts the framebuffer to RGBA pixels for the next Draw.
func (w *Window) Render(fb cpu.Framebuffer) error {
	for n, on := range fb {
		c := ColorOff
		if on {
			c = ColorOn
		}
		copy(w.pixels[n*4:], []byte{c.R, c.G, c.B, c.A})
	}
	return nil
}

// Poll reports keypad edges from the ebiten keyboard state.
func (w *Window) Poll() (events []emulator.KeyEvent, quit bool) {
	for n, r := range w.Keys {
		key, ok := _ebitenKeys[r]
		if !ok {
			continue
		}
		down := ebiten.IsKeyPressed(key)
		if down != w.pressed[n] {
			w.pressed[n] = down
			events = append(events, emulator.KeyEvent{Key: n, Pressed: down})
		}
	}

	w.quit = w.quit || ebiten.IsKeyPressed(ebiten.KeyEscape)
	quit = w.quit

	return
}

// Update runs one emulator frame. A halted program leaves the window open.
func (w *Window) Update() (err error) {
	if ebiten.IsWindowBeingClosed() {
		return ebiten.Termination
	}

	err = w.step()

	return
}

// step runs one frame. Once halted, frames still run so the timers count
// down and the tone stops.
func (w *Window) step() (err error) {
	done, err := w.Emulator.Frame()
	if err != nil {
		return
	}

	if w.quit {
		err = ebiten.Termination
		return
	}

	if done && !w.halted {
		w.halted = true
		if w.Verbose {
			log.Printf("window: program halted")
		}
	}

	return
}

// Draw paints the display, scaled to the window.
func (w *Window) Draw(screen *ebiten.Image) {
	if w.image == nil {
		w.image = ebiten.NewImage(cpu.DISPLAY_WIDTH, cpu.DISPLAY_HEIGHT)
	}

	w.image.WritePixels(w.pixels)
	screen.DrawImage(w.image, nil)
}

// Layout keeps the logical screen at the display size.
func (w *Window) Layout(_, _ int) (int, int) {
	return cpu.DISPLAY_WIDTH, cpu.DISPLAY_HEIGHT
}

// RunWindow runs the emulator in a window until it is closed or ESC is pressed.
func RunWindow(emu *emulator.Emulator, title string, scale int, keys io.Layout) (err error) {
	w := NewWindow(emu, keys)
	w.Verbose = emu.Verbose

	ebiten.SetWindowSize(cpu.DISPLAY_WIDTH*scale, cpu.DISPLAY_HEIGHT*scale)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizable(true)
	ebiten.SetWindowClosingHandled(true)
	ebiten.SetTPS(emu.FrameRate)

	err = ebiten.RunGame(w)
	if errors.Is(err, ebiten.Termination) {
		err = nil
	}

	return
}
