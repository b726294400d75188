package io

import (
	"io"
	"log"
	"unicode/utf8"

	"github.com/ezrec/chip8/emulator"
)

const (
	HOLD_FRAMES = 6 // Frames a key stays down after its last keystroke.

	KEY_CTRL_C = 0x03
	KEY_ESCAPE = 0x1b
)

// TerminalKeys reads keystrokes from a raw terminal. Terminals only report
// key presses, so a key is held down for HoldFrames polls after the last
// keystroke for it. ESC or Ctrl-C, or the end of input, requests quit.
type TerminalKeys struct {
	Verbose    bool
	Layout     Layout
	HoldFrames int

	input chan rune
	held  [16]int
	quit  bool
}

var _ emulator.Input = (*TerminalKeys)(nil)

// NewTerminalKeys starts reading keystrokes from r.
func NewTerminalKeys(r io.Reader, layout Layout) (tk *TerminalKeys) {
	tk = &TerminalKeys{
		Layout:     layout,
		HoldFrames: HOLD_FRAMES,
		input:      make(chan rune, 64),
	}

	go tk.read(r)

	return
}

// read forwards runes from r until the end of input.
func (tk *TerminalKeys) read(r io.Reader) {
	defer close(tk.input)

	var buf [64]byte
	var pending []byte
	for {
		n, err := r.Read(buf[:])
		pending = append(pending, buf[:n]...)
		for len(pending) > 0 && utf8.FullRune(pending) {
			ch, size := utf8.DecodeRune(pending)
			pending = pending[size:]
			tk.input <- ch
		}
		if err != nil {
			if err != io.EOF && tk.Verbose {
				log.Printf("keys: %v", err)
			}
			return
		}
	}
}

// Poll reports keypad edges since the last poll.
func (tk *TerminalKeys) Poll() (events []KeyEvent, quit bool) {
	var was [16]bool
	for n, count := range tk.held {
		was[n] = count > 0
		if count > 0 {
			tk.held[n]--
		}
	}

	for draining := true; draining && !tk.quit; {
		select {
		case ch, ok := <-tk.input:
			switch {
			case !ok, ch == KEY_CTRL_C, ch == KEY_ESCAPE:
				tk.quit = true
			default:
				key, found := tk.Layout.Index(ch)
				if found {
					tk.held[key] = max(tk.HoldFrames, 1)
				}
			}
		default:
			draining = false
		}
	}

	for n, count := range tk.held {
		if (count > 0) != was[n] {
			events = append(events, KeyEvent{Key: n, Pressed: count > 0})
		}
	}

	quit = tk.quit

	return
}

// KeyEvent is a keypad edge.
type KeyEvent = emulator.KeyEvent
