package io

import (
	"io"
	"strings"

	"golang.org/x/term"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/emulator"
)

const (
	ANSI_HOME  = "\x1b[H"
	ANSI_CLEAR = "\x1b[2J"

	TERMINAL_WIDTH  = cpu.DISPLAY_WIDTH
	TERMINAL_HEIGHT = cpu.DISPLAY_HEIGHT / 2
)

// Terminal renders the display as half-block text, two pixel rows per line.
type Terminal struct {
	Output io.Writer

	drawn bool
	last  cpu.Framebuffer
}

var _ emulator.Video = (*Terminal)(nil)

// halfBlock returns the glyph for a top and bottom pixel pair.
func halfBlock(top, bottom bool) rune {
	switch {
	case top && bottom:
		return '█'
	case top:
		return '▀'
	case bottom:
		return '▄'
	}
	return ' '
}

// Text returns the display as half-block lines.
func Text(fb cpu.Framebuffer) string {
	var sb strings.Builder
	for y := 0; y < cpu.DISPLAY_HEIGHT; y += 2 {
		for x := range cpu.DISPLAY_WIDTH {
			sb.WriteRune(halfBlock(fb.Pixel(x, y), fb.Pixel(x, y+1)))
		}
		sb.WriteString("\r\n")
	}
	return sb.String()
}

// Render redraws the display when it has changed since the last frame.
func (tv *Terminal) Render(fb cpu.Framebuffer) (err error) {
	if tv.drawn && fb == tv.last {
		return
	}

	prefix := ANSI_HOME
	if !tv.drawn {
		prefix = ANSI_CLEAR + ANSI_HOME
	}

	_, err = io.WriteString(tv.Output, prefix+Text(fb))
	if err != nil {
		return
	}

	tv.drawn = true
	tv.last = fb

	return
}

// MakeRaw puts the terminal on fd into raw mode, returning a function that
// restores it. The terminal must fit the display.
func MakeRaw(fd int) (restore func() error, err error) {
	width, height, err := term.GetSize(fd)
	if err != nil {
		return
	}
	if width < TERMINAL_WIDTH || height < TERMINAL_HEIGHT {
		err = ErrTerminalSize
		return
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return
	}

	restore = func() error {
		return term.Restore(fd, state)
	}

	return
}

// IsTerminal is true if fd is a terminal.
func IsTerminal(fd int) bool {
	return term.IsTerminal(fd)
}
