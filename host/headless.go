//go:build headless

package host

import (
	"github.com/ezrec/chip8/emulator"
	"github.com/ezrec/chip8/io"
)

// Speaker is unavailable in headless builds.
type Speaker struct {
	*io.Tone
}

func NewSpeaker(sampleRate int) (sp *Speaker, err error) {
	err = ErrNoDisplay
	return
}

func (sp *Speaker) Close() error {
	return nil
}

func RunWindow(emu *emulator.Emulator, title string, scale int, keys io.Layout) (err error) {
	err = ErrNoDisplay
	return
}
