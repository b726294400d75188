//go:build !headless

package host

import (
	"github.com/ebitengine/oto/v3"

	"github.com/ezrec/chip8/emulator"
	"github.com/ezrec/chip8/io"
)

// Speaker plays the buzzer tone through the system audio device.
type Speaker struct {
	*io.Tone

	ctx    *oto.Context
	player *oto.Player
}

var _ emulator.Audio = (*Speaker)(nil)

// NewSpeaker opens the audio device. Only one speaker may exist per process.
func NewSpeaker(sampleRate int) (sp *Speaker, err error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return
	}
	<-ready

	tone := io.NewTone()
	tone.SampleRate = sampleRate

	sp = &Speaker{
		Tone:   tone,
		ctx:    ctx,
		player: ctx.NewPlayer(tone),
	}
	sp.player.Play()

	return
}

// Close stops playback.
func (sp *Speaker) Close() error {
	return sp.player.Close()
}
