package io

import (
	"io"
	"log"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/ezrec/chip8/emulator"
)

const WAV_BIT_DEPTH = 16

// WavRecorder renders the buzzer into a 16-bit mono PCM WAV stream, one
// frame of samples for every SetTone call.
type WavRecorder struct {
	Verbose bool
	Tone    *Tone

	frameSamples int
	enc          *wav.Encoder
	buf          *audio.IntBuffer
	scratch      []float32
	err          error
	closed       bool
}

// NewWavRecorder creates a recorder writing to w at frameRate frames per second.
// Rates that are not positive fall back to SAMPLE_RATE and FRAME_RATE.
func NewWavRecorder(w io.WriteSeeker, sampleRate int, frameRate int) (wr *WavRecorder) {
	if sampleRate <= 0 {
		sampleRate = SAMPLE_RATE
	}
	if frameRate <= 0 {
		frameRate = emulator.FRAME_RATE
	}

	tone := NewTone()
	tone.SampleRate = sampleRate

	frameSamples := sampleRate / frameRate

	wr = &WavRecorder{
		Tone:         tone,
		frameSamples: frameSamples,
		enc:          wav.NewEncoder(w, sampleRate, WAV_BIT_DEPTH, 1, 1),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
			Data:           make([]int, frameSamples),
			SourceBitDepth: WAV_BIT_DEPTH,
		},
		scratch: make([]float32, frameSamples),
	}

	return
}

// SetTone records one frame of the tone in the given state.
func (wr *WavRecorder) SetTone(active bool) {
	if wr.err != nil {
		return
	}
	if wr.closed {
		wr.err = ErrRecorderDone
		return
	}

	wr.Tone.SetTone(active)
	wr.Tone.Samples(wr.scratch)
	for n, sample := range wr.scratch {
		wr.buf.Data[n] = int(math.Round(float64(sample) * math.MaxInt16))
	}

	wr.err = wr.enc.Write(wr.buf)
	if wr.err != nil && wr.Verbose {
		log.Printf("wav: %v", wr.err)
	}
}

// FrameSamples returns the number of samples recorded per frame.
func (wr *WavRecorder) FrameSamples() int {
	return wr.frameSamples
}

// Close finishes the WAV headers. The first recording error, if any, is returned.
func (wr *WavRecorder) Close() (err error) {
	if wr.closed {
		return wr.err
	}
	wr.closed = true

	err = wr.enc.Close()
	if wr.err != nil {
		err = wr.err
	}

	return
}
