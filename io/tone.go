package io

import (
	"encoding/binary"
	"math"
	"sync"
)

const (
	SAMPLE_RATE    = 44100 // Default output sample rate, in Hz.
	TONE_FREQUENCY = 440   // Buzzer pitch, in Hz.
	TONE_VOLUME    = 0.25  // Square wave amplitude.
)

// Tone is the CHIP-8 buzzer: a square wave that sounds while enabled.
//
// Read produces mono float32 little-endian samples, silent while the tone
// is off, and never returns an error. SetTone and Read may be called from
// different goroutines.
type Tone struct {
	SampleRate int     // Samples per second.
	Frequency  float64 // Pitch in Hz.
	Volume     float32 // Amplitude, 0.0 to 1.0.

	lock   sync.Mutex
	active bool
	phase  float64
}

// NewTone creates a 440Hz tone at the default sample rate.
func NewTone() *Tone {
	return &Tone{
		SampleRate: SAMPLE_RATE,
		Frequency:  TONE_FREQUENCY,
		Volume:     TONE_VOLUME,
	}
}

// SetTone turns the tone on or off.
func (tone *Tone) SetTone(active bool) {
	tone.lock.Lock()
	defer tone.lock.Unlock()

	tone.active = active
}

// Active is true while the tone sounds.
func (tone *Tone) Active() bool {
	tone.lock.Lock()
	defer tone.lock.Unlock()

	return tone.active
}

// Samples fills dst with the next samples of the wave.
func (tone *Tone) Samples(dst []float32) {
	tone.lock.Lock()
	defer tone.lock.Unlock()

	if !tone.active {
		clear(dst)
		return
	}

	step := tone.Frequency / float64(tone.SampleRate)
	for n := range dst {
		if tone.phase < 0.5 {
			dst[n] = tone.Volume
		} else {
			dst[n] = -tone.Volume
		}
		tone.phase = math.Mod(tone.phase+step, 1.0)
	}
}

// Read fills p with whole float32 samples.
func (tone *Tone) Read(p []byte) (n int, err error) {
	samples := make([]float32, len(p)/4)
	tone.Samples(samples)

	for i, sample := range samples {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(sample))
	}
	n = len(samples) * 4

	return
}
