package cpu

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

const (
	DISPLAY_WIDTH  = 64
	DISPLAY_HEIGHT = 32
)

// Framebuffer is the monochrome display, row-major, index x + y*DISPLAY_WIDTH.
type Framebuffer [DISPLAY_WIDTH * DISPLAY_HEIGHT]bool

// Pixel returns the pixel at (x, y), wrapping both coordinates.
func (fb *Framebuffer) Pixel(x, y int) bool {
	x = ((x % DISPLAY_WIDTH) + DISPLAY_WIDTH) % DISPLAY_WIDTH
	y = ((y % DISPLAY_HEIGHT) + DISPLAY_HEIGHT) % DISPLAY_HEIGHT
	return fb[x+y*DISPLAY_WIDTH]
}

// Clear turns off all pixels.
func (fb *Framebuffer) Clear() {
	clear(fb[:])
}

// Lit returns the number of pixels that are on.
func (fb *Framebuffer) Lit() (count int) {
	for _, on := range fb {
		if on {
			count++
		}
	}
	return
}

// Digest returns a SHA-1 of the framebuffer contents, for comparing screens.
func (fb *Framebuffer) Digest() string {
	var packed [DISPLAY_WIDTH * DISPLAY_HEIGHT / 8]byte
	for n, on := range fb {
		if on {
			packed[n/8] |= 0x80 >> (n % 8)
		}
	}
	sum := sha1.Sum(packed[:])
	return hex.EncodeToString(sum[:])
}

// String renders the framebuffer as text, one line per row.
func (fb *Framebuffer) String() string {
	var sb strings.Builder
	sb.Grow((DISPLAY_WIDTH + 1) * DISPLAY_HEIGHT)
	for y := range DISPLAY_HEIGHT {
		for x := range DISPLAY_WIDTH {
			if fb[x+y*DISPLAY_WIDTH] {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
