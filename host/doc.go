// Package host provides the graphical window and speaker for the emulator.
//
// Builds with the headless tag replace both with stubs returning ErrNoDisplay.
package host
