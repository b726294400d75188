package io

import (
	"errors"

	"github.com/ezrec/chip8/translate"
)

var f = translate.From

var (
	ErrRomSize       = errors.New(f("rom too large"))
	ErrRomEmpty      = errors.New(f("rom empty"))
	ErrLayoutUnknown = errors.New(f("keyboard layout unknown"))
	ErrTerminalSize  = errors.New(f("terminal too small"))
	ErrRecorderDone  = errors.New(f("recorder closed"))
)
