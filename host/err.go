package host

import (
	"errors"

	"github.com/ezrec/chip8/translate"
)

var f = translate.From

var (
	ErrNoDisplay = errors.New(f("built without display support"))
)
