package io

import (
	"iter"
	"maps"
	"slices"
	"strings"
	"unicode"
)

// Layout maps keypad index 0x0 to 0xF to a host key, by the character it types.
type Layout [16]rune

var (
	QWERTY     = Layout{'1', '2', '3', '4', 'q', 'w', 'e', 'r', 'a', 's', 'd', 'f', 'z', 'x', 'c', 'v'}
	COLEMAK_DH = Layout{'1', '2', '3', '4', 'q', 'w', 'f', 'p', 'a', 'r', 's', 't', 'x', 'c', 'd', 'v'}
)

var _layouts = map[string]Layout{
	"qwerty":     QWERTY,
	"colemak-dh": COLEMAK_DH,
}

// LayoutByName returns a layout by its case-insensitive name.
func LayoutByName(name string) (layout Layout, err error) {
	layout, ok := _layouts[strings.ToLower(name)]
	if !ok {
		err = ErrLayoutUnknown
	}
	return
}

// Layouts iterates over the known layout names in order.
func Layouts() iter.Seq[string] {
	return slices.Values(slices.Sorted(maps.Keys(_layouts)))
}

// Index returns the keypad index for a character, ignoring case.
func (layout Layout) Index(r rune) (index int, ok bool) {
	r = unicode.ToLower(r)
	for n, key := range layout {
		if key == r {
			return n, true
		}
	}
	return
}
