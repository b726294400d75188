package io

import (
	"errors"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/ezrec/chip8/cpu"
)

// ReadRom reads a program image. Images larger than the program area are
// rejected with ErrRomSize.
func ReadRom(r io.Reader) (data []byte, err error) {
	data, err = io.ReadAll(io.LimitReader(r, cpu.PROGRAM_LIMIT+1))
	if err != nil {
		return
	}

	switch {
	case len(data) == 0:
		err = ErrRomEmpty
	case len(data) > cpu.PROGRAM_LIMIT:
		err = errors.Join(ErrRomSize, cpu.ErrAddress{Address: cpu.PROGRAM_START, Length: len(data)})
	}
	if err != nil {
		data = nil
	}

	return
}

// OpenRom reads a program image from a file system.
func OpenRom(fsys fs.FS, name string) (data []byte, err error) {
	inf, err := fsys.Open(name)
	if err != nil {
		return
	}
	defer inf.Close()

	data, err = ReadRom(inf)
	if err != nil {
		err = &fs.PathError{Op: "read", Path: name, Err: err}
	}

	return
}

// IsSource is true for file names that look like assembly source.
func IsSource(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".c8s", ".s", ".asm":
		return true
	}
	return false
}
