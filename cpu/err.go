package cpu

import (
	"errors"

	"github.com/ezrec/chip8/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrOutOfBounds   = errors.New(f("out of bounds"))
	ErrStackEmpty    = errors.New(f("stack empty"))
	ErrStackFull     = errors.New(f("stack full"))
	ErrOpcodeUnknown = errors.New(f("opcode unknown"))

	// Instruction encode errors
	ErrOpcodeRange = errors.New(f("operand out of range"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrMacroSyntax        = errors.New(f(".macro syntax"))
	ErrMacroNesting       = errors.New(f(".macro in .macro prohibited"))
	ErrMacroDuplicate     = errors.New(f(".macro duplicated"))
	ErrMacroLonely        = errors.New(f(".macro without .endm"))
	ErrMacroLonelyEndm    = errors.New(f(".endm without .macro"))
	ErrOpcodeExtraArgs    = errors.New(f("excessive arguments"))
	ErrOpcodeValueMissing = errors.New(f("value missing"))
	ErrOpcodeInvalid      = errors.New(f("opcode invalid"))
	ErrRegisterInvalid    = errors.New(f("register invalid"))
	ErrInstructionInvalid = errors.New(f("instruction invalid"))
	ErrProgramSize        = errors.New(f("program too large"))
)

// ErrOpcode is returned when an instruction word matches no operation.
type ErrOpcode struct {
	Code Code   // Raw instruction word.
	Pc   uint16 // Address it was fetched from.
}

func (eo ErrOpcode) Error() string {
	return f("bad opcode 0x%04x at 0x%03x", uint16(eo.Code), eo.Pc)
}

func (eo ErrOpcode) Is(err error) (ok bool) {
	if err == ErrOpcodeUnknown {
		return true
	}
	_, ok = err.(ErrOpcode)
	return
}

// ErrAddress is returned when an access of Length bytes at Address
// would leave the address space.
type ErrAddress struct {
	Address int
	Length  int
}

func (ea ErrAddress) Error() string {
	return f("access of %d bytes at 0x%03x out of bounds", ea.Length, ea.Address)
}

func (ea ErrAddress) Is(err error) bool {
	return err == ErrOutOfBounds
}

// ErrKeyInvalid is the value of a register used as a keypad index that
// names no key.
type ErrKeyInvalid int

func (ek ErrKeyInvalid) Error() string {
	return f("key 0x%02x invalid", int(ek))
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseCharacter string

func (err ErrParseCharacter) Error() string {
	return f("'%v' is not a character", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

type ErrMacro struct {
	Macro string
	Line  int
	Err   error
}

func (err ErrMacro) Error() string {
	return f("macro %v line %v %v", err.Macro, err.Line, err.Err.Error())
}

func (err ErrMacro) Unwrap() error {
	return err.Err
}
