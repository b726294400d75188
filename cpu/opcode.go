package cpu

import (
	"fmt"
)

// Op is a decoded CHIP-8 operation.
type Op int

const (
	OP_HALT     = Op(iota) // 0000
	OP_CLS                 // 00E0
	OP_RET                 // 00EE
	OP_SYS                 // 0nnn
	OP_JP                  // 1nnn
	OP_CALL                // 2nnn
	OP_SE_BYTE             // 3xkk
	OP_SNE_BYTE            // 4xkk
	OP_SE_REG              // 5xy0
	OP_LD_BYTE             // 6xkk
	OP_ADD_BYTE            // 7xkk
	OP_LD_REG              // 8xy0
	OP_OR                  // 8xy1
	OP_AND                 // 8xy2
	OP_XOR                 // 8xy3
	OP_ADD_REG             // 8xy4
	OP_SUB                 // 8xy5
	OP_SHR                 // 8xy6
	OP_SUBN                // 8xy7
	OP_SHL                 // 8xyE
	OP_SNE_REG             // 9xy0
	OP_LD_I                // Annn
	OP_JP_V0               // Bnnn
	OP_RND                 // Cxkk
	OP_DRW                 // Dxyn
	OP_SKP                 // Ex9E
	OP_SKNP                // ExA1
	OP_LD_VX_DT            // Fx07
	OP_LD_VX_K             // Fx0A
	OP_LD_DT               // Fx15
	OP_LD_ST               // Fx18
	OP_ADD_I               // Fx1E
	OP_LD_F                // Fx29
	OP_LD_B                // Fx33
	OP_LD_MEM              // Fx55
	OP_LD_REGS             // Fx65
	opCount
)

// CodeForm is the operand layout of an instruction word.
type CodeForm int

const (
	FORM_NONE = CodeForm(iota) // no operands
	FORM_NNN                   // 12-bit address
	FORM_XKK                   // register, byte
	FORM_XY                    // register, register
	FORM_XYN                   // register, register, nibble
	FORM_X                     // register
)

// Arity returns the number of operands the form takes.
func (form CodeForm) Arity() int {
	switch form {
	case FORM_NNN, FORM_X:
		return 1
	case FORM_XKK, FORM_XY:
		return 2
	case FORM_XYN:
		return 3
	}
	return 0
}

type opInfo struct {
	pattern string   // nibble pattern, for Op.String()
	base    uint16   // word with all operands zero
	form    CodeForm // operand layout
	format  string   // assembly listing format
}

var _opInfo = [opCount]opInfo{
	OP_HALT:     {"0000", 0x0000, FORM_NONE, "HALT"},
	OP_CLS:      {"00E0", 0x00E0, FORM_NONE, "CLS"},
	OP_RET:      {"00EE", 0x00EE, FORM_NONE, "RET"},
	OP_SYS:      {"0nnn", 0x0000, FORM_NNN, "SYS 0x%03X"},
	OP_JP:       {"1nnn", 0x1000, FORM_NNN, "JP 0x%03X"},
	OP_CALL:     {"2nnn", 0x2000, FORM_NNN, "CALL 0x%03X"},
	OP_SE_BYTE:  {"3xkk", 0x3000, FORM_XKK, "SE V%X, 0x%02X"},
	OP_SNE_BYTE: {"4xkk", 0x4000, FORM_XKK, "SNE V%X, 0x%02X"},
	OP_SE_REG:   {"5xy0", 0x5000, FORM_XY, "SE V%X, V%X"},
	OP_LD_BYTE:  {"6xkk", 0x6000, FORM_XKK, "LD V%X, 0x%02X"},
	OP_ADD_BYTE: {"7xkk", 0x7000, FORM_XKK, "ADD V%X, 0x%02X"},
	OP_LD_REG:   {"8xy0", 0x8000, FORM_XY, "LD V%X, V%X"},
	OP_OR:       {"8xy1", 0x8001, FORM_XY, "OR V%X, V%X"},
	OP_AND:      {"8xy2", 0x8002, FORM_XY, "AND V%X, V%X"},
	OP_XOR:      {"8xy3", 0x8003, FORM_XY, "XOR V%X, V%X"},
	OP_ADD_REG:  {"8xy4", 0x8004, FORM_XY, "ADD V%X, V%X"},
	OP_SUB:      {"8xy5", 0x8005, FORM_XY, "SUB V%X, V%X"},
	OP_SHR:      {"8xy6", 0x8006, FORM_XY, "SHR V%X, V%X"},
	OP_SUBN:     {"8xy7", 0x8007, FORM_XY, "SUBN V%X, V%X"},
	OP_SHL:      {"8xyE", 0x800E, FORM_XY, "SHL V%X, V%X"},
	OP_SNE_REG:  {"9xy0", 0x9000, FORM_XY, "SNE V%X, V%X"},
	OP_LD_I:     {"Annn", 0xA000, FORM_NNN, "LD I, 0x%03X"},
	OP_JP_V0:    {"Bnnn", 0xB000, FORM_NNN, "JP V0, 0x%03X"},
	OP_RND:      {"Cxkk", 0xC000, FORM_XKK, "RND V%X, 0x%02X"},
	OP_DRW:      {"Dxyn", 0xD000, FORM_XYN, "DRW V%X, V%X, %d"},
	OP_SKP:      {"Ex9E", 0xE09E, FORM_X, "SKP V%X"},
	OP_SKNP:     {"ExA1", 0xE0A1, FORM_X, "SKNP V%X"},
	OP_LD_VX_DT: {"Fx07", 0xF007, FORM_X, "LD V%X, DT"},
	OP_LD_VX_K:  {"Fx0A", 0xF00A, FORM_X, "LD V%X, K"},
	OP_LD_DT:    {"Fx15", 0xF015, FORM_X, "LD DT, V%X"},
	OP_LD_ST:    {"Fx18", 0xF018, FORM_X, "LD ST, V%X"},
	OP_ADD_I:    {"Fx1E", 0xF01E, FORM_X, "ADD I, V%X"},
	OP_LD_F:     {"Fx29", 0xF029, FORM_X, "LD F, V%X"},
	OP_LD_B:     {"Fx33", 0xF033, FORM_X, "LD B, V%X"},
	OP_LD_MEM:   {"Fx55", 0xF055, FORM_X, "LD [I], V%X"},
	OP_LD_REGS:  {"Fx65", 0xF065, FORM_X, "LD V%X, [I]"},
}

// String returns the nibble pattern of the operation, ie "8xy4".
func (op Op) String() string {
	if op < 0 || op >= opCount {
		return fmt.Sprintf("Op(%d)", int(op))
	}
	return _opInfo[op].pattern
}

// Form returns the operand layout of the operation.
func (op Op) Form() CodeForm {
	if op < 0 || op >= opCount {
		return FORM_NONE
	}
	return _opInfo[op].form
}

// Code is a single 16-bit instruction word, as fetched big-endian from memory.
type Code uint16

// MakeCode encodes an operation and its operands into an instruction word.
// Operands are given in listing order: nnn; x, kk; x, y; x, y, n; or x.
func MakeCode(op Op, args ...uint16) (code Code, err error) {
	if op < 0 || op >= opCount {
		err = ErrOpcodeInvalid
		return
	}

	info := _opInfo[op]
	if len(args) < info.form.Arity() {
		err = ErrOpcodeValueMissing
		return
	}
	if len(args) > info.form.Arity() {
		err = ErrOpcodeExtraArgs
		return
	}

	word := info.base
	switch info.form {
	case FORM_NNN:
		if args[0] > 0xfff {
			err = ErrOpcodeRange
			return
		}
		word |= args[0]
	case FORM_XKK:
		if args[0] > 0xf || args[1] > 0xff {
			err = ErrOpcodeRange
			return
		}
		word |= args[0]<<8 | args[1]
	case FORM_XY:
		if args[0] > 0xf || args[1] > 0xf {
			err = ErrOpcodeRange
			return
		}
		word |= args[0]<<8 | args[1]<<4
	case FORM_XYN:
		if args[0] > 0xf || args[1] > 0xf || args[2] > 0xf {
			err = ErrOpcodeRange
			return
		}
		word |= args[0]<<8 | args[1]<<4 | args[2]
	case FORM_X:
		if args[0] > 0xf {
			err = ErrOpcodeRange
			return
		}
		word |= args[0] << 8
	}

	code = Code(word)

	// SYS addresses that collide with CLS, RET or the halt word.
	if decoded, ok := code.Op(); !ok || decoded != op {
		code = 0
		err = ErrOpcodeRange
	}

	return
}

// Nibbles splits the word into its four nibbles, most significant first.
func (code Code) Nibbles() (n0, n1, n2, n3 uint8) {
	word := uint16(code)
	n0 = uint8(word>>12) & 0xf
	n1 = uint8(word>>8) & 0xf
	n2 = uint8(word>>4) & 0xf
	n3 = uint8(word>>0) & 0xf
	return
}

// X returns the first register operand.
func (code Code) X() int {
	return int(code>>8) & 0xf
}

// Y returns the second register operand.
func (code Code) Y() int {
	return int(code>>4) & 0xf
}

// N returns the low nibble.
func (code Code) N() uint8 {
	return uint8(code) & 0xf
}

// KK returns the low byte.
func (code Code) KK() uint8 {
	return uint8(code)
}

// NNN returns the low 12 bits.
func (code Code) NNN() uint16 {
	return uint16(code) & 0xfff
}

// Op decodes the instruction word. ok is false for words that match
// no instruction pattern.
func (code Code) Op() (op Op, ok bool) {
	n0, _, _, n3 := code.Nibbles()

	ok = true
	switch n0 {
	case 0x0:
		switch code {
		case 0x0000:
			op = OP_HALT
		case 0x00E0:
			op = OP_CLS
		case 0x00EE:
			op = OP_RET
		default:
			op = OP_SYS
		}
	case 0x1:
		op = OP_JP
	case 0x2:
		op = OP_CALL
	case 0x3:
		op = OP_SE_BYTE
	case 0x4:
		op = OP_SNE_BYTE
	case 0x5:
		op, ok = OP_SE_REG, n3 == 0x0
	case 0x6:
		op = OP_LD_BYTE
	case 0x7:
		op = OP_ADD_BYTE
	case 0x8:
		switch n3 {
		case 0x0:
			op = OP_LD_REG
		case 0x1:
			op = OP_OR
		case 0x2:
			op = OP_AND
		case 0x3:
			op = OP_XOR
		case 0x4:
			op = OP_ADD_REG
		case 0x5:
			op = OP_SUB
		case 0x6:
			op = OP_SHR
		case 0x7:
			op = OP_SUBN
		case 0xE:
			op = OP_SHL
		default:
			ok = false
		}
	case 0x9:
		op, ok = OP_SNE_REG, n3 == 0x0
	case 0xA:
		op = OP_LD_I
	case 0xB:
		op = OP_JP_V0
	case 0xC:
		op = OP_RND
	case 0xD:
		op = OP_DRW
	case 0xE:
		switch code.KK() {
		case 0x9E:
			op = OP_SKP
		case 0xA1:
			op = OP_SKNP
		default:
			ok = false
		}
	case 0xF:
		switch code.KK() {
		case 0x07:
			op = OP_LD_VX_DT
		case 0x0A:
			op = OP_LD_VX_K
		case 0x15:
			op = OP_LD_DT
		case 0x18:
			op = OP_LD_ST
		case 0x1E:
			op = OP_ADD_I
		case 0x29:
			op = OP_LD_F
		case 0x33:
			op = OP_LD_B
		case 0x55:
			op = OP_LD_MEM
		case 0x65:
			op = OP_LD_REGS
		default:
			ok = false
		}
	}

	if !ok {
		op = OP_HALT
	}

	return
}

// String returns the assembly language representation of this instruction.
// Words that decode to no instruction are shown as a data word.
func (code Code) String() string {
	op, ok := code.Op()
	if !ok {
		return fmt.Sprintf(".word 0x%04X", uint16(code))
	}

	info := _opInfo[op]
	switch info.form {
	case FORM_NNN:
		return fmt.Sprintf(info.format, code.NNN())
	case FORM_XKK:
		return fmt.Sprintf(info.format, code.X(), code.KK())
	case FORM_XY:
		return fmt.Sprintf(info.format, code.X(), code.Y())
	case FORM_XYN:
		return fmt.Sprintf(info.format, code.X(), code.Y(), code.N())
	case FORM_X:
		return fmt.Sprintf(info.format, code.X())
	}

	return info.format
}
