package cpu

import (
	"fmt"
	"io"
	"iter"
	"strings"
)

// Opcode represents a line of assembled code with its source location and generated bytes.
type Opcode struct {
	LineNo    int      // Source line, zero for disassembled images.
	Address   int      // Load address of the first byte.
	Words     []string // Source words.
	Bytes     []byte   // Generated bytes.
	Data      bool     // Set for .byte and .word directives.
	LinkLabel string   // Label whose address is patched into the last word.
}

// Code returns the instruction word of an instruction opcode.
func (op *Opcode) Code() (code Code, ok bool) {
	if op.Data || len(op.Bytes) != 2 {
		return
	}
	return Code(uint16(op.Bytes[0])<<8 | uint16(op.Bytes[1])), true
}

// Program is an assembled or disassembled program image.
type Program struct {
	Opcodes []Opcode
}

// Debug locates the opcode covering an address.
type Debug struct {
	*Opcode
	Index int // Byte offset of the address within the opcode.
}

func (prog *Program) Debug(addr uint16) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if int(addr) >= op.Address && int(addr) < op.Address+len(op.Bytes) {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(addr) - op.Address,
			}
			break
		}
	}

	return
}

// Binary returns the program image to be loaded at PROGRAM_START.
func (prog *Program) Binary() (bin []byte) {
	end := PROGRAM_START
	for _, op := range prog.Opcodes {
		end = max(end, op.Address+len(op.Bytes))
	}

	bin = make([]byte, end-PROGRAM_START)
	for _, op := range prog.Opcodes {
		copy(bin[op.Address-PROGRAM_START:], op.Bytes)
	}

	return
}

// Codes iterates over the instruction words of the program by address.
func (prog *Program) Codes() iter.Seq2[uint16, Code] {
	return func(yield func(addr uint16, code Code) bool) {
		for n := range prog.Opcodes {
			code, ok := prog.Opcodes[n].Code()
			if !ok {
				continue
			}
			if !yield(uint16(prog.Opcodes[n].Address), code) {
				return
			}
		}
	}
}

// Disassemble decodes a program image, as loaded at PROGRAM_START, two
// bytes at a time. A trailing odd byte becomes a .byte directive.
func Disassemble(data []byte) (prog *Program) {
	prog = &Program{}

	for n := 0; n < len(data); n += 2 {
		op := Opcode{Address: PROGRAM_START + n}
		if n+1 < len(data) {
			op.Bytes = []byte{data[n], data[n+1]}
			code, _ := op.Code()
			op.Words = strings.Fields(strings.ReplaceAll(code.String(), ",", ""))
		} else {
			op.Bytes = []byte{data[n]}
			op.Data = true
			op.Words = []string{".byte", fmt.Sprintf("0x%02X", data[n])}
		}
		prog.Opcodes = append(prog.Opcodes, op)
	}

	return
}

// Listing writes an address, hex and mnemonic line for every opcode.
func (prog *Program) Listing(w io.Writer) (err error) {
	for _, op := range prog.Opcodes {
		hex := ""
		for _, b := range op.Bytes {
			hex += fmt.Sprintf("%02X", b)
		}
		text := strings.Join(op.Words, " ")
		if code, ok := op.Code(); ok {
			text = code.String()
		}
		_, err = fmt.Fprintf(w, "%03X: %-8s %v\n", op.Address, hex, text)
		if err != nil {
			return
		}
	}

	return
}
