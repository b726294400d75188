// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":        "0",
	"FONT_START":    fmt.Sprintf("%#x", FONT_START),
	"FONT_GLYPH":    fmt.Sprintf("%d", FONT_GLYPH),
	"PROGRAM_START": fmt.Sprintf("%#x", PROGRAM_START),
}

// Assembler is a single pass macro assembler for the CHIP-8 system.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string   // Predefines
	Label     map[string]int      // Map of labels to addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	expansion int // Count of macro expansions, for '@' local labels.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value uint32, err error) {
	invert := false
	if len(word) > 1 && word[0] == '~' {
		invert = true
		word = word[1:]
	}
	if len(word) > 0 && word[0] == '\'' {
		// Character quotes should have been expanded into
		// values in parseLine()
		err = ErrParseCharacter(strings.Trim(word, "'"))
		return
	}
	v64, err := strconv.ParseInt(word, 0, 33)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	value = uint32(v64)

	if invert {
		value = ^value
	}

	return
}

// isLabel is true for words that could name a label.
var isLabel = regexp.MustCompile(`^[A-Za-z_.][A-Za-z0-9_.]*$`).MatchString

// register decodes a V0-VF register name.
func (asm *Assembler) register(word string) (reg uint16, err error) {
	word = strings.ToLower(word)
	if len(word) != 2 || word[0] != 'v' {
		err = ErrRegisterInvalid
		return
	}
	v, perr := strconv.ParseUint(word[1:], 16, 4)
	if perr != nil {
		err = ErrRegisterInvalid
		return
	}
	reg = uint16(v)
	return
}

// isRegister is true if the word names a V0-VF register.
func (asm *Assembler) isRegister(word string) bool {
	_, err := asm.register(word)
	return err == nil
}

// immediate decodes a value no larger than limit.
func (asm *Assembler) immediate(word string, limit uint32) (value uint16, err error) {
	v, err := asm.valueOf(word)
	if err != nil {
		return
	}
	// Negative bytes are accepted as their two's complement.
	if limit == 0xff && v >= 0xffffff80 {
		v &= 0xff
	}
	if v > limit {
		err = ErrOpcodeRange
		return
	}
	value = uint16(v)
	return
}

// address decodes an address, or defers it to the link pass as a label.
func (asm *Assembler) address(word string) (value uint16, label string, err error) {
	value, err = asm.immediate(word, 0xfff)
	if err == nil {
		return
	}
	if isLabel(word) && !asm.isRegister(word) {
		err = nil
		label = word
		return
	}
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value uint32, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var value32 uint32
		value32, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt(int(value32))
	}
	err = nil
	for key, addr := range asm.Label {
		if _, ok := pred[key]; !ok {
			pred[key] = starlark.MakeInt(addr)
		}
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = uint32(st_int64)
	return
}

// splitWords splits a line into words at blanks and commas.
func splitWords(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})
}

// parseLine parses a single line as an opcode.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	re := regexp.MustCompile(`'\\?[^']'`)
	line = re.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	re = regexp.MustCompile(`\$\([^\$]*\)`)
	line = re.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%#v", value)
	})
	if err != nil {
		return
	}

	words = splitWords(line)

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]int, 16)
		}
		asm.Label[label] = asm.currentAddress()
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = words[1+n]
		}
		defer func() { asm.Equate = old_equate }()

		// '@' expands to a prefix unique to this expansion.
		local := fmt.Sprintf("%v_%v_", name, asm.expansion)
		asm.expansion++

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", local)
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}

			err = asm.parseWords(words, macro.LineNo+n)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// currentAddress gets the load address of the next generated byte.
func (asm *Assembler) currentAddress() int {
	if len(asm.Opcode) == 0 {
		return PROGRAM_START
	}

	last := asm.Opcode[len(asm.Opcode)-1]

	return last.Address + len(last.Bytes)
}

// Parse parses an input stream into a Program containing opcodes.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {

	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Opcode = asm.Opcode[:0]
	asm.expansion = 0
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])
		words := splitWords(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	if asm.currentAddress() > MEMORY_SIZE {
		err = ErrProgramSize
		return
	}

	// Final linking of labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		if len(op.LinkLabel) == 0 {
			continue
		}
		line = strings.Join(op.Words, " ")
		lineno = op.LineNo
		label := op.LinkLabel
		addr, ok := asm.Label[label]
		if !ok {
			err = ErrLabelMissing(label)
			return
		}
		if addr > 0xfff {
			err = ErrOpcodeRange
			return
		}
		linked := op.Bytes[len(op.Bytes)-2:]
		linked[0] |= byte(addr >> 8)
		linked[1] |= byte(addr)
		// A linked 0nnn must still decode as SYS.
		if code, ok := op.Code(); ok && code>>12 == 0 {
			if decoded, _ := code.Op(); decoded != OP_SYS {
				err = ErrOpcodeRange
				return
			}
		}
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}

// aluMap maps register to register mnemonics.
var aluMap = map[string]Op{
	"or":   OP_OR,
	"and":  OP_AND,
	"xor":  OP_XOR,
	"sub":  OP_SUB,
	"subn": OP_SUBN,
	"shr":  OP_SHR,
	"shl":  OP_SHL,
}

// keyMap maps key skip mnemonics.
var keyMap = map[string]Op{
	"skp":  OP_SKP,
	"sknp": OP_SKNP,
}

// storeMap maps the `LD <target>, Vx` forms.
var storeMap = map[string]Op{
	"dt":  OP_LD_DT,
	"st":  OP_LD_ST,
	"f":   OP_LD_F,
	"b":   OP_LD_B,
	"[i]": OP_LD_MEM,
}

// loadMap maps the `LD Vx, <source>` forms.
var loadMap = map[string]Op{
	"dt":  OP_LD_VX_DT,
	"k":   OP_LD_VX_K,
	"[i]": OP_LD_REGS,
}

// argCount checks the argument count of an instruction.
func argCount(args []string, want int) (err error) {
	switch {
	case len(args) < want:
		err = ErrOpcodeValueMissing
	case len(args) > want:
		err = ErrOpcodeExtraArgs
	}
	return
}

// parseData emits .byte or .word directive data.
func (asm *Assembler) parseData(directive string, args []string, lineno int, words []string) (err error) {
	if len(args) == 0 {
		err = ErrOpcodeValueMissing
		return
	}

	for _, arg := range args {
		op := Opcode{LineNo: lineno, Address: asm.currentAddress(), Words: words, Data: true}
		switch directive {
		case ".byte":
			var value uint16
			value, err = asm.immediate(arg, 0xff)
			if err != nil {
				return
			}
			op.Bytes = []byte{byte(value)}
		case ".word":
			var value uint32
			value, err = asm.valueOf(arg)
			if err != nil {
				if !isLabel(arg) {
					return
				}
				err = nil
				op.LinkLabel = arg
			} else if value > 0xffff {
				err = ErrOpcodeRange
				return
			}
			op.Bytes = []byte{byte(value >> 8), byte(value)}
		}
		asm.Opcode = append(asm.Opcode, op)
	}

	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	// no-op
	if len(words) == 0 {
		return
	}

	mnemonic := strings.ToLower(words[0])
	args := slices.Clone(words[1:])
	for n, arg := range args {
		lower := strings.ToLower(arg)
		switch {
		case asm.isRegister(lower), lower == "i", lower == "[i]", lower == "dt",
			lower == "st", lower == "k", lower == "f", lower == "b":
			args[n] = lower
		}
	}

	switch mnemonic {
	case ".byte", ".word":
		err = asm.parseData(mnemonic, args, lineno, words)
		return
	}

	var op Op
	var operands []uint16
	var label string

	// reg decodes args[n] as a register into the operand list.
	reg := func(n int) (err error) {
		var r uint16
		r, err = asm.register(args[n])
		operands = append(operands, r)
		return
	}
	// imm decodes args[n] as a byte into the operand list.
	imm := func(n int, limit uint32) (err error) {
		var v uint16
		v, err = asm.immediate(args[n], limit)
		operands = append(operands, v)
		return
	}
	// addr decodes args[n] as an address or label into the operand list.
	addr := func(n int) (err error) {
		var v uint16
		v, label, err = asm.address(args[n])
		if len(label) != 0 {
			// Placeholder until the link pass.
			v = PROGRAM_START
		}
		operands = append(operands, v)
		return
	}

	switch mnemonic {
	case "cls", "ret", "halt":
		if err = argCount(args, 0); err != nil {
			return
		}
		op = map[string]Op{"cls": OP_CLS, "ret": OP_RET, "halt": OP_HALT}[mnemonic]
	case "sys", "call":
		if err = argCount(args, 1); err != nil {
			return
		}
		op = OP_SYS
		if mnemonic == "call" {
			op = OP_CALL
		}
		err = addr(0)
	case "jp":
		if len(args) == 2 && args[0] == "v0" {
			op = OP_JP_V0
			err = addr(1)
			break
		}
		if err = argCount(args, 1); err != nil {
			return
		}
		op = OP_JP
		err = addr(0)
	case "se", "sne":
		if err = argCount(args, 2); err != nil {
			return
		}
		if err = reg(0); err != nil {
			return
		}
		if asm.isRegister(args[1]) {
			op = map[string]Op{"se": OP_SE_REG, "sne": OP_SNE_REG}[mnemonic]
			err = reg(1)
		} else {
			op = map[string]Op{"se": OP_SE_BYTE, "sne": OP_SNE_BYTE}[mnemonic]
			err = imm(1, 0xff)
		}
	case "ld":
		if err = argCount(args, 2); err != nil {
			return
		}
		if args[0] == "i" {
			op = OP_LD_I
			err = addr(1)
			break
		}
		if store, ok := storeMap[args[0]]; ok {
			op = store
			err = reg(1)
			break
		}
		if err = reg(0); err != nil {
			return
		}
		if load, ok := loadMap[args[1]]; ok {
			op = load
		} else if asm.isRegister(args[1]) {
			op = OP_LD_REG
			err = reg(1)
		} else {
			op = OP_LD_BYTE
			err = imm(1, 0xff)
		}
	case "add":
		if err = argCount(args, 2); err != nil {
			return
		}
		if args[0] == "i" {
			op = OP_ADD_I
			err = reg(1)
			break
		}
		if err = reg(0); err != nil {
			return
		}
		if asm.isRegister(args[1]) {
			op = OP_ADD_REG
			err = reg(1)
		} else {
			op = OP_ADD_BYTE
			err = imm(1, 0xff)
		}
	case "shr", "shl":
		op = aluMap[mnemonic]
		// The second register is optional.
		if len(args) == 1 {
			args = append(args, "v0")
		}
		if err = argCount(args, 2); err != nil {
			return
		}
		if err = reg(0); err != nil {
			return
		}
		err = reg(1)
	case "or", "and", "xor", "sub", "subn":
		op = aluMap[mnemonic]
		if err = argCount(args, 2); err != nil {
			return
		}
		if err = reg(0); err != nil {
			return
		}
		err = reg(1)
	case "rnd":
		op = OP_RND
		if err = argCount(args, 2); err != nil {
			return
		}
		if err = reg(0); err != nil {
			return
		}
		err = imm(1, 0xff)
	case "drw":
		op = OP_DRW
		if err = argCount(args, 3); err != nil {
			return
		}
		if err = reg(0); err != nil {
			return
		}
		if err = reg(1); err != nil {
			return
		}
		err = imm(2, 0xf)
	case "skp", "sknp":
		op = keyMap[mnemonic]
		if err = argCount(args, 1); err != nil {
			return
		}
		err = reg(0)
	default:
		err = ErrInstructionInvalid
		return
	}
	if err != nil {
		return
	}

	code, err := MakeCode(op, operands...)
	if err != nil {
		return
	}
	if len(label) != 0 {
		code &^= 0x0fff
	}

	opcode := Opcode{
		LineNo:    lineno,
		Address:   asm.currentAddress(),
		Words:     words,
		Bytes:     []byte{byte(code >> 8), byte(code)},
		LinkLabel: label,
	}
	asm.Opcode = append(asm.Opcode, opcode)

	return
}
