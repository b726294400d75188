package cpu

// Memory map.
const (
	MEMORY_SIZE   = 0x1000 // 4KiB address space.
	FONT_START    = 0x050  // Built-in hex digit glyphs.
	FONT_GLYPH    = 5      // Bytes per glyph.
	PROGRAM_START = 0x200  // Program images load and execute here.
	PROGRAM_LIMIT = MEMORY_SIZE - PROGRAM_START
)

// Font is the 4x5 hex digit glyph set, 0 through F.
var Font = [16 * FONT_GLYPH]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Memory is the 4KiB address space.
type Memory [MEMORY_SIZE]byte

// Reset zeros memory and installs the font.
func (mem *Memory) Reset() {
	clear(mem[:])
	copy(mem[FONT_START:], Font[:])
}

// Check verifies that length bytes starting at address lie in memory.
func (mem *Memory) Check(address int, length int) (err error) {
	if address < 0 || length < 0 || address+length > len(mem) {
		err = ErrAddress{Address: address, Length: length}
	}
	return
}
