package cpu

// Quirks selects between the default behavior and stricter
// interpretations of a few instructions.
type Quirks struct {
	// HaltOnZero stalls on the 0000 word without advancing the program
	// counter. When clear, 0000 is an unknown opcode.
	HaltOnZero bool
	// IndexOverflow sets VF when ADD I, Vx leaves the 12-bit address space.
	IndexOverflow bool
	// FontOffset makes LD F, Vx address the glyph in the font region
	// instead of Vx*5.
	FontOffset bool
}

var (
	QuirksReference = Quirks{HaltOnZero: true}
	QuirksStrict    = Quirks{IndexOverflow: true, FontOffset: true}
)
