// Package cpu implements the interpreter and assembler for the CHIP-8 system.
//
// The CPU consists of sixteen 8-bit registers (V0-VF, with VF doubling as the
// carry, borrow and collision flag), a 16-bit index register, a program counter,
// a 16-entry return stack, delay and sound timers, 4KiB of memory with the hex
// font at 0x050, a 64x32 monochrome framebuffer, and a 16-key hex keypad.
//
// The CPU is stepped by the caller: Cycle executes one instruction and
// TickTimers counts the timers down once. Pacing is the caller's concern.
//
// The assembler accepts the conventional CHIP-8 mnemonics, supporting macros,
// labels, equates, and compile-time expression evaluation.
package cpu
