package cpu

import "github.com/kaelstrom/gbcore/internal/bus"

// execFunc runs an already-decoded operation against the CPU and returns
// its T-cycle cost.
type execFunc func(c *CPU) int

// builderFunc reads whatever immediate bytes an operation needs starting at
// immAddr, and returns an execFunc closing over them plus the number of
// immediate bytes consumed (0, 1, or 2). This is the spec §9 "large
// match/switch at decode time" rendering of the ~40 operation forms: each
// table slot is a tiny closure factory rather than a heap-allocated
// operation object re-created every step.
type builderFunc func(b *bus.Bus, immAddr uint16) (exec execFunc, immLen int)

var mainTable [256]builderFunc
var cbTable [256]execFunc

// Fetch decodes the instruction at pc, returning an exec closure, the total
// number of bytes consumed (opcode + immediates, or opcode + CB byte for
// the 0xCB escape), and whether the opcode was valid. Per spec §4.3, a main
// opcode of 0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC, 0xED, 0xF4, 0xFC, or
// 0xFD (i.e. any opcode with no table entry) is invalid.
func Fetch(pc uint16, b *bus.Bus) (exec execFunc, length int, valid bool) {
	opcode := b.Read(pc)

	if opcode == 0xCB {
		cbOpcode := b.Read(pc + 1)
		fn := cbTable[cbOpcode]
		if fn == nil {
			return nil, 2, false
		}
		return fn, 2, true
	}

	builder := mainTable[opcode]
	if builder == nil {
		return nil, 1, false
	}

	exec, immLen := builder(b, pc+1)
	return exec, 1 + immLen, true
}
