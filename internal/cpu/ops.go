package cpu

import "github.com/kaelstrom/gbcore/internal/register"

// regByIndex maps the standard LR35902 3-bit register encoding
// (000=B,...,101=L,110=[HL],111=A) to a register.Name; index 6 is handled
// specially by read8/write8 since it addresses memory through HL rather
// than a register.
var regByIndex = [8]register.Name{register.B, register.C, register.D, register.E, register.H, register.L, 0, register.A}

// rpByIndex maps the 2-bit "rp" encoding (00=BC,01=DE,10=HL,11=SP) used by
// LD rp,nn / INC rp / DEC rp / ADD HL,rp.
var rpByIndex = [4]register.Name{register.BC, register.DE, register.HL, register.SP}

// rp2ByIndex maps the 2-bit "rp2" encoding (00=BC,01=DE,10=HL,11=AF) used by
// PUSH rp2 / POP rp2.
var rp2ByIndex = [4]register.Name{register.BC, register.DE, register.HL, register.AF}

func read8(c *CPU, index uint8) uint8 {
	if index == 6 {
		return c.Bus.Read(c.regs.Get16(register.HL))
	}
	return c.regs.Get8(regByIndex[index])
}

func write8(c *CPU, index uint8, value uint8) {
	if index == 6 {
		c.Bus.Write(c.regs.Get16(register.HL), value)
		return
	}
	c.regs.Set8(regByIndex[index], value)
}

// condition is one of the four branch conditions (or "always" for the
// unconditional forms), per spec §4.3.
type condition uint8

const (
	condAlways condition = iota
	condNZ
	condZ
	condNC
	condC
)

func (c *CPU) conditionMet(cond condition) bool {
	switch cond {
	case condAlways:
		return true
	case condNZ:
		return !c.regs.Flag(register.FlagZero)
	case condZ:
		return c.regs.Flag(register.FlagZero)
	case condNC:
		return !c.regs.Flag(register.FlagCarry)
	case condC:
		return c.regs.Flag(register.FlagCarry)
	default:
		return false
	}
}

var conditionByCC = [4]condition{condNZ, condZ, condNC, condC}
