package cpu

import (
	"github.com/kaelstrom/gbcore/internal/bit"
	"github.com/kaelstrom/gbcore/internal/bus"
	"github.com/kaelstrom/gbcore/internal/events"
	"github.com/kaelstrom/gbcore/internal/register"
)

// aluOp applies one of the eight ALU-group operations (ADD, ADC, SUB, SBC,
// AND, XOR, OR, CP) to A and operand, per the exact flag contracts of spec
// §4.3.
func aluOp(c *CPU, group uint8, operand uint8) {
	a := c.regs.Get8(register.A)
	switch group {
	case 0: // ADD
		c.regs.Set8(register.A, c.alu.Add8(a, operand, false))
	case 1: // ADC
		c.regs.Set8(register.A, c.alu.Add8(a, operand, c.regs.Flag(register.FlagCarry)))
	case 2: // SUB
		c.regs.Set8(register.A, c.alu.Sub8(a, operand, false))
	case 3: // SBC
		c.regs.Set8(register.A, c.alu.Sub8(a, operand, c.regs.Flag(register.FlagCarry)))
	case 4: // AND
		c.regs.Set8(register.A, c.alu.And(a, operand))
	case 5: // XOR
		c.regs.Set8(register.A, c.alu.Or(a^operand))
	case 6: // OR
		c.regs.Set8(register.A, c.alu.Or(a|operand))
	case 7: // CP: result discarded, flags only
		c.alu.Sub8(a, operand, false)
	}
}

func init() {
	initLoadRegisterToRegister()
	initAluRegister()
	initAluImmediate()
	initIncDec8()
	initLoadImmediate8()
	initAccumulatorRotates()
	initLoad16ImmediateAndIncDec()
	initPushPop()
	initJumpsAndCalls()
	initRestart()
	initLoadIndirectForms()
	initMisc()
}

func initLoadRegisterToRegister() {
	for dst := uint8(0); dst < 8; dst++ {
		for src := uint8(0); src < 8; src++ {
			op := 0x40 + dst*8 + src
			if op == 0x76 {
				continue // HALT occupies the LD (HL),(HL) slot
			}
			d, s := dst, src
			mainTable[op] = func(b *bus.Bus, immAddr uint16) (execFunc, int) {
				return func(c *CPU) int {
					value := read8(c, s)
					write8(c, d, value)
					if d == 6 || s == 6 {
						return 8
					}
					return 4
				}, 0
			}
		}
	}
	mainTable[0x76] = func(b *bus.Bus, immAddr uint16) (execFunc, int) {
		return func(c *CPU) int {
			c.Halt()
			return 4
		}, 0
	}
}

func initAluRegister() {
	for group := uint8(0); group < 8; group++ {
		for reg := uint8(0); reg < 8; reg++ {
			op := 0x80 + group*8 + reg
			g, r := group, reg
			mainTable[op] = func(b *bus.Bus, immAddr uint16) (execFunc, int) {
				return func(c *CPU) int {
					operand := read8(c, r)
					aluOp(c, g, operand)
					if r == 6 {
						return 8
					}
					return 4
				}, 0
			}
		}
	}
}

func initAluImmediate() {
	for group := uint8(0); group < 8; group++ {
		op := 0xC6 + group*8
		g := group
		mainTable[op] = func(b *bus.Bus, immAddr uint16) (execFunc, int) {
			n := b.Read(immAddr)
			return func(c *CPU) int {
				aluOp(c, g, n)
				return 8
			}, 1
		}
	}
}

func initIncDec8() {
	for i := uint8(0); i < 8; i++ {
		incOp := 0x04 + 8*i
		decOp := 0x05 + 8*i
		idx := i
		mainTable[incOp] = func(b *bus.Bus, immAddr uint16) (execFunc, int) {
			return func(c *CPU) int {
				result := c.alu.Inc8(read8(c, idx))
				write8(c, idx, result)
				if idx == 6 {
					return 12
				}
				return 4
			}, 0
		}
		mainTable[decOp] = func(b *bus.Bus, immAddr uint16) (execFunc, int) {
			return func(c *CPU) int {
				result := c.alu.Dec8(read8(c, idx))
				write8(c, idx, result)
				if idx == 6 {
					return 12
				}
				return 4
			}, 0
		}
	}
}

func initLoadImmediate8() {
	for i := uint8(0); i < 8; i++ {
		op := 0x06 + 8*i
		idx := i
		mainTable[op] = func(b *bus.Bus, immAddr uint16) (execFunc, int) {
			n := b.Read(immAddr)
			return func(c *CPU) int {
				write8(c, idx, n)
				if idx == 6 {
					return 12
				}
				return 8
			}, 1
		}
	}
}

// initAccumulatorRotates implements RLCA/RRCA/RLA/RRA: Z always 0, N=H=0, C
// from the rotated-out bit (spec §4.3).
func initAccumulatorRotates() {
	mainTable[0x07] = func(b *bus.Bus, immAddr uint16) (execFunc, int) {
		return func(c *CPU) int {
			a := c.regs.Get8(register.A)
			carry := a&0x80 != 0
			result := a << 1
			if carry {
				result |= 1
			}
			c.regs.Set8(register.A, result)
			c.alu.RotateResultFlags(result, carry, true)
			return 4
		}, 0
	}
	mainTable[0x0F] = func(b *bus.Bus, immAddr uint16) (execFunc, int) {
		return func(c *CPU) int {
			a := c.regs.Get8(register.A)
			carry := a&1 != 0
			result := a >> 1
			if carry {
				result |= 0x80
			}
			c.regs.Set8(register.A, result)
			c.alu.RotateResultFlags(result, carry, true)
			return 4
		}, 0
	}
	mainTable[0x17] = func(b *bus.Bus, immAddr uint16) (execFunc, int) {
		return func(c *CPU) int {
			a := c.regs.Get8(register.A)
			carryIn := c.regs.Flag(register.FlagCarry)
			carryOut := a&0x80 != 0
			result := a << 1
			if carryIn {
				result |= 1
			}
			c.regs.Set8(register.A, result)
			c.alu.RotateResultFlags(result, carryOut, true)
			return 4
		}, 0
	}
	mainTable[0x1F] = func(b *bus.Bus, immAddr uint16) (execFunc, int) {
		return func(c *CPU) int {
			a := c.regs.Get8(register.A)
			carryIn := c.regs.Flag(register.FlagCarry)
			carryOut := a&1 != 0
			result := a >> 1
			if carryIn {
				result |= 0x80
			}
			c.regs.Set8(register.A, result)
			c.alu.RotateResultFlags(result, carryOut, true)
			return 4
		}, 0
	}
}

func initLoad16ImmediateAndIncDec() {
	for i := uint8(0); i < 4; i++ {
		rp := rpByIndex[i]
		loadOp := 0x01 + 0x10*i
		incOp := 0x03 + 0x10*i
		decOp := 0x0B + 0x10*i
		addHLOp := 0x09 + 0x10*i

		mainTable[loadOp] = func(b *bus.Bus, immAddr uint16) (execFunc, int) {
			low := b.Read(immAddr)
			high := b.Read(immAddr + 1)
			value := bit.Combine(high, low)
			return func(c *CPU) int {
				c.regs.Set16(rp, value)
				return 12
			}, 2
		}
		mainTable[incOp] = func(b *bus.Bus, immAddr uint16) (execFunc, int) {
			return func(c *CPU) int {
				c.regs.Set16(rp, c.regs.Get16(rp)+1)
				return 8
			}, 0
		}
		mainTable[decOp] = func(b *bus.Bus, immAddr uint16) (execFunc, int) {
			return func(c *CPU) int {
				c.regs.Set16(rp, c.regs.Get16(rp)-1)
				return 8
			}, 0
		}
		mainTable[addHLOp] = func(b *bus.Bus, immAddr uint16) (execFunc, int) {
			return func(c *CPU) int {
				hl := c.regs.Get16(register.HL)
				result := c.alu.AddHL(hl, c.regs.Get16(rp))
				c.regs.Set16(register.HL, result)
				return 8
			}, 0
		}
	}
}

func initPushPop() {
	for i := uint8(0); i < 4; i++ {
		rp := rp2ByIndex[i]
		pushOp := 0xC5 + 0x10*i
		popOp := 0xC1 + 0x10*i

		mainTable[pushOp] = func(b *bus.Bus, immAddr uint16) (execFunc, int) {
			return func(c *CPU) int {
				c.Push(c.regs.Get16(rp))
				return 16
			}, 0
		}
		mainTable[popOp] = func(b *bus.Bus, immAddr uint16) (execFunc, int) {
			return func(c *CPU) int {
				c.regs.Set16(rp, c.Pop())
				return 12
			}, 0
		}
	}
}

func initJumpsAndCalls() {
	mainTable[0x18] = func(b *bus.Bus, immAddr uint16) (execFunc, int) {
		offset := int8(b.Read(immAddr))
		return func(c *CPU) int {
			target := uint16(int32(c.regs.PC()) + int32(offset))
			c.Hooks.Emit(events.JumpRelative, events.JumpRelativeEvent{PC: c.regs.PC(), SP: c.regs.SP(), Offset: offset})
			c.regs.SetPC(target)
			return 12
		}, 1
	}
	for i := uint8(0); i < 4; i++ {
		cond := conditionByCC[i]
		op := 0x20 + 8*i
		mainTable[op] = func(b *bus.Bus, immAddr uint16) (execFunc, int) {
			offset := int8(b.Read(immAddr))
			return func(c *CPU) int {
				if !c.conditionMet(cond) {
					return 8
				}
				target := uint16(int32(c.regs.PC()) + int32(offset))
				c.Hooks.Emit(events.JumpRelative, events.JumpRelativeEvent{PC: c.regs.PC(), SP: c.regs.SP(), Offset: offset})
				c.regs.SetPC(target)
				return 12
			}, 1
		}
	}

	mainTable[0xC3] = func(b *bus.Bus, immAddr uint16) (execFunc, int) {
		low := b.Read(immAddr)
		high := b.Read(immAddr + 1)
		target := bit.Combine(high, low)
		return func(c *CPU) int {
			c.Hooks.Emit(events.Jump, events.JumpEvent{PC: c.regs.PC(), SP: c.regs.SP(), Target: target})
			c.regs.SetPC(target)
			return 16
		}, 2
	}
	mainTable[0xE9] = func(b *bus.Bus, immAddr uint16) (execFunc, int) {
		return func(c *CPU) int {
			target := c.regs.Get16(register.HL)
			c.regs.SetPC(target)
			return 4
		}, 0
	}
	ccJumpOps := [4]uint16{0xC2, 0xCA, 0xD2, 0xDA}
	for i, op := range ccJumpOps {
		cond := conditionByCC[i]
		o := op
		mainTable[o] = func(b *bus.Bus, immAddr uint16) (execFunc, int) {
			low := b.Read(immAddr)
			high := b.Read(immAddr + 1)
			target := bit.Combine(high, low)
			return func(c *CPU) int {
				if !c.conditionMet(cond) {
					return 12
				}
				c.Hooks.Emit(events.Jump, events.JumpEvent{PC: c.regs.PC(), SP: c.regs.SP(), Target: target})
				c.regs.SetPC(target)
				return 16
			}, 2
		}
	}

	mainTable[0xCD] = func(b *bus.Bus, immAddr uint16) (execFunc, int) {
		low := b.Read(immAddr)
		high := b.Read(immAddr + 1)
		target := bit.Combine(high, low)
		return func(c *CPU) int {
			c.Hooks.Emit(events.Call, events.CallEvent{PC: c.regs.PC(), SP: c.regs.SP(), Target: target})
			c.Push(c.regs.PC())
			c.regs.SetPC(target)
			return 24
		}, 2
	}
	ccCallOps := [4]uint16{0xC4, 0xCC, 0xD4, 0xDC}
	for i, op := range ccCallOps {
		cond := conditionByCC[i]
		o := op
		mainTable[o] = func(b *bus.Bus, immAddr uint16) (execFunc, int) {
			low := b.Read(immAddr)
			high := b.Read(immAddr + 1)
			target := bit.Combine(high, low)
			return func(c *CPU) int {
				if !c.conditionMet(cond) {
					return 12
				}
				c.Hooks.Emit(events.Call, events.CallEvent{PC: c.regs.PC(), SP: c.regs.SP(), Target: target})
				c.Push(c.regs.PC())
				c.regs.SetPC(target)
				return 24
			}, 2
		}
	}

	mainTable[0xC9] = func(b *bus.Bus, immAddr uint16) (execFunc, int) {
		return func(c *CPU) int {
			target := c.Pop()
			c.Hooks.Emit(events.Ret, events.RetEvent{PC: c.regs.PC(), SP: c.regs.SP(), Target: target})
			c.regs.SetPC(target)
			return 16
		}, 0
	}
	mainTable[0xD9] = func(b *bus.Bus, immAddr uint16) (execFunc, int) {
		return func(c *CPU) int {
			target := c.Pop()
			c.Hooks.Emit(events.Ret, events.RetEvent{PC: c.regs.PC(), SP: c.regs.SP(), Target: target, FromInterrupt: true})
			c.regs.SetPC(target)
			c.SetIME(true)
			return 16
		}, 0
	}
	ccRetOps := [4]uint16{0xC0, 0xC8, 0xD0, 0xD8}
	for i, op := range ccRetOps {
		cond := conditionByCC[i]
		o := op
		mainTable[o] = func(b *bus.Bus, immAddr uint16) (execFunc, int) {
			return func(c *CPU) int {
				if !c.conditionMet(cond) {
					return 8
				}
				target := c.Pop()
				c.Hooks.Emit(events.Ret, events.RetEvent{PC: c.regs.PC(), SP: c.regs.SP(), Target: target})
				c.regs.SetPC(target)
				return 20
			}, 0
		}
	}
}

func initRestart() {
	for i := uint8(0); i < 8; i++ {
		op := 0xC7 + 8*i
		target := uint16(i) * 8
		mainTable[op] = func(b *bus.Bus, immAddr uint16) (execFunc, int) {
			return func(c *CPU) int {
				c.Push(c.regs.PC())
				c.regs.SetPC(target)
				return 16
			}, 0
		}
	}
}

func initLoadIndirectForms() {
	mainTable[0x02] = simple(8, func(c *CPU) { c.Bus.Write(c.regs.Get16(register.BC), c.regs.Get8(register.A)) })
	mainTable[0x12] = simple(8, func(c *CPU) { c.Bus.Write(c.regs.Get16(register.DE), c.regs.Get8(register.A)) })
	mainTable[0x0A] = simple(8, func(c *CPU) { c.regs.Set8(register.A, c.Bus.Read(c.regs.Get16(register.BC))) })
	mainTable[0x1A] = simple(8, func(c *CPU) { c.regs.Set8(register.A, c.Bus.Read(c.regs.Get16(register.DE))) })

	mainTable[0x22] = simple(8, func(c *CPU) {
		hl := c.regs.Get16(register.HL)
		c.Bus.Write(hl, c.regs.Get8(register.A))
		c.regs.Set16(register.HL, hl+1)
	})
	mainTable[0x2A] = simple(8, func(c *CPU) {
		hl := c.regs.Get16(register.HL)
		c.regs.Set8(register.A, c.Bus.Read(hl))
		c.regs.Set16(register.HL, hl+1)
	})
	mainTable[0x32] = simple(8, func(c *CPU) {
		hl := c.regs.Get16(register.HL)
		c.Bus.Write(hl, c.regs.Get8(register.A))
		c.regs.Set16(register.HL, hl-1)
	})
	mainTable[0x3A] = simple(8, func(c *CPU) {
		hl := c.regs.Get16(register.HL)
		c.regs.Set8(register.A, c.Bus.Read(hl))
		c.regs.Set16(register.HL, hl-1)
	})

	mainTable[0xE2] = simple(8, func(c *CPU) {
		c.Bus.Write(0xFF00+uint16(c.regs.Get8(register.C)), c.regs.Get8(register.A))
	})
	mainTable[0xF2] = simple(8, func(c *CPU) {
		c.regs.Set8(register.A, c.Bus.Read(0xFF00+uint16(c.regs.Get8(register.C))))
	})

	mainTable[0xE0] = func(b *bus.Bus, immAddr uint16) (execFunc, int) {
		n := b.Read(immAddr)
		return func(c *CPU) int {
			c.Bus.Write(0xFF00+uint16(n), c.regs.Get8(register.A))
			return 12
		}, 1
	}
	mainTable[0xF0] = func(b *bus.Bus, immAddr uint16) (execFunc, int) {
		n := b.Read(immAddr)
		return func(c *CPU) int {
			c.regs.Set8(register.A, c.Bus.Read(0xFF00+uint16(n)))
			return 12
		}, 1
	}

	mainTable[0xEA] = func(b *bus.Bus, immAddr uint16) (execFunc, int) {
		low := b.Read(immAddr)
		high := b.Read(immAddr + 1)
		target := bit.Combine(high, low)
		return func(c *CPU) int {
			c.Bus.Write(target, c.regs.Get8(register.A))
			return 16
		}, 2
	}
	mainTable[0xFA] = func(b *bus.Bus, immAddr uint16) (execFunc, int) {
		low := b.Read(immAddr)
		high := b.Read(immAddr + 1)
		target := bit.Combine(high, low)
		return func(c *CPU) int {
			c.regs.Set8(register.A, c.Bus.Read(target))
			return 16
		}, 2
	}

	mainTable[0x08] = func(b *bus.Bus, immAddr uint16) (execFunc, int) {
		low := b.Read(immAddr)
		high := b.Read(immAddr + 1)
		target := bit.Combine(high, low)
		return func(c *CPU) int {
			c.Bus.WriteWord(target, c.regs.SP())
			return 20
		}, 2
	}
}

// simple builds a builderFunc for a fixed-cycle, no-immediate operation.
func simple(cycles int, fn func(c *CPU)) builderFunc {
	return func(b *bus.Bus, immAddr uint16) (execFunc, int) {
		return func(c *CPU) int {
			fn(c)
			return cycles
		}, 0
	}
}

func initMisc() {
	mainTable[0x00] = simple(4, func(c *CPU) {})

	// 0xCB prefix escape: the next byte selects the cbTable entry.
	mainTable[0xCB] = func(b *bus.Bus, immAddr uint16) (execFunc, int) {
		return cbTable[b.Read(immAddr)], 1
	}

	mainTable[0x10] = func(b *bus.Bus, immAddr uint16) (execFunc, int) {
		return func(c *CPU) int {
			c.Halt()
			return 4
		}, 1
	}

	mainTable[0x27] = simple(4, func(c *CPU) {
		c.regs.Set8(register.A, c.alu.DAA(c.regs.Get8(register.A)))
	})
	mainTable[0x2F] = simple(4, func(c *CPU) {
		c.regs.Set8(register.A, ^c.regs.Get8(register.A))
		c.regs.SetFlag(register.FlagSubtract, true)
		c.regs.SetFlag(register.FlagHalfCarry, true)
	})
	mainTable[0x37] = simple(4, func(c *CPU) {
		c.regs.SetFlag(register.FlagSubtract, false)
		c.regs.SetFlag(register.FlagHalfCarry, false)
		c.regs.SetFlag(register.FlagCarry, true)
	})
	mainTable[0x3F] = simple(4, func(c *CPU) {
		c.regs.SetFlag(register.FlagSubtract, false)
		c.regs.SetFlag(register.FlagHalfCarry, false)
		c.regs.SetFlag(register.FlagCarry, !c.regs.Flag(register.FlagCarry))
	})

	mainTable[0xF3] = simple(4, func(c *CPU) { c.SetIME(false) })
	mainTable[0xFB] = simple(4, func(c *CPU) { c.ScheduleIME() })

	mainTable[0xF9] = simple(8, func(c *CPU) { c.regs.SetSP(c.regs.Get16(register.HL)) })

	mainTable[0xE8] = func(b *bus.Bus, immAddr uint16) (execFunc, int) {
		offset := int8(b.Read(immAddr))
		return func(c *CPU) int {
			c.regs.SetSP(c.alu.AddSPSigned(c.regs.SP(), offset))
			return 16
		}, 1
	}
	mainTable[0xF8] = func(b *bus.Bus, immAddr uint16) (execFunc, int) {
		offset := int8(b.Read(immAddr))
		return func(c *CPU) int {
			c.regs.Set16(register.HL, c.alu.AddSPSigned(c.regs.SP(), offset))
			return 12
		}, 1
	}
}
