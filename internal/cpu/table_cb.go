package cpu

import "github.com/kaelstrom/gbcore/internal/register"

// cbOp is one of the eight CB rotate/shift/swap group operations, returning
// the result and the bit shifted out (or, for SWAP, always false).
type cbOp func(c *CPU, v uint8) (result uint8, carryOut bool)

func cbRLC(c *CPU, v uint8) (uint8, bool) {
	carry := v&0x80 != 0
	result := v << 1
	if carry {
		result |= 1
	}
	return result, carry
}

func cbRRC(c *CPU, v uint8) (uint8, bool) {
	carry := v&1 != 0
	result := v >> 1
	if carry {
		result |= 0x80
	}
	return result, carry
}

func cbRL(c *CPU, v uint8) (uint8, bool) {
	carryIn := c.regs.Flag(register.FlagCarry)
	carryOut := v&0x80 != 0
	result := v << 1
	if carryIn {
		result |= 1
	}
	return result, carryOut
}

func cbRR(c *CPU, v uint8) (uint8, bool) {
	carryIn := c.regs.Flag(register.FlagCarry)
	carryOut := v&1 != 0
	result := v >> 1
	if carryIn {
		result |= 0x80
	}
	return result, carryOut
}

func cbSLA(c *CPU, v uint8) (uint8, bool) {
	carryOut := v&0x80 != 0
	return v << 1, carryOut
}

func cbSRA(c *CPU, v uint8) (uint8, bool) {
	carryOut := v&1 != 0
	return (v >> 1) | (v & 0x80), carryOut
}

func cbSwap(c *CPU, v uint8) (uint8, bool) {
	return (v << 4) | (v >> 4), false
}

func cbSRL(c *CPU, v uint8) (uint8, bool) {
	carryOut := v&1 != 0
	return v >> 1, carryOut
}

var cbGroups = [8]cbOp{cbRLC, cbRRC, cbRL, cbRR, cbSLA, cbSRA, cbSwap, cbSRL}

func init() {
	for group := uint8(0); group < 8; group++ {
		for reg := uint8(0); reg < 8; reg++ {
			op := group*8 + reg
			fn, idx := cbGroups[group], reg
			cbTable[op] = func(c *CPU) int {
				result, carry := fn(c, read8(c, idx))
				write8(c, idx, result)
				c.alu.ShiftResultFlags(result, carry)
				if idx == 6 {
					return 16
				}
				return 8
			}
		}
	}

	for b := uint8(0); b < 8; b++ {
		for reg := uint8(0); reg < 8; reg++ {
			bitOp := uint8(0x40) + b*8 + reg
			resOp := uint8(0x80) + b*8 + reg
			setOp := uint8(0xC0) + b*8 + reg
			bitIndex, idx := b, reg

			cbTable[bitOp] = func(c *CPU) int {
				value := read8(c, idx)
				c.alu.BitTestFlags(value&(1<<bitIndex) != 0)
				if idx == 6 {
					return 12
				}
				return 8
			}
			cbTable[resOp] = func(c *CPU) int {
				value := read8(c, idx)
				write8(c, idx, value&^(1<<bitIndex))
				if idx == 6 {
					return 16
				}
				return 8
			}
			cbTable[setOp] = func(c *CPU) int {
				value := read8(c, idx)
				write8(c, idx, value|(1<<bitIndex))
				if idx == 6 {
					return 16
				}
				return 8
			}
		}
	}
}
