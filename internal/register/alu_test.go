package register

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdd8Flags(t *testing.T) {
	t.Run("half carry without full carry", func(t *testing.T) {
		regs := &File{}
		alu := New(regs)

		result := alu.Add8(0x0F, 0x01, false)
		assert.Equal(t, uint8(0x10), result)
		assert.False(t, regs.Flag(FlagZero))
		assert.False(t, regs.Flag(FlagSubtract))
		assert.True(t, regs.Flag(FlagHalfCarry))
		assert.False(t, regs.Flag(FlagCarry))
	})

	t.Run("carry and zero", func(t *testing.T) {
		regs := &File{}
		alu := New(regs)

		result := alu.Add8(0xFF, 0x01, false)
		assert.Equal(t, uint8(0x00), result)
		assert.True(t, regs.Flag(FlagZero))
		assert.True(t, regs.Flag(FlagHalfCarry))
		assert.True(t, regs.Flag(FlagCarry))
	})

	t.Run("ADC folds carry in", func(t *testing.T) {
		regs := &File{}
		alu := New(regs)

		result := alu.Add8(0x0E, 0x01, true)
		assert.Equal(t, uint8(0x10), result)
		assert.True(t, regs.Flag(FlagHalfCarry))
	})
}

func TestSub8Flags(t *testing.T) {
	t.Run("low-nibble borrow sets half carry but not carry", func(t *testing.T) {
		regs := &File{}
		alu := New(regs)

		result := alu.Sub8(0x10, 0x01, false)
		assert.Equal(t, uint8(0x0F), result)
		assert.True(t, regs.Flag(FlagSubtract))
		assert.True(t, regs.Flag(FlagHalfCarry))
		assert.False(t, regs.Flag(FlagCarry))
	})

	t.Run("equal operands zero with no borrow", func(t *testing.T) {
		regs := &File{}
		alu := New(regs)

		result := alu.Sub8(0x42, 0x42, false)
		assert.Equal(t, uint8(0), result)
		assert.True(t, regs.Flag(FlagZero))
		assert.False(t, regs.Flag(FlagHalfCarry))
		assert.False(t, regs.Flag(FlagCarry))
	})

	t.Run("SBC folds borrow in", func(t *testing.T) {
		regs := &File{}
		alu := New(regs)

		result := alu.Sub8(0x00, 0x00, true)
		assert.Equal(t, uint8(0xFF), result)
		assert.True(t, regs.Flag(FlagCarry))
		assert.True(t, regs.Flag(FlagHalfCarry))
	})
}

func TestIncDec8DoNotTouchCarry(t *testing.T) {
	regs := &File{}
	alu := New(regs)
	regs.SetFlag(FlagCarry, true)

	alu.Inc8(0xFF)
	assert.True(t, regs.Flag(FlagZero))
	assert.True(t, regs.Flag(FlagCarry), "INC must not clear a pre-existing carry")

	alu.Dec8(0x01)
	assert.True(t, regs.Flag(FlagZero))
	assert.True(t, regs.Flag(FlagCarry), "DEC must not clear a pre-existing carry")
}

func TestAddSPSignedBoundary(t *testing.T) {
	regs := &File{}
	alu := New(regs)

	result := alu.AddSPSigned(0x0000, -1)
	assert.Equal(t, uint16(0xFFFF), result)
	// Low-byte add 0x00 + 0xFF carries out of neither bit 3 nor bit 7.
	assert.False(t, regs.Flag(FlagHalfCarry))
	assert.False(t, regs.Flag(FlagCarry))
	assert.False(t, regs.Flag(FlagZero), "ADD SP,e8 always clears Z")
}

func TestDAAAfterAddition(t *testing.T) {
	regs := &File{}
	alu := New(regs)

	// 0x45 + 0x38 = 0x7D in binary: no half-carry, but the low nibble 0xD
	// is not valid BCD; DAA should bring it back to 0x83.
	a := alu.Add8(0x45, 0x38, false)
	result := alu.DAA(a)
	assert.Equal(t, uint8(0x83), result)
	assert.False(t, regs.Flag(FlagCarry))
}

func TestBitTestFlagsLeavesCarry(t *testing.T) {
	regs := &File{}
	regs.SetFlag(FlagCarry, true)
	alu := New(regs)

	alu.BitTestFlags(false)
	assert.True(t, regs.Flag(FlagZero))
	assert.True(t, regs.Flag(FlagHalfCarry))
	assert.True(t, regs.Flag(FlagCarry), "BIT must not touch C")
}
