package cpu

import (
	"testing"

	"github.com/kaelstrom/gbcore/internal/bus"
	"github.com/stretchr/testify/assert"
)

// invalidMainOpcodes lists the main-table holes spec §4.3 calls out.
var invalidMainOpcodes = map[uint8]bool{
	0xD3: true, 0xDB: true, 0xDD: true, 0xE3: true, 0xE4: true,
	0xEB: true, 0xEC: true, 0xED: true, 0xF4: true, 0xFC: true, 0xFD: true,
}

func TestMainTableCoversEveryOpcode(t *testing.T) {
	for op := 0; op <= 0xFF; op++ {
		opcode := uint8(op)
		if invalidMainOpcodes[opcode] {
			assert.Nil(t, mainTable[opcode], "opcode 0x%02X should have no table entry", opcode)
		} else {
			assert.NotNil(t, mainTable[opcode], "opcode 0x%02X should decode", opcode)
		}
	}
}

func TestCBTableCoversEveryOpcode(t *testing.T) {
	for op := 0; op <= 0xFF; op++ {
		assert.NotNil(t, cbTable[uint8(op)], "CB opcode 0x%02X should decode", op)
	}
}

func TestFetchInvalidOpcodeReportsOneByteConsumed(t *testing.T) {
	ram := make([]byte, 0x10)
	ram[0] = 0xD3
	b := bus.New(false)
	b.PushDevice(0x0000, 0x000F, bus.NewFixedArrayDevice(0x0000, ram, true, true), false)

	_, length, valid := Fetch(0x0000, b)
	assert.False(t, valid)
	assert.Equal(t, 1, length)
}

func TestFetchCBEscapeConsumesTwoBytes(t *testing.T) {
	ram := make([]byte, 0x10)
	ram[0] = 0xCB
	ram[1] = 0x00 // RLC B
	b := bus.New(false)
	b.PushDevice(0x0000, 0x000F, bus.NewFixedArrayDevice(0x0000, ram, true, true), false)

	exec, length, valid := Fetch(0x0000, b)
	assert.True(t, valid)
	assert.Equal(t, 2, length)
	assert.NotNil(t, exec)
}

func TestFetchImmediateLengths(t *testing.T) {
	ram := make([]byte, 0x10)
	ram[0] = 0x3E // LD A,n
	ram[1] = 0x42
	ram[2] = 0x01 // LD BC,nn
	ram[3] = 0xEF
	ram[4] = 0xBE

	b := bus.New(false)
	b.PushDevice(0x0000, 0x000F, bus.NewFixedArrayDevice(0x0000, ram, true, true), false)

	_, length, valid := Fetch(0x0000, b)
	assert.True(t, valid)
	assert.Equal(t, 2, length)

	_, length, valid = Fetch(0x0002, b)
	assert.True(t, valid)
	assert.Equal(t, 3, length)
}
