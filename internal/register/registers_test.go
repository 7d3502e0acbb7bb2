package register

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet8FMasksLowNibble(t *testing.T) {
	var r File
	r.Set8(F, 0xFF)
	assert.Equal(t, uint8(0xF0), r.Get8(F))
}

func TestSet16AFClearsLowNibble(t *testing.T) {
	var r File
	r.Set16(AF, 0x1234)
	assert.Equal(t, uint16(0x1230), r.Get16(AF))
}

func TestRegisterPairsAliasHalves(t *testing.T) {
	var r File
	r.Set16(HL, 0xBEEF)
	assert.Equal(t, uint8(0xBE), r.Get8(H))
	assert.Equal(t, uint8(0xEF), r.Get8(L))

	r.Set8(H, 0x12)
	assert.Equal(t, uint16(0x12EF), r.Get16(HL))
}

func TestIncPC(t *testing.T) {
	var r File
	r.SetPC(0x0100)
	got := r.IncPC(3)
	assert.Equal(t, uint16(0x0103), got)
	assert.Equal(t, uint16(0x0103), r.PC())
}
