package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPushDevicePriority(t *testing.T) {
	b := New(false)

	lower := NewFixedArrayDevice(0xC000, make([]byte, 0x10), true, true)
	lower.Data[0] = 0x11
	b.PushDevice(0xC000, 0xC00F, lower, false)
	assert.Equal(t, uint8(0x11), b.Read(0xC000))

	upper := NewFixedArrayDevice(0xC000, make([]byte, 0x10), true, true)
	upper.Data[0] = 0x22
	b.PushDevice(0xC000, 0xC00F, upper, false)
	assert.Equal(t, uint8(0x22), b.Read(0xC000), "the most recently pushed device wins")

	b.PopFrontDevice(0xC000, 0xC00F)
	assert.Equal(t, uint8(0x11), b.Read(0xC000), "popping exposes the prior device again")
}

func TestLockedAddressRejectsPushAndPop(t *testing.T) {
	b := New(false)
	d := NewFixedArrayDevice(0xFF00, make([]byte, 1), true, true)
	b.PushDevice(0xFF00, 0xFF00, d, true)

	assert.Panics(t, func() {
		b.PushDevice(0xFF00, 0xFF00, d, false)
	})
	assert.Panics(t, func() {
		b.PopFrontDevice(0xFF00, 0xFF00)
	})
}

func TestUnmappedAccessPanicsUnlessSoftFail(t *testing.T) {
	strict := New(false)
	assert.Panics(t, func() { strict.Read(0x9000) })

	soft := New(true)
	assert.Equal(t, uint8(0xFF), soft.Read(0x9000))
	soft.Write(0x9000, 0x42) // must not panic, write is silently dropped
}

func TestFailedWriteRoutesToHandler(t *testing.T) {
	b := New(false)
	d := NewFixedArrayDevice(0x0000, make([]byte, 1), true, false)

	var gotAddr uint16
	var gotValue uint8
	d.OnFailedWrite = func(address uint16, value uint8) {
		gotAddr, gotValue = address, value
	}
	b.PushDevice(0x0000, 0x0000, d, false)

	b.Write(0x0000, 0x7F)
	assert.Equal(t, uint16(0x0000), gotAddr)
	assert.Equal(t, uint8(0x7F), gotValue)
	assert.Equal(t, uint8(0x00), d.Data[0], "a rejected write must not mutate the backing buffer")
}

func TestReadWriteWordLittleEndian(t *testing.T) {
	b := New(false)
	d := NewFixedArrayDevice(0xC000, make([]byte, 4), true, true)
	b.PushDevice(0xC000, 0xC003, d, false)

	b.WriteWord(0xC000, 0xBEEF)
	assert.Equal(t, uint8(0xEF), b.Read(0xC000))
	assert.Equal(t, uint8(0xBE), b.Read(0xC001))
	assert.Equal(t, uint16(0xBEEF), b.ReadWord(0xC000))
}

func TestSwitchingArrayDeviceSwitch(t *testing.T) {
	bank0 := []byte{1, 2, 3, 4}
	bank1 := []byte{5, 6, 7, 8}
	d := NewSwitchingArrayDevice(0x4000, bank0, true, false)

	b := New(false)
	b.PushDevice(0x4000, 0x4003, d, false)
	assert.Equal(t, uint8(1), b.Read(0x4000))

	d.Switch(bank1)
	assert.Equal(t, uint8(5), b.Read(0x4000))

	assert.Panics(t, func() { d.Switch([]byte{1, 2, 3}) }, "bank length mismatch must panic")
}
