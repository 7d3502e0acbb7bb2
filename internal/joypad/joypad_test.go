package joypad

import (
	"testing"

	"github.com/kaelstrom/gbcore/internal/addr"
	"github.com/kaelstrom/gbcore/internal/bus"
	"github.com/stretchr/testify/assert"
)

type recordingIRQ struct{ count int }

func (r *recordingIRQ) RequestInterrupt(addr.Interrupt) { r.count++ }

// A group is selected when its select bit (bit4 = d-pad, bit5 = buttons)
// reads 0, per the teacher's updateJoypadRegister.

func TestReadSelectsCorrectGroup(t *testing.T) {
	b := bus.New(false)
	irq := &recordingIRQ{}
	j := New(b, irq)

	j.PressKey(A)
	j.PressKey(Up)

	b.Write(addr.P1, 0x10) // bit4=1(dpad not selected), bit5=0(buttons selected)
	assert.Equal(t, uint8(0xDE), b.Read(addr.P1), "A is held low, B/Select/Start read high")

	b.Write(addr.P1, 0x20) // bit4=0(dpad selected), bit5=1(buttons not selected)
	assert.Equal(t, uint8(0xEB), b.Read(addr.P1), "Up is held low, the rest read high")
}

func TestReleaseRestoresHighBit(t *testing.T) {
	b := bus.New(false)
	irq := &recordingIRQ{}
	j := New(b, irq)

	j.PressKey(Start)
	b.Write(addr.P1, 0x10) // select buttons
	assert.Equal(t, uint8(0xD7), b.Read(addr.P1))

	j.ReleaseKey(Start)
	assert.Equal(t, uint8(0xDF), b.Read(addr.P1))
}

func TestPressRequestsInterruptOnAnyFallingEdge(t *testing.T) {
	b := bus.New(false)
	irq := &recordingIRQ{}
	j := New(b, irq)

	j.PressKey(B)
	assert.Equal(t, 1, irq.count, "a button press requests Joypad regardless of P1 selection")

	j.PressKey(B) // already pressed, no new falling edge
	assert.Equal(t, 1, irq.count)

	j.PressKey(Up)
	assert.Equal(t, 2, irq.count)
}

func TestNoGroupSelectedReadsAllHigh(t *testing.T) {
	b := bus.New(false)
	irq := &recordingIRQ{}
	j := New(b, irq)
	j.PressKey(A)

	b.Write(addr.P1, 0x30) // neither group selected
	assert.Equal(t, uint8(0xFF), b.Read(addr.P1))
}
