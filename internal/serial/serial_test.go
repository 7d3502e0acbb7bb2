package serial

import (
	"testing"

	"github.com/kaelstrom/gbcore/internal/addr"
	"github.com/kaelstrom/gbcore/internal/bus"
	"github.com/stretchr/testify/assert"
)

type recordingIRQ struct{ count int }

func (r *recordingIRQ) RequestInterrupt(addr.Interrupt) { r.count++ }

func TestTransferCompletesImmediatelyAndRequestsInterrupt(t *testing.T) {
	b := bus.New(false)
	irq := &recordingIRQ{}
	New(b, irq)

	b.Write(addr.SB, 0x42)
	b.Write(addr.SC, 0x81) // start (bit7) + internal clock (bit0)

	assert.Equal(t, uint8(0xFF), b.Read(addr.SB), "no peer responds, SB reads back 0xFF")
	assert.Equal(t, uint8(0x00), b.Read(addr.SC)&0x80, "start bit clears on completion")
	assert.Equal(t, 1, irq.count)
}

func TestTransferRequiresBothStartAndClockBits(t *testing.T) {
	b := bus.New(false)
	irq := &recordingIRQ{}
	New(b, irq)

	b.Write(addr.SB, 0x11)
	b.Write(addr.SC, 0x80) // start without the clock-source bit

	assert.Equal(t, uint8(0x11), b.Read(addr.SB), "no transfer starts, SB unchanged")
	assert.Equal(t, 0, irq.count)
}
