// Package joypad implements the P1 register's direction/button group
// select logic and the PressKey/ReleaseKey surface an external input
// provider drives (spec §1, SPEC_FULL's "Joypad register selection
// semantics" supplement).
//
// Grounded on the teacher's jeebie/memory/joypad.go (per-key bit layout)
// and jeebie/memory/mem.go's updateJoypadRegister (bit4/bit5 group select,
// active-low key bits).
package joypad

import (
	"github.com/kaelstrom/gbcore/internal/addr"
	"github.com/kaelstrom/gbcore/internal/bus"
)

// Key identifies one of the eight physical buttons.
type Key uint8

const (
	Right Key = iota
	Left
	Up
	Down
	A
	B
	Select
	Start
)

// InterruptSource lets the joypad request the Joypad interrupt without
// importing the cpu package, mirroring video.InterruptSource.
type InterruptSource interface {
	RequestInterrupt(source addr.Interrupt)
}

// Joypad tracks button/d-pad state (active-low: 1 = released) and the P1
// select bits, and installs itself as the 0xFF00 bus device.
type Joypad struct {
	buttons       uint8
	dpad          uint8
	selectButtons bool
	selectDpad    bool

	irq InterruptSource
}

// New constructs a Joypad with all keys released and installs it at 0xFF00.
func New(b *bus.Bus, irq InterruptSource) *Joypad {
	j := &Joypad{buttons: 0x0F, dpad: 0x0F, irq: irq}
	device := &bus.FuncDevice{
		Readable: true, Writable: true,
		ReadFn:  j.read,
		WriteFn: j.write,
	}
	b.PushDevice(addr.P1, addr.P1, device, true)
	return j
}

func (j *Joypad) read(uint16) uint8 {
	result := uint8(0xC0) // bits 6-7 unused, read as 1
	if !j.selectDpad {
		result |= 0x10
	}
	if !j.selectButtons {
		result |= 0x20
	}
	switch {
	case j.selectDpad && j.selectButtons:
		result |= j.dpad & j.buttons
	case j.selectDpad:
		result |= j.dpad
	case j.selectButtons:
		result |= j.buttons
	default:
		result |= 0x0F
	}
	return result
}

func (j *Joypad) write(_ uint16, value uint8) {
	j.selectDpad = value&0x10 == 0
	j.selectButtons = value&0x20 == 0
}

// PressKey clears key's bit (active-low) and requests the Joypad interrupt
// on the 1->0 transition, matching the teacher's HandleKeyPress (which
// fires on any button-bit falling edge, not gated on the current P1
// selection — the two keyboard groups are independent input lines).
func (j *Joypad) PressKey(key Key) {
	oldButtons, oldDpad := j.buttons, j.dpad
	j.setBit(key, false)
	if oldButtons&^j.buttons|oldDpad&^j.dpad != 0 {
		j.irq.RequestInterrupt(addr.JoypadInterrupt)
	}
}

// ReleaseKey sets key's bit back to released.
func (j *Joypad) ReleaseKey(key Key) {
	j.setBit(key, true)
}

func (j *Joypad) setBit(key Key, released bool) {
	var mask uint8
	var group *uint8
	switch key {
	case Right:
		mask, group = 0x01, &j.dpad
	case Left:
		mask, group = 0x02, &j.dpad
	case Up:
		mask, group = 0x04, &j.dpad
	case Down:
		mask, group = 0x08, &j.dpad
	case A:
		mask, group = 0x01, &j.buttons
	case B:
		mask, group = 0x02, &j.buttons
	case Select:
		mask, group = 0x04, &j.buttons
	case Start:
		mask, group = 0x08, &j.buttons
	}
	if released {
		*group |= mask
	} else {
		*group &^= mask
	}
}
