package cpu

import (
	"github.com/kaelstrom/gbcore/internal/addr"
	"github.com/kaelstrom/gbcore/internal/bus"
	"github.com/kaelstrom/gbcore/internal/events"
)

// LoadBootROM maps bin over 0x0000-0x00FF and, for CGB-sized images
// (length > 0x200), maps bytes from offset 0x200 on over 0x0200-0x08FF, per
// spec §6; image bytes 0x100-0x1FF are not mapped. The
// overlay sits on top of whatever cartridge ROM device is already
// installed and is popped in one step by a nonzero write to 0xFF50.
func (c *CPU) LoadBootROM(bin []byte) {
	low := bin
	if len(low) > 0x100 {
		low = bin[:0x100]
	}
	c.bootROMLow = make([]byte, len(low))
	copy(c.bootROMLow, low)
	c.Bus.PushDevice(addr.ROMBank0Start, addr.BootROMLowEnd, bus.NewFixedArrayDevice(addr.ROMBank0Start, c.bootROMLow, true, false), false)

	if len(bin) > 0x200 {
		high := bin[0x200:]
		if len(high) > int(addr.BootROMHighEnd-addr.BootROMHighStart)+1 {
			high = high[:addr.BootROMHighEnd-addr.BootROMHighStart+1]
		}
		c.bootROMHigh = make([]byte, len(high))
		copy(c.bootROMHigh, high)
		c.Bus.PushDevice(addr.BootROMHighStart, addr.BootROMHighStart+uint16(len(c.bootROMHigh))-1, bus.NewFixedArrayDevice(addr.BootROMHighStart, c.bootROMHigh, true, false), false)
	}

	c.bootUnloaded = false
}

func (c *CPU) unloadBootROM() {
	if c.bootUnloaded {
		return
	}
	c.Bus.PopFrontDevice(addr.ROMBank0Start, addr.BootROMLowEnd)
	if c.bootROMHigh != nil {
		c.Bus.PopFrontDevice(addr.BootROMHighStart, addr.BootROMHighStart+uint16(len(c.bootROMHigh))-1)
	}
	c.bootUnloaded = true
	c.Hooks.Emit(events.RomUnmap, events.RomUnmapEvent{})
}
