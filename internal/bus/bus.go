// Package bus implements the LR35902 memory bus: a per-address stack of
// memory devices with overlay/priority semantics, matching spec §4.1.
//
// Grounded on original_source/src/memory.h/.cc (MemoryBus's
// std::array<std::deque<MemoryDevice*>, 0x10000>), rendered in the
// teacher's idiom (exported methods, slog on soft-failed access instead of
// silent wraparound).
package bus

import (
	"fmt"
	"log/slog"
)

const addressSpace = 0x10000

// Bus is the address-decoded memory bus. At most one device is "top" for a
// given address at a time; reads and writes are dispatched exclusively to
// it. Addresses may be locked, which forbids any further push or pop.
type Bus struct {
	stacks [addressSpace][]Device
	locked [addressSpace]bool

	// PanicOnInvalidAccess mirrors the original's panic_on_invalid_access_:
	// when true, reading or writing an address with no device is fatal. When
	// false (soft-fail mode, used by disassembly preview per spec §7), reads
	// of unmapped addresses return 0xFF and writes are silently dropped.
	PanicOnInvalidAccess bool

	OnMemRead  func(address uint16, value uint8)
	OnMemWrite func(address uint16, old, new uint8)
}

// New returns an empty bus. softFail selects the §7 "Unmapped read" mode:
// when true, unmapped reads return 0xFF instead of panicking.
func New(softFail bool) *Bus {
	return &Bus{PanicOnInvalidAccess: !softFail}
}

// PushDevice registers d as the new top device for every address in
// [start, end]. If any address in the range is locked, PushDevice panics —
// locked addresses are reserved for CPU-owned I/O ports that must never be
// overlaid (spec §3).
func (b *Bus) PushDevice(start, end uint16, d Device, lock bool) {
	for addr := uint32(start); addr <= uint32(end); addr++ {
		a := uint16(addr)
		if b.locked[a] {
			panic(fmt.Sprintf("bus: address 0x%04X is locked", a))
		}
		b.stacks[a] = append(b.stacks[a], d)
		if lock {
			b.locked[a] = true
		}
		if addr == uint32(end) {
			break
		}
	}
}

// PopFrontDevice removes the most-recently-pushed device from every address
// in [start, end] (despite the name, inherited from the original's
// deque-front convention, this pops the top of the stack). Popping a locked
// address panics.
func (b *Bus) PopFrontDevice(start, end uint16) {
	for addr := uint32(start); addr <= uint32(end); addr++ {
		a := uint16(addr)
		if b.locked[a] {
			panic(fmt.Sprintf("bus: address 0x%04X is locked", a))
		}
		stack := b.stacks[a]
		if len(stack) == 0 {
			continue
		}
		b.stacks[a] = stack[:len(stack)-1]
		if addr == uint32(end) {
			break
		}
	}
}

// SelectDevice returns the top device for address, or nil if unmapped.
func (b *Bus) SelectDevice(address uint16) Device {
	stack := b.stacks[address]
	if len(stack) == 0 {
		return nil
	}
	return stack[len(stack)-1]
}

// CheckAccess reports whether the top device for address permits mask.
func (b *Bus) CheckAccess(address uint16, mask AccessMask) bool {
	d := b.SelectDevice(address)
	if d == nil {
		return false
	}
	return d.CheckAccess(address, mask)
}

// Read performs one bus transaction. An unmapped address returns 0xFF in
// soft-fail mode, otherwise panics (spec §7).
func (b *Bus) Read(address uint16) uint8 {
	d := b.SelectDevice(address)
	if d == nil {
		if b.PanicOnInvalidAccess {
			panic(fmt.Sprintf("bus: read at unmapped address 0x%04X", address))
		}
		slog.Warn("bus: read at unmapped address", "addr", fmt.Sprintf("0x%04X", address))
		return 0xFF
	}
	value := d.Read(address)
	if b.OnMemRead != nil {
		b.OnMemRead(address, value)
	}
	return value
}

// Write performs one bus transaction. If the top device's access mask
// rejects the write, the device's FailedWriteHandler (if any) is invoked
// and the write is otherwise dropped — the channel MBC1 uses for bank
// control (spec §4.1, §4.2).
func (b *Bus) Write(address uint16, value uint8) {
	d := b.SelectDevice(address)
	if d == nil {
		if b.PanicOnInvalidAccess {
			panic(fmt.Sprintf("bus: write at unmapped address 0x%04X", address))
		}
		slog.Warn("bus: write at unmapped address", "addr", fmt.Sprintf("0x%04X", address))
		return
	}

	if !d.CheckAccess(address, AccessWrite) {
		if fw, ok := d.(FailedWriteHandler); ok {
			fw.HandleFailedWrite(address, value)
		}
		return
	}

	old := d.Read(address)
	d.Write(address, value)
	if b.OnMemWrite != nil {
		b.OnMemWrite(address, old, d.Read(address))
	}
}

// ReadWord reads a little-endian word as two bus transactions at address
// and address+1, per spec §4.1.
func (b *Bus) ReadWord(address uint16) uint16 {
	low := b.Read(address)
	high := b.Read(address + 1)
	return uint16(high)<<8 | uint16(low)
}

// WriteWord writes a little-endian word as two bus transactions at address
// and address+1.
func (b *Bus) WriteWord(address uint16, value uint16) {
	b.Write(address, uint8(value))
	b.Write(address+1, uint8(value>>8))
}
