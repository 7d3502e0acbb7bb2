package bus

// AccessMask describes which operations are permitted at an address for a
// given device, per spec §3 ("a per-address access mask
// (none/read/write/both)").
type AccessMask uint8

const (
	AccessNone  AccessMask = 0
	AccessRead  AccessMask = 1 << 0
	AccessWrite AccessMask = 1 << 1
	AccessRW    AccessMask = AccessRead | AccessWrite
)

// Device is a polymorphic memory port. The bus dispatches every read/write
// to the top device registered for an address; Device implementations never
// see addresses outside the range they were installed on.
//
// Grounded on original_source/src/memory.h's MemoryDevice hierarchy
// (Read/Write/CheckAccess virtuals), recast as a Go interface per spec §9
// ("re-cast as a sum type over the six device kinds").
type Device interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
	CheckAccess(address uint16, mask AccessMask) bool
}

// FailedWriteHandler is implemented by devices that want to observe writes
// their own CheckAccess rejected. MBC1's ROM-bank-0 device uses this to
// decode bank-control commands out of writes into read-only ROM space
// (spec §4.1, §4.2).
type FailedWriteHandler interface {
	HandleFailedWrite(address uint16, value uint8)
}

// WriteHandlerFunc transforms, vetoes, or side-effects a write that the
// device's access mask otherwise allows. It receives the address, the value
// stored before the write, and the incoming value, and returns the value
// that should actually be stored.
type WriteHandlerFunc func(address uint16, previous, value uint8) uint8

// FixedArrayDevice owns a contiguous byte buffer mapped starting at a base
// address.
type FixedArrayDevice struct {
	Base               uint16
	Data               []byte
	Readable, Writable bool
	OnWrite            WriteHandlerFunc

	// OnFailedWrite is invoked when CheckAccess rejects a write (e.g. a
	// read-only ROM device), letting the owner decode the write as a
	// control command instead (spec §4.1, §9).
	OnFailedWrite func(address uint16, value uint8)
}

// HandleFailedWrite implements bus.FailedWriteHandler.
func (d *FixedArrayDevice) HandleFailedWrite(address uint16, value uint8) {
	if d.OnFailedWrite != nil {
		d.OnFailedWrite(address, value)
	}
}

func NewFixedArrayDevice(base uint16, data []byte, readable, writable bool) *FixedArrayDevice {
	return &FixedArrayDevice{Base: base, Data: data, Readable: readable, Writable: writable}
}

func (d *FixedArrayDevice) offset(address uint16) int {
	return int(address - d.Base)
}

func (d *FixedArrayDevice) Read(address uint16) uint8 {
	off := d.offset(address)
	if off < 0 || off >= len(d.Data) {
		return 0xFF
	}
	return d.Data[off]
}

func (d *FixedArrayDevice) Write(address uint16, value uint8) {
	off := d.offset(address)
	if off < 0 || off >= len(d.Data) {
		return
	}
	if d.OnWrite != nil {
		value = d.OnWrite(address, d.Data[off], value)
	}
	d.Data[off] = value
}

func (d *FixedArrayDevice) CheckAccess(address uint16, mask AccessMask) bool {
	off := d.offset(address)
	if off < 0 || off >= len(d.Data) {
		return false
	}
	if mask&AccessRead != 0 && !d.Readable {
		return false
	}
	if mask&AccessWrite != 0 && !d.Writable {
		return false
	}
	return true
}

// SwitchingArrayDevice is a FixedArrayDevice whose backing buffer pointer
// can be atomically switched to another buffer of the same length, used for
// bank-switched ROM/RAM/WRAM regions.
type SwitchingArrayDevice struct {
	Base               uint16
	Length             int
	data               []byte
	Readable, Writable bool
	OnWrite            WriteHandlerFunc

	// OnFailedWrite mirrors FixedArrayDevice.OnFailedWrite.
	OnFailedWrite func(address uint16, value uint8)
}

// HandleFailedWrite implements bus.FailedWriteHandler.
func (d *SwitchingArrayDevice) HandleFailedWrite(address uint16, value uint8) {
	if d.OnFailedWrite != nil {
		d.OnFailedWrite(address, value)
	}
}

func NewSwitchingArrayDevice(base uint16, initial []byte, readable, writable bool) *SwitchingArrayDevice {
	return &SwitchingArrayDevice{Base: base, Length: len(initial), data: initial, Readable: readable, Writable: writable}
}

// Switch repoints the device at a new buffer of the same length. Callers
// (cartridge mappers, WRAM bank select) invoke this from a failed-write
// hook or a register write handler; the spec calls this out as the
// "self-modifying address map" strategy in §9.
func (d *SwitchingArrayDevice) Switch(data []byte) {
	if len(data) != d.Length {
		panic("bus: switching device bank length mismatch")
	}
	d.data = data
}

func (d *SwitchingArrayDevice) offset(address uint16) int {
	return int(address - d.Base)
}

func (d *SwitchingArrayDevice) Read(address uint16) uint8 {
	off := d.offset(address)
	if off < 0 || off >= len(d.data) {
		return 0xFF
	}
	return d.data[off]
}

func (d *SwitchingArrayDevice) Write(address uint16, value uint8) {
	off := d.offset(address)
	if off < 0 || off >= len(d.data) {
		return
	}
	if d.OnWrite != nil {
		value = d.OnWrite(address, d.data[off], value)
	}
	d.data[off] = value
}

func (d *SwitchingArrayDevice) CheckAccess(address uint16, mask AccessMask) bool {
	off := d.offset(address)
	if off < 0 || off >= len(d.data) {
		return false
	}
	if mask&AccessRead != 0 && !d.Readable {
		return false
	}
	if mask&AccessWrite != 0 && !d.Writable {
		return false
	}
	return true
}

// PointerDevice backs a single hardware register byte, e.g. IE, IF, DIV,
// TIMA, LCDC. An optional write handler lets the owning subsystem react to
// writes (DIV's handler zero-clears it on any write, per spec §4.4).
type PointerDevice struct {
	Value              *uint8
	Readable, Writable bool
	OnWrite            WriteHandlerFunc
}

func NewPointerDevice(value *uint8) *PointerDevice {
	return &PointerDevice{Value: value, Readable: true, Writable: true}
}

func (d *PointerDevice) Read(address uint16) uint8 {
	return *d.Value
}

func (d *PointerDevice) Write(address uint16, value uint8) {
	if d.OnWrite != nil {
		value = d.OnWrite(address, *d.Value, value)
	}
	*d.Value = value
}

func (d *PointerDevice) CheckAccess(address uint16, mask AccessMask) bool {
	if mask&AccessRead != 0 && !d.Readable {
		return false
	}
	if mask&AccessWrite != 0 && !d.Writable {
		return false
	}
	return true
}

// FuncDevice adapts arbitrary read/write closures into a Device, used for
// ports whose backing state does not fit the pointer/array shapes above
// (the joypad selection register, the serial pair).
type FuncDevice struct {
	ReadFn             func(address uint16) uint8
	WriteFn            func(address uint16, value uint8)
	Readable, Writable bool
}

func (d *FuncDevice) Read(address uint16) uint8 {
	if d.ReadFn == nil {
		return 0xFF
	}
	return d.ReadFn(address)
}

func (d *FuncDevice) Write(address uint16, value uint8) {
	if d.WriteFn != nil {
		d.WriteFn(address, value)
	}
}

func (d *FuncDevice) CheckAccess(address uint16, mask AccessMask) bool {
	if mask&AccessRead != 0 && !d.Readable {
		return false
	}
	if mask&AccessWrite != 0 && !d.Writable {
		return false
	}
	return true
}
