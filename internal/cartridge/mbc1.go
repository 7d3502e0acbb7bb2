package cartridge

import (
	"github.com/kaelstrom/gbcore/internal/addr"
	"github.com/kaelstrom/gbcore/internal/bus"
	"github.com/kaelstrom/gbcore/internal/events"
)

// bankingMode selects whether the 2-bit secondary register (written to
// 0x4000-0x5FFF) addresses RAM banks or the upper bits of the ROM bank,
// per spec §4.2.
type bankingMode uint8

const (
	modeSimple   bankingMode = 0
	modeExtended bankingMode = 1
)

// mbc1 implements the MBC1 control-write decoding table of spec §4.2. It
// owns the ROM/RAM bank buffers and the three switchable devices that view
// them; writes into ROM space are rejected by the ROM devices' read-only
// access mask and routed to HandleFailedWrite, the "self-modifying address
// map" strategy of spec §9.
type mbc1 struct {
	cart  *Cartridge
	hooks *events.Bus

	ramEnabled bool
	romBank    uint8
	ramBank    uint8
	mode       bankingMode

	romBank0Device *bus.FixedArrayDevice
	romBankNDevice *bus.SwitchingArrayDevice
	ramDevice      *bus.SwitchingArrayDevice

	disabledRAM []byte
}

func newMBC1(cart *Cartridge) *mbc1 {
	m := &mbc1{
		cart:        cart,
		romBank:     1,
		disabledRAM: make([]byte, ramBankSize),
	}
	for i := range m.disabledRAM {
		m.disabledRAM[i] = 0xFF
	}
	return m
}

func (m *mbc1) romBankCount() int { return len(m.cart.romBanks) }
func (m *mbc1) ramBankCount() int { return len(m.cart.ramBanks) }

func (m *mbc1) attach(b *bus.Bus, hooks *events.Bus) {
	m.hooks = hooks

	m.romBank0Device = bus.NewFixedArrayDevice(addr.ROMBank0Start, m.cart.romBanks[0], true, false)
	m.romBank0Device.OnFailedWrite = m.decodeControlWrite
	b.PushDevice(addr.ROMBank0Start, addr.ROMBank0End, m.romBank0Device, false)

	m.romBankNDevice = bus.NewSwitchingArrayDevice(addr.ROMBankNStart, m.selectedROMBank(), true, false)
	m.romBankNDevice.OnFailedWrite = m.decodeControlWrite
	b.PushDevice(addr.ROMBankNStart, addr.ROMBankNEnd, m.romBankNDevice, false)

	// RAM starts disabled: the device views the 0xFF-filled buffer until a
	// 0x0A enable write arrives.
	m.ramDevice = bus.NewSwitchingArrayDevice(addr.ExtRAMStart, m.disabledRAM, false, false)
	b.PushDevice(addr.ExtRAMStart, addr.ExtRAMEnd, m.ramDevice, false)
}

// decodeControlWrite implements the MBC1 control-write decoding table of
// spec §4.2, invoked via OnFailedWrite when the bus rejects a write against
// the ROM devices' read-only access mask (spec §4.1). Both
// romBank0Device's range (0x0000-0x3FFF) and romBankNDevice's range
// (0x4000-0x7FFF) delegate here, since both are read-only.
func (m *mbc1) decodeControlWrite(address uint16, value uint8) {
	switch {
	case address <= 0x1FFF:
		m.ramEnabled = value&0x0F == 0x0A
		m.refreshRAMDevice()
	case address >= 0x2000 && address <= 0x3FFF:
		bank := value & 0x1F
		if bank == 0 {
			bank = 1
		}
		m.romBank = (m.romBank & 0x60) | bank
		m.refreshROMDevice()
	case address >= 0x4000 && address <= 0x5FFF:
		selector := value & 0x03
		if m.mode == modeExtended {
			m.ramBank = selector
			m.refreshRAMDevice()
		} else {
			m.romBank = (m.romBank & 0x1F) | (selector << 5)
			m.refreshROMDevice()
		}
	case address >= 0x6000 && address <= 0x7FFF:
		if value&0x01 != 0 {
			m.mode = modeExtended
		} else {
			m.mode = modeSimple
		}
	}
}

func (m *mbc1) selectedROMBank() []byte {
	bank := int(m.romBank) % m.romBankCount()
	if bank == 0 {
		bank = 1 % m.romBankCount()
	}
	return m.cart.romBanks[bank]
}

func (m *mbc1) refreshROMDevice() {
	m.romBankNDevice.Switch(m.selectedROMBank())
	m.hooks.Emit(events.BankChange, events.BankChangeEvent{Region: "rom", Bank: int(m.romBank)})
}

func (m *mbc1) refreshRAMDevice() {
	if !m.ramEnabled || m.ramBankCount() == 0 {
		m.ramDevice.Switch(m.disabledRAM)
		m.ramDevice.Readable, m.ramDevice.Writable = false, false
		return
	}
	bank := int(m.ramBank) % m.ramBankCount()
	m.ramDevice.Switch(m.cart.ramBanks[bank])
	m.ramDevice.Readable, m.ramDevice.Writable = true, true
	m.hooks.Emit(events.BankChange, events.BankChangeEvent{Region: "ram", Bank: bank})
}
