// Package cartridge parses a ROM image header and installs the memory
// devices that implement its mapper (spec §4.2, §6). Only ROM_ONLY and
// MBC1 variants are supported for conformance with this spec; other mapper
// IDs are parsed and rejected (spec §1 Non-goals, §7).
//
// Grounded on jeebie/memory/cartridge.go (header field layout) and
// jeebie/memory/mbc.go (bank-register semantics), restructured so the
// mapper installs bus devices instead of being queried by a flat MMU, per
// spec §4.1/§4.2/§9.
package cartridge

import (
	"fmt"

	"github.com/kaelstrom/gbcore/internal/addr"
	"github.com/kaelstrom/gbcore/internal/bus"
	"github.com/kaelstrom/gbcore/internal/events"
)

const (
	cgbFlagAddress       = 0x143
	cartridgeTypeAddress = 0x147
	romSizeAddress       = 0x148
	ramSizeAddress       = 0x149

	romBankSize = 0x4000
	ramBankSize = 0x2000
)

// CompatibilityFlag describes the CGB flag byte at 0x143.
type CompatibilityFlag uint8

const (
	CompatibilityDMGOnly CompatibilityFlag = iota
	CompatibilityBoth
	CompatibilityCGBOnly
)

// MapperType identifies the cartridge's memory bank controller.
type MapperType uint8

const (
	MapperROMOnly MapperType = iota
	MapperMBC1
	MapperMBC1RAM
	MapperMBC1RAMBattery
	MapperUnsupported
)

func mapperFromTypeByte(b uint8) MapperType {
	switch b {
	case 0x00:
		return MapperROMOnly
	case 0x01:
		return MapperMBC1
	case 0x02:
		return MapperMBC1RAM
	case 0x03:
		return MapperMBC1RAMBattery
	default:
		return MapperUnsupported
	}
}

var romBankCounts = map[uint8]int{
	0x00: 2, 0x01: 4, 0x02: 8, 0x03: 16,
	0x04: 32, 0x05: 64, 0x06: 128, 0x07: 256, 0x08: 512,
}

// ramBankCounts maps the RAM size code to a bank count; code 0x01 is
// reserved/unused on real hardware.
var ramBankCounts = map[uint8]int{
	0x00: 0, 0x02: 1, 0x03: 4, 0x04: 16, 0x05: 8,
}

// Cartridge is a parsed ROM header plus its backing ROM/RAM bank buffers.
type Cartridge struct {
	Compatibility CompatibilityFlag
	Mapper        MapperType
	HasBattery    bool

	romBanks [][]byte
	ramBanks [][]byte
}

// New parses data's header and constructs bank buffers. It returns an
// error for a malformed header (unknown size code) or an unsupported
// mapper, per spec §7 ("Header malformed", "Unsupported cartridge").
func New(data []byte) (*Cartridge, error) {
	if len(data) < 0x150 {
		return nil, fmt.Errorf("cartridge: image too small to contain a header (%d bytes)", len(data))
	}

	romCode := data[romSizeAddress]
	romCount, ok := romBankCounts[romCode]
	if !ok {
		return nil, fmt.Errorf("cartridge: unknown ROM size code 0x%02X", romCode)
	}

	ramCode := data[ramSizeAddress]
	ramCount, ok := ramBankCounts[ramCode]
	if !ok {
		return nil, fmt.Errorf("cartridge: unknown RAM size code 0x%02X", ramCode)
	}

	mapper := mapperFromTypeByte(data[cartridgeTypeAddress])
	if mapper == MapperUnsupported {
		return nil, fmt.Errorf("cartridge: unsupported mapper type 0x%02X", data[cartridgeTypeAddress])
	}

	c := &Cartridge{
		Compatibility: compatibilityFromByte(data[cgbFlagAddress]),
		Mapper:        mapper,
		HasBattery:    mapper == MapperMBC1RAMBattery,
	}

	c.romBanks = make([][]byte, romCount)
	for i := range c.romBanks {
		bank := make([]byte, romBankSize)
		start := i * romBankSize
		if start < len(data) {
			end := start + romBankSize
			if end > len(data) {
				end = len(data)
			}
			copy(bank, data[start:end])
		}
		c.romBanks[i] = bank
	}

	c.ramBanks = make([][]byte, ramCount)
	for i := range c.ramBanks {
		c.ramBanks[i] = make([]byte, ramBankSize)
	}

	return c, nil
}

func compatibilityFromByte(b uint8) CompatibilityFlag {
	switch b & 0xDF {
	case 0x80:
		return CompatibilityBoth
	case 0xC0:
		return CompatibilityCGBOnly
	default:
		return CompatibilityDMGOnly
	}
}

// Attach installs this cartridge's devices onto bus b. For ROM_ONLY, two
// read-only fixed devices are installed; for MBC1 variants, the full bank
// controller from mbc1.go is wired in, with hooks reporting bank changes.
func (c *Cartridge) Attach(b *bus.Bus, hooks *events.Bus) {
	switch c.Mapper {
	case MapperROMOnly:
		b.PushDevice(addr.ROMBank0Start, addr.ROMBank0End, bus.NewFixedArrayDevice(addr.ROMBank0Start, c.romBanks[0], true, false), false)
		if len(c.romBanks) > 1 {
			b.PushDevice(addr.ROMBankNStart, addr.ROMBankNEnd, bus.NewFixedArrayDevice(addr.ROMBankNStart, c.romBanks[1], true, false), false)
		} else {
			b.PushDevice(addr.ROMBankNStart, addr.ROMBankNEnd, bus.NewFixedArrayDevice(addr.ROMBankNStart, c.romBanks[0], true, false), false)
		}
	case MapperMBC1, MapperMBC1RAM, MapperMBC1RAMBattery:
		newMBC1(c).attach(b, hooks)
	}
}

// RAMBanks exposes the cartridge's RAM banks so a battery-backed save can be
// persisted by an external collaborator; the core does no file I/O itself
// (spec §1).
func (c *Cartridge) RAMBanks() [][]byte {
	return c.ramBanks
}
