package video

import (
	"github.com/kaelstrom/gbcore/internal/addr"
	"github.com/kaelstrom/gbcore/internal/bus"
	"github.com/kaelstrom/gbcore/internal/events"
)

// Mode is one of the PPU's four rendering stages, numerically matching
// STAT bits 1-0 (spec §4.5).
type Mode uint8

const (
	ModeHBlank  Mode = 0
	ModeVBlank  Mode = 1
	ModeOAMScan Mode = 2
	ModeDraw    Mode = 3
)

const (
	oamScanDots   = 80
	drawDots      = 172
	totalLineDots = 456
)

// InterruptSource lets the PPU raise interrupts without importing the cpu
// package, matching design notes §9 ("model CPU and PPU as co-owners of a
// context" via a narrow interface rather than a cyclic object graph).
type InterruptSource interface {
	RequestInterrupt(source addr.Interrupt)
}

// PPU implements the mode FSM, OAM scan, pixel FIFOs/fetcher, and
// framebuffer of spec §4.5. It owns VRAM and the LCD register block on the
// bus, the way the CPU owns WRAM/OAM/HRAM and its own I/O ports.
type PPU struct {
	Bus   *bus.Bus
	Hooks *events.Bus
	irq   InterruptSource

	lcdc, stat      uint8
	scy, scx        uint8
	ly, lyc         uint8
	bgp, obp0, obp1 uint8
	wy, wx          uint8
	vramBankSelect  uint8

	mode Mode
	dot  int

	windowLine int

	vram       [2][0x2000]byte
	vramDevice *bus.SwitchingArrayDevice

	// CGB background/object color palette ports. No CGB color pipeline is
	// implemented (spec's DMG-first scope), so these are plain registers
	// like KEY1 — present so software that probes them doesn't fault.
	bcps, bcpd, ocps, ocpd uint8

	frame         FrameBuffer
	frameComplete bool

	bgColorIndex [Width]uint8
	sprites      []spriteEntry
	priority     spritePriority
}

// New constructs a PPU bound to b, installs VRAM and the LCD register
// block, and returns it. irq receives VBlank/LCD STAT interrupt requests.
func New(b *bus.Bus, hooks *events.Bus, irq InterruptSource) *PPU {
	p := &PPU{Bus: b, Hooks: hooks, irq: irq, mode: ModeOAMScan, sprites: make([]spriteEntry, 0, 10)}
	p.installDevices()
	return p
}

func (p *PPU) installDevices() {
	p.vramDevice = bus.NewSwitchingArrayDevice(addr.VRAMStart, p.vram[0][:], true, true)
	p.Bus.PushDevice(addr.VRAMStart, addr.VRAMEnd, p.vramDevice, true)

	vramBankDevice := bus.NewPointerDevice(&p.vramBankSelect)
	vramBankDevice.OnWrite = func(address uint16, previous, value uint8) uint8 {
		bank := value & 0x01
		p.vramDevice.Switch(p.vram[bank][:])
		p.Hooks.Emit(events.BankChange, events.BankChangeEvent{Region: "vram", Bank: int(bank)})
		return bank
	}
	p.Bus.PushDevice(addr.VRAMBank, addr.VRAMBank, vramBankDevice, true)

	p.Bus.PushDevice(addr.LCDC, addr.LCDC, bus.NewPointerDevice(&p.lcdc), true)
	p.Bus.PushDevice(addr.STAT, addr.STAT, bus.NewPointerDevice(&p.stat), true)
	p.Bus.PushDevice(addr.SCY, addr.SCY, bus.NewPointerDevice(&p.scy), true)
	p.Bus.PushDevice(addr.SCX, addr.SCX, bus.NewPointerDevice(&p.scx), true)

	// LY is read-only on real hardware: writes through the bus have no
	// effect, so the device is installed without write access.
	p.Bus.PushDevice(addr.LY, addr.LY, &bus.PointerDevice{Value: &p.ly, Readable: true, Writable: false}, true)
	p.Bus.PushDevice(addr.LYC, addr.LYC, bus.NewPointerDevice(&p.lyc), true)

	p.Bus.PushDevice(addr.BGP, addr.BGP, bus.NewPointerDevice(&p.bgp), true)
	p.Bus.PushDevice(addr.OBP0, addr.OBP0, bus.NewPointerDevice(&p.obp0), true)
	p.Bus.PushDevice(addr.OBP1, addr.OBP1, bus.NewPointerDevice(&p.obp1), true)
	p.Bus.PushDevice(addr.WY, addr.WY, bus.NewPointerDevice(&p.wy), true)
	p.Bus.PushDevice(addr.WX, addr.WX, bus.NewPointerDevice(&p.wx), true)

	p.Bus.PushDevice(addr.CGBBCPS, addr.CGBBCPS, bus.NewPointerDevice(&p.bcps), true)
	p.Bus.PushDevice(addr.CGBBCPD, addr.CGBBCPD, bus.NewPointerDevice(&p.bcpd), true)
	p.Bus.PushDevice(addr.CGBOCPS, addr.CGBOCPS, bus.NewPointerDevice(&p.ocps), true)
	p.Bus.PushDevice(addr.CGBOCPD, addr.CGBOCPD, bus.NewPointerDevice(&p.ocpd), true)
}

// Mode reports the PPU's current FSM state.
func (p *PPU) Mode() Mode { return p.mode }

// LY reports the current scanline.
func (p *PPU) LY() uint8 { return p.ly }

// FrameBuffer exposes the 160x144 RGBA8 output surface for an external
// renderer to latch and upload (spec §1, §4.5).
func (p *PPU) FrameBuffer() *FrameBuffer { return &p.frame }

// FrameComplete reports whether the buffer has a freshly rendered frame
// waiting, and clears the flag.
func (p *PPU) FrameComplete() bool {
	if !p.frameComplete {
		return false
	}
	p.frameComplete = false
	return true
}

func (p *PPU) setMode(m Mode) {
	p.mode = m
	p.stat = p.stat&0xFC | uint8(m)
}

func (p *PPU) setLY(line int) {
	p.ly = uint8(line)
	if p.ly == p.lyc {
		p.stat |= 0x04
		if p.stat&0x40 != 0 {
			p.irq.RequestInterrupt(addr.LCDSTATInterrupt)
		}
	} else {
		p.stat &^= 0x04
	}
}

// Tick advances the PPU by cycles dots, per spec §4.4's
// advance-PPU-by-cycles_consumed step. While LCDC bit 7 (display enable) is
// clear, the PPU is frozen, matching real hardware.
func (p *PPU) Tick(cycles int) {
	if p.lcdc&0x80 == 0 {
		return
	}

	p.dot += cycles
	for {
		switch p.mode {
		case ModeOAMScan:
			if p.dot < oamScanDots {
				return
			}
			p.dot -= oamScanDots
			p.scanOAM()
			p.setMode(ModeDraw)

		case ModeDraw:
			if p.dot < drawDots {
				return
			}
			p.dot -= drawDots
			p.renderScanline()
			p.setMode(ModeHBlank)
			if p.stat&0x08 != 0 {
				p.irq.RequestInterrupt(addr.LCDSTATInterrupt)
			}

		case ModeHBlank:
			hblankDots := totalLineDots - oamScanDots - drawDots
			if p.dot < hblankDots {
				return
			}
			p.dot -= hblankDots
			p.advanceLine()

		case ModeVBlank:
			if p.dot < totalLineDots {
				return
			}
			p.dot -= totalLineDots
			p.advanceVBlankLine()
		}
	}
}

func (p *PPU) advanceLine() {
	p.setLY(int(p.ly) + 1)
	if p.ly == 144 {
		p.setMode(ModeVBlank)
		p.irq.RequestInterrupt(addr.VBlankInterrupt)
		if p.stat&0x10 != 0 {
			p.irq.RequestInterrupt(addr.LCDSTATInterrupt)
		}
		p.frameComplete = true
		p.windowLine = 0
		return
	}
	p.setMode(ModeOAMScan)
	if p.stat&0x20 != 0 {
		p.irq.RequestInterrupt(addr.LCDSTATInterrupt)
	}
}

func (p *PPU) advanceVBlankLine() {
	if p.ly == 153 {
		p.setLY(0)
		p.setMode(ModeOAMScan)
		if p.stat&0x20 != 0 {
			p.irq.RequestInterrupt(addr.LCDSTATInterrupt)
		}
		return
	}
	p.setLY(int(p.ly) + 1)
}
