// Package cpu implements the LR35902 instruction decoder/executor and CPU
// core: fetch-execute, interrupt dispatch, DIV/TIMA timers, OAM DMA, and
// HALT/STOP handling (spec §4.3, §4.4).
//
// Grounded on the teacher's jeebie/cpu/mapping.go (opcode-to-function
// dispatch idiom) and original_source/src/instructions.h (the ~40 operation
// forms and their exact flag/cycle contracts), with the per-opcode table
// generated programmatically from the register/condition encoding (design
// notes §9 permit "a large match/switch at decode time" in place of a
// dynamically allocated operation object per step).
package cpu

import (
	"log/slog"

	"github.com/kaelstrom/gbcore/internal/addr"
	"github.com/kaelstrom/gbcore/internal/bus"
	"github.com/kaelstrom/gbcore/internal/events"
	"github.com/kaelstrom/gbcore/internal/register"
)

// CPU holds the full LR35902 state: registers, interrupt/timer/DMA
// machinery, and the fixed RAM regions (WRAM/OAM/HRAM) it owns and installs
// on the bus (spec §4.4).
type CPU struct {
	Bus   *bus.Bus
	Hooks *events.Bus

	regs register.File
	alu  *register.ALU

	running bool
	halted  bool
	locked  bool // set by an invalid opcode; Step becomes a no-op

	ime        bool
	imePending bool

	ie    uint8
	ifReg uint8

	div  uint8
	tima uint8
	tma  uint8
	tac  uint8

	divClock          int
	timerClock        int
	timaOverflowLatch bool

	dma dmaState

	wram0      [0x1000]byte
	wram       [7][0x1000]byte // banks 1-7; DMG permanently uses wram[0]
	wramSelect uint8

	oam  [0xA0]byte
	hram [0x7F]byte

	audioIO [addr.AudioEnd - addr.AudioStart + 1]byte
	waveRAM [addr.WaveRAMEnd - addr.WaveRAMStart + 1]byte

	key1 uint8

	bootROMLow   []byte
	bootROMHigh  []byte
	bootUnloaded bool

	wramNDevice *bus.SwitchingArrayDevice
}

// New constructs a CPU bound to b, installs its owned devices (interrupt
// and timer registers, WRAM/OAM/HRAM, audio ports), and returns it.
func New(b *bus.Bus, hooks *events.Bus) *CPU {
	c := &CPU{Bus: b, Hooks: hooks, bootUnloaded: true}
	c.alu = register.New(&c.regs)
	c.wramSelect = 1
	c.timerClock = timerPeriods[0]
	c.installDevices()
	return c
}

// Registers exposes the register file for debuggers/tests.
func (c *CPU) Registers() *register.File { return &c.regs }

// IsLocked reports whether the CPU hard-locked after decoding an invalid
// opcode (spec §7).
func (c *CPU) IsLocked() bool { return c.locked }

// IsHalted reports whether the CPU is currently halted.
func (c *CPU) IsHalted() bool { return c.halted }

// Halt puts the CPU into the halted state (spec §4.4).
func (c *CPU) Halt() { c.halted = true }

// SetRunning toggles the CPU's running flag, used by the emulator harness
// to gate its fetch loop.
func (c *CPU) SetRunning(run bool) { c.running = run }
func (c *CPU) Running() bool       { return c.running }

func (c *CPU) installDevices() {
	c.Bus.PushDevice(addr.WRAMBank0Start, addr.WRAMBank0End, bus.NewFixedArrayDevice(addr.WRAMBank0Start, c.wram0[:], true, true), true)

	c.wramNDevice = bus.NewSwitchingArrayDevice(addr.WRAMBankNStart, c.wram[0][:], true, true)
	c.Bus.PushDevice(addr.WRAMBankNStart, addr.WRAMBankNEnd, c.wramNDevice, true)

	// Echo RAM mirrors WRAM 0xC000-0xDDFF (supplemented feature, SPEC_FULL
	// §"Supplemented features"): a pass-through device that redirects to the
	// live WRAM bus transaction rather than a stale copied buffer, so it
	// tracks whatever bank is currently switched in.
	echo := &bus.FuncDevice{
		Readable: true, Writable: true,
		ReadFn:  func(address uint16) uint8 { return c.Bus.Read(address - 0x2000) },
		WriteFn: func(address uint16, value uint8) { c.Bus.Write(address-0x2000, value) },
	}
	c.Bus.PushDevice(addr.EchoStart, addr.EchoEnd, echo, true)

	c.Bus.PushDevice(addr.OAMStart, addr.OAMEnd, bus.NewFixedArrayDevice(addr.OAMStart, c.oam[:], true, true), true)
	c.Bus.PushDevice(addr.HRAMStart, addr.HRAMEnd, bus.NewFixedArrayDevice(addr.HRAMStart, c.hram[:], true, true), true)

	c.Bus.PushDevice(addr.AudioStart, addr.AudioEnd, bus.NewFixedArrayDevice(addr.AudioStart, c.audioIO[:], true, true), true)
	c.Bus.PushDevice(addr.WaveRAMStart, addr.WaveRAMEnd, bus.NewFixedArrayDevice(addr.WaveRAMStart, c.waveRAM[:], true, true), true)

	ieDevice := bus.NewPointerDevice(&c.ie)
	c.Bus.PushDevice(addr.IE, addr.IE, ieDevice, true)

	ifDevice := bus.NewPointerDevice(&c.ifReg)
	c.Bus.PushDevice(addr.IF, addr.IF, ifDevice, true)

	divDevice := bus.NewPointerDevice(&c.div)
	divDevice.OnWrite = func(address uint16, previous, value uint8) uint8 {
		c.divClock = 0
		return 0
	}
	c.Bus.PushDevice(addr.DIV, addr.DIV, divDevice, true)

	c.Bus.PushDevice(addr.TIMA, addr.TIMA, bus.NewPointerDevice(&c.tima), true)
	c.Bus.PushDevice(addr.TMA, addr.TMA, bus.NewPointerDevice(&c.tma), true)

	tacDevice := bus.NewPointerDevice(&c.tac)
	tacDevice.OnWrite = func(address uint16, previous, value uint8) uint8 {
		c.timerClock = timerPeriods[value&0x03]
		return value
	}
	c.Bus.PushDevice(addr.TAC, addr.TAC, tacDevice, true)

	dmaDevice := bus.NewPointerDevice(&c.dma.register)
	dmaDevice.OnWrite = func(address uint16, previous, value uint8) uint8 {
		c.startDMA(value)
		return value
	}
	c.Bus.PushDevice(addr.DMA, addr.DMA, dmaDevice, true)

	c.Bus.PushDevice(addr.KEY1, addr.KEY1, bus.NewPointerDevice(&c.key1), true)

	wramSelectDevice := bus.NewPointerDevice(&c.wramSelect)
	wramSelectDevice.OnWrite = func(address uint16, previous, value uint8) uint8 {
		bank := value & 0x07
		if bank == 0 {
			bank = 1
		}
		c.wramNDevice.Switch(c.wram[bank-1][:])
		c.Hooks.Emit(events.BankChange, events.BankChangeEvent{Region: "wram", Bank: int(bank)})
		return bank
	}
	c.Bus.PushDevice(addr.WRAMSelect, addr.WRAMSelect, wramSelectDevice, true)

	bootUnmapByte := uint8(0)
	bootUnmapDevice := bus.NewPointerDevice(&bootUnmapByte)
	bootUnmapDevice.OnWrite = func(address uint16, previous, value uint8) uint8 {
		if value != 0 {
			c.unloadBootROM()
		}
		return value
	}
	c.Bus.PushDevice(addr.BootUnmap, addr.BootUnmap, bootUnmapDevice, true)
}

// Step fetches and executes exactly one instruction and returns the
// T-cycle count consumed, per spec §4.4:
//
//	cycles_consumed = 0; op = fetch(...); cycles_consumed += op.execute(...)
//
// If the CPU is halted and no enabled interrupt is pending, no fetch
// happens and Step returns the 4 T-cycles a NOP would have taken, since
// timers and the PPU keep advancing while halted. A pending enabled
// interrupt (IE & IF) clears HALT, and the same Step goes on to fetch and
// execute the next instruction.
func (c *CPU) Step() int {
	if c.locked {
		return 4
	}

	if c.halted {
		if c.ie&c.ifReg&0x1F != 0 {
			c.halted = false
		} else {
			return 4
		}
	}

	if c.imePending {
		c.ime = true
		c.imePending = false
	}

	pc := c.regs.PC()
	c.Hooks.Emit(events.PreExec, events.PreExecEvent{PC: pc})

	exec, length, valid := Fetch(pc, c.Bus)
	c.regs.SetPC(pc + uint16(length))

	if !valid {
		slog.Error("cpu: invalid opcode, locking", "pc", pc)
		c.locked = true
		return 4
	}

	cycles := exec(c)
	c.Hooks.Emit(events.PostExec, events.PostExecEvent{PC: pc, Cycles: cycles})
	return cycles
}

// Push decrements SP by 2 and writes value at the new SP, per spec §4.4.
func (c *CPU) Push(value uint16) {
	sp := c.regs.SP() - 2
	c.regs.SetSP(sp)
	c.Bus.WriteWord(sp, value)
}

// Pop reads the word at SP then increments SP by 2.
func (c *CPU) Pop() uint16 {
	sp := c.regs.SP()
	value := c.Bus.ReadWord(sp)
	c.regs.SetSP(sp + 2)
	return value
}
