package cpu

import (
	"testing"

	"github.com/kaelstrom/gbcore/internal/addr"
	"github.com/kaelstrom/gbcore/internal/bus"
	"github.com/kaelstrom/gbcore/internal/events"
	"github.com/kaelstrom/gbcore/internal/register"
	"github.com/stretchr/testify/assert"
)

// newTestCPU wires a CPU to a bus that also has a writable RAM region
// installed at 0x0000-0x7FFF, standing in for cartridge ROM so tests can
// poke raw opcode bytes directly.
func newTestCPU() (*CPU, *bus.Bus) {
	b := bus.New(false)
	ram := make([]byte, 0x8000)
	b.PushDevice(0x0000, 0x7FFF, bus.NewFixedArrayDevice(0x0000, ram, true, true), false)
	c := New(b, events.NewBus())
	return c, b
}

func TestNOPx3(t *testing.T) {
	c, b := newTestCPU()
	b.Write(0x0000, 0x00)
	b.Write(0x0001, 0x00)
	b.Write(0x0002, 0x00)

	total := 0
	for i := 0; i < 3; i++ {
		total += c.Step()
	}

	assert.Equal(t, uint16(0x0003), c.Registers().PC())
	assert.Equal(t, 12, total)
	assert.Equal(t, uint8(0), c.ifReg)
}

func TestLoadBCImmediateThenIncBC(t *testing.T) {
	c, b := newTestCPU()
	b.Write(0x0000, 0x01) // LD BC,0xBEEF
	b.Write(0x0001, 0xEF)
	b.Write(0x0002, 0xBE)
	b.Write(0x0003, 0x03) // INC BC

	cycles1 := c.Step()
	cycles2 := c.Step()

	assert.Equal(t, uint8(0xBE), c.Registers().Get8(register.B))
	assert.Equal(t, uint8(0xF0), c.Registers().Get8(register.C))
	assert.Equal(t, uint16(0x0004), c.Registers().PC())
	assert.Equal(t, 20, cycles1+cycles2)
}

func TestTimerOverflowSequence(t *testing.T) {
	c, b := newTestCPU()
	b.Write(addr.TAC, 0x05) // enabled, period 16
	b.Write(addr.TMA, 0x34)
	b.Write(addr.TIMA, 0xFE)

	var seen []uint8
	seen = append(seen, c.tima)

	c.UpdateTimers(16)
	seen = append(seen, c.tima)
	assert.Equal(t, uint8(0xFF), c.tima)
	assert.Equal(t, uint8(0), c.ifReg&(1<<addr.TimerInterrupt.Bit()), "no overflow yet, no Timer interrupt")

	c.UpdateTimers(16)
	assert.Equal(t, uint8(0x00), c.tima, "TIMA wraps to 0; the TMA reload waits for the next update")
	assert.Equal(t, uint8(0), c.ifReg&(1<<addr.TimerInterrupt.Bit()), "overflow interrupt is latched, not immediate")

	c.UpdateTimers(4)
	seen = append(seen, c.tima)

	assert.Equal(t, []uint8{0xFE, 0xFF, 0x34}, seen)
	assert.NotEqual(t, uint8(0), c.ifReg&(1<<addr.TimerInterrupt.Bit()), "Timer interrupt requested on reload")
}

func TestHaltWithIMEOffDoesNotVector(t *testing.T) {
	c, b := newTestCPU()
	c.SetIME(false)
	b.Write(addr.IE, 0x01)
	b.Write(addr.IF, 0x00)

	b.Write(0x0000, 0x76) // HALT
	b.Write(0x0001, 0x00) // NOP, the instruction after HALT

	c.Step()
	assert.True(t, c.IsHalted())

	c.RequestInterrupt(addr.VBlankInterrupt)

	cycles := c.Step()
	assert.False(t, c.IsHalted(), "a pending enabled interrupt wakes HALT even with IME off")
	assert.Equal(t, 4, cycles, "woke on the NOP after HALT, not a vector")
	assert.Equal(t, uint16(0x0002), c.Registers().PC())
}

func TestPushPopRoundTrip(t *testing.T) {
	c, _ := newTestCPU()
	c.Registers().SetSP(0xFFFE)
	c.Registers().Set16(register.BC, 0x1234)

	c.Push(c.Registers().Get16(register.BC))
	popped := c.Pop()

	assert.Equal(t, uint16(0x1234), popped)
	assert.Equal(t, uint16(0xFFFE), c.Registers().SP())
}

func TestPopAFClearsLowNibble(t *testing.T) {
	c, _ := newTestCPU()
	c.Registers().SetSP(0xFFFE)
	c.Push(0x12FF)

	c.Registers().Set16(register.AF, c.Pop())
	assert.Equal(t, uint16(0x12F0), c.Registers().Get16(register.AF))
}

func TestDoubleEISchedulesOneEnable(t *testing.T) {
	c, b := newTestCPU()
	b.Write(0x0000, 0xFB) // EI
	b.Write(0x0001, 0xFB) // EI
	b.Write(0x0002, 0x00) // NOP, applies the scheduled enable

	c.Step()
	assert.True(t, c.imePending)
	c.Step()
	assert.True(t, c.imePending)
	c.Step() // imePending applied at the start of this step
	assert.True(t, c.ime)
}

func TestWriteToDIVResetsIt(t *testing.T) {
	c, b := newTestCPU()
	c.UpdateTimers(0x1234)
	assert.NotEqual(t, uint8(0), c.div)

	b.Write(addr.DIV, 0x99)
	assert.Equal(t, uint8(0), c.div)
}

func TestDMAProgressHookFires(t *testing.T) {
	c, b := newTestCPU()
	var completions int
	c.Hooks.On(events.DMAProgress, func(payload any, handled *events.Handled) {
		ev := payload.(events.DMAProgressEvent)
		if ev.Complete {
			completions++
		}
	})

	b.Write(addr.DMA, 0xC0)
	c.ProcessDMA(0xA0 * 4)

	assert.Equal(t, 1, completions)
	assert.False(t, c.DMAActive())
}
