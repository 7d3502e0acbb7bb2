package video

import (
	"testing"

	"github.com/kaelstrom/gbcore/internal/addr"
	"github.com/kaelstrom/gbcore/internal/bus"
	"github.com/kaelstrom/gbcore/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingIRQ counts interrupt requests by source, standing in for the CPU
// across the narrow video.InterruptSource seam.
type recordingIRQ struct {
	counts map[addr.Interrupt]int
}

func newRecordingIRQ() *recordingIRQ { return &recordingIRQ{counts: map[addr.Interrupt]int{}} }

func (r *recordingIRQ) RequestInterrupt(source addr.Interrupt) { r.counts[source]++ }

func newTestPPU() (*PPU, *bus.Bus, *recordingIRQ) {
	b := bus.New(false)
	// OAM belongs to the CPU, not the PPU; stand in for it so OAM scan has
	// something to read.
	b.PushDevice(addr.OAMStart, addr.OAMEnd, bus.NewFixedArrayDevice(addr.OAMStart, make([]byte, 0xA0), true, true), false)
	irq := newRecordingIRQ()
	p := New(b, events.NewBus(), irq)
	b.Write(addr.LCDC, 0x91) // display + BG on, unsigned tile data, map 0
	return p, b, irq
}

func TestVBlankRaisedExactlyOncePerFrame(t *testing.T) {
	p, _, irq := newTestPPU()

	const dotsPerFrame = 70224
	p.Tick(dotsPerFrame)

	assert.Equal(t, 1, irq.counts[addr.VBlankInterrupt])
}

func TestVBlankEntryReportsLY144AndVBlankMode(t *testing.T) {
	p, _, irq := newTestPPU()

	dotsToVBlank := 144 * totalLineDots
	p.Tick(dotsToVBlank)

	assert.Equal(t, 1, irq.counts[addr.VBlankInterrupt])
	assert.Equal(t, uint8(144), p.LY())
	assert.Equal(t, ModeVBlank, p.Mode())
}

func TestFrameCompleteLatches(t *testing.T) {
	p, _, _ := newTestPPU()
	assert.False(t, p.FrameComplete())

	p.Tick(70224)
	assert.True(t, p.FrameComplete())
	assert.False(t, p.FrameComplete(), "FrameComplete clears itself on read")
}

func TestOAMScanSelectsAtMostTenSpritesInOAMOrder(t *testing.T) {
	p, b, _ := newTestPPU()
	b.Write(addr.LY, 0) // LY is read-only over the bus; drive it via setLY for the test
	p.setLY(50)

	for i := 0; i < 12; i++ {
		base := addr.OAMStart + uint16(i*4)
		b.Write(base, 66)   // Y=66 -> on-screen Y=50, overlapping line 50
		b.Write(base+1, uint8(8+i))
		b.Write(base+2, uint8(i))
		b.Write(base+3, 0)
	}

	p.scanOAM()

	require.Len(t, p.sprites, 10)
	for i, s := range p.sprites {
		assert.Equal(t, i, s.index, "selection keeps OAM insertion order")
	}
}

func TestOAMScanSkipsNonOverlappingSprites(t *testing.T) {
	p, b, _ := newTestPPU()
	p.setLY(10)

	b.Write(addr.OAMStart, 200) // Y=200-16=184, nowhere near line 10
	b.Write(addr.OAMStart+1, 20)
	b.Write(addr.OAMStart+2, 0)
	b.Write(addr.OAMStart+3, 0)

	p.scanOAM()
	assert.Empty(t, p.sprites)
}

func TestLCDOffFreezesPPU(t *testing.T) {
	p, b, irq := newTestPPU()
	b.Write(addr.LCDC, 0x00)

	p.Tick(70224 * 2)
	assert.Equal(t, 0, irq.counts[addr.VBlankInterrupt])
}
