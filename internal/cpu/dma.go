package cpu

import (
	"github.com/kaelstrom/gbcore/internal/addr"
	"github.com/kaelstrom/gbcore/internal/events"
)

// dmaState tracks an in-flight OAM DMA transfer (spec §4.4): one byte moves
// per 4 T-cycles of CPU progress until 0xA0 bytes have been copied from
// source to OAM.
type dmaState struct {
	register uint8
	source   uint16
	progress int
	active   bool
}

func (c *CPU) startDMA(value uint8) {
	c.dma.source = uint16(value) << 8
	c.dma.progress = 0
	c.dma.active = true
}

// ProcessDMA advances any in-flight OAM DMA transfer by cycles T-cycles.
// External collaborators should treat OAM as inaccessible to the CPU while
// DMA is active; this implementation does not enforce that (spec §4.4
// explicitly allows emitting a hook instead).
func (c *CPU) ProcessDMA(cycles int) {
	if !c.dma.active {
		return
	}

	bytesToMove := cycles / 4
	for i := 0; i < bytesToMove && c.dma.progress < 0xA0; i++ {
		value := c.Bus.Read(c.dma.source + uint16(c.dma.progress))
		c.Bus.Write(addr.OAMStart+uint16(c.dma.progress), value)
		c.dma.progress++
	}

	if c.dma.progress >= 0xA0 {
		c.dma.active = false
	}

	c.Hooks.Emit(events.DMAProgress, events.DMAProgressEvent{
		Source:      c.dma.source,
		BytesCopied: c.dma.progress,
		Complete:    !c.dma.active,
	})
}

// DMAActive reports whether an OAM DMA transfer is currently in flight.
func (c *CPU) DMAActive() bool { return c.dma.active }
