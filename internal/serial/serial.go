// Package serial implements the SB/SC port pair as a passive,
// instant-complete transfer stub (SPEC_FULL's "Serial port" supplement):
// no link cable peer exists, so any transfer the game starts completes
// within the SC write itself, with a Serial interrupt and 0xFF shifted back
// in.
//
// Grounded on the teacher's jeebie/serial/logsink.go.
package serial

import (
	"log/slog"

	"github.com/kaelstrom/gbcore/internal/addr"
	"github.com/kaelstrom/gbcore/internal/bus"
)

// InterruptSource lets the serial port request the Serial interrupt
// without importing the cpu package, mirroring video.InterruptSource.
type InterruptSource interface {
	RequestInterrupt(source addr.Interrupt)
}

// Port is a memory-backed SB/SC pair. Starting a transfer (bit 7 and bit 0
// of SC both set) completes it immediately and requests the Serial
// interrupt, since there is no attached peer to shift bits in from.
type Port struct {
	sb, sc uint8
	irq    InterruptSource
	logger *slog.Logger
}

// New constructs a Port and installs it at SB/SC.
func New(b *bus.Bus, irq InterruptSource) *Port {
	p := &Port{irq: irq, logger: slog.Default()}
	device := &bus.FuncDevice{
		Readable: true, Writable: true,
		ReadFn:  p.read,
		WriteFn: p.write,
	}
	b.PushDevice(addr.SB, addr.SC, device, true)
	return p
}

func (p *Port) read(address uint16) uint8 {
	switch address {
	case addr.SB:
		return p.sb
	case addr.SC:
		return p.sc
	default:
		return 0xFF
	}
}

func (p *Port) write(address uint16, value uint8) {
	switch address {
	case addr.SB:
		p.sb = value
	case addr.SC:
		p.sc = value
		p.maybeCompleteTransfer()
	}
}

func (p *Port) maybeCompleteTransfer() {
	if p.sc&0x81 != 0x81 {
		return
	}
	p.logger.Debug("serial: transfer", "byte", p.sb)
	p.sb = 0xFF
	p.sc &^= 0x80
	p.irq.RequestInterrupt(addr.SerialInterrupt)
}
