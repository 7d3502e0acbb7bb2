package cpu

import "github.com/kaelstrom/gbcore/internal/addr"

var timerPeriods = [4]int{1024, 16, 64, 256}

// UpdateTimers advances DIV and, when enabled, TIMA by cycles T-cycles, per
// spec §4.4. DIV increments every time its internal sub-counter crosses
// 0xFF; TIMA counts down a period selected by TAC[1:0] and reloads from TMA
// with a one-update-delayed Timer interrupt on overflow.
func (c *CPU) UpdateTimers(cycles int) {
	c.divClock += cycles
	for c.divClock > 0xFF {
		c.divClock -= 0x100
		c.div++
	}

	if c.timaOverflowLatch {
		c.tima = c.tma
		c.RequestInterrupt(addr.TimerInterrupt)
		c.timaOverflowLatch = false
	}

	if c.tac&0x04 == 0 {
		return
	}

	period := timerPeriods[c.tac&0x03]
	c.timerClock -= cycles
	for c.timerClock <= 0 {
		c.timerClock += period
		if c.tima == 0xFF {
			c.tima = 0
			c.timaOverflowLatch = true
		} else {
			c.tima++
		}
	}
}
