package video

import "github.com/kaelstrom/gbcore/internal/addr"

// spriteEntry is one OAM-scan hit for the current scanline: byte 0 (Y) and
// byte 1 (X) are pre-offset by -16/-8 so 0 means flush with the top-left of
// the visible screen, matching the teacher's jeebie/video/gpu.go
// drawSprites convention.
type spriteEntry struct {
	index int
	y, x  int
	tile  uint8
	flags uint8
}

// scanOAM walks the 40 OAM entries and keeps up to 10 sprites overlapping
// the current line, in OAM order (spec §4.5 "OAM scan").
func (p *PPU) scanOAM() {
	spriteHeight := 8
	if p.lcdc&0x04 != 0 {
		spriteHeight = 16
	}

	p.sprites = p.sprites[:0]
	for i := 0; i < 40; i++ {
		base := addr.OAMStart + uint16(i*4)
		y := int(p.Bus.Read(base)) - 16
		if int(p.ly) < y || int(p.ly) >= y+spriteHeight {
			continue
		}
		x := int(p.Bus.Read(base+1)) - 8
		tile := p.Bus.Read(base + 2)
		flags := p.Bus.Read(base + 3)
		p.sprites = append(p.sprites, spriteEntry{index: i, y: y, x: x, tile: tile, flags: flags})
		if len(p.sprites) >= 10 {
			break
		}
	}
}
