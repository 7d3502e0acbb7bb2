package video

import (
	"github.com/kaelstrom/gbcore/internal/addr"
	"github.com/kaelstrom/gbcore/internal/bit"
)

// tileDataAddr resolves the address of a tile's two-byte row, honoring the
// signed-vs-unsigned addressing split of spec §4.5 ("Tile addressing").
func tileDataAddr(base uint16, signed bool, tileIndex uint8, rowInTile int) uint16 {
	if signed {
		return uint16(int32(base) + int32(int8(tileIndex))*16 + int32(rowInTile*2))
	}
	return base + uint16(tileIndex)*16 + uint16(rowInTile*2)
}

func fetchTileRow(fifo *pixelFIFO, low, high uint8) {
	for bitIdx := 7; bitIdx >= 0; bitIdx-- {
		var color uint8
		if bit.IsSet(uint8(bitIdx), low) {
			color |= 1
		}
		if bit.IsSet(uint8(bitIdx), high) {
			color |= 2
		}
		fifo.push(pixel{color: color})
	}
}

// renderScanline draws the background, window, and sprite layers for the
// current LY into the framebuffer, per spec §4.5's pixel pipeline.
func (p *PPU) renderScanline() {
	if p.lcdc&0x80 == 0 {
		for x := 0; x < Width; x++ {
			p.frame.Set(x, int(p.ly), shadeToRGBA(0))
			p.bgColorIndex[x] = 0
		}
		return
	}
	p.renderBackground()
	p.renderWindow()
	p.renderSprites()
}

func (p *PPU) renderBackground() {
	if p.lcdc&0x01 == 0 {
		color0 := shade(p.bgp & 0x03)
		for x := 0; x < Width; x++ {
			p.frame.Set(x, int(p.ly), shadeToRGBA(color0))
			p.bgColorIndex[x] = 0
		}
		return
	}

	signed := p.lcdc&0x10 == 0
	tileDataBase := addr.TileData0
	if signed {
		tileDataBase = addr.TileData2
	}
	mapBase := addr.TileMap0
	if p.lcdc&0x08 != 0 {
		mapBase = addr.TileMap1
	}

	lineScrolled := (int(p.ly) + int(p.scy)) & 0xFF
	tileRow := lineScrolled / 8
	rowInTile := lineScrolled % 8
	subSCX := int(p.scx) % 8

	var fifo pixelFIFO
	mapPixelX := int(p.scx)
	screenX := 0
	for screenX-subSCX < Width {
		if fifo.len() == 0 {
			mapTileX := (mapPixelX / 8) % 32
			tileIndex := p.Bus.Read(mapBase + uint16(tileRow*32+mapTileX))
			tileAddr := tileDataAddr(tileDataBase, signed, tileIndex, rowInTile)
			fetchTileRow(&fifo, p.Bus.Read(tileAddr), p.Bus.Read(tileAddr+1))
			mapPixelX += 8
		}
		px := fifo.pop()
		if screenX >= subSCX {
			x := screenX - subSCX
			color := shade((p.bgp >> (px.color * 2)) & 0x03)
			p.frame.Set(x, int(p.ly), shadeToRGBA(color))
			p.bgColorIndex[x] = px.color
		}
		screenX++
	}
}

func (p *PPU) renderWindow() {
	if p.lcdc&0x20 == 0 || p.lcdc&0x01 == 0 {
		return
	}
	if int(p.wy) > int(p.ly) {
		return
	}
	wx := int(p.wx) - 7
	if wx >= Width {
		return
	}
	if wx < 0 {
		wx = 0
	}

	signed := p.lcdc&0x10 == 0
	tileDataBase := addr.TileData0
	if signed {
		tileDataBase = addr.TileData2
	}
	mapBase := addr.TileMap0
	if p.lcdc&0x40 != 0 {
		mapBase = addr.TileMap1
	}

	tileRow := p.windowLine / 8
	rowInTile := p.windowLine % 8

	var fifo pixelFIFO
	mapTileX := 0
	drew := false
	for x := wx; x < Width; x++ {
		if fifo.len() == 0 {
			tileIndex := p.Bus.Read(mapBase + uint16(tileRow*32+mapTileX))
			tileAddr := tileDataAddr(tileDataBase, signed, tileIndex, rowInTile)
			fetchTileRow(&fifo, p.Bus.Read(tileAddr), p.Bus.Read(tileAddr+1))
			mapTileX++
		}
		px := fifo.pop()
		color := shade((p.bgp >> (px.color * 2)) & 0x03)
		p.frame.Set(x, int(p.ly), shadeToRGBA(color))
		p.bgColorIndex[x] = px.color
		drew = true
	}
	if drew {
		p.windowLine++
	}
}

func (p *PPU) renderSprites() {
	if p.lcdc&0x02 == 0 {
		return
	}
	spriteHeight := 8
	if p.lcdc&0x04 != 0 {
		spriteHeight = 16
	}

	p.priority.reset()
	for _, s := range p.sprites {
		for dx := 0; dx < 8; dx++ {
			p.priority.claim(s.x+dx, s.index, s.x)
		}
	}

	for _, s := range p.sprites {
		owns := false
		for dx := 0; dx < 8; dx++ {
			if p.priority.ownerOf(s.x+dx) == s.index {
				owns = true
				break
			}
		}
		if !owns {
			continue
		}

		flipX := s.flags&0x20 != 0
		flipY := s.flags&0x40 != 0
		aboveBG := s.flags&0x80 == 0
		useOBP1 := s.flags&0x10 != 0

		rowInTile := int(p.ly) - s.y
		if flipY {
			rowInTile = spriteHeight - 1 - rowInTile
		}
		tileIndex := s.tile
		if spriteHeight == 16 {
			tileIndex &= 0xFE
			if rowInTile >= 8 {
				tileIndex++
				rowInTile -= 8
			}
		}
		tileAddr := addr.TileData0 + uint16(tileIndex)*16 + uint16(rowInTile*2)
		low, high := p.Bus.Read(tileAddr), p.Bus.Read(tileAddr+1)

		for dx := 0; dx < 8; dx++ {
			screenX := s.x + dx
			if screenX < 0 || screenX >= Width {
				continue
			}
			if p.priority.ownerOf(screenX) != s.index {
				continue
			}
			bitIdx := 7 - dx
			if flipX {
				bitIdx = dx
			}
			var colorID uint8
			if bit.IsSet(uint8(bitIdx), low) {
				colorID |= 1
			}
			if bit.IsSet(uint8(bitIdx), high) {
				colorID |= 2
			}
			if colorID == 0 {
				continue
			}
			if !aboveBG && p.bgColorIndex[screenX] != 0 {
				continue
			}
			palette := p.obp0
			if useOBP1 {
				palette = p.obp1
			}
			color := shade((palette >> (colorID * 2)) & 0x03)
			p.frame.Set(screenX, int(p.ly), shadeToRGBA(color))
		}
	}
}
