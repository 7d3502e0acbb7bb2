package video

// spritePriority resolves DMG sprite-to-pixel ownership for one scanline:
// lower X coordinate wins; ties break on lower OAM index (spec §4.5,
// "up to 10 sprites per line ... kept, in OAM order").
//
// Adapted from the teacher's jeebie/video/sprite_priority_buffer.go
// per-pixel ownership model rather than a per-pixel sort.
type spritePriority struct {
	owner  [Width]int
	ownerX [Width]int
}

func (p *spritePriority) reset() {
	for i := range p.owner {
		p.owner[i] = -1
		p.ownerX[i] = 0xFF
	}
}

// claim attempts to give pixelX to spriteIndex (at spriteX), returning
// whether the claim succeeded.
func (p *spritePriority) claim(pixelX, spriteIndex, spriteX int) bool {
	if pixelX < 0 || pixelX >= Width {
		return false
	}
	current := p.owner[pixelX]
	if current == -1 {
		p.owner[pixelX], p.ownerX[pixelX] = spriteIndex, spriteX
		return true
	}
	currentX := p.ownerX[pixelX]
	if spriteX < currentX || (spriteX == currentX && spriteIndex < current) {
		p.owner[pixelX], p.ownerX[pixelX] = spriteIndex, spriteX
		return true
	}
	return false
}

func (p *spritePriority) ownerOf(pixelX int) int {
	if pixelX < 0 || pixelX >= Width {
		return -1
	}
	return p.owner[pixelX]
}
