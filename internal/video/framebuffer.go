// Package video implements the PPU: mode FSM, OAM scan, background/window
// pixel FIFO and fetcher, a per-scanline sprite pass (sprites do not go
// through a FIFO), tile addressing, palettes, and the 160x144 RGBA8
// framebuffer (spec §4.5).
//
// Grounded on the teacher's jeebie/video/gpu.go (dot-counted mode FSM,
// per-scanline drawBackground/drawWindow/drawSprites passes) and
// original_source/src/ppu.h (FIFO-based pixel pipeline terminology).
package video

import "github.com/lucasb-eyer/go-colorful"

const (
	Width  = 160
	Height = 144
)

// shade is one of the four 2-bit monochrome color ids a palette byte maps
// color indices to.
type shade uint8

// shadeRGBA gives each of the four DMG shades a perceptual RGB value via
// go-colorful rather than a hand-picked byte triplet, then freezes the
// result to RGBA8 once at package init.
var shadeRGBA [4]uint32

func init() {
	shades := [4]colorful.Color{
		{R: 1.00, G: 1.00, B: 1.00}, // shade 0: white
		{R: 0.64, G: 0.64, B: 0.64}, // shade 1: light grey
		{R: 0.32, G: 0.32, B: 0.32}, // shade 2: dark grey
		{R: 0.00, G: 0.00, B: 0.00}, // shade 3: black
	}
	for i, c := range shades {
		r, g, b := c.RGB255()
		shadeRGBA[i] = uint32(r)<<24 | uint32(g)<<16 | uint32(b)<<8 | 0xFF
	}
}

func shadeToRGBA(s shade) uint32 { return shadeRGBA[s&0x03] }

// FrameBuffer is the PPU's abstract 160x144 RGBA8 output surface; an
// external renderer owns turning it into pixels on screen (spec §1).
type FrameBuffer struct {
	pixels [Width * Height]uint32
}

// Set writes an RGBA8 pixel at (x, y).
func (f *FrameBuffer) Set(x, y int, rgba uint32) {
	f.pixels[y*Width+x] = rgba
}

// Get reads the RGBA8 pixel at (x, y).
func (f *FrameBuffer) Get(x, y int) uint32 {
	return f.pixels[y*Width+x]
}

// Pixels exposes the raw RGBA8 row-major buffer for an external renderer.
func (f *FrameBuffer) Pixels() []uint32 { return f.pixels[:] }
