package emulator

import (
	"image"
	"image/color"
)

// The rasterizer draws into an internal RGBA8888 framebuffer regardless
// of the pixel format configured on the color image; the format only
// matters when decoding the fill color and when writing the result back
// to main memory. Pixels are stored as 0xRRGGBBAA words
type Framebuffer struct {
	Width  int      // Width in pixels
	Height int      // Height in pixels
	Pixels []uint32 // Row-major RGBA8888 pixel data
}

// Returns a new framebuffer cleared to zero
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		Width:  width,
		Height: height,
		Pixels: make([]uint32, width*height),
	}
}

// Returns the RGBA8888 value at `x`,`y`, zero when out of bounds
func (fb *Framebuffer) Pixel(x, y int) uint32 {
	if x < 0 || y < 0 || x >= fb.Width || y >= fb.Height {
		return 0
	}
	return fb.Pixels[y*fb.Width+x]
}

// Sets the pixel at `x`,`y`. Out of bounds writes are discarded
func (fb *Framebuffer) SetPixel(x, y int, val uint32) {
	if x < 0 || y < 0 || x >= fb.Width || y >= fb.Height {
		return
	}
	fb.Pixels[y*fb.Width+x] = val
}

// Returns the RGBA color value at `x`,`y`
func (fb *Framebuffer) At(x, y int) color.Color {
	v := fb.Pixel(x, y)
	return color.RGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}
}

// Converts the framebuffer to an image.RGBA for the presentation layer
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))

	// set each pixel
	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			img.Set(x, y, fb.At(x, y))
		}
	}
	return img
}

// Writes the pixel data into `dst` as RGBA bytes, the layout used by
// texture upload APIs. `dst` must hold Width*Height*4 bytes
func (fb *Framebuffer) WriteRGBA(dst []byte) {
	for i, v := range fb.Pixels {
		dst[i*4+0] = byte(v >> 24)
		dst[i*4+1] = byte(v >> 16)
		dst[i*4+2] = byte(v >> 8)
		dst[i*4+3] = byte(v)
	}
}
