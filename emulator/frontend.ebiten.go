package emulator

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// An Ebitengine frontend that implements ebiten.Game
type EbitenFrontend struct {
	Console *Console
	texture *ebiten.Image // Upload target for the framebuffer
	pixels  []byte        // Scratch RGBA buffer, reused across frames
}

// Returns a new Ebitengine frontend driving this console
func (console *Console) NewEbitenFrontend() *EbitenFrontend {
	return &EbitenFrontend{Console: console}
}

func (frontend *EbitenFrontend) Update() error {
	frontend.Console.RunFrame()
	return nil
}

func (frontend *EbitenFrontend) Draw(screen *ebiten.Image) {
	fb := frontend.Console.Rdp.Framebuffer

	// the color image width can change between frames
	if frontend.texture == nil ||
		frontend.texture.Bounds().Dx() != fb.Width ||
		frontend.texture.Bounds().Dy() != fb.Height {
		frontend.texture = ebiten.NewImage(fb.Width, fb.Height)
		frontend.pixels = make([]byte, fb.Width*fb.Height*4)
	}

	fb.WriteRGBA(frontend.pixels)
	frontend.texture.WritePixels(frontend.pixels)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(
		float64(screen.Bounds().Dx())/float64(fb.Width),
		float64(screen.Bounds().Dy())/float64(fb.Height),
	)
	screen.DrawImage(frontend.texture, op)
}

func (frontend *EbitenFrontend) Layout(outsideWidth, outsideHeight int) (int, int) {
	return FB_MAX_WIDTH, FB_MAX_HEIGHT
}
