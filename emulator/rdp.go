package emulator

// RDP command opcodes, the 6 bit field in bits [29:24] of the leading
// command word
const (
	RDP_OP_NOP               = 0x00
	RDP_OP_TEXTURE_RECTANGLE = 0x24
	RDP_OP_SYNC_LOAD         = 0x26
	RDP_OP_SYNC_PIPE         = 0x27
	RDP_OP_SYNC_TILE         = 0x28
	RDP_OP_SYNC_FULL         = 0x29
	RDP_OP_SET_SCISSOR       = 0x2d
	RDP_OP_SET_OTHER_MODES   = 0x2f
	RDP_OP_SET_TILE_SIZE     = 0x32
	RDP_OP_LOAD_BLOCK        = 0x33
	RDP_OP_LOAD_TILE         = 0x34
	RDP_OP_SET_TILE          = 0x35
	RDP_OP_FILL_RECTANGLE    = 0x36
	RDP_OP_SET_FILL_COLOR    = 0x37
	RDP_OP_SET_FOG_COLOR     = 0x38
	RDP_OP_SET_BLEND_COLOR   = 0x39
	RDP_OP_SET_PRIM_COLOR    = 0x3a
	RDP_OP_SET_ENV_COLOR     = 0x3b
	RDP_OP_SET_COMBINE       = 0x3c
	RDP_OP_SET_TEXTURE_IMAGE = 0x3d
	RDP_OP_SET_Z_IMAGE       = 0x3e
	RDP_OP_SET_COLOR_IMAGE   = 0x3f
)

// Pixel sizes used by the color/texture image descriptors, stored in
// bits [20:19] of the descriptor word
const (
	PIXEL_SIZE_4BIT  = 0
	PIXEL_SIZE_8BIT  = 1
	PIXEL_SIZE_16BIT = 2 // 5/5/5/1
	PIXEL_SIZE_32BIT = 3 // 8/8/8/8
)

const (
	FB_MAX_WIDTH  = 640
	FB_MAX_HEIGHT = 480
)

// Number of trailing words each opcode consumes after the leading word.
// Commands are 64 bit pairs, so the baseline is one trailing word; the
// triangle commands carry extra coefficient blocks and the texture
// rectangle carries its coordinate steps. The table is also what keeps
// the queue aligned across unknown opcodes: they are skipped by length,
// never surfaced as an error
var rdpCommandLength = func() [64]uint8 {
	var t [64]uint8
	for i := range t {
		t[i] = 1
	}
	t[0x08] = 7  // unshaded triangle
	t[0x09] = 11 // unshaded, z-buffered
	t[0x0a] = 23 // textured
	t[0x0b] = 27 // textured, z-buffered
	t[0x0c] = 23 // shaded
	t[0x0d] = 27 // shaded, z-buffered
	t[0x0e] = 39 // shaded, textured
	t[0x0f] = 43 // shaded, textured, z-buffered
	t[RDP_OP_TEXTURE_RECTANGLE] = 3
	t[0x25] = 3 // texture rectangle flip
	return t
}()

// Samples a texel for the texture rectangle walk. Coordinates are 10.5
// fixed point; the return value is an RGBA8888 pixel. Texture decoding
// is pluggable, the command processor only steps the coordinates
type TextureSampler func(s, t int32) uint32

// Describes the texture tile configured by SET_TILE/SET_TEXTURE_IMAGE
type TextureDescriptor struct {
	Addr     uint32 // Texture image address in main memory
	Width    uint32 // Texture image width in pixels
	Format   uint32 // Color format field
	Size     uint32 // Pixel size field
	TmemAddr uint32 // Tile address inside texture memory
	Line     uint32 // Tile line stride
}

// The command processor: drains a FIFO of 32 bit command words,
// mutating the render state on SET_* commands and rasterizing into the
// internal framebuffer on drawing commands
type RDP struct {
	Queue *CommandQueue // Pending command words
	Ram   *RDRAM        // Writeback target for SYNC_FULL

	// render state, mutated only by the dedicated SET_* commands
	FillColor      uint32            // Packed fill color in color image format
	BlendColor     uint32            // Blend color
	FogColor       uint32            // Fog color
	EnvColor       uint32            // Environment color
	PrimColor      uint32            // Primitive color
	CombineHi      uint32            // Combine mode, first cycle word
	CombineLo      uint32            // Combine mode, second cycle word
	OtherModesHi   uint32            // Render mode, high word
	OtherModesLo   uint32            // Render mode, low word
	Texture        TextureDescriptor // Current texture descriptor
	ColorImageAddr uint32            // Color image address in main memory
	ColorImageSize uint32            // Color image pixel size field
	ScissorX0      int               // Scissor rectangle, inclusive left
	ScissorY0      int               // Scissor rectangle, inclusive top
	ScissorX1      int               // Scissor rectangle, exclusive right
	ScissorY1      int               // Scissor rectangle, exclusive bottom

	Framebuffer *Framebuffer // Internal RGBA8888 render target
	Sampler     TextureSampler

	// command transfer registers in the coprocessor window
	Start uint32 // Transfer start address
	End   uint32 // Transfer end address

	FrameComplete bool // Set by SYNC_FULL, cleared by the frontend
}

// Creates a new RDP with an empty queue and a full size framebuffer
func NewRDP(ram *RDRAM) *RDP {
	rdp := &RDP{
		Queue: NewCommandQueue(),
		Ram:   ram,
	}
	rdp.Reset()
	return rdp
}

// Resets the render state and clears the queue
func (rdp *RDP) Reset() {
	rdp.Queue.Clear()
	rdp.Framebuffer = NewFramebuffer(FB_MAX_WIDTH, FB_MAX_HEIGHT)
	rdp.FillColor = 0
	rdp.BlendColor = 0
	rdp.FogColor = 0
	rdp.EnvColor = 0
	rdp.PrimColor = 0
	rdp.CombineHi = 0
	rdp.CombineLo = 0
	rdp.OtherModesHi = 0
	rdp.OtherModesLo = 0
	rdp.Texture = TextureDescriptor{}
	rdp.ColorImageAddr = 0
	rdp.ColorImageSize = PIXEL_SIZE_16BIT
	rdp.ScissorX0 = 0
	rdp.ScissorY0 = 0
	rdp.ScissorX1 = FB_MAX_WIDTH
	rdp.ScissorY1 = FB_MAX_HEIGHT
	rdp.FrameComplete = false
	rdp.Start = 0
	rdp.End = 0
}

// Plugs in the texture sampling function used by TEXTURE_RECTANGLE
func (rdp *RDP) SetSampler(sampler TextureSampler) {
	rdp.Sampler = sampler
}

// Pushes a command word onto the queue
func (rdp *RDP) PushWord(word uint32) {
	rdp.Queue.Push(word)
}

// Returns the value of a command transfer register
func (rdp *RDP) LoadReg(offset uint32) uint32 {
	switch offset {
	case 0x0:
		return rdp.Start
	case 0x4:
		return rdp.End
	case 0x8: // current address, transfers complete synchronously
		return rdp.End
	default:
		return 0
	}
}

// Handles a write to a command transfer register. Writing the end
// register copies the word range [start, end) from main memory into the
// command queue, which is how the CPU feeds the rasterizer
func (rdp *RDP) StoreReg(offset, val uint32) {
	switch offset {
	case 0x0:
		rdp.Start = val & 0xfffffc
	case 0x4:
		rdp.End = val & 0xfffffc
		for addr := rdp.Start; addr < rdp.End; addr += 4 {
			rdp.Queue.Push(rdp.Ram.Load32(addr))
		}
		rdp.Start = rdp.End
	}
}

// Drains the entire command queue. Each leading word selects an opcode
// whose trailing words are consumed according to the fixed length
// table, recognized or not
func (rdp *RDP) ProcessCommands() {
	var args [64]uint32

	for !rdp.Queue.IsEmpty() {
		word := rdp.Queue.Pop()
		// the command id is the 6 bit field in bits [29:24]; bits
		// [31:30] carry transfer flags in DMA-sourced words and are
		// never part of the id
		opcode := (word >> 24) & 0x3f

		count := uint32(rdpCommandLength[opcode])
		if uint32(rdp.Queue.Length()) < count {
			// a truncated command can never complete, drop it instead
			// of desynchronizing the next transfer
			rdp.Queue.Clear()
			return
		}
		for i := uint32(0); i < count; i++ {
			args[i] = rdp.Queue.Pop()
		}

		switch opcode {
		case RDP_OP_NOP:
		case RDP_OP_TEXTURE_RECTANGLE, 0x25:
			rdp.OpTextureRectangle(word, args[0], args[1], args[2])
		case RDP_OP_SYNC_LOAD, RDP_OP_SYNC_PIPE, RDP_OP_SYNC_TILE:
			// pipeline syncs: drawing is synchronous here
		case RDP_OP_SYNC_FULL:
			rdp.OpSyncFull()
		case RDP_OP_SET_SCISSOR:
			rdp.OpSetScissor(word, args[0])
		case RDP_OP_SET_OTHER_MODES:
			rdp.OtherModesHi = word & 0xffffff
			rdp.OtherModesLo = args[0]
		case RDP_OP_SET_TILE_SIZE, RDP_OP_LOAD_BLOCK, RDP_OP_LOAD_TILE:
			// texture memory loads: sampling is pluggable, nothing to do
		case RDP_OP_SET_TILE:
			rdp.Texture.TmemAddr = word & 0x1ff
			rdp.Texture.Line = (word >> 9) & 0x1ff
		case RDP_OP_FILL_RECTANGLE:
			rdp.OpFillRectangle(word, args[0])
		case RDP_OP_SET_FILL_COLOR:
			rdp.FillColor = args[0]
		case RDP_OP_SET_FOG_COLOR:
			rdp.FogColor = args[0]
		case RDP_OP_SET_BLEND_COLOR:
			rdp.BlendColor = args[0]
		case RDP_OP_SET_PRIM_COLOR:
			rdp.PrimColor = args[0]
		case RDP_OP_SET_ENV_COLOR:
			rdp.EnvColor = args[0]
		case RDP_OP_SET_COMBINE:
			rdp.CombineHi = word & 0xffffff
			rdp.CombineLo = args[0]
		case RDP_OP_SET_TEXTURE_IMAGE:
			rdp.Texture.Format = (word >> 21) & 0x7
			rdp.Texture.Size = (word >> 19) & 0x3
			rdp.Texture.Width = (word & 0x3ff) + 1
			rdp.Texture.Addr = args[0] & 0xffffff
		case RDP_OP_SET_Z_IMAGE:
			// no depth buffer is emulated
		case RDP_OP_SET_COLOR_IMAGE:
			rdp.OpSetColorImage(word, args[0])
		default:
			// unknown opcode: its words were consumed by the length
			// table, the queue stays aligned
		}
	}
}

// Decodes the two 10.2 fixed point corner pairs shared by the rectangle
// commands. Returns integer pixel coordinates, half open on the
// right/bottom edge
func decodeRectangle(w0, w1 uint32) (x0, y0, x1, y1 int) {
	x1 = int((w0 >> 14) & 0x3ff)
	y1 = int((w0 >> 2) & 0x3ff)
	x0 = int((w1 >> 14) & 0x3ff)
	y0 = int((w1 >> 2) & 0x3ff)
	return x0, y0, x1, y1
}

// Clamps a rectangle to the scissor and the framebuffer bounds
func (rdp *RDP) clipRectangle(x0, y0, x1, y1 int) (int, int, int, int) {
	if x0 < rdp.ScissorX0 {
		x0 = rdp.ScissorX0
	}
	if y0 < rdp.ScissorY0 {
		y0 = rdp.ScissorY0
	}
	if x1 > rdp.ScissorX1 {
		x1 = rdp.ScissorX1
	}
	if y1 > rdp.ScissorY1 {
		y1 = rdp.ScissorY1
	}
	if x1 > rdp.Framebuffer.Width {
		x1 = rdp.Framebuffer.Width
	}
	if y1 > rdp.Framebuffer.Height {
		y1 = rdp.Framebuffer.Height
	}
	return x0, y0, x1, y1
}

// SET_SCISSOR: both corner pairs are 10.2 fixed point
func (rdp *RDP) OpSetScissor(w0, w1 uint32) {
	x0, y0, x1, y1 := decodeRectangle(w1, w0)
	rdp.ScissorX0 = x0
	rdp.ScissorY0 = y0
	rdp.ScissorX1 = x1
	rdp.ScissorY1 = y1
}

// SET_COLOR_IMAGE: configures the pixel format and address the
// framebuffer is written back to
func (rdp *RDP) OpSetColorImage(w0, w1 uint32) {
	rdp.ColorImageSize = (w0 >> 19) & 0x3
	rdp.ColorImageAddr = w1 & 0xffffff

	width := int(w0&0x3ff) + 1
	if width > FB_MAX_WIDTH {
		width = FB_MAX_WIDTH
	}
	if width != rdp.Framebuffer.Width {
		rdp.Framebuffer = NewFramebuffer(width, FB_MAX_HEIGHT)
	}
}

// Expands a 5 bit channel to 8 bits
func expand5(v uint32) uint32 {
	return v<<3 | v>>2
}

// Decodes the fill color register into RGBA8888 using the pixel format
// currently configured on the color image
func (rdp *RDP) decodeFillColor() uint32 {
	if rdp.ColorImageSize == PIXEL_SIZE_32BIT {
		return rdp.FillColor
	}

	// 16 bit mode packs two 5/5/5/1 pixels into the register, decode
	// the low one
	v := rdp.FillColor & 0xffff
	r := expand5((v >> 11) & 0x1f)
	g := expand5((v >> 6) & 0x1f)
	b := expand5((v >> 1) & 0x1f)
	var a uint32
	if v&1 != 0 {
		a = 0xff
	}
	return r<<24 | g<<16 | b<<8 | a
}

// FILL_RECTANGLE: paints the decoded fill color into an axis aligned
// region, clipped to the scissor and the framebuffer bounds
func (rdp *RDP) OpFillRectangle(w0, w1 uint32) {
	x0, y0, x1, y1 := decodeRectangle(w0, w1)
	x0, y0, x1, y1 = rdp.clipRectangle(x0, y0, x1, y1)
	pixel := rdp.decodeFillColor()

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			rdp.Framebuffer.SetPixel(x, y, pixel)
		}
	}
}

// TEXTURE_RECTANGLE: walks the region stepping 10.5 fixed point texture
// coordinates through the pluggable sampler. `w2` carries the start
// coordinates, `w3` the per pixel deltas in 5.10 fixed point
func (rdp *RDP) OpTextureRectangle(w0, w1, w2, w3 uint32) {
	x0, y0, x1, y1 := decodeRectangle(w0, w1)
	x0, y0, x1, y1 = rdp.clipRectangle(x0, y0, x1, y1)

	if rdp.Sampler == nil {
		return
	}

	s0 := int32(int16(w2 >> 16))
	t0 := int32(int16(w2))
	dsdx := int32(int16(w3>>16)) >> 5 // 5.10 step to 10.5 coordinate space
	dtdy := int32(int16(w3)) >> 5

	t := t0
	for y := y0; y < y1; y++ {
		s := s0
		for x := x0; x < x1; x++ {
			rdp.Framebuffer.SetPixel(x, y, rdp.Sampler(s, t))
			s += dsdx
		}
		t += dtdy
	}
}

// SYNC_FULL: end of frame. The framebuffer is written back to main
// memory at the color image address, byte by byte in the configured
// pixel format
func (rdp *RDP) OpSyncFull() {
	fb := rdp.Framebuffer
	addr := rdp.ColorImageAddr

	for i, v := range fb.Pixels {
		if rdp.ColorImageSize == PIXEL_SIZE_32BIT {
			rdp.Ram.Store32(addr+uint32(i)*4, v)
		} else {
			p := uint16(v>>27&0x1f)<<11 | uint16(v>>19&0x1f)<<6 |
				uint16(v>>11&0x1f)<<1 | uint16(v&1)
			rdp.Ram.Store16(addr+uint32(i)*2, p)
		}
	}

	rdp.FrameComplete = true
}
