package emulator

const (
	RDRAM_ALLOC_SIZE = 8 * 1024 * 1024 // Main RDRAM with the expansion pak: 8MB
)

type RDRAM struct {
	Data [RDRAM_ALLOC_SIZE]byte // RDRAM buffer
}

// Creates a new RDRAM instance. The buffer is zeroed, which is also what
// the boot code leaves behind on a cold boot
func NewRDRAM() *RDRAM {
	return &RDRAM{}
}

// Loads a value at `offset`. Values are packed big endian. Every byte
// index wraps inside the window, so an access straddling the top of RAM
// stays defined instead of running past the buffer
func (ram *RDRAM) Load(offset uint32, size AccessSize) interface{} {
	var v uint32 = 0
	sizeI := uint32(size)

	for i := uint32(0); i < sizeI; i++ {
		v = v<<8 | uint32(ram.Data[(offset+i)&(RDRAM_ALLOC_SIZE-1)])
	}
	return accessSizeU32(size, v)
}

// Stores `val` into `offset`. Values are packed big endian, wrapping
// like Load does
func (ram *RDRAM) Store(offset uint32, size AccessSize, val interface{}) {
	valU32 := accessSizeToU32(size, val)
	sizeI := uint32(size)

	for i := uint32(0); i < sizeI; i++ {
		shift := (sizeI - 1 - i) * 8
		ram.Data[(offset+i)&(RDRAM_ALLOC_SIZE-1)] = byte(valU32 >> shift)
	}
}

// Load a 32 bit big endian word at `offset`
func (ram *RDRAM) Load32(offset uint32) uint32 {
	return ram.Load(offset, ACCESS_WORD).(uint32)
}

// Load a 16 bit big endian value at `offset`
func (ram *RDRAM) Load16(offset uint32) uint16 {
	return ram.Load(offset, ACCESS_HALFWORD).(uint16)
}

// Fetches the byte at `offset`
func (ram *RDRAM) Load8(offset uint32) byte {
	return ram.Load(offset, ACCESS_BYTE).(byte)
}

// Store a 32 bit big endian word `val` into `offset`
func (ram *RDRAM) Store32(offset, val uint32) {
	ram.Store(offset, ACCESS_WORD, val)
}

// Stores a 16 bit big endian value into `offset`
func (ram *RDRAM) Store16(offset uint32, val uint16) {
	ram.Store(offset, ACCESS_HALFWORD, val)
}

// Sets the byte at `offset`
func (ram *RDRAM) Store8(offset uint32, val byte) {
	ram.Store(offset, ACCESS_BYTE, val)
}
