package emulator

import "testing"

func TestRdramTopOfWindowWraps(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}

	ram := NewRDRAM()
	top := uint32(RDRAM_ALLOC_SIZE - 1)

	// a halfword straddling the top of RAM wraps to the bottom instead
	// of running past the buffer
	ram.Store16(top, 0xaabb)
	assert(ram.Data[top] == 0xaa)
	assert(ram.Data[0] == 0xbb)
	assert(ram.Load16(top) == 0xaabb)

	ram.Store32(top, 0x11223344)
	assert(ram.Data[top] == 0x11)
	assert(ram.Data[0] == 0x22)
	assert(ram.Data[1] == 0x33)
	assert(ram.Data[2] == 0x44)
	assert(ram.Load32(top) == 0x11223344)

	// offsets above the window mirror into it
	ram.Store8(RDRAM_ALLOC_SIZE+5, 0x5a)
	assert(ram.Load8(5) == 0x5a)
}
