package emulator

import "testing"

func newTestInterconnect(cart *Cartridge) *Interconnect {
	ram := NewRDRAM()
	return NewInterconnect(ram, cart, NewRSP(ram), NewRDP(ram))
}

func TestMemorySegmentMirrors(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}

	inter := newTestInterconnect(nil)
	inter.Store32(0x80000100, 0xcafebabe)

	// the cached and uncached mirrors see the same physical word
	assert(inter.Load32(0x80000100) == 0xcafebabe)
	assert(inter.Load32(0xa0000100) == 0xcafebabe)
	assert(inter.Load32(0x00000100) == 0xcafebabe)

	// big endian byte order
	assert(inter.Load8(0x80000100) == 0xca)
	assert(inter.Load8(0x80000103) == 0xbe)
	assert(inter.Load16(0x80000102) == 0xbabe)
}

func TestUnmappedAccess(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}

	inter := newTestInterconnect(nil)

	// writes to holes in the map are discarded, reads return zero
	inter.Store32(0x85000000, 0xdeadbeef)
	assert(inter.Load32(0x85000000) == 0)
	assert(inter.Load8(0x85000000) == 0)
}

func TestDoublewordAccess(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}

	inter := newTestInterconnect(nil)
	inter.Store64(0x80000200, 0x0102030405060708)

	assert(inter.Load64(0x80000200) == 0x0102030405060708)
	assert(inter.Load32(0x80000200) == 0x01020304)
	assert(inter.Load32(0x80000204) == 0x05060708)
}

func TestCartridgeWindow(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}

	cart, err := NewCartridge(makeTestRom("TEST GAME"))
	if err != nil {
		t.Fatal(err)
	}
	inter := newTestInterconnect(cart)

	// the ROM is visible through the cartridge window, read only
	assert(inter.Load32(0x10001000) == 0xdeadbeef)
	assert(inter.Load32(0xb0001000) == 0xdeadbeef)
	inter.Store32(0x10001000, 0x11111111)
	assert(inter.Load32(0x10001000) == 0xdeadbeef)
}

func TestSaveMemoryWindow(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}

	cart, err := NewCartridge(makeTestRom("SUPER MARIO 64"))
	if err != nil {
		t.Fatal(err)
	}
	inter := newTestInterconnect(cart)

	inter.Store32(0x08000010, 0x55667788)
	assert(inter.Load32(0x08000010) == 0x55667788)
	assert(cart.LoadSaveMem(0x10, ACCESS_WORD).(uint32) == 0x55667788)
}

func TestSimulateBoot(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}

	cart, err := NewCartridge(makeTestRom("TEST GAME"))
	if err != nil {
		t.Fatal(err)
	}

	ram := NewRDRAM()
	inter := NewInterconnect(ram, cart, NewRSP(ram), NewRDP(ram))
	cpu := NewCPU(inter)
	inter.SimulateBoot(cpu)

	// the game image past the boot block lands at the entry point
	assert(cpu.PC == 0x80001000)
	assert(inter.Load32(0x80001000) == 0xdeadbeef)
}

func TestCoprocessorRegisterWindows(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}

	inter := newTestInterconnect(nil)

	// vector coprocessor DMA registers
	inter.Store32(0x04040000, 0x40)
	inter.Store32(0x04040004, 0x100)
	assert(inter.Load32(0x04040000) == 0x40)
	assert(inter.Load32(0x04040004) == 0x100)

	// its program counter, word aligned
	inter.Store32(0x04080000, 0x123)
	assert(inter.Load32(0x04080000) == 0x120)

	// local memories are addressable directly
	inter.Store32(0x04000000, 0xaabbccdd)
	assert(inter.Load32(0x04000000) == 0xaabbccdd)
	inter.Store32(0x04001000, 0x99887766)
	assert(inter.Load32(0x04001000) == 0x99887766)
	assert(inter.Rsp.LoadInstrMem(0, ACCESS_WORD).(uint32) == 0x99887766)

	// rasterizer transfer registers
	inter.Store32(0x04100000, 0x2000)
	assert(inter.Load32(0x04100000) == 0x2000)
}

func TestConsoleRunFrame(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}

	// the boot payload spins in place: j <entry> / nop
	rom := makeTestRom("TEST GAME")
	putWord(rom, 0x1000, 0x02<<26|(0x80001000&0x0fffffff)>>2)
	putWord(rom, 0x1004, 0)

	cart, err := NewCartridge(rom)
	if err != nil {
		t.Fatal(err)
	}
	console := NewConsole(cart)
	console.RunFrame()

	// the machine survives a frame and no rasterizer frame completed
	assert(console.TakeFrame() == nil)
	assert(console.Cpu.PC&3 == 0)
}
