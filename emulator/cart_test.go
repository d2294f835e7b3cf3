package emulator

import "testing"

func putWord(data []byte, offset, val uint32) {
	data[offset+0] = byte(val >> 24)
	data[offset+1] = byte(val >> 16)
	data[offset+2] = byte(val >> 8)
	data[offset+3] = byte(val)
}

// Builds a minimal big endian ROM image with a valid header
func makeTestRom(title string) []byte {
	rom := make([]byte, 0x2000)
	copy(rom[0:4], romMagicZ64[:])
	putWord(rom, 0x04, 0x0000000f) // clock rate
	putWord(rom, 0x08, 0x80001000) // entry point
	putWord(rom, 0x10, 0x12345678) // crc1
	putWord(rom, 0x14, 0x9abcdef0) // crc2
	for i := 0x20; i < 0x34; i++ {
		rom[i] = ' '
	}
	copy(rom[0x20:0x34], title)
	rom[0x3f] = 0x45 // USA

	// recognizable payload past the boot block
	putWord(rom, 0x1000, 0xdeadbeef)
	return rom
}

func TestCartridgeHeader(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}

	cart, err := NewCartridge(makeTestRom("TEST GAME"))
	if err != nil {
		t.Fatal(err)
	}

	assert(cart.Title == "TEST GAME")
	assert(cart.Region == "USA")
	assert(cart.RegionCode == 0x45)
	assert(cart.ClockRate == 0x0000000f)
	assert(cart.EntryPoint == 0x80001000)
	assert(cart.Crc1 == 0x12345678)
	assert(cart.Crc2 == 0x9abcdef0)
	assert(cart.SaveType == SAVE_NONE)
}

func TestRomByteOrders(t *testing.T) {
	z64 := makeTestRom("TEST GAME")

	v64 := make([]byte, len(z64))
	for i := 0; i < len(z64); i += 2 {
		v64[i] = z64[i+1]
		v64[i+1] = z64[i]
	}

	n64 := make([]byte, len(z64))
	for i := 0; i < len(z64); i += 4 {
		n64[i] = z64[i+3]
		n64[i+1] = z64[i+2]
		n64[i+2] = z64[i+1]
		n64[i+3] = z64[i]
	}

	for idx, image := range [][]byte{z64, v64, n64} {
		cart, err := NewCartridge(image)
		if err != nil {
			t.Fatalf("image %d: %v", idx, err)
		}
		if cart.Title != "TEST GAME" {
			t.Errorf("image %d: bad title %q", idx, cart.Title)
		}
		if cart.Load32(0x1000) != 0xdeadbeef {
			t.Errorf("image %d: payload not normalized", idx)
		}
	}
}

func TestInvalidHeaders(t *testing.T) {
	shouldFail := func(desc string, rom []byte) {
		if _, err := NewCartridge(rom); err == nil {
			t.Errorf("%s: expected an error", desc)
		}
	}

	shouldFail("truncated image", make([]byte, 0x10))

	// a valid header is not enough: the boot code block up to 0x1000 is
	// part of the image format too
	shouldFail("image without a boot block", makeTestRom("TEST GAME")[:CART_HEADER_SIZE])

	rom := makeTestRom("TEST GAME")
	rom[0] = 0x00
	shouldFail("bad magic", rom)

	rom = makeTestRom("TEST GAME")
	putWord(rom, 0x04, 0x00000010) // low nibble clear but non-zero
	shouldFail("implausible clock rate", rom)

	rom = makeTestRom("TEST GAME")
	putWord(rom, 0x08, 0x10001000) // outside the boot window
	shouldFail("bad entry point", rom)
}

func TestSaveTypeDetection(t *testing.T) {
	tests := []struct {
		Title string
		Type  SaveType
		Size  uint32
	}{
		{"SUPER MARIO 64", SAVE_EEPROM_4K, 512},
		{"YOSHI STORY", SAVE_EEPROM_16K, 2048},
		{"THE LEGEND OF ZELDA", SAVE_SRAM, 32 * 1024},
		{"ZELDA MAJORA'S MASK", SAVE_FLASH, 128 * 1024},
		{"MYSTERY GAME", SAVE_NONE, 0},
	}

	for _, test := range tests {
		cart, err := NewCartridge(makeTestRom(test.Title))
		if err != nil {
			t.Fatal(err)
		}
		if cart.SaveType != test.Type {
			t.Errorf("%q: expected %s, got %s", test.Title, test.Type, cart.SaveType)
		}
		if uint32(len(cart.Save)) != test.Size {
			t.Errorf("%q: save buffer is %d bytes", test.Title, len(cart.Save))
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}

	cart, err := NewCartridge(makeTestRom("SUPER MARIO 64"))
	if err != nil {
		t.Fatal(err)
	}

	cart.StoreSaveMem(0x10, ACCESS_WORD, uint32(0xcafebabe))
	cart.StoreSaveMem(0x20, ACCESS_BYTE, byte(0x5a))
	assert(cart.LoadSaveMem(0x10, ACCESS_WORD).(uint32) == 0xcafebabe)
	assert(cart.LoadSaveMem(0x20, ACCESS_BYTE).(byte) == 0x5a)

	// persist and restore into a fresh cartridge
	data := cart.SaveData()
	fresh, err := NewCartridge(makeTestRom("SUPER MARIO 64"))
	if err != nil {
		t.Fatal(err)
	}
	if err := fresh.LoadSave(data); err != nil {
		t.Fatal(err)
	}
	assert(fresh.LoadSaveMem(0x10, ACCESS_WORD).(uint32) == 0xcafebabe)

	// a size mismatch is rejected, not padded
	if err := fresh.LoadSave(make([]byte, 3)); err == nil {
		t.Error("expected an error for a mismatched save size")
	}
}

func TestNoSaveMemory(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}

	cart, err := NewCartridge(makeTestRom("MYSTERY GAME"))
	if err != nil {
		t.Fatal(err)
	}

	// writes are discarded, reads return zero
	cart.StoreSaveMem(0, ACCESS_WORD, uint32(0x11223344))
	assert(cart.LoadSaveMem(0, ACCESS_WORD).(uint32) == 0)
	assert(cart.SaveData() == nil)
	assert(cart.LoadSave(nil) == nil)
	assert(cart.LoadSave([]byte{1}) != nil)
}

func TestRomBanking(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}

	// three banks, the last one partial
	rom := make([]byte, 5*1024*1024)
	base := makeTestRom("TEST GAME")
	copy(rom, base)
	putWord(rom, 2*CART_BANK_SIZE+0x10, 0xfeedface)

	cart, err := NewCartridge(rom)
	if err != nil {
		t.Fatal(err)
	}

	assert(cart.Load32(0x1000) == 0xdeadbeef)

	cart.SetBank(2)
	assert(cart.Load32(0x10) == 0xfeedface)

	// out of range banks clamp to the last one
	cart.SetBank(99)
	assert(cart.Load32(0x10) == 0xfeedface)
	cart.SetBank(0)
	assert(cart.Load32(0x1000) == 0xdeadbeef)
}

func TestBigEndianRomAccess(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}

	cart, err := NewCartridge(makeTestRom("TEST GAME"))
	if err != nil {
		t.Fatal(err)
	}

	assert(cart.Load32(0x1000) == 0xdeadbeef)
	assert(cart.Load16(0x1000) == 0xdead)
	assert(cart.Load16(0x1002) == 0xbeef)
	assert(cart.Load8(0x1000) == 0xde)
	assert(cart.Load8(0x1003) == 0xef)
}
