package emulator

import (
	"fmt"
	"io"
	"strings"
)

const (
	CART_BANK_SIZE   uint32 = 2 * 1024 * 1024 // Addressable ROM granule
	CART_HEADER_SIZE        = 0x40
	// Header plus the boot code block; the game image proper starts here
	CART_BOOT_SIZE = 0x1000
)

// The three byte orderings a ROM image may be stored in, identified by the
// first four bytes of the header
var (
	romMagicZ64 = [4]byte{0x80, 0x37, 0x12, 0x40} // Big endian (native)
	romMagicV64 = [4]byte{0x37, 0x80, 0x40, 0x12} // Byteswapped
	romMagicN64 = [4]byte{0x40, 0x12, 0x37, 0x80} // Little endian
)

// Types of save memory a cartridge can carry
type SaveType uint8

const (
	SAVE_NONE       SaveType = 0 // No save memory
	SAVE_EEPROM_4K  SaveType = 1 // 4kbit EEPROM (512 bytes)
	SAVE_EEPROM_16K SaveType = 2 // 16kbit EEPROM (2048 bytes)
	SAVE_SRAM       SaveType = 3 // Battery backed SRAM (32KB)
	SAVE_FLASH      SaveType = 4 // Flash memory (128KB)
)

// Save buffer size for each save type
func (st SaveType) Size() uint32 {
	switch st {
	case SAVE_EEPROM_4K:
		return 512
	case SAVE_EEPROM_16K:
		return 2048
	case SAVE_SRAM:
		return 32 * 1024
	case SAVE_FLASH:
		return 128 * 1024
	default:
		return 0
	}
}

func (st SaveType) String() string {
	switch st {
	case SAVE_EEPROM_4K:
		return "eeprom4k"
	case SAVE_EEPROM_16K:
		return "eeprom16k"
	case SAVE_SRAM:
		return "sram"
	case SAVE_FLASH:
		return "flash"
	default:
		return "none"
	}
}

// The ROM header carries no save type field, so the save hardware has to
// be looked up per title. Unlisted titles fall back to SAVE_NONE, which
// silently loses persistence for them
var saveTypeByTitle = []struct {
	Substring string
	Type      SaveType
}{
	{"SUPER MARIO 64", SAVE_EEPROM_4K},
	{"MARIOKART64", SAVE_EEPROM_4K},
	{"STARFOX64", SAVE_EEPROM_4K},
	{"WAVE RACE 64", SAVE_EEPROM_4K},
	{"Banjo-Kazooie", SAVE_EEPROM_4K},
	{"YOSHI STORY", SAVE_EEPROM_16K},
	{"PERFECT DARK", SAVE_EEPROM_16K},
	{"BANJO TOOIE", SAVE_EEPROM_16K},
	{"EXCITEBIKE64", SAVE_EEPROM_16K},
	{"THE LEGEND OF ZELDA", SAVE_SRAM},
	{"F-ZERO X", SAVE_SRAM},
	{"MARIO GOLF64", SAVE_SRAM},
	{"OGRE BATTLE64", SAVE_SRAM},
	{"ZELDA MAJORA'S MASK", SAVE_FLASH},
	{"POKEMON STADIUM", SAVE_FLASH},
	{"PAPER MARIO", SAVE_FLASH},
	{"COMMAND&CONQUER", SAVE_FLASH},
}

// Region codes stored in the header byte at 0x3f
var regionNames = map[byte]string{
	0x37: "Beta",
	0x41: "Asia",
	0x42: "Brazil",
	0x44: "Germany",
	0x45: "USA",
	0x46: "France",
	0x49: "Italy",
	0x4a: "Japan",
	0x50: "Europe",
	0x53: "Spain",
	0x55: "Australia",
	0x58: "PAL",
	0x59: "PAL",
}

// A game cartridge: the ROM image (normalized to big endian), the parsed
// header fields and the save memory, if the title is known to carry any
type Cartridge struct {
	Rom        []byte   // ROM image, big endian byte order
	Title      string   // Trimmed ASCII title from the header
	Region     string   // Region name decoded from the header
	RegionCode byte     // Raw region byte
	ClockRate  uint32   // Clock rate field
	EntryPoint uint32   // Boot entry point
	Crc1       uint32   // Self-reported check code, first word
	Crc2       uint32   // Self-reported check code, second word
	SaveType   SaveType // Kind of save memory this title carries
	Save       []byte   // Save buffer, nil when SaveType is SAVE_NONE
	Bank       uint32   // Bank select register for ROMs larger than one bank
}

// Parses a ROM image. The image must carry a valid header: one of the
// three recognized magic words, a plausible clock rate and an entry point
// inside the high memory boot window. Returns a descriptive error
// otherwise, never a partially valid cartridge
func NewCartridge(data []byte) (*Cartridge, error) {
	// the header and boot code block are both mandatory
	if len(data) < CART_BOOT_SIZE {
		return nil, fmt.Errorf(
			"rom image too small (%d bytes, the header and boot block take 0x%x)",
			len(data), CART_BOOT_SIZE,
		)
	}

	rom := make([]byte, len(data))
	copy(rom, data)

	var magic [4]byte
	copy(magic[:], rom[0:4])
	switch magic {
	case romMagicZ64:
		// native byte order
	case romMagicV64:
		swapRomV64(rom)
	case romMagicN64:
		swapRomN64(rom)
	default:
		return nil, fmt.Errorf(
			"unrecognized rom magic % x (not a z64/v64/n64 image)", magic,
		)
	}

	cart := &Cartridge{
		Rom:        rom,
		ClockRate:  beWord(rom, 0x04),
		EntryPoint: beWord(rom, 0x08),
		Crc1:       beWord(rom, 0x10),
		Crc2:       beWord(rom, 0x14),
		RegionCode: rom[0x3f],
	}

	// the clock rate field is either zero (use default) or a small
	// override value with the low nibble set
	if cart.ClockRate&0xf == 0 && cart.ClockRate != 0 {
		return nil, fmt.Errorf("implausible clock rate 0x%x", cart.ClockRate)
	}

	// the boot entry point always lands in the cached high memory mirror
	if cart.EntryPoint < 0x80000000 || cart.EntryPoint >= 0x80800000 {
		return nil, fmt.Errorf("entry point 0x%x outside boot window", cart.EntryPoint)
	}

	cart.Title = strings.TrimRight(string(rom[0x20:0x34]), " \x00")
	if region, ok := regionNames[cart.RegionCode]; ok {
		cart.Region = region
	} else {
		cart.Region = "Unknown"
	}

	cart.SaveType = detectSaveType(cart.Title)
	if size := cart.SaveType.Size(); size > 0 {
		cart.Save = make([]byte, size)
	}

	return cart, nil
}

// Reads a whole ROM image from `r` and parses it
func LoadCartridge(r io.Reader) (*Cartridge, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return NewCartridge(data)
}

// Swaps a byteswapped (v64) image to big endian in place
func swapRomV64(rom []byte) {
	for i := 0; i+1 < len(rom); i += 2 {
		rom[i], rom[i+1] = rom[i+1], rom[i]
	}
}

// Swaps a little endian (n64) image to big endian in place
func swapRomN64(rom []byte) {
	for i := 0; i+3 < len(rom); i += 4 {
		rom[i], rom[i+1], rom[i+2], rom[i+3] = rom[i+3], rom[i+2], rom[i+1], rom[i]
	}
}

// Looks up the save type for a title
func detectSaveType(title string) SaveType {
	upper := strings.ToUpper(title)
	for _, entry := range saveTypeByTitle {
		if strings.Contains(upper, strings.ToUpper(entry.Substring)) {
			return entry.Type
		}
	}
	return SAVE_NONE
}

// Returns the effective ROM offset for `offset`, redirected through the
// bank register when the image is larger than one bank. Both the bank
// index and the final offset are clamped into the image instead of
// trapping
func (cart *Cartridge) effectiveOffset(offset uint32) uint32 {
	if uint32(len(cart.Rom)) > CART_BANK_SIZE {
		bankCount := (uint32(len(cart.Rom)) + CART_BANK_SIZE - 1) / CART_BANK_SIZE
		bank := cart.Bank
		if bank >= bankCount {
			bank = bankCount - 1
		}
		offset = bank*CART_BANK_SIZE + offset%CART_BANK_SIZE
	}
	if offset >= uint32(len(cart.Rom)) {
		return uint32(len(cart.Rom)) - 1
	}
	return offset
}

// Selects the active ROM bank. Out of range banks are clamped on access
func (cart *Cartridge) SetBank(bank uint32) {
	cart.Bank = bank
}

// Loads a big endian value of `size` at `offset`, redirected through the
// bank register
func (cart *Cartridge) Load(offset uint32, size AccessSize) interface{} {
	var v uint32 = 0
	sizeI := uint32(size)

	for i := uint32(0); i < sizeI; i++ {
		v = v<<8 | uint32(cart.Rom[cart.effectiveOffset(offset+i)])
	}
	return accessSizeU32(size, v)
}

// Load a 32 bit big endian word at `offset`
func (cart *Cartridge) Load32(offset uint32) uint32 {
	return cart.Load(offset, ACCESS_WORD).(uint32)
}

// Load a 16 bit big endian value at `offset`
func (cart *Cartridge) Load16(offset uint32) uint16 {
	return cart.Load(offset, ACCESS_HALFWORD).(uint16)
}

// Fetches the byte at `offset`
func (cart *Cartridge) Load8(offset uint32) byte {
	return cart.Load(offset, ACCESS_BYTE).(byte)
}

// Loads a big endian value of `size` from the save buffer. Reads return
// zero when the cartridge has no save memory
func (cart *Cartridge) LoadSaveMem(offset uint32, size AccessSize) interface{} {
	var v uint32 = 0
	sizeI := uint32(size)

	for i := uint32(0); i < sizeI; i++ {
		var b byte
		if cart.Save != nil {
			b = cart.Save[(offset+i)%uint32(len(cart.Save))]
		}
		v = v<<8 | uint32(b)
	}
	return accessSizeU32(size, v)
}

// Stores a big endian value of `size` into the save buffer. Writes are
// discarded when the cartridge has no save memory
func (cart *Cartridge) StoreSaveMem(offset uint32, size AccessSize, val interface{}) {
	if cart.Save == nil {
		return
	}
	valU32 := accessSizeToU32(size, val)
	sizeI := uint32(size)

	for i := uint32(0); i < sizeI; i++ {
		shift := (sizeI - 1 - i) * 8
		cart.Save[(offset+i)%uint32(len(cart.Save))] = byte(valU32 >> shift)
	}
}

// Returns a copy of the save buffer for the persistence layer, or nil if
// the cartridge has no save memory
func (cart *Cartridge) SaveData() []byte {
	if cart.Save == nil {
		return nil
	}
	data := make([]byte, len(cart.Save))
	copy(data, cart.Save)
	return data
}

// Bulk loads a previously persisted save buffer. A size mismatch is a
// hard failure, the buffer is never padded or truncated
func (cart *Cartridge) LoadSave(data []byte) error {
	if cart.Save == nil {
		if len(data) == 0 {
			return nil
		}
		return fmt.Errorf(
			"cartridge %q has no save memory, got %d bytes", cart.Title, len(data),
		)
	}
	if len(data) != len(cart.Save) {
		return fmt.Errorf(
			"save size mismatch: expected %d bytes, got %d", len(cart.Save), len(data),
		)
	}
	copy(cart.Save, data)
	return nil
}

// Reads a big endian word from `data` at `offset`
func beWord(data []byte, offset uint32) uint32 {
	b0 := uint32(data[offset+0])
	b1 := uint32(data[offset+1])
	b2 := uint32(data[offset+2])
	b3 := uint32(data[offset+3])
	return b0<<24 | b1<<16 | b2<<8 | b3
}
