package emulator

var (
	// Main RDRAM, including the expansion pak area
	RDRAM_RANGE = NewRange(0x00000000, RDRAM_ALLOC_SIZE)
	// RSP data memory (4KB)
	SP_DMEM_RANGE = NewRange(0x04000000, SP_MEM_SIZE)
	// RSP instruction memory (4KB)
	SP_IMEM_RANGE = NewRange(0x04001000, SP_MEM_SIZE)
	// RSP DMA and status registers
	SP_REGS_RANGE = NewRange(0x04040000, 32)
	// RSP program counter register
	SP_PC_RANGE = NewRange(0x04080000, 4)
	// RDP command registers (start/end/status)
	DP_REGS_RANGE = NewRange(0x04100000, 16)
	// Cartridge save memory (SRAM/flash) mapping
	SAVE_RANGE = NewRange(0x08000000, 0x08000000)
	// Cartridge ROM mapping
	CART_RANGE = NewRange(0x10000000, 0xfc00000)
)

type Range struct {
	Start  uint32 // Start address
	Length uint32 // Length of the mapping
}

func NewRange(start uint32, length uint32) Range {
	return Range{Start: start, Length: length}
}

// Returns whether `addr` is located inside this range
func (r *Range) Contains(addr uint32) bool {
	return addr >= r.Start && addr < r.Start+r.Length
}

// Returns the offset between `addr` and the `Start` of the range.
// Does not check if the range contains the address, so if `addr`
// is smaller than `Start`, there will be an overflow
func (r *Range) Offset(addr uint32) uint32 {
	return addr - r.Start
}

// Strips the KSEG0/KSEG1 mirror bits from a CPU address. The core does
// not emulate the TLB, all addresses are treated as physical
func maskRegion(addr uint32) uint32 {
	return addr & 0x1fffffff
}
