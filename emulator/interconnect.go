package emulator

// Global interconnect. It maps the physical address space to RDRAM, the
// cartridge and the coprocessor register windows. Out of range reads
// return zero and out of range writes are discarded, which keeps a
// misbehaving guest from taking down the host (real hardware would raise
// a bus error instead)
type Interconnect struct {
	Ram  *RDRAM     // Main memory
	Cart *Cartridge // Game cartridge
	Rsp  *RSP       // Vector coprocessor
	Rdp  *RDP       // Rasterizer
}

// Creates a new interconnect instance
func NewInterconnect(ram *RDRAM, cart *Cartridge, rsp *RSP, rdp *RDP) *Interconnect {
	inter := &Interconnect{
		Ram:  ram,
		Cart: cart,
		Rsp:  rsp,
		Rdp:  rdp,
	}
	return inter
}

// Loads a value of `size` at `addr`
func (inter *Interconnect) Load(addr uint32, size AccessSize) interface{} {
	addr = maskRegion(addr)

	if RDRAM_RANGE.Contains(addr) {
		return inter.Ram.Load(RDRAM_RANGE.Offset(addr), size)
	}
	if SP_DMEM_RANGE.Contains(addr) {
		return inter.Rsp.LoadDataMem(SP_DMEM_RANGE.Offset(addr), size)
	}
	if SP_IMEM_RANGE.Contains(addr) {
		return inter.Rsp.LoadInstrMem(SP_IMEM_RANGE.Offset(addr), size)
	}
	if SP_REGS_RANGE.Contains(addr) {
		return accessSizeU32(size, inter.Rsp.LoadReg(SP_REGS_RANGE.Offset(addr)))
	}
	if SP_PC_RANGE.Contains(addr) {
		return accessSizeU32(size, inter.Rsp.PC)
	}
	if DP_REGS_RANGE.Contains(addr) {
		return accessSizeU32(size, inter.Rdp.LoadReg(DP_REGS_RANGE.Offset(addr)))
	}
	if SAVE_RANGE.Contains(addr) {
		return inter.Cart.LoadSaveMem(SAVE_RANGE.Offset(addr), size)
	}
	if CART_RANGE.Contains(addr) {
		return inter.Cart.Load(CART_RANGE.Offset(addr), size)
	}

	// unmapped: defined zero fill
	return accessSizeU32(size, 0)
}

// Stores `val` of `size` into `addr`
func (inter *Interconnect) Store(addr uint32, size AccessSize, val interface{}) {
	addr = maskRegion(addr)

	switch {
	case RDRAM_RANGE.Contains(addr):
		inter.Ram.Store(RDRAM_RANGE.Offset(addr), size, val)
	case SP_DMEM_RANGE.Contains(addr):
		inter.Rsp.StoreDataMem(SP_DMEM_RANGE.Offset(addr), size, val)
	case SP_IMEM_RANGE.Contains(addr):
		inter.Rsp.StoreInstrMem(SP_IMEM_RANGE.Offset(addr), size, val)
	case SP_REGS_RANGE.Contains(addr):
		inter.Rsp.StoreReg(SP_REGS_RANGE.Offset(addr), accessSizeToU32(size, val))
	case SP_PC_RANGE.Contains(addr):
		inter.Rsp.PC = accessSizeToU32(size, val) & 0xffc
	case DP_REGS_RANGE.Contains(addr):
		inter.Rdp.StoreReg(DP_REGS_RANGE.Offset(addr), accessSizeToU32(size, val))
	case SAVE_RANGE.Contains(addr):
		inter.Cart.StoreSaveMem(SAVE_RANGE.Offset(addr), size, val)
	default:
		// ROM and unmapped regions: silently discarded
	}
}

// Returns a 32 bit big endian value at `addr`
func (inter *Interconnect) Load32(addr uint32) uint32 {
	return inter.Load(addr, ACCESS_WORD).(uint32)
}

// Returns a 16 bit big endian value at `addr`
func (inter *Interconnect) Load16(addr uint32) uint16 {
	return inter.Load(addr, ACCESS_HALFWORD).(uint16)
}

// Returns the byte at `addr`
func (inter *Interconnect) Load8(addr uint32) byte {
	return inter.Load(addr, ACCESS_BYTE).(byte)
}

// Returns a 64 bit big endian value at `addr`, composed of two word
// accesses
func (inter *Interconnect) Load64(addr uint32) uint64 {
	hi := uint64(inter.Load32(addr))
	lo := uint64(inter.Load32(addr + 4))
	return hi<<32 | lo
}

// Stores a 32 bit big endian value into `addr`
func (inter *Interconnect) Store32(addr, val uint32) {
	inter.Store(addr, ACCESS_WORD, val)
}

// Stores a 16 bit big endian value into `addr`
func (inter *Interconnect) Store16(addr uint32, val uint16) {
	inter.Store(addr, ACCESS_HALFWORD, val)
}

// Sets the byte at `addr`
func (inter *Interconnect) Store8(addr uint32, val byte) {
	inter.Store(addr, ACCESS_BYTE, val)
}

// Stores a 64 bit big endian value into `addr` with two word accesses
func (inter *Interconnect) Store64(addr uint32, val uint64) {
	inter.Store32(addr, uint32(val>>32))
	inter.Store32(addr+4, uint32(val))
}

// Performs the work of the boot code: copies the boot segment of the
// cartridge into RDRAM at the entry point and points the CPU at it
func (inter *Interconnect) SimulateBoot(cpu *CPU) {
	entry := inter.Cart.EntryPoint
	dest := maskRegion(entry)

	// the boot code copies up to 1MB of the game image, starting right
	// after the header and boot code block
	length := uint32(len(inter.Cart.Rom)) - 0x1000
	if length > 0x100000 {
		length = 0x100000
	}
	for i := uint32(0); i < length; i++ {
		inter.Ram.Store8(dest+i, inter.Cart.Rom[0x1000+i])
	}

	cpu.PC = entry
}
