package emulator

const (
	SP_MEM_SIZE = 4096 // Both DMEM and IMEM are 4KB

	// Upper bound on retired RSP instructions per ExecuteFrame call. A
	// throttle against runaway microcode, not a timing model
	RSP_FRAME_INSTRUCTION_LIMIT = 100000
)

// RSP execution states
type RspState int

const (
	RSP_STATE_HALTED  RspState = iota // Waiting for the CPU to start a task
	RSP_STATE_RUNNING                 // Executing microcode
	RSP_STATE_BROKE                   // Halted itself with BREAK
)

// The vector coprocessor: a second, smaller MIPS style interpreter with
// its own register file, private instruction and data memories and a
// SIMD lane register file. The CPU stages a microcode task over DMA,
// kicks execution through the status register and collects the results
// over DMA again
type RSP struct {
	State RspState
	PC    uint32            // Program counter inside IMEM
	Regs  [32]uint32        // Scalar registers. The first value must always be 0
	VRegs [32][8]uint16     // Vector registers: 8 lanes of 16 bits each
	Accum [8]uint64         // Per-lane multiply accumulator (48 bits used)
	Imem  [SP_MEM_SIZE]byte // Private instruction memory
	Dmem  [SP_MEM_SIZE]byte // Private data memory

	Ram *RDRAM // DMA endpoint, the only window into main memory

	MemAddr  uint32 // DMA local address register, bit 12 selects IMEM
	DramAddr uint32 // DMA main memory address register

	// Branch delay machinery, same discipline as the main CPU
	BranchPending bool
	BranchTarget  uint32
	currentPC     uint32
}

// Creates a new halted RSP
func NewRSP(ram *RDRAM) *RSP {
	rsp := &RSP{Ram: ram}
	rsp.Reset()
	return rsp
}

// Resets the RSP to its halted boot state
func (rsp *RSP) Reset() {
	rsp.State = RSP_STATE_HALTED
	rsp.PC = 0
	for i := range rsp.Regs {
		rsp.Regs[i] = 0
	}
	rsp.BranchPending = false
	rsp.MemAddr = 0
	rsp.DramAddr = 0
}

// Returns the scalar register value at `index`
func (rsp *RSP) Reg(index uint32) uint32 {
	return rsp.Regs[index]
}

// Sets the scalar register at `index` and keeps the first register zero
func (rsp *RSP) SetReg(index, val uint32) {
	rsp.Regs[index] = val
	rsp.Regs[0] = 0
}

// Loads a big endian value of `size` from data memory
func (rsp *RSP) LoadDataMem(offset uint32, size AccessSize) interface{} {
	return loadLocalMem(rsp.Dmem[:], offset, size)
}

// Stores a big endian value of `size` into data memory
func (rsp *RSP) StoreDataMem(offset uint32, size AccessSize, val interface{}) {
	storeLocalMem(rsp.Dmem[:], offset, size, val)
}

// Loads a big endian value of `size` from instruction memory
func (rsp *RSP) LoadInstrMem(offset uint32, size AccessSize) interface{} {
	return loadLocalMem(rsp.Imem[:], offset, size)
}

// Stores a big endian value of `size` into instruction memory
func (rsp *RSP) StoreInstrMem(offset uint32, size AccessSize, val interface{}) {
	storeLocalMem(rsp.Imem[:], offset, size, val)
}

// Local memory addresses wrap inside the 4KB window
func loadLocalMem(mem []byte, offset uint32, size AccessSize) interface{} {
	var v uint32 = 0
	sizeI := uint32(size)

	for i := uint32(0); i < sizeI; i++ {
		v = v<<8 | uint32(mem[(offset+i)&(SP_MEM_SIZE-1)])
	}
	return accessSizeU32(size, v)
}

func storeLocalMem(mem []byte, offset uint32, size AccessSize, val interface{}) {
	valU32 := accessSizeToU32(size, val)
	sizeI := uint32(size)

	for i := uint32(0); i < sizeI; i++ {
		shift := (sizeI - 1 - i) * 8
		mem[(offset+i)&(SP_MEM_SIZE-1)] = byte(valU32 >> shift)
	}
}

// Returns the local memory selected by bit 12 of the DMA local address
func (rsp *RSP) dmaLocalMem() []byte {
	if rsp.MemAddr&0x1000 != 0 {
		return rsp.Imem[:]
	}
	return rsp.Dmem[:]
}

// Copies `length` bytes from main memory into local memory, byte by
// byte with no alignment requirement
func (rsp *RSP) DmaFromRam(length uint32) {
	mem := rsp.dmaLocalMem()
	local := rsp.MemAddr & (SP_MEM_SIZE - 1)
	for i := uint32(0); i < length; i++ {
		mem[(local+i)&(SP_MEM_SIZE-1)] = rsp.Ram.Load8(rsp.DramAddr + i)
	}
}

// Copies `length` bytes from local memory back into main memory
func (rsp *RSP) DmaToRam(length uint32) {
	mem := rsp.dmaLocalMem()
	local := rsp.MemAddr & (SP_MEM_SIZE - 1)
	for i := uint32(0); i < length; i++ {
		rsp.Ram.Store8(rsp.DramAddr+i, mem[(local+i)&(SP_MEM_SIZE-1)])
	}
}

// Returns the value of a DMA/status register in the coprocessor window
func (rsp *RSP) LoadReg(offset uint32) uint32 {
	switch offset {
	case 0x0:
		return rsp.MemAddr
	case 0x4:
		return rsp.DramAddr
	case 0x10:
		return rsp.Status()
	default:
		return 0
	}
}

// Handles a write to a DMA/status register in the coprocessor window
func (rsp *RSP) StoreReg(offset, val uint32) {
	switch offset {
	case 0x0:
		rsp.MemAddr = val & 0x1fff
	case 0x4:
		rsp.DramAddr = val & 0xffffff
	case 0x8: // read length: kicks a main memory -> local DMA
		rsp.DmaFromRam((val & 0xfff) + 1)
	case 0xc: // write length: kicks a local -> main memory DMA
		rsp.DmaToRam((val & 0xfff) + 1)
	case 0x10:
		rsp.SetStatus(val)
	}
}

// Returns the value of the status register
func (rsp *RSP) Status() uint32 {
	var r uint32
	r |= oneIfTrue(rsp.State != RSP_STATE_RUNNING) << 0 // halted
	r |= oneIfTrue(rsp.State == RSP_STATE_BROKE) << 1   // broke
	return r
}

// Handles a status register write. Set/clear bits follow the hardware
// layout: bit 0 clears the halt (starts execution), bit 1 sets it,
// bit 2 acknowledges a BREAK
func (rsp *RSP) SetStatus(val uint32) {
	if val&(1<<0) != 0 {
		rsp.State = RSP_STATE_RUNNING
	}
	if val&(1<<1) != 0 {
		rsp.State = RSP_STATE_HALTED
	}
	if val&(1<<2) != 0 && rsp.State == RSP_STATE_BROKE {
		rsp.State = RSP_STATE_HALTED
	}
}

// Runs until the microcode breaks, halts or the per-frame instruction
// throttle is reached. Does nothing unless the RSP is running
func (rsp *RSP) ExecuteFrame() {
	for i := 0; i < RSP_FRAME_INSTRUCTION_LIMIT && rsp.State == RSP_STATE_RUNNING; i++ {
		rsp.stepOnce()
	}
}

// Retires exactly one instruction even while halted, for debugging
func (rsp *RSP) Step() {
	rsp.stepOnce()
}

// Fetches, executes and retires the instruction at the program counter
func (rsp *RSP) stepOnce() {
	pc := rsp.PC & 0xffc
	rsp.currentPC = pc

	takeBranch := rsp.BranchPending
	target := rsp.BranchTarget
	rsp.BranchPending = false

	instruction := Instruction(rsp.LoadInstrMem(pc, ACCESS_WORD).(uint32))
	rsp.decodeAndExecute(instruction)

	if takeBranch {
		rsp.PC = target & 0xffc
	} else {
		rsp.PC = (pc + 4) & 0xfff
	}
}

// Latches a branch, taken after the delay slot executes
func (rsp *RSP) branchTo(target uint32) {
	rsp.BranchPending = true
	rsp.BranchTarget = target
}

func (rsp *RSP) branch(offset uint32) {
	rsp.branchTo(rsp.currentPC + 4 + offset<<2)
}

// Decodes and executes an instruction over the reduced scalar opcode
// set, plus the vector sub-dispatch behind the coprocessor 2 opcode.
// The RSP has no exception machinery: encodings it does not implement
// retire as nops
func (rsp *RSP) decodeAndExecute(instruction Instruction) {
	switch instruction.Function() {
	case 0x00:
		rsp.executeSpecial(instruction)
	case 0x01:
		rsp.executeRegimm(instruction)
	case 0x02: // Jump
		rsp.branchTo(instruction.ImmJump() << 2)
	case 0x03: // Jump And Link
		rsp.SetReg(31, rsp.currentPC+8)
		rsp.branchTo(instruction.ImmJump() << 2)
	case 0x04: // Branch If Equal
		if rsp.Reg(instruction.S()) == rsp.Reg(instruction.T()) {
			rsp.branch(instruction.ImmSE())
		}
	case 0x05: // Branch If Not Equal
		if rsp.Reg(instruction.S()) != rsp.Reg(instruction.T()) {
			rsp.branch(instruction.ImmSE())
		}
	case 0x06: // Branch If Less Than Or Equal To Zero
		if int32(rsp.Reg(instruction.S())) <= 0 {
			rsp.branch(instruction.ImmSE())
		}
	case 0x07: // Branch If Greater Than Zero
		if int32(rsp.Reg(instruction.S())) > 0 {
			rsp.branch(instruction.ImmSE())
		}
	case 0x08, 0x09: // Add Immediate: the RSP never traps on overflow
		rsp.SetReg(instruction.T(), rsp.Reg(instruction.S())+instruction.ImmSE())
	case 0x0a: // Set If Less Than Immediate
		v := int32(rsp.Reg(instruction.S())) < int32(instruction.ImmSE())
		rsp.SetReg(instruction.T(), oneIfTrue(v))
	case 0x0b: // Set If Less Than Immediate Unsigned
		v := rsp.Reg(instruction.S()) < instruction.ImmSE()
		rsp.SetReg(instruction.T(), oneIfTrue(v))
	case 0x0c: // Bitwise And Immediate
		rsp.SetReg(instruction.T(), rsp.Reg(instruction.S())&instruction.Imm())
	case 0x0d: // Bitwise Or Immediate
		rsp.SetReg(instruction.T(), rsp.Reg(instruction.S())|instruction.Imm())
	case 0x0e: // Bitwise Exclusive Or Immediate
		rsp.SetReg(instruction.T(), rsp.Reg(instruction.S())^instruction.Imm())
	case 0x0f: // Load Upper Immediate
		rsp.SetReg(instruction.T(), instruction.Imm()<<16)
	case 0x12: // Coprocessor 2: the vector unit
		rsp.executeVector(instruction)
	case 0x20: // Load Byte
		v := rsp.LoadDataMem(rsp.memAddr(instruction), ACCESS_BYTE).(byte)
		rsp.SetReg(instruction.T(), uint32(int32(int8(v))))
	case 0x21: // Load Halfword
		v := rsp.LoadDataMem(rsp.memAddr(instruction), ACCESS_HALFWORD).(uint16)
		rsp.SetReg(instruction.T(), uint32(int32(int16(v))))
	case 0x23: // Load Word
		rsp.SetReg(instruction.T(), rsp.LoadDataMem(rsp.memAddr(instruction), ACCESS_WORD).(uint32))
	case 0x24: // Load Byte Unsigned
		rsp.SetReg(instruction.T(), uint32(rsp.LoadDataMem(rsp.memAddr(instruction), ACCESS_BYTE).(byte)))
	case 0x25: // Load Halfword Unsigned
		rsp.SetReg(instruction.T(), uint32(rsp.LoadDataMem(rsp.memAddr(instruction), ACCESS_HALFWORD).(uint16)))
	case 0x28: // Store Byte
		rsp.StoreDataMem(rsp.memAddr(instruction), ACCESS_BYTE, byte(rsp.Reg(instruction.T())))
	case 0x29: // Store Halfword
		rsp.StoreDataMem(rsp.memAddr(instruction), ACCESS_HALFWORD, uint16(rsp.Reg(instruction.T())))
	case 0x2b: // Store Word
		rsp.StoreDataMem(rsp.memAddr(instruction), ACCESS_WORD, rsp.Reg(instruction.T()))
	case 0x32: // Load to vector register
		rsp.OpLQV(instruction)
	case 0x3a: // Store from vector register
		rsp.OpSQV(instruction)
	default:
		// not part of the reduced set
	}
}

func (rsp *RSP) executeSpecial(instruction Instruction) {
	switch instruction.Subfunction() {
	case 0x00: // Shift Left Logical
		rsp.SetReg(instruction.D(), rsp.Reg(instruction.T())<<instruction.Shift())
	case 0x02: // Shift Right Logical
		rsp.SetReg(instruction.D(), rsp.Reg(instruction.T())>>instruction.Shift())
	case 0x03: // Shift Right Arithmetic
		rsp.SetReg(instruction.D(), uint32(int32(rsp.Reg(instruction.T()))>>instruction.Shift()))
	case 0x04: // Shift Left Logical Variable
		rsp.SetReg(instruction.D(), rsp.Reg(instruction.T())<<(rsp.Reg(instruction.S())&0x1f))
	case 0x06: // Shift Right Logical Variable
		rsp.SetReg(instruction.D(), rsp.Reg(instruction.T())>>(rsp.Reg(instruction.S())&0x1f))
	case 0x07: // Shift Right Arithmetic Variable
		rsp.SetReg(instruction.D(),
			uint32(int32(rsp.Reg(instruction.T()))>>(rsp.Reg(instruction.S())&0x1f)))
	case 0x08: // Jump Register
		rsp.branchTo(rsp.Reg(instruction.S()))
	case 0x09: // Jump And Link Register
		target := rsp.Reg(instruction.S())
		rsp.SetReg(instruction.D(), rsp.currentPC+8)
		rsp.branchTo(target)
	case 0x0d: // Break: halt after this instruction retires
		rsp.State = RSP_STATE_BROKE
	case 0x20, 0x21: // Add: the RSP never traps on overflow
		rsp.SetReg(instruction.D(), rsp.Reg(instruction.S())+rsp.Reg(instruction.T()))
	case 0x22, 0x23: // Subtract
		rsp.SetReg(instruction.D(), rsp.Reg(instruction.S())-rsp.Reg(instruction.T()))
	case 0x24: // Bitwise And
		rsp.SetReg(instruction.D(), rsp.Reg(instruction.S())&rsp.Reg(instruction.T()))
	case 0x25: // Bitwise Or
		rsp.SetReg(instruction.D(), rsp.Reg(instruction.S())|rsp.Reg(instruction.T()))
	case 0x26: // Bitwise Exclusive Or
		rsp.SetReg(instruction.D(), rsp.Reg(instruction.S())^rsp.Reg(instruction.T()))
	case 0x27: // Bitwise Not Or
		rsp.SetReg(instruction.D(), ^(rsp.Reg(instruction.S()) | rsp.Reg(instruction.T())))
	case 0x2a: // Set If Less Than
		v := int32(rsp.Reg(instruction.S())) < int32(rsp.Reg(instruction.T()))
		rsp.SetReg(instruction.D(), oneIfTrue(v))
	case 0x2b: // Set If Less Than Unsigned
		v := rsp.Reg(instruction.S()) < rsp.Reg(instruction.T())
		rsp.SetReg(instruction.D(), oneIfTrue(v))
	default:
		// not part of the reduced set
	}
}

func (rsp *RSP) executeRegimm(instruction Instruction) {
	s := int32(rsp.Reg(instruction.S()))

	switch instruction.T() {
	case 0x00: // Branch If Less Than Zero
		if s < 0 {
			rsp.branch(instruction.ImmSE())
		}
	case 0x01: // Branch If Greater Than Or Equal To Zero
		if s >= 0 {
			rsp.branch(instruction.ImmSE())
		}
	case 0x10: // Branch If Less Than Zero And Link
		rsp.SetReg(31, rsp.currentPC+8)
		if s < 0 {
			rsp.branch(instruction.ImmSE())
		}
	case 0x11: // Branch If Greater Than Or Equal To Zero And Link
		rsp.SetReg(31, rsp.currentPC+8)
		if s >= 0 {
			rsp.branch(instruction.ImmSE())
		}
	}
}

// Returns the effective data memory address of a scalar load/store
func (rsp *RSP) memAddr(instruction Instruction) uint32 {
	return rsp.Reg(instruction.S()) + instruction.ImmSE()
}
