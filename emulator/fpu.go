package emulator

// Coprocessor 1: floating point unit. Present as a stub only: the
// register file can be moved to and from so boot code probing it keeps
// working, but no arithmetic is implemented
type FPU struct {
	Regs  [32]uint64 // Floating point register file, raw bits
	Fcr0  uint32     // Implementation/revision register
	Fcr31 uint32     // Control/status register
}

// Creates a new FPU stub
func NewFPU() *FPU {
	return &FPU{
		Fcr0: 0x00000b00, // VR4300 FPU revision
	}
}

// Decodes and executes a coprocessor 1 transfer. Arithmetic encodings
// are accepted and ignored by the stub
func (cpu *CPU) DecodeAndExecuteCop1(instruction Instruction) {
	fpu := cpu.Fpu

	switch instruction.CopOpcode() {
	case 0x00: // Move From Coprocessor 1
		cpu.SetReg32(instruction.T(), uint32(fpu.Regs[instruction.D()]))
	case 0x01: // Doubleword Move From Coprocessor 1
		cpu.SetReg(instruction.T(), fpu.Regs[instruction.D()])
	case 0x02: // Move Control From Coprocessor 1
		switch instruction.D() {
		case 0:
			cpu.SetReg32(instruction.T(), fpu.Fcr0)
		case 31:
			cpu.SetReg32(instruction.T(), fpu.Fcr31)
		default:
			cpu.SetReg(instruction.T(), 0)
		}
	case 0x04: // Move To Coprocessor 1
		fpu.Regs[instruction.D()] = uint64(cpu.Reg32(instruction.T()))
	case 0x05: // Doubleword Move To Coprocessor 1
		fpu.Regs[instruction.D()] = cpu.Reg(instruction.T())
	case 0x06: // Move Control To Coprocessor 1
		if instruction.D() == 31 {
			fpu.Fcr31 = cpu.Reg32(instruction.T())
		}
	default:
		// arithmetic and branch encodings: stubbed out
	}
}

// Load Word To Coprocessor 1
func (cpu *CPU) OpLWC1(instruction Instruction) {
	addr := cpu.memAddr(instruction)
	if addr&3 != 0 {
		cpu.Exception(EXCEPTION_LOAD_ADDRESS_ERROR)
		return
	}
	cpu.Fpu.Regs[instruction.T()] = uint64(cpu.load32(addr))
}

// Load Doubleword To Coprocessor 1
func (cpu *CPU) OpLDC1(instruction Instruction) {
	addr := cpu.memAddr(instruction)
	if addr&7 != 0 {
		cpu.Exception(EXCEPTION_LOAD_ADDRESS_ERROR)
		return
	}
	cpu.Fpu.Regs[instruction.T()] = cpu.load64(addr)
}

// Store Word From Coprocessor 1
func (cpu *CPU) OpSWC1(instruction Instruction) {
	addr := cpu.memAddr(instruction)
	if addr&3 != 0 {
		cpu.Exception(EXCEPTION_STORE_ADDRESS_ERROR)
		return
	}
	cpu.store32(addr, uint32(cpu.Fpu.Regs[instruction.T()]))
}

// Store Doubleword From Coprocessor 1
func (cpu *CPU) OpSDC1(instruction Instruction) {
	addr := cpu.memAddr(instruction)
	if addr&7 != 0 {
		cpu.Exception(EXCEPTION_STORE_ADDRESS_ERROR)
		return
	}
	cpu.store64(addr, cpu.Fpu.Regs[instruction.T()])
}
