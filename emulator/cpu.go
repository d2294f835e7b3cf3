package emulator

const (
	// PC reset value, the bootstrap vector
	BOOT_VECTOR uint32 = 0xbfc00000
)

// CPU state
type CPU struct {
	PC   uint32     // The program counter register
	Regs [32]uint64 // General purpose registers. The first value must always be 0
	Hi   uint64     // Multiply/divide result high register
	Lo   uint64     // Multiply/divide result low register

	Cop0  *Cop0         // System control coprocessor
	Fpu   *FPU          // Floating point coprocessor (stub)
	Irq   *IrqState     // External interrupt lines
	Inter *Interconnect // Memory interface

	Debugger *Debugger // Optional breakpoint debugger

	// A taken branch sets BranchPending: the next instruction (the delay
	// slot) still executes, after which the PC becomes BranchTarget
	BranchPending bool
	BranchTarget  uint32
	// Load linked reservation flag. A single global flag, not a per
	// address granule: valid for single core guest code
	LLBit bool

	currentPC   uint32 // Address of the instruction being executed
	inDelaySlot bool   // The current instruction sits in a delay slot
	redirected  bool   // The current instruction moved the PC itself
	annulDelay  bool   // A branch likely variant annulled its delay slot
}

// Creates a new CPU state
func NewCPU(inter *Interconnect) *CPU {
	cpu := &CPU{
		Cop0:  NewCop0(),
		Fpu:   NewFPU(),
		Irq:   NewIrqState(),
		Inter: inter,
	}
	cpu.Reset()
	return cpu
}

// Resets the CPU to its documented boot state
func (cpu *CPU) Reset() {
	cpu.PC = BOOT_VECTOR
	for i := range cpu.Regs {
		cpu.Regs[i] = 0
	}
	cpu.Hi = 0
	cpu.Lo = 0
	cpu.BranchPending = false
	cpu.LLBit = false
	cpu.annulDelay = false
	cpu.Cop0.Reset()
}

// Returns the register value at `index`. The first register is always zero
func (cpu *CPU) Reg(index uint32) uint64 {
	return cpu.Regs[index]
}

// Returns the low 32 bits of the register at `index`
func (cpu *CPU) Reg32(index uint32) uint32 {
	return uint32(cpu.Regs[index])
}

// Sets the value at the `index` register and sets the first register to zero
func (cpu *CPU) SetReg(index uint32, val uint64) {
	cpu.Regs[index] = val
	// R0 should always remain 0, we can't change it
	cpu.Regs[0] = 0
}

// Sets the register at `index` to a 32 bit value, sign-extended to 64 bits
func (cpu *CPU) SetReg32(index uint32, val uint32) {
	cpu.SetReg(index, signExtend32(val))
}

// Runs the instruction at the program counter, delivers a pending
// interrupt if one is due, and returns a rough cycle cost estimate for
// the external scheduler
func (cpu *CPU) Step() uint32 {
	pc := cpu.PC
	cpu.currentPC = pc
	cpu.redirected = false
	cpu.annulDelay = false

	// this instruction sits in a delay slot if the previous one was a
	// taken branch
	cpu.inDelaySlot = cpu.BranchPending
	takeBranch := cpu.BranchPending
	target := cpu.BranchTarget
	cpu.BranchPending = false

	// a misaligned PC faults before the fetch
	if pc&3 != 0 {
		cpu.Exception(EXCEPTION_LOAD_ADDRESS_ERROR)
		return 1
	}

	if cpu.Debugger != nil {
		cpu.Debugger.changedPc(pc)
	}

	// fetch instruction at PC
	instruction := Instruction(cpu.Inter.Load32(pc))
	cpu.DecodeAndExecute(instruction)

	if !cpu.redirected {
		switch {
		case takeBranch:
			cpu.PC = target
		case cpu.annulDelay:
			// a branch likely variant skips its delay slot when the
			// branch is not taken
			cpu.PC = pc + 8
		default:
			cpu.PC = pc + 4
		}
	}

	// poll the external interrupt lines once per retired instruction
	cpu.Cop0.SetPendingIrqs(cpu.Irq.Pending)
	if !cpu.redirected && cpu.Irq.Active() && cpu.Cop0.IrqEnabled() {
		cpu.exceptionAt(cpu.PC, cpu.BranchPending, EXCEPTION_INTERRUPT)
	}

	return cycleCost(instruction)
}

// Returns a rough cost estimate for `instruction` in CPU cycles
func cycleCost(instruction Instruction) uint32 {
	switch instruction.Function() {
	case 0x20, 0x21, 0x23, 0x24, 0x25, 0x27, 0x28, 0x29, 0x2b, 0x30,
		0x37, 0x38, 0x3f:
		return 2 // memory access
	case 0x00:
		switch instruction.Subfunction() {
		case 0x18, 0x19, 0x1c, 0x1d:
			return 5 // multiply
		case 0x1a, 0x1b, 0x1e, 0x1f:
			return 37 // divide
		}
	}
	return 1
}

// Raises an exception for the instruction currently being executed
func (cpu *CPU) Exception(cause Exception) {
	cpu.exceptionAt(cpu.currentPC, cpu.inDelaySlot, cause)
}

// Raises an exception with an explicit faulting address, used for
// interrupts which fault the instruction that has not executed yet
func (cpu *CPU) exceptionAt(pc uint32, inDelaySlot bool, cause Exception) {
	handler := cpu.Cop0.EnterException(cause, pc, inDelaySlot)
	cpu.PC = handler
	cpu.BranchPending = false
	cpu.redirected = true
}

// Latches a branch to `target`, taken after the delay slot executes. A
// branch inside a delay slot simply overwrites the pending target
func (cpu *CPU) branchTo(target uint32) {
	cpu.BranchPending = true
	cpu.BranchTarget = target
}

// Latches a relative branch with the usual `offset << 2` addressing
func (cpu *CPU) branch(offset uint32) {
	cpu.branchTo(cpu.currentPC + 4 + offset<<2)
}

// Decodes and executes an instruction
func (cpu *CPU) DecodeAndExecute(instruction Instruction) {
	switch instruction.Function() {
	case 0x00:
		cpu.DecodeAndExecuteSpecial(instruction)
	case 0x01:
		cpu.DecodeAndExecuteRegimm(instruction)
	case 0x02: // Jump
		cpu.OpJ(instruction)
	case 0x03: // Jump And Link
		cpu.OpJAL(instruction)
	case 0x04: // Branch If Equal
		cpu.OpBEQ(instruction, false)
	case 0x05: // Branch If Not Equal
		cpu.OpBNE(instruction, false)
	case 0x06: // Branch If Less Than Or Equal To Zero
		cpu.OpBLEZ(instruction, false)
	case 0x07: // Branch If Greater Than Zero
		cpu.OpBGTZ(instruction, false)
	case 0x08: // Add Immediate (trapping)
		cpu.OpADDI(instruction)
	case 0x09: // Add Immediate Unsigned
		cpu.OpADDIU(instruction)
	case 0x0a: // Set If Less Than Immediate
		cpu.OpSLTI(instruction)
	case 0x0b: // Set If Less Than Immediate Unsigned
		cpu.OpSLTIU(instruction)
	case 0x0c: // Bitwise And Immediate
		cpu.OpANDI(instruction)
	case 0x0d: // Bitwise Or Immediate
		cpu.OpORI(instruction)
	case 0x0e: // Bitwise Exclusive Or Immediate
		cpu.OpXORI(instruction)
	case 0x0f: // Load Upper Immediate
		cpu.OpLUI(instruction)
	case 0x10: // Coprocessor 0
		cpu.DecodeAndExecuteCop0(instruction)
	case 0x11: // Coprocessor 1 (stub)
		cpu.DecodeAndExecuteCop1(instruction)
	case 0x14: // Branch If Equal Likely
		cpu.OpBEQ(instruction, true)
	case 0x15: // Branch If Not Equal Likely
		cpu.OpBNE(instruction, true)
	case 0x16: // Branch If Less Than Or Equal To Zero Likely
		cpu.OpBLEZ(instruction, true)
	case 0x17: // Branch If Greater Than Zero Likely
		cpu.OpBGTZ(instruction, true)
	case 0x18: // Doubleword Add Immediate (trapping)
		cpu.OpDADDI(instruction)
	case 0x19: // Doubleword Add Immediate Unsigned
		cpu.OpDADDIU(instruction)
	case 0x20: // Load Byte
		cpu.OpLB(instruction)
	case 0x21: // Load Halfword
		cpu.OpLH(instruction)
	case 0x22: // Load Word Left
		cpu.OpLWL(instruction)
	case 0x23: // Load Word
		cpu.OpLW(instruction)
	case 0x24: // Load Byte Unsigned
		cpu.OpLBU(instruction)
	case 0x25: // Load Halfword Unsigned
		cpu.OpLHU(instruction)
	case 0x26: // Load Word Right
		cpu.OpLWR(instruction)
	case 0x27: // Load Word Unsigned
		cpu.OpLWU(instruction)
	case 0x28: // Store Byte
		cpu.OpSB(instruction)
	case 0x29: // Store Halfword
		cpu.OpSH(instruction)
	case 0x2a: // Store Word Left
		cpu.OpSWL(instruction)
	case 0x2b: // Store Word
		cpu.OpSW(instruction)
	case 0x2e: // Store Word Right
		cpu.OpSWR(instruction)
	case 0x2f: // Cache maintenance, no caches are emulated
	case 0x30: // Load Linked
		cpu.OpLL(instruction)
	case 0x31: // Load Word To Coprocessor 1
		cpu.OpLWC1(instruction)
	case 0x35: // Load Doubleword To Coprocessor 1
		cpu.OpLDC1(instruction)
	case 0x37: // Load Doubleword
		cpu.OpLD(instruction)
	case 0x38: // Store Conditional
		cpu.OpSC(instruction)
	case 0x39: // Store Word From Coprocessor 1
		cpu.OpSWC1(instruction)
	case 0x3d: // Store Doubleword From Coprocessor 1
		cpu.OpSDC1(instruction)
	case 0x3f: // Store Doubleword
		cpu.OpSD(instruction)
	default:
		// never a silent nop, the guest gets to see the failure
		cpu.Exception(EXCEPTION_ILLEGAL_INSTRUCTION)
	}
}

// Decodes and executes a SPECIAL (opcode 0x00) instruction
func (cpu *CPU) DecodeAndExecuteSpecial(instruction Instruction) {
	switch instruction.Subfunction() {
	case 0x00: // Shift Left Logical
		cpu.OpSLL(instruction)
	case 0x02: // Shift Right Logical
		cpu.OpSRL(instruction)
	case 0x03: // Shift Right Arithmetic
		cpu.OpSRA(instruction)
	case 0x04: // Shift Left Logical Variable
		cpu.OpSLLV(instruction)
	case 0x06: // Shift Right Logical Variable
		cpu.OpSRLV(instruction)
	case 0x07: // Shift Right Arithmetic Variable
		cpu.OpSRAV(instruction)
	case 0x08: // Jump Register
		cpu.OpJR(instruction)
	case 0x09: // Jump And Link Register
		cpu.OpJALR(instruction)
	case 0x0c: // System Call
		cpu.Exception(EXCEPTION_SYSCALL)
	case 0x0d: // Breakpoint
		cpu.Exception(EXCEPTION_BREAK)
	case 0x0f: // Sync, sequential memory model makes this a nop
	case 0x10: // Move From HI
		cpu.SetReg(instruction.D(), cpu.Hi)
	case 0x11: // Move To HI
		cpu.Hi = cpu.Reg(instruction.S())
	case 0x12: // Move From LO
		cpu.SetReg(instruction.D(), cpu.Lo)
	case 0x13: // Move To LO
		cpu.Lo = cpu.Reg(instruction.S())
	case 0x14: // Doubleword Shift Left Logical Variable
		cpu.SetReg(instruction.D(), cpu.Reg(instruction.T())<<(cpu.Reg(instruction.S())&0x3f))
	case 0x16: // Doubleword Shift Right Logical Variable
		cpu.SetReg(instruction.D(), cpu.Reg(instruction.T())>>(cpu.Reg(instruction.S())&0x3f))
	case 0x17: // Doubleword Shift Right Arithmetic Variable
		cpu.SetReg(instruction.D(),
			uint64(int64(cpu.Reg(instruction.T()))>>(cpu.Reg(instruction.S())&0x3f)))
	case 0x18: // Multiply
		cpu.OpMULT(instruction)
	case 0x19: // Multiply Unsigned
		cpu.OpMULTU(instruction)
	case 0x1a: // Divide
		cpu.OpDIV(instruction)
	case 0x1b: // Divide Unsigned
		cpu.OpDIVU(instruction)
	case 0x1c: // Doubleword Multiply
		cpu.OpDMULT(instruction)
	case 0x1d: // Doubleword Multiply Unsigned
		cpu.OpDMULTU(instruction)
	case 0x1e: // Doubleword Divide
		cpu.OpDDIV(instruction)
	case 0x1f: // Doubleword Divide Unsigned
		cpu.OpDDIVU(instruction)
	case 0x20: // Add (trapping)
		cpu.OpADD(instruction)
	case 0x21: // Add Unsigned
		cpu.OpADDU(instruction)
	case 0x22: // Subtract (trapping)
		cpu.OpSUB(instruction)
	case 0x23: // Subtract Unsigned
		cpu.OpSUBU(instruction)
	case 0x24: // Bitwise And
		cpu.SetReg(instruction.D(), cpu.Reg(instruction.S())&cpu.Reg(instruction.T()))
	case 0x25: // Bitwise Or
		cpu.SetReg(instruction.D(), cpu.Reg(instruction.S())|cpu.Reg(instruction.T()))
	case 0x26: // Bitwise Exclusive Or
		cpu.SetReg(instruction.D(), cpu.Reg(instruction.S())^cpu.Reg(instruction.T()))
	case 0x27: // Bitwise Not Or
		cpu.SetReg(instruction.D(), ^(cpu.Reg(instruction.S()) | cpu.Reg(instruction.T())))
	case 0x2a: // Set If Less Than
		v := int64(cpu.Reg(instruction.S())) < int64(cpu.Reg(instruction.T()))
		cpu.SetReg(instruction.D(), uint64(oneIfTrue(v)))
	case 0x2b: // Set If Less Than Unsigned
		v := cpu.Reg(instruction.S()) < cpu.Reg(instruction.T())
		cpu.SetReg(instruction.D(), uint64(oneIfTrue(v)))
	case 0x2c: // Doubleword Add (trapping)
		cpu.OpDADD(instruction)
	case 0x2d: // Doubleword Add Unsigned
		cpu.SetReg(instruction.D(), cpu.Reg(instruction.S())+cpu.Reg(instruction.T()))
	case 0x2e: // Doubleword Subtract (trapping)
		cpu.OpDSUB(instruction)
	case 0x2f: // Doubleword Subtract Unsigned
		cpu.SetReg(instruction.D(), cpu.Reg(instruction.S())-cpu.Reg(instruction.T()))
	case 0x34: // Trap If Equal
		if cpu.Reg(instruction.S()) == cpu.Reg(instruction.T()) {
			cpu.Exception(EXCEPTION_TRAP)
		}
	case 0x36: // Trap If Not Equal
		if cpu.Reg(instruction.S()) != cpu.Reg(instruction.T()) {
			cpu.Exception(EXCEPTION_TRAP)
		}
	case 0x38: // Doubleword Shift Left Logical
		cpu.SetReg(instruction.D(), cpu.Reg(instruction.T())<<instruction.Shift())
	case 0x3a: // Doubleword Shift Right Logical
		cpu.SetReg(instruction.D(), cpu.Reg(instruction.T())>>instruction.Shift())
	case 0x3b: // Doubleword Shift Right Arithmetic
		cpu.SetReg(instruction.D(), uint64(int64(cpu.Reg(instruction.T()))>>instruction.Shift()))
	case 0x3c: // Doubleword Shift Left Logical + 32
		cpu.SetReg(instruction.D(), cpu.Reg(instruction.T())<<(instruction.Shift()+32))
	case 0x3e: // Doubleword Shift Right Logical + 32
		cpu.SetReg(instruction.D(), cpu.Reg(instruction.T())>>(instruction.Shift()+32))
	case 0x3f: // Doubleword Shift Right Arithmetic + 32
		cpu.SetReg(instruction.D(),
			uint64(int64(cpu.Reg(instruction.T()))>>(instruction.Shift()+32)))
	default:
		cpu.Exception(EXCEPTION_ILLEGAL_INSTRUCTION)
	}
}

// Decodes and executes a REGIMM (opcode 0x01) instruction. The branch
// condition variant lives in the rt field
func (cpu *CPU) DecodeAndExecuteRegimm(instruction Instruction) {
	s := int64(cpu.Reg(instruction.S()))

	switch instruction.T() {
	case 0x00: // Branch If Less Than Zero
		if s < 0 {
			cpu.branch(instruction.ImmSE())
		}
	case 0x01: // Branch If Greater Than Or Equal To Zero
		if s >= 0 {
			cpu.branch(instruction.ImmSE())
		}
	case 0x02: // Branch If Less Than Zero Likely
		if s < 0 {
			cpu.branch(instruction.ImmSE())
		} else {
			cpu.annulDelay = true
		}
	case 0x03: // Branch If Greater Than Or Equal To Zero Likely
		if s >= 0 {
			cpu.branch(instruction.ImmSE())
		} else {
			cpu.annulDelay = true
		}
	case 0x10: // Branch If Less Than Zero And Link
		cpu.SetReg32(31, cpu.currentPC+8)
		if s < 0 {
			cpu.branch(instruction.ImmSE())
		}
	case 0x11: // Branch If Greater Than Or Equal To Zero And Link
		cpu.SetReg32(31, cpu.currentPC+8)
		if s >= 0 {
			cpu.branch(instruction.ImmSE())
		}
	default:
		cpu.Exception(EXCEPTION_ILLEGAL_INSTRUCTION)
	}
}

// Decodes and executes a coprocessor 0 transfer
func (cpu *CPU) DecodeAndExecuteCop0(instruction Instruction) {
	switch instruction.CopOpcode() {
	case 0x00: // Move From Coprocessor 0
		cpu.SetReg32(instruction.T(), cpu.Cop0.Regs[instruction.D()])
	case 0x04: // Move To Coprocessor 0
		cpu.Cop0.Regs[instruction.D()] = cpu.Reg32(instruction.T())
	case 0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17,
		0x18, 0x19, 0x1a, 0x1b, 0x1c, 0x1d, 0x1e, 0x1f:
		switch instruction.Subfunction() {
		case 0x01, 0x02, 0x06, 0x08:
			// TLB maintenance, no TLB is emulated
		case 0x18: // Return From Exception
			cpu.PC = cpu.Cop0.ReturnFromException()
			cpu.BranchPending = false
			cpu.LLBit = false
			cpu.redirected = true
		default:
			cpu.Exception(EXCEPTION_ILLEGAL_INSTRUCTION)
		}
	default:
		cpu.Exception(EXCEPTION_ILLEGAL_INSTRUCTION)
	}
}

// Jump
func (cpu *CPU) OpJ(instruction Instruction) {
	cpu.branchTo((cpu.currentPC+4)&0xf0000000 | instruction.ImmJump()<<2)
}

// Jump And Link
func (cpu *CPU) OpJAL(instruction Instruction) {
	cpu.SetReg32(31, cpu.currentPC+8)
	cpu.OpJ(instruction)
}

// Jump Register
func (cpu *CPU) OpJR(instruction Instruction) {
	cpu.branchTo(cpu.Reg32(instruction.S()))
}

// Jump And Link Register
func (cpu *CPU) OpJALR(instruction Instruction) {
	target := cpu.Reg32(instruction.S())
	cpu.SetReg32(instruction.D(), cpu.currentPC+8)
	cpu.branchTo(target)
}

// Branch If Equal
func (cpu *CPU) OpBEQ(instruction Instruction, likely bool) {
	if cpu.Reg(instruction.S()) == cpu.Reg(instruction.T()) {
		cpu.branch(instruction.ImmSE())
	} else if likely {
		cpu.annulDelay = true
	}
}

// Branch If Not Equal
func (cpu *CPU) OpBNE(instruction Instruction, likely bool) {
	if cpu.Reg(instruction.S()) != cpu.Reg(instruction.T()) {
		cpu.branch(instruction.ImmSE())
	} else if likely {
		cpu.annulDelay = true
	}
}

// Branch If Less Than Or Equal To Zero
func (cpu *CPU) OpBLEZ(instruction Instruction, likely bool) {
	if int64(cpu.Reg(instruction.S())) <= 0 {
		cpu.branch(instruction.ImmSE())
	} else if likely {
		cpu.annulDelay = true
	}
}

// Branch If Greater Than Zero
func (cpu *CPU) OpBGTZ(instruction Instruction, likely bool) {
	if int64(cpu.Reg(instruction.S())) > 0 {
		cpu.branch(instruction.ImmSE())
	} else if likely {
		cpu.annulDelay = true
	}
}

// Add Immediate: traps on signed overflow, the destination is untouched
func (cpu *CPU) OpADDI(instruction Instruction) {
	v, err := add32Overflow(int32(cpu.Reg32(instruction.S())), int32(instruction.ImmSE()))
	if err != nil {
		cpu.Exception(EXCEPTION_OVERFLOW)
		return
	}
	cpu.SetReg32(instruction.T(), uint32(v))
}

// Add Immediate Unsigned: wraps instead of trapping
func (cpu *CPU) OpADDIU(instruction Instruction) {
	cpu.SetReg32(instruction.T(), cpu.Reg32(instruction.S())+instruction.ImmSE())
}

// Doubleword Add Immediate: traps on signed 64 bit overflow
func (cpu *CPU) OpDADDI(instruction Instruction) {
	v, err := add64Overflow(int64(cpu.Reg(instruction.S())), int64(instruction.ImmSE64()))
	if err != nil {
		cpu.Exception(EXCEPTION_OVERFLOW)
		return
	}
	cpu.SetReg(instruction.T(), uint64(v))
}

// Doubleword Add Immediate Unsigned
func (cpu *CPU) OpDADDIU(instruction Instruction) {
	cpu.SetReg(instruction.T(), cpu.Reg(instruction.S())+instruction.ImmSE64())
}

// Set If Less Than Immediate
func (cpu *CPU) OpSLTI(instruction Instruction) {
	v := int64(cpu.Reg(instruction.S())) < int64(instruction.ImmSE64())
	cpu.SetReg(instruction.T(), uint64(oneIfTrue(v)))
}

// Set If Less Than Immediate Unsigned
func (cpu *CPU) OpSLTIU(instruction Instruction) {
	v := cpu.Reg(instruction.S()) < instruction.ImmSE64()
	cpu.SetReg(instruction.T(), uint64(oneIfTrue(v)))
}

// Bitwise And Immediate
func (cpu *CPU) OpANDI(instruction Instruction) {
	cpu.SetReg(instruction.T(), cpu.Reg(instruction.S())&uint64(instruction.Imm()))
}

// Bitwise Or Immediate
func (cpu *CPU) OpORI(instruction Instruction) {
	cpu.SetReg(instruction.T(), cpu.Reg(instruction.S())|uint64(instruction.Imm()))
}

// Bitwise Exclusive Or Immediate
func (cpu *CPU) OpXORI(instruction Instruction) {
	cpu.SetReg(instruction.T(), cpu.Reg(instruction.S())^uint64(instruction.Imm()))
}

// Load Upper Immediate
func (cpu *CPU) OpLUI(instruction Instruction) {
	// low 16 bits are set to 0
	cpu.SetReg32(instruction.T(), instruction.Imm()<<16)
}

// Shift Left Logical
func (cpu *CPU) OpSLL(instruction Instruction) {
	cpu.SetReg32(instruction.D(), cpu.Reg32(instruction.T())<<instruction.Shift())
}

// Shift Right Logical
func (cpu *CPU) OpSRL(instruction Instruction) {
	cpu.SetReg32(instruction.D(), cpu.Reg32(instruction.T())>>instruction.Shift())
}

// Shift Right Arithmetic
func (cpu *CPU) OpSRA(instruction Instruction) {
	cpu.SetReg32(instruction.D(),
		uint32(int32(cpu.Reg32(instruction.T()))>>instruction.Shift()))
}

// Shift Left Logical Variable
func (cpu *CPU) OpSLLV(instruction Instruction) {
	cpu.SetReg32(instruction.D(),
		cpu.Reg32(instruction.T())<<(cpu.Reg32(instruction.S())&0x1f))
}

// Shift Right Logical Variable
func (cpu *CPU) OpSRLV(instruction Instruction) {
	cpu.SetReg32(instruction.D(),
		cpu.Reg32(instruction.T())>>(cpu.Reg32(instruction.S())&0x1f))
}

// Shift Right Arithmetic Variable
func (cpu *CPU) OpSRAV(instruction Instruction) {
	cpu.SetReg32(instruction.D(),
		uint32(int32(cpu.Reg32(instruction.T()))>>(cpu.Reg32(instruction.S())&0x1f)))
}

// Add: traps on signed overflow, the destination is untouched
func (cpu *CPU) OpADD(instruction Instruction) {
	v, err := add32Overflow(int32(cpu.Reg32(instruction.S())), int32(cpu.Reg32(instruction.T())))
	if err != nil {
		cpu.Exception(EXCEPTION_OVERFLOW)
		return
	}
	cpu.SetReg32(instruction.D(), uint32(v))
}

// Add Unsigned
func (cpu *CPU) OpADDU(instruction Instruction) {
	cpu.SetReg32(instruction.D(), cpu.Reg32(instruction.S())+cpu.Reg32(instruction.T()))
}

// Subtract: traps on signed overflow, the destination is untouched
func (cpu *CPU) OpSUB(instruction Instruction) {
	v, err := sub32Overflow(int32(cpu.Reg32(instruction.S())), int32(cpu.Reg32(instruction.T())))
	if err != nil {
		cpu.Exception(EXCEPTION_OVERFLOW)
		return
	}
	cpu.SetReg32(instruction.D(), uint32(v))
}

// Subtract Unsigned
func (cpu *CPU) OpSUBU(instruction Instruction) {
	cpu.SetReg32(instruction.D(), cpu.Reg32(instruction.S())-cpu.Reg32(instruction.T()))
}

// Doubleword Add: traps on signed 64 bit overflow
func (cpu *CPU) OpDADD(instruction Instruction) {
	v, err := add64Overflow(int64(cpu.Reg(instruction.S())), int64(cpu.Reg(instruction.T())))
	if err != nil {
		cpu.Exception(EXCEPTION_OVERFLOW)
		return
	}
	cpu.SetReg(instruction.D(), uint64(v))
}

// Doubleword Subtract: traps on signed 64 bit overflow
func (cpu *CPU) OpDSUB(instruction Instruction) {
	v, err := sub64Overflow(int64(cpu.Reg(instruction.S())), int64(cpu.Reg(instruction.T())))
	if err != nil {
		cpu.Exception(EXCEPTION_OVERFLOW)
		return
	}
	cpu.SetReg(instruction.D(), uint64(v))
}

// Multiply: the 64 bit product is split between HI and LO
func (cpu *CPU) OpMULT(instruction Instruction) {
	v := int64(int32(cpu.Reg32(instruction.S()))) * int64(int32(cpu.Reg32(instruction.T())))
	cpu.Lo = signExtend32(uint32(v))
	cpu.Hi = signExtend32(uint32(uint64(v) >> 32))
}

// Multiply Unsigned
func (cpu *CPU) OpMULTU(instruction Instruction) {
	v := uint64(cpu.Reg32(instruction.S())) * uint64(cpu.Reg32(instruction.T()))
	cpu.Lo = signExtend32(uint32(v))
	cpu.Hi = signExtend32(uint32(v >> 32))
}

// Divide: LO holds the quotient, HI the remainder. Division by zero does
// not trap, the result registers take the documented garbage values
func (cpu *CPU) OpDIV(instruction Instruction) {
	n := int32(cpu.Reg32(instruction.S()))
	d := int32(cpu.Reg32(instruction.T()))

	switch {
	case d == 0:
		cpu.Hi = signExtend32(uint32(n))
		if n >= 0 {
			cpu.Lo = 0xffffffffffffffff
		} else {
			cpu.Lo = 1
		}
	case n == -0x80000000 && d == -1:
		// the result does not fit in 32 bits
		cpu.Lo = signExtend32(0x80000000)
		cpu.Hi = 0
	default:
		cpu.Lo = signExtend32(uint32(n / d))
		cpu.Hi = signExtend32(uint32(n % d))
	}
}

// Divide Unsigned
func (cpu *CPU) OpDIVU(instruction Instruction) {
	n := cpu.Reg32(instruction.S())
	d := cpu.Reg32(instruction.T())

	if d == 0 {
		cpu.Lo = 0xffffffffffffffff
		cpu.Hi = signExtend32(n)
		return
	}
	cpu.Lo = signExtend32(n / d)
	cpu.Hi = signExtend32(n % d)
}

// Doubleword Multiply
func (cpu *CPU) OpDMULT(instruction Instruction) {
	hi, lo := mul64(int64(cpu.Reg(instruction.S())), int64(cpu.Reg(instruction.T())))
	cpu.Hi = hi
	cpu.Lo = lo
}

// Doubleword Multiply Unsigned
func (cpu *CPU) OpDMULTU(instruction Instruction) {
	hi, lo := mulu64(cpu.Reg(instruction.S()), cpu.Reg(instruction.T()))
	cpu.Hi = hi
	cpu.Lo = lo
}

// Doubleword Divide
func (cpu *CPU) OpDDIV(instruction Instruction) {
	n := int64(cpu.Reg(instruction.S()))
	d := int64(cpu.Reg(instruction.T()))

	switch {
	case d == 0:
		cpu.Hi = uint64(n)
		if n >= 0 {
			cpu.Lo = 0xffffffffffffffff
		} else {
			cpu.Lo = 1
		}
	case n == -0x8000000000000000 && d == -1:
		cpu.Lo = 0x8000000000000000
		cpu.Hi = 0
	default:
		cpu.Lo = uint64(n / d)
		cpu.Hi = uint64(n % d)
	}
}

// Doubleword Divide Unsigned
func (cpu *CPU) OpDDIVU(instruction Instruction) {
	n := cpu.Reg(instruction.S())
	d := cpu.Reg(instruction.T())

	if d == 0 {
		cpu.Lo = 0xffffffffffffffff
		cpu.Hi = n
		return
	}
	cpu.Lo = n / d
	cpu.Hi = n % d
}

// Returns the effective address of a load/store instruction
func (cpu *CPU) memAddr(instruction Instruction) uint32 {
	return cpu.Reg32(instruction.S()) + instruction.ImmSE()
}

// Data loads and stores go through these wrappers so the debugger sees
// every access. Instruction fetches bypass them

func (cpu *CPU) load8(addr uint32) byte {
	if cpu.Debugger != nil {
		cpu.Debugger.memoryRead(addr)
	}
	return cpu.Inter.Load8(addr)
}

func (cpu *CPU) load16(addr uint32) uint16 {
	if cpu.Debugger != nil {
		cpu.Debugger.memoryRead(addr)
	}
	return cpu.Inter.Load16(addr)
}

func (cpu *CPU) load32(addr uint32) uint32 {
	if cpu.Debugger != nil {
		cpu.Debugger.memoryRead(addr)
	}
	return cpu.Inter.Load32(addr)
}

func (cpu *CPU) load64(addr uint32) uint64 {
	if cpu.Debugger != nil {
		cpu.Debugger.memoryRead(addr)
	}
	return cpu.Inter.Load64(addr)
}

func (cpu *CPU) store8(addr uint32, val byte) {
	if cpu.Debugger != nil {
		cpu.Debugger.memoryWrite(addr)
	}
	cpu.Inter.Store8(addr, val)
}

func (cpu *CPU) store16(addr uint32, val uint16) {
	if cpu.Debugger != nil {
		cpu.Debugger.memoryWrite(addr)
	}
	cpu.Inter.Store16(addr, val)
}

func (cpu *CPU) store32(addr uint32, val uint32) {
	if cpu.Debugger != nil {
		cpu.Debugger.memoryWrite(addr)
	}
	cpu.Inter.Store32(addr, val)
}

func (cpu *CPU) store64(addr uint32, val uint64) {
	if cpu.Debugger != nil {
		cpu.Debugger.memoryWrite(addr)
	}
	cpu.Inter.Store64(addr, val)
}

// Load Byte (sign-extended)
func (cpu *CPU) OpLB(instruction Instruction) {
	v := cpu.load8(cpu.memAddr(instruction))
	cpu.SetReg(instruction.T(), uint64(int64(int8(v))))
}

// Load Byte Unsigned
func (cpu *CPU) OpLBU(instruction Instruction) {
	cpu.SetReg(instruction.T(), uint64(cpu.load8(cpu.memAddr(instruction))))
}

// Load Halfword (sign-extended)
func (cpu *CPU) OpLH(instruction Instruction) {
	addr := cpu.memAddr(instruction)
	if addr&1 != 0 {
		cpu.Exception(EXCEPTION_LOAD_ADDRESS_ERROR)
		return
	}
	v := cpu.load16(addr)
	cpu.SetReg(instruction.T(), uint64(int64(int16(v))))
}

// Load Halfword Unsigned
func (cpu *CPU) OpLHU(instruction Instruction) {
	addr := cpu.memAddr(instruction)
	if addr&1 != 0 {
		cpu.Exception(EXCEPTION_LOAD_ADDRESS_ERROR)
		return
	}
	cpu.SetReg(instruction.T(), uint64(cpu.load16(addr)))
}

// Load Word (sign-extended)
func (cpu *CPU) OpLW(instruction Instruction) {
	addr := cpu.memAddr(instruction)
	if addr&3 != 0 {
		cpu.Exception(EXCEPTION_LOAD_ADDRESS_ERROR)
		return
	}
	cpu.SetReg32(instruction.T(), cpu.load32(addr))
}

// Load Word Unsigned
func (cpu *CPU) OpLWU(instruction Instruction) {
	addr := cpu.memAddr(instruction)
	if addr&3 != 0 {
		cpu.Exception(EXCEPTION_LOAD_ADDRESS_ERROR)
		return
	}
	cpu.SetReg(instruction.T(), uint64(cpu.load32(addr)))
}

// Load Doubleword
func (cpu *CPU) OpLD(instruction Instruction) {
	addr := cpu.memAddr(instruction)
	if addr&7 != 0 {
		cpu.Exception(EXCEPTION_LOAD_ADDRESS_ERROR)
		return
	}
	cpu.SetReg(instruction.T(), cpu.load64(addr))
}

// Load Word Left: merges the high part of an unaligned word
func (cpu *CPU) OpLWL(instruction Instruction) {
	addr := cpu.memAddr(instruction)
	shift := (addr & 3) * 8
	mem := cpu.load32(addr & ^uint32(3))
	cur := cpu.Reg32(instruction.T())
	cpu.SetReg32(instruction.T(), cur&(1<<shift-1)|mem<<shift)
}

// Load Word Right: merges the low part of an unaligned word
func (cpu *CPU) OpLWR(instruction Instruction) {
	addr := cpu.memAddr(instruction)
	shift := (3 - addr&3) * 8
	mem := cpu.load32(addr & ^uint32(3))
	cur := cpu.Reg32(instruction.T())
	var keep uint32
	if shift > 0 {
		keep = cur & ^(0xffffffff >> shift)
	}
	cpu.SetReg32(instruction.T(), keep|mem>>shift)
}

// Store Byte
func (cpu *CPU) OpSB(instruction Instruction) {
	cpu.store8(cpu.memAddr(instruction), byte(cpu.Reg(instruction.T())))
}

// Store Halfword
func (cpu *CPU) OpSH(instruction Instruction) {
	addr := cpu.memAddr(instruction)
	if addr&1 != 0 {
		cpu.Exception(EXCEPTION_STORE_ADDRESS_ERROR)
		return
	}
	cpu.store16(addr, uint16(cpu.Reg(instruction.T())))
}

// Store Word
func (cpu *CPU) OpSW(instruction Instruction) {
	addr := cpu.memAddr(instruction)
	if addr&3 != 0 {
		cpu.Exception(EXCEPTION_STORE_ADDRESS_ERROR)
		return
	}
	cpu.store32(addr, cpu.Reg32(instruction.T()))
}

// Store Doubleword
func (cpu *CPU) OpSD(instruction Instruction) {
	addr := cpu.memAddr(instruction)
	if addr&7 != 0 {
		cpu.Exception(EXCEPTION_STORE_ADDRESS_ERROR)
		return
	}
	cpu.store64(addr, cpu.Reg(instruction.T()))
}

// Store Word Left
func (cpu *CPU) OpSWL(instruction Instruction) {
	addr := cpu.memAddr(instruction)
	shift := (addr & 3) * 8
	aligned := addr & ^uint32(3)
	mem := cpu.load32(aligned)
	var keep uint32
	if shift > 0 {
		keep = mem & ^(0xffffffff >> shift)
	}
	cpu.store32(aligned, keep|cpu.Reg32(instruction.T())>>shift)
}

// Store Word Right
func (cpu *CPU) OpSWR(instruction Instruction) {
	addr := cpu.memAddr(instruction)
	shift := (3 - addr&3) * 8
	aligned := addr & ^uint32(3)
	mem := cpu.load32(aligned)
	cpu.store32(aligned, mem&(1<<shift-1)|cpu.Reg32(instruction.T())<<shift)
}

// Load Linked: loads a word and arms the reservation flag
func (cpu *CPU) OpLL(instruction Instruction) {
	addr := cpu.memAddr(instruction)
	if addr&3 != 0 {
		cpu.Exception(EXCEPTION_LOAD_ADDRESS_ERROR)
		return
	}
	cpu.SetReg32(instruction.T(), cpu.load32(addr))
	cpu.LLBit = true
}

// Store Conditional: stores and returns 1 only if the reservation from a
// preceding Load Linked is still armed. The flag is consumed either way
func (cpu *CPU) OpSC(instruction Instruction) {
	addr := cpu.memAddr(instruction)
	if addr&3 != 0 {
		cpu.Exception(EXCEPTION_STORE_ADDRESS_ERROR)
		return
	}
	if cpu.LLBit {
		cpu.store32(addr, cpu.Reg32(instruction.T()))
		cpu.SetReg(instruction.T(), 1)
	} else {
		cpu.SetReg(instruction.T(), 0)
	}
	cpu.LLBit = false
}
