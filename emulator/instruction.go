package emulator

type Instruction uint32

// Return the primary opcode in bits [31:26] of the instruction
func (op Instruction) Function() uint32 {
	return uint32(op) >> 26
}

// Return the funct field in bits [5:0] of the instruction
func (op Instruction) Subfunction() uint32 {
	return uint32(op) & 0x3f
}

// Return register index in bits [25:21] (rs)
func (op Instruction) S() uint32 {
	return (uint32(op) >> 21) & 0x1f
}

// Return register index in bits [20:16] (rt)
func (op Instruction) T() uint32 {
	return (uint32(op) >> 16) & 0x1f
}

// Return register index in bits [15:11] (rd)
func (op Instruction) D() uint32 {
	return (uint32(op) >> 11) & 0x1f
}

// Return immediate value in bits [15:0]
func (op Instruction) Imm() uint32 {
	return uint32(op) & 0xffff
}

// Return immediate value in bits [15:0] as a sign-extended 32 bit value
func (op Instruction) ImmSE() uint32 {
	v := int16(uint32(op) & 0xffff)
	return uint32(v)
}

// Return immediate value in bits [15:0] as a sign-extended 64 bit value
func (op Instruction) ImmSE64() uint64 {
	v := int16(uint32(op) & 0xffff)
	return uint64(int64(v))
}

// Jump target stored in bits [25:0]
func (op Instruction) ImmJump() uint32 {
	return uint32(op) & 0x3ffffff
}

// Shift immediate values are stored in bits [10:6]
func (op Instruction) Shift() uint32 {
	return (uint32(op) >> 6) & 0x1f
}

// Coprocessor opcode stored in bits [25:21] (same field as rs)
func (op Instruction) CopOpcode() uint32 {
	return (uint32(op) >> 21) & 0x1f
}

// Vector element select field in bits [24:21], used by the RSP
func (op Instruction) Element() uint32 {
	return (uint32(op) >> 21) & 0xf
}

// Vector destination register in bits [10:6], used by the RSP
func (op Instruction) VD() uint32 {
	return (uint32(op) >> 6) & 0x1f
}
