package emulator

// Vector unit of the RSP. All ALU operations work lane-wise across the
// eight 16 bit lanes of the operands. The element field of the
// instruction selects the addressing of the second operand: 0 pairs the
// lanes one to one, 8..15 broadcast a single lane of vt across all
// output lanes. The widened multiply/accumulator model is simplified:
// each multiply overwrites the accumulator instead of summing into it

// Vector ALU funct encodings
const (
	VOP_VMUDL = 0x04 // Multiply unsigned, keep high half of the product
	VOP_VMUDM = 0x05 // Multiply signed by unsigned, keep high half
	VOP_VMUDN = 0x06 // Multiply unsigned by signed, keep low half
	VOP_VMUDH = 0x07 // Multiply signed, keep low half
	VOP_VADD  = 0x10 // Add with 16 bit wraparound
	VOP_VSUB  = 0x11 // Subtract with 16 bit wraparound
	VOP_VSAR  = 0x1d // Read back an accumulator slice
)

// Dispatches a coprocessor 2 instruction: either a scalar transfer in
// and out of the vector file or a vector ALU operation
func (rsp *RSP) executeVector(instruction Instruction) {
	cop := instruction.CopOpcode()

	// bit 25 of the instruction selects the ALU sub-dispatch
	if cop&0x10 != 0 {
		rsp.executeVectorALU(instruction)
		return
	}

	switch cop {
	case 0x00: // Move From Coprocessor 2: one lane into a scalar register
		lane := vectorLane(instruction)
		v := rsp.VRegs[instruction.D()][lane]
		rsp.SetReg(instruction.T(), uint32(int32(int16(v))))
	case 0x04: // Move To Coprocessor 2: a scalar register into one lane
		lane := vectorLane(instruction)
		rsp.VRegs[instruction.D()][lane] = uint16(rsp.Reg(instruction.T()))
	default:
		// control transfers are not part of the reduced set
	}
}

// Returns the lane index of a scalar transfer, stored in bits [10:8]
func vectorLane(instruction Instruction) uint32 {
	return (uint32(instruction) >> 8) & 0x7
}

// Returns the lanes of vt with element addressing applied: a
// non-broadcasting element pairs lane for lane, 8..15 broadcast lane
// e&7 of vt across all output lanes
func (rsp *RSP) vectorOperand(instruction Instruction) [8]uint16 {
	vt := rsp.VRegs[instruction.T()]
	e := instruction.Element()

	if e >= 8 {
		lane := vt[e&7]
		for i := range vt {
			vt[i] = lane
		}
	}
	return vt
}

// Executes a vector ALU operation lane-wise
func (rsp *RSP) executeVectorALU(instruction Instruction) {
	vs := rsp.VRegs[instruction.D()]
	vt := rsp.vectorOperand(instruction)
	vd := instruction.VD()

	switch instruction.Subfunction() {
	case VOP_VMUDL:
		for i := 0; i < 8; i++ {
			p := uint32(vs[i]) * uint32(vt[i])
			rsp.Accum[i] = uint64(p)
			rsp.VRegs[vd][i] = uint16(p >> 16)
		}
	case VOP_VMUDM:
		for i := 0; i < 8; i++ {
			p := int32(int16(vs[i])) * int32(vt[i])
			rsp.Accum[i] = uint64(uint32(p))
			rsp.VRegs[vd][i] = uint16(uint32(p) >> 16)
		}
	case VOP_VMUDN:
		for i := 0; i < 8; i++ {
			p := int32(vs[i]) * int32(int16(vt[i]))
			rsp.Accum[i] = uint64(uint32(p))
			rsp.VRegs[vd][i] = uint16(uint32(p))
		}
	case VOP_VMUDH:
		for i := 0; i < 8; i++ {
			p := int32(int16(vs[i])) * int32(int16(vt[i]))
			rsp.Accum[i] = uint64(uint32(p)) << 16
			rsp.VRegs[vd][i] = uint16(uint32(p))
		}
	case VOP_VADD:
		for i := 0; i < 8; i++ {
			// 32 bit intermediate truncated to 16: wraparound, not
			// saturation
			v := int32(int16(vs[i])) + int32(int16(vt[i]))
			rsp.VRegs[vd][i] = uint16(uint32(v))
		}
	case VOP_VSUB:
		for i := 0; i < 8; i++ {
			v := int32(int16(vs[i])) - int32(int16(vt[i]))
			rsp.VRegs[vd][i] = uint16(uint32(v))
		}
	case VOP_VSAR:
		rsp.opVSAR(instruction, vd)
	default:
		// not part of the reduced set
	}
}

// Reads back one 16 bit slice of each lane accumulator, selected by the
// element field
func (rsp *RSP) opVSAR(instruction Instruction, vd uint32) {
	var shift uint32
	switch instruction.Element() {
	case 8: // high
		shift = 32
	case 9: // mid
		shift = 16
	case 10: // low
		shift = 0
	default:
		for i := 0; i < 8; i++ {
			rsp.VRegs[vd][i] = 0
		}
		return
	}
	for i := 0; i < 8; i++ {
		rsp.VRegs[vd][i] = uint16(rsp.Accum[i] >> shift)
	}
}

// Vector loads and stores move exactly eight contiguous 16 bit lanes
// between data memory and a vector register. The quadword offset is a
// signed 7 bit field scaled by the transfer size

// Load Quadword to Vector register
func (rsp *RSP) OpLQV(instruction Instruction) {
	addr := rsp.vectorMemAddr(instruction)
	vt := instruction.T()

	for i := uint32(0); i < 8; i++ {
		v := rsp.LoadDataMem(addr+i*2, ACCESS_HALFWORD).(uint16)
		rsp.VRegs[vt][i] = v
	}
}

// Store Quadword from Vector register
func (rsp *RSP) OpSQV(instruction Instruction) {
	addr := rsp.vectorMemAddr(instruction)
	vt := instruction.T()

	for i := uint32(0); i < 8; i++ {
		rsp.StoreDataMem(addr+i*2, ACCESS_HALFWORD, rsp.VRegs[vt][i])
	}
}

// Returns the effective data memory address of a vector load/store
func (rsp *RSP) vectorMemAddr(instruction Instruction) uint32 {
	// sign-extend the 7 bit offset, scaled to quadwords
	offset := int32(uint32(instruction)&0x7f) << 25 >> 25
	return rsp.Reg(instruction.S()) + uint32(offset*16)
}
