package emulator

// COP0 register indices
const (
	COP0_STATUS = 12 // Status register
	COP0_CAUSE  = 13 // Cause register
	COP0_EPC    = 14 // Exception PC
	COP0_PRID   = 15 // Processor revision identifier
	COP0_CONFIG = 16 // Configuration register
)

// Status register bits
const (
	SR_IE  uint32 = 1 << 0  // Global interrupt enable
	SR_EXL uint32 = 1 << 1  // Exception level (blocks re-entrant exceptions)
	SR_ERL uint32 = 1 << 2  // Error level
	SR_BEV uint32 = 1 << 22 // Bootstrap exception vector select
)

// Cause register bits
const (
	CAUSE_EXCCODE_MASK uint32 = 0x7c    // ExcCode field, bits [6:2]
	CAUSE_IP_MASK      uint32 = 0xff00  // Pending interrupt bits
	CAUSE_BD           uint32 = 1 << 31 // Branch delay bit
)

// Exception vectors, selected by the SR_BEV bit
const (
	EXCEPTION_VECTOR      uint32 = 0x80000180 // General exception vector
	EXCEPTION_VECTOR_BOOT uint32 = 0xbfc00380 // Bootstrap exception vector
)

// Coprocessor 0: System Control. The VR4300 exposes 32 registers, most of
// which concern the TLB and cache diagnostics that this core does not
// emulate; they are still readable and writable as plain storage
type Cop0 struct {
	Regs [32]uint32 // The 32 system control registers
}

// Creates a new Cop0 instance with the documented reset values
func NewCop0() *Cop0 {
	cop := &Cop0{}
	cop.Reset()
	return cop
}

// Resets the system control registers to their boot values
func (cop *Cop0) Reset() {
	for i := range cop.Regs {
		cop.Regs[i] = 0
	}
	cop.Regs[COP0_STATUS] = 0x34000000 | SR_BEV | SR_ERL
	cop.Regs[COP0_PRID] = 0x00000b22   // VR4300 revision 2.2
	cop.Regs[COP0_CONFIG] = 0x0006e463 // Reset value with big endian mode set
}

func (cop *Cop0) Status() uint32 {
	return cop.Regs[COP0_STATUS]
}

func (cop *Cop0) SetStatus(sr uint32) {
	cop.Regs[COP0_STATUS] = sr
}

// Returns value of the cause register
func (cop *Cop0) Cause() uint32 {
	return cop.Regs[COP0_CAUSE]
}

// Returns true if interrupts are enabled and not blocked by an exception
// already being serviced
func (cop *Cop0) IrqEnabled() bool {
	sr := cop.Regs[COP0_STATUS]
	return sr&SR_IE != 0 && sr&SR_EXL == 0 && sr&SR_ERL == 0
}

// Updates the pending interrupt bits of the cause register from the state
// of the external interrupt lines
func (cop *Cop0) SetPendingIrqs(pending uint32) {
	cause := cop.Regs[COP0_CAUSE] & ^CAUSE_IP_MASK
	cop.Regs[COP0_CAUSE] = cause | ((pending << 10) & CAUSE_IP_MASK)
}

// Enters an exception: saves the PC of the faulting instruction into EPC
// (adjusted for delay slots), raises the exception level lock and updates
// the cause code. Returns the address of the exception handler
func (cop *Cop0) EnterException(cause Exception, pc uint32, inDelaySlot bool) uint32 {
	// update `CAUSE` register with the exception code
	c := cop.Regs[COP0_CAUSE] & ^CAUSE_EXCCODE_MASK
	c |= (uint32(cause) << 2) & CAUSE_EXCCODE_MASK

	// EPC always points at the faulting instruction. If that instruction
	// was in a branch delay slot, EPC points at the branch instead and the
	// BD bit is set so the handler can recompute the real address
	if inDelaySlot {
		cop.Regs[COP0_EPC] = pc - 4
		c |= CAUSE_BD
	} else {
		cop.Regs[COP0_EPC] = pc
		c &= ^CAUSE_BD
	}
	cop.Regs[COP0_CAUSE] = c

	// the exception level bit blocks re-entrant exceptions until the
	// handler executes ERET
	cop.Regs[COP0_STATUS] |= SR_EXL

	// return exception handler
	if cop.Regs[COP0_STATUS]&SR_BEV != 0 {
		return EXCEPTION_VECTOR_BOOT
	}
	return EXCEPTION_VECTOR
}

// Returns from an exception: clears the exception level lock and returns
// the PC saved on exception entry
func (cop *Cop0) ReturnFromException() uint32 {
	cop.Regs[COP0_STATUS] &= ^SR_EXL
	return cop.Regs[COP0_EPC]
}
