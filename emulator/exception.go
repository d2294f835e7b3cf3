package emulator

type Exception uint32

// Exception codes stored in the ExcCode field of the COP0 cause register
const (
	EXCEPTION_INTERRUPT           Exception = 0x0  // External interrupt
	EXCEPTION_TLB_MODIFICATION    Exception = 0x1  // TLB modification (placeholder, no TLB emulation)
	EXCEPTION_TLB_LOAD            Exception = 0x2  // TLB miss on load (placeholder)
	EXCEPTION_TLB_STORE           Exception = 0x3  // TLB miss on store (placeholder)
	EXCEPTION_LOAD_ADDRESS_ERROR  Exception = 0x4  // Address error on load
	EXCEPTION_STORE_ADDRESS_ERROR Exception = 0x5  // Address error on store
	EXCEPTION_BUS_ERROR_FETCH     Exception = 0x6  // Bus error on instruction fetch
	EXCEPTION_BUS_ERROR_DATA      Exception = 0x7  // Bus error on data access
	EXCEPTION_SYSCALL             Exception = 0x8  // System call (caused by the SYSCALL opcode)
	EXCEPTION_BREAK               Exception = 0x9  // Breakpoint (caused by BREAK opcode)
	EXCEPTION_ILLEGAL_INSTRUCTION Exception = 0xa  // CPU encountered an unknown instruction
	EXCEPTION_COPROCESSOR_ERROR   Exception = 0xb  // Unusable coprocessor
	EXCEPTION_OVERFLOW            Exception = 0xc  // Arithmetic overflow
	EXCEPTION_TRAP                Exception = 0xd  // Trap instruction
	EXCEPTION_FLOATING_POINT      Exception = 0xf  // Floating point exception
)
