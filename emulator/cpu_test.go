package emulator

import "testing"

// Test programs run out of RDRAM through the cached high memory mirror
const testBase uint32 = 0x80000000

func newTestCPU() *CPU {
	ram := NewRDRAM()
	rsp := NewRSP(ram)
	rdp := NewRDP(ram)
	inter := NewInterconnect(ram, nil, rsp, rdp)
	cpu := NewCPU(inter)
	cpu.PC = testBase
	return cpu
}

// Writes `words` as a program starting at the test base address
func loadProgram(cpu *CPU, words ...uint32) {
	for i, word := range words {
		cpu.Inter.Store32(testBase+uint32(i)*4, word)
	}
}

func encodeI(op, rs, rt uint32, imm uint16) uint32 {
	return op<<26 | rs<<21 | rt<<16 | uint32(imm)
}

func encodeR(rs, rt, rd, funct uint32) uint32 {
	return rs<<21 | rt<<16 | rd<<11 | funct
}

func excCode(cpu *CPU) Exception {
	return Exception((cpu.Cop0.Cause() & CAUSE_EXCCODE_MASK) >> 2)
}

func TestAddOverflow(t *testing.T) {
	tests := []struct {
		S      uint64 // rs value
		T      uint64 // rt value
		Traps  bool
		Result uint64
	}{
		{1, 2, false, 3},
		{0x7fffffff, 1, true, 0},
		{0xffffffffffffffff, 0xffffffffffffffff, false, 0xfffffffffffffffe},
		{signExtend32(0x80000000), signExtend32(0x80000000), true, 0},
		{signExtend32(0x80000000), 1, false, signExtend32(0x80000001)},
	}

	for idx, test := range tests {
		cpu := newTestCPU()
		loadProgram(cpu, encodeR(1, 2, 3, 0x20)) // add r3, r1, r2
		cpu.SetReg(1, test.S)
		cpu.SetReg(2, test.T)
		cpu.SetReg(3, 0xdead)
		cpu.Step()

		if test.Traps {
			if cpu.Reg(3) != 0xdead {
				t.Errorf("test %d: destination clobbered by trapping add", idx)
			}
			if excCode(cpu) != EXCEPTION_OVERFLOW {
				t.Errorf("test %d: expected overflow cause, got 0x%x", idx, excCode(cpu))
			}
			if cpu.PC != EXCEPTION_VECTOR_BOOT {
				t.Errorf("test %d: expected bootstrap vector, got 0x%x", idx, cpu.PC)
			}
			if cpu.Cop0.Regs[COP0_EPC] != testBase {
				t.Errorf("test %d: bad EPC 0x%x", idx, cpu.Cop0.Regs[COP0_EPC])
			}
		} else {
			if cpu.Reg(3) != test.Result {
				t.Errorf("test %d: expected 0x%x, got 0x%x", idx, test.Result, cpu.Reg(3))
			}
			if cpu.PC != testBase+4 {
				t.Errorf("test %d: unexpected PC 0x%x", idx, cpu.PC)
			}
		}
	}
}

func TestAddUnsignedNeverTraps(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}

	cpu := newTestCPU()
	loadProgram(cpu, encodeR(1, 2, 3, 0x21)) // addu r3, r1, r2
	cpu.SetReg(1, 0x7fffffff)
	cpu.SetReg(2, 1)
	cpu.Step()

	// the 32 bit result wraps into the sign bit and gets sign-extended
	assert(cpu.Reg(3) == signExtend32(0x80000000))
	assert(cpu.PC == testBase+4)
}

func TestAddImmediateSequence(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}

	cpu := newTestCPU()
	loadProgram(cpu,
		encodeI(0x08, 0, 1, 100), // addi r1, r0, 100
		encodeI(0x08, 1, 1, 50),  // addi r1, r1, 50
	)
	cpu.Step()
	cpu.Step()

	assert(cpu.Reg(1) == 150)
}

func TestRegisterZeroStaysZero(t *testing.T) {
	cpu := newTestCPU()
	loadProgram(cpu, encodeI(0x09, 0, 0, 5)) // addiu r0, r0, 5
	cpu.Step()

	if cpu.Reg(0) != 0 {
		t.Errorf("register zero took the value 0x%x", cpu.Reg(0))
	}
}

func TestBranchDelaySlot(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}

	cpu := newTestCPU()
	loadProgram(cpu,
		encodeI(0x04, 0, 0, 4), // beq r0, r0, +4 (always taken)
		encodeI(0x09, 0, 1, 7), // addiu r1, r0, 7 (delay slot)
	)

	cpu.Step()
	assert(cpu.PC == testBase+4)
	assert(cpu.BranchPending)
	assert(cpu.Reg(1) == 0)

	// the delay slot executes before the branch lands
	cpu.Step()
	assert(cpu.Reg(1) == 7)
	assert(cpu.PC == testBase+4+(4<<2))
}

func TestBranchLikelyAnnulsDelaySlot(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}

	// not taken: the delay slot must be skipped entirely
	cpu := newTestCPU()
	loadProgram(cpu,
		encodeI(0x15, 0, 0, 4), // bnel r0, r0, +4 (never taken)
		encodeI(0x09, 0, 1, 1), // addiu r1, r0, 1 (annulled)
	)
	cpu.Step()
	assert(cpu.PC == testBase+8)
	assert(!cpu.BranchPending)

	cpu.Step()
	assert(cpu.Reg(1) == 0)

	// taken: behaves like a plain branch
	cpu = newTestCPU()
	loadProgram(cpu,
		encodeI(0x14, 0, 0, 4), // beql r0, r0, +4 (always taken)
		encodeI(0x09, 0, 1, 1), // addiu r1, r0, 1 (delay slot)
	)
	cpu.Step()
	cpu.Step()
	assert(cpu.Reg(1) == 1)
	assert(cpu.PC == testBase+4+(4<<2))
}

func TestLoadLinkedStoreConditional(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}

	addr := testBase + 0x100
	cpu := newTestCPU()
	cpu.Inter.Store32(addr, 42)
	loadProgram(cpu,
		encodeI(0x30, 2, 1, 0x100), // ll r1, 0x100(r2-base)
		encodeI(0x38, 2, 3, 0x100), // sc r3, 0x100(r2-base)
	)
	cpu.SetReg(2, uint64(testBase))
	cpu.SetReg(3, 7)

	cpu.Step()
	assert(cpu.Reg(1) == 42)
	assert(cpu.LLBit)

	cpu.Step()
	assert(cpu.Reg(3) == 1) // success
	assert(cpu.Inter.Load32(addr) == 7)
	assert(!cpu.LLBit)

	// a second conditional store without a fresh reservation fails
	cpu.PC = testBase + 4
	cpu.SetReg(3, 9)
	cpu.Step()
	assert(cpu.Reg(3) == 0)
	assert(cpu.Inter.Load32(addr) == 7)
}

func TestSyscallAndEret(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}

	cpu := newTestCPU()
	loadProgram(cpu, 0x0000000c) // syscall
	cpu.Step()

	assert(cpu.PC == EXCEPTION_VECTOR_BOOT)
	assert(excCode(cpu) == EXCEPTION_SYSCALL)
	assert(cpu.Cop0.Regs[COP0_EPC] == testBase)
	assert(cpu.Cop0.Status()&SR_EXL != 0)

	// eret resumes at the saved PC and drops the exception level lock
	cpu.Inter.Store32(testBase+0x200, 0x42000018) // eret
	cpu.PC = testBase + 0x200
	cpu.Step()
	assert(cpu.PC == testBase)
	assert(cpu.Cop0.Status()&SR_EXL == 0)
}

func TestDelaySlotFaultEPC(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}

	cpu := newTestCPU()
	loadProgram(cpu,
		encodeI(0x04, 0, 0, 4), // beq r0, r0, +4
		0x0000000c,             // syscall in the delay slot
	)
	cpu.Step()
	cpu.Step()

	// EPC points back at the branch so the handler can rerun it
	assert(cpu.PC == EXCEPTION_VECTOR_BOOT)
	assert(cpu.Cop0.Regs[COP0_EPC] == testBase)
	assert(cpu.Cop0.Cause()&CAUSE_BD != 0)
}

func TestInterruptDelivery(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}

	cpu := newTestCPU()
	loadProgram(cpu, 0, 0) // nops
	cpu.Cop0.SetStatus(SR_IE)
	cpu.Irq.SetHigh(INTERRUPT_VIDEO)

	cpu.Step()
	assert(cpu.PC == EXCEPTION_VECTOR)
	assert(excCode(cpu) == EXCEPTION_INTERRUPT)
	assert(cpu.Cop0.Cause()&(1<<10) != 0)
	// EPC holds the next instruction: nothing was lost, eret resumes
	// exactly where the interrupt cut in
	assert(cpu.Cop0.Regs[COP0_EPC] == testBase+4)

	cpu.Irq.SetLow(INTERRUPT_VIDEO)
	cpu.Inter.Store32(EXCEPTION_VECTOR, 0x42000018) // eret at the handler
	cpu.Step()
	assert(cpu.PC == testBase+4)
}

func TestInterruptMaskedWhileServicing(t *testing.T) {
	cpu := newTestCPU()
	loadProgram(cpu, 0)
	cpu.Cop0.SetStatus(SR_IE | SR_EXL)
	cpu.Irq.SetHigh(INTERRUPT_SERIAL)

	cpu.Step()
	if cpu.PC != testBase+4 {
		t.Errorf("interrupt delivered despite the exception level lock, PC 0x%x", cpu.PC)
	}
}

func TestIllegalInstruction(t *testing.T) {
	cpu := newTestCPU()
	loadProgram(cpu, 0x3b<<26) // unassigned primary opcode

	cpu.Step()
	if excCode(cpu) != EXCEPTION_ILLEGAL_INSTRUCTION {
		t.Errorf("expected illegal instruction cause, got 0x%x", excCode(cpu))
	}
}

func TestMisalignedLoadWord(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}

	cpu := newTestCPU()
	loadProgram(cpu, encodeI(0x23, 2, 1, 1)) // lw r1, 1(r2)
	cpu.SetReg(2, uint64(testBase))
	cpu.SetReg(1, 0xdead)
	cpu.Step()

	assert(excCode(cpu) == EXCEPTION_LOAD_ADDRESS_ERROR)
	assert(cpu.Reg(1) == 0xdead)
}

func TestUnalignedWordAccess(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}

	// lwl/lwr pairs assemble a word from any byte offset
	cpu := newTestCPU()
	cpu.Inter.Store32(testBase+0x100, 0x11223344)
	cpu.Inter.Store32(testBase+0x104, 0x55667788)
	cpu.SetReg(2, uint64(testBase))
	loadProgram(cpu,
		encodeI(0x22, 2, 1, 0x101), // lwl r1, 0x101
		encodeI(0x26, 2, 1, 0x104), // lwr r1, 0x104
	)
	cpu.Step()
	cpu.Step()
	assert(cpu.Reg32(1) == 0x22334455)

	// swl/swr pairs scatter a word back
	cpu.SetReg(3, 0xaabbccdd)
	cpu.Inter.Store32(testBase+0x108, 0)
	cpu.Inter.Store32(testBase+0x10c, 0)
	cpu.PC = testBase + 0x40
	cpu.Inter.Store32(testBase+0x40, encodeI(0x2a, 2, 3, 0x109)) // swl r3, 0x109
	cpu.Inter.Store32(testBase+0x44, encodeI(0x2e, 2, 3, 0x10c)) // swr r3, 0x10c
	cpu.Step()
	cpu.Step()
	assert(cpu.Inter.Load32(testBase+0x108) == 0x00aabbcc)
	assert(cpu.Inter.Load32(testBase+0x10c) == 0xdd000000)
}

func TestMultiplyDivide(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}

	cpu := newTestCPU()
	loadProgram(cpu, encodeR(1, 2, 0, 0x18)) // mult r1, r2
	cpu.SetReg(1, signExtend32(0xffffffff))  // -1
	cpu.SetReg(2, 7)
	cpu.Step()
	assert(cpu.Lo == signExtend32(0xfffffff9)) // -7
	assert(cpu.Hi == signExtend32(0xffffffff))

	// division by zero does not trap
	cpu = newTestCPU()
	loadProgram(cpu, encodeR(1, 2, 0, 0x1a)) // div r1, r2
	cpu.SetReg(1, 10)
	cpu.SetReg(2, 0)
	cpu.Step()
	assert(cpu.Lo == 0xffffffffffffffff)
	assert(cpu.Hi == 10)
}

func TestDoublewordMultiply(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}

	cpu := newTestCPU()
	loadProgram(cpu, encodeR(1, 2, 0, 0x1c)) // dmult r1, r2
	cpu.SetReg(1, 0xffffffffffffffff)        // -1
	cpu.SetReg(2, 0xffffffffffffffff)        // -1
	cpu.Step()
	assert(cpu.Lo == 1)
	assert(cpu.Hi == 0)

	cpu = newTestCPU()
	loadProgram(cpu, encodeR(1, 2, 0, 0x1d)) // dmultu r1, r2
	cpu.SetReg(1, 0x8000000000000000)
	cpu.SetReg(2, 2)
	cpu.Step()
	assert(cpu.Lo == 0)
	assert(cpu.Hi == 1)
}

func TestJumpAndLink(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}

	cpu := newTestCPU()
	target := (testBase + 0x400) & 0x0fffffff >> 2
	loadProgram(cpu,
		0x03<<26|target, // jal
		0,               // delay slot
	)
	cpu.Step()
	cpu.Step()
	assert(cpu.PC == testBase+0x400)
	assert(cpu.Reg32(31) == testBase+8)
}

func TestDebuggerBreakpoint(t *testing.T) {
	cpu := newTestCPU()
	loadProgram(cpu, 0, 0)
	cpu.Debugger = NewDebugger()
	cpu.Debugger.AddBreakpoint(testBase + 4)

	cpu.Step()
	if cpu.Debugger.Paused {
		t.Error("paused before reaching the breakpoint")
	}
	cpu.Step()
	if !cpu.Debugger.Paused {
		t.Error("breakpoint did not pause")
	}
}

func TestDebuggerWriteWatchpoint(t *testing.T) {
	cpu := newTestCPU()
	cpu.SetReg(2, uint64(testBase))
	loadProgram(cpu, encodeI(0x2b, 2, 1, 0x100)) // sw r1, 0x100(r2)
	cpu.Debugger = NewDebugger()
	cpu.Debugger.AddWriteWatchpoint(testBase + 0x100)

	cpu.Step()
	if !cpu.Debugger.Paused {
		t.Error("write watchpoint did not pause")
	}
}
