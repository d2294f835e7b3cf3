package emulator

const (
	// 93.75 MHz CPU clock over a 60 Hz refresh
	CPU_FRAME_CYCLES = 1562500
)

// Wires the whole machine together and drives it one video frame at a
// time
type Console struct {
	Cpu   *CPU          // Main processor
	Rsp   *RSP          // Vector coprocessor
	Rdp   *RDP          // Rasterizer
	Inter *Interconnect // Memory interface
	Ram   *RDRAM        // Main memory
	Cart  *Cartridge    // Inserted cartridge
}

// Creates a console with `cart` inserted and boots it
func NewConsole(cart *Cartridge) *Console {
	ram := NewRDRAM()
	rsp := NewRSP(ram)
	rdp := NewRDP(ram)
	inter := NewInterconnect(ram, cart, rsp, rdp)
	cpu := NewCPU(inter)
	inter.SimulateBoot(cpu)

	return &Console{
		Cpu:   cpu,
		Rsp:   rsp,
		Rdp:   rdp,
		Inter: inter,
		Ram:   ram,
		Cart:  cart,
	}
}

// Runs one video frame: a frame worth of CPU cycles, then the vector
// coprocessor if it was started, then the queued rasterizer commands,
// then the vertical blank interrupt
func (console *Console) RunFrame() {
	cycles := uint32(0)
	for cycles < CPU_FRAME_CYCLES {
		cycles += console.Cpu.Step()
	}

	console.Rsp.ExecuteFrame()
	console.Rdp.ProcessCommands()

	// pulse the vertical blank line: there is no display controller to
	// acknowledge it through
	console.Cpu.Irq.SetHigh(INTERRUPT_VIDEO)
	console.Cpu.Step()
	console.Cpu.Irq.SetLow(INTERRUPT_VIDEO)
}

// Returns the frame rendered by the rasterizer and clears its
// completion flag. Returns nil when no frame finished since the last
// call
func (console *Console) TakeFrame() *Framebuffer {
	if !console.Rdp.FrameComplete {
		return nil
	}
	console.Rdp.FrameComplete = false
	return console.Rdp.Framebuffer
}
