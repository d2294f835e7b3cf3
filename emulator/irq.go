package emulator

// External interrupt lines. These are raised and cleared by the
// surrounding system (frame pacing, audio DMA completion and so on), the
// core itself only ever samples them between retired instructions
type Interrupt uint32

const (
	INTERRUPT_VIDEO      Interrupt = 0 // Vertical retrace
	INTERRUPT_SERIAL     Interrupt = 1 // Serial interface transfer complete
	INTERRUPT_PERIPHERAL Interrupt = 2 // Peripheral interface DMA complete
	INTERRUPT_AUDIO      Interrupt = 3 // Audio buffer consumed
)

// State of the external interrupt lines
type IrqState struct {
	Pending uint32 // One bit per line
}

// Returns a new interrupt state with all lines clear
func NewIrqState() *IrqState {
	return &IrqState{}
}

// Returns true if any interrupt line is raised
func (state *IrqState) Active() bool {
	return state.Pending != 0
}

// Raises an interrupt line
func (state *IrqState) SetHigh(interrupt Interrupt) {
	state.Pending |= 1 << interrupt
}

// Clears an interrupt line
func (state *IrqState) SetLow(interrupt Interrupt) {
	state.Pending &= ^(uint32(1) << interrupt)
}
