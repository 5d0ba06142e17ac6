package emulator

import (
	"github.com/evmcfg/evmcfg/instruction"
	"github.com/evmcfg/evmcfg/vmstate"
)

// execLog implements LOG0..LOG4. This emulator reconstructs control
// flow, not event history, so a LOG's memory range and topics are
// popped (to keep both stacks in lock-step) and otherwise discarded —
// no log record is retained.
func (e *Emulator) execLog(inst *instruction.Instruction, state *vmstate.VMState) (bool, HaltKind, error) {
	for i := 0; i < inst.Pops; i++ {
		if _, _, err := state.Pop(inst.Mnemonic); err != nil {
			return true, HaltStackUnderflow, err
		}
	}
	return false, "", nil
}
