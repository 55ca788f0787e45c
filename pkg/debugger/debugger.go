// Package debugger wraps pkg/vm execution with breakpoints and
// single-stepping, plus a line-reading REPL shell, re-targeted from the
// reference compiler's bytecode debugger to the accumulator machine's flat
// instruction stream (no call stack exists here, so CallFrame/step-over/
// step-out have no analog - every step is a step into the next instruction).
package debugger

import (
	"fmt"

	"github.com/jakubdabek/gembiler/pkg/vm"
)

// Breakpoint pauses execution just before the instruction at Location runs.
type Breakpoint struct {
	ID       int
	Location int64
	Enabled  bool
	HitCount int
}

// Debugger drives a vm.VM one instruction at a time, stopping at enabled
// breakpoints or after a single step.
type Debugger struct {
	machine     *vm.VM
	breakpoints map[int64]*Breakpoint
	nextID      int
	paused      bool
	finished    bool
}

// New wraps machine for step/breakpoint control.
func New(machine *vm.VM) *Debugger {
	return &Debugger{
		machine:     machine,
		breakpoints: make(map[int64]*Breakpoint),
		nextID:      1,
	}
}

// SetBreakpoint arms a breakpoint at an instruction index.
func (d *Debugger) SetBreakpoint(location int64) int {
	bp := &Breakpoint{ID: d.nextID, Location: location, Enabled: true}
	d.breakpoints[location] = bp
	d.nextID++
	return bp.ID
}

// ClearBreakpoint disarms the breakpoint at location, if any.
func (d *Debugger) ClearBreakpoint(location int64) bool {
	if _, ok := d.breakpoints[location]; ok {
		delete(d.breakpoints, location)
		return true
	}
	return false
}

// IsPaused reports whether the debugger stopped at a breakpoint or single step.
func (d *Debugger) IsPaused() bool { return d.paused }

// Finished reports whether the program has run to HALT.
func (d *Debugger) Finished() bool { return d.finished }

// Step executes exactly one instruction and pauses.
func (d *Debugger) Step() error {
	if d.finished {
		return fmt.Errorf("debugger: program already halted")
	}
	halted, err := d.machine.StepOnce()
	if err != nil {
		return err
	}
	d.paused = true
	d.finished = halted
	return nil
}

// Continue runs until the next enabled breakpoint or HALT. If execution is
// already paused at a breakpoint, that instruction is stepped past first so
// Continue always makes forward progress rather than re-triggering the
// breakpoint it was called from.
func (d *Debugger) Continue() error {
	if d.finished {
		return fmt.Errorf("debugger: program already halted")
	}
	wasPaused := d.paused
	d.paused = false

	if wasPaused {
		halted, err := d.machine.StepOnce()
		if err != nil {
			return err
		}
		if halted {
			d.finished = true
			return nil
		}
	}

	for {
		if bp, ok := d.breakpoints[d.machine.IP()]; ok && bp.Enabled {
			bp.HitCount++
			d.paused = true
			return nil
		}
		halted, err := d.machine.StepOnce()
		if err != nil {
			return err
		}
		if halted {
			d.finished = true
			return nil
		}
	}
}

// Status is a snapshot for the REPL's prompt/"info" command.
type Status struct {
	IP     int64
	Steps  int64
	Acc    int64
	Halted bool
}

// Snapshot reports the current execution status.
func (d *Debugger) Snapshot() Status {
	acc, _ := d.machine.PeekCell(0)
	return Status{IP: d.machine.IP(), Steps: d.machine.Steps(), Acc: acc, Halted: d.finished}
}

// PeekCell exposes one memory cell's current value for "print" commands.
func (d *Debugger) PeekCell(addr uint64) (int64, bool) {
	return d.machine.PeekCell(addr)
}

// Output returns every value PUT so far.
func (d *Debugger) Output() []int64 { return d.machine.Output() }
