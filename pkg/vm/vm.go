// Package vm implements the accumulator machine the code generator targets
// (spec §6). It is the oracle pkg/codegen is generating for: memory is a
// sparse map of signed 64-bit cells, cell 0 is the accumulator, and every
// other cell is "uninitialized" until first written, matching the
// uninitialized-read contract spec §7 makes the generator's obligation.
package vm

import (
	"bufio"
	"fmt"
	"io"

	"github.com/jakubdabek/gembiler/pkg/asm"
	"github.com/jakubdabek/gembiler/pkg/errors"
)

// accumulatorCell is the one cell the VM itself guarantees holds 0 at start;
// every other cell starts absent from mem and raises a runtime error on a
// read before its first write (pkg/codegen.emitPrelude relies on exactly
// this to bootstrap its own constant cells).
const accumulatorCell = 0

// Result is what a completed Run produced.
type Result struct {
	Output []int64 // every value PUT, in order
	Steps  int64   // instructions executed, including the final HALT
}

// VM executes a resolved instruction stream.
type VM struct {
	mem  map[uint64]int64
	init map[uint64]bool

	ip   int64
	code []asm.Instruction

	in     *bufio.Scanner
	out    []int64
	steps  int64

	// MaxSteps bounds execution when non-zero; it exists so a buggy or
	// adversarial program under test cannot hang the host process forever.
	// It is not part of the VM execution contract itself.
	MaxSteps int64
}

// New creates a VM ready to run code, reading GET operands from in.
func New(code []asm.Instruction, in io.Reader) *VM {
	scanner := bufio.NewScanner(in)
	scanner.Split(bufio.ScanWords)
	return &VM{
		mem:  map[uint64]int64{accumulatorCell: 0},
		init: map[uint64]bool{accumulatorCell: true},
		code: code,
		in:   scanner,
	}
}

func (m *VM) read(addr int64) (int64, *errors.RuntimeError) {
	if addr < 0 {
		return 0, errors.NewRuntime(m.ip, "invalid address", "negative memory address %d", addr)
	}
	a := uint64(addr)
	if !m.init[a] {
		return 0, errors.NewRuntime(m.ip, "uninitialized read", "cell %d read before being written", a)
	}
	return m.mem[a], nil
}

func (m *VM) write(addr int64, v int64) *errors.RuntimeError {
	if addr < 0 {
		return errors.NewRuntime(m.ip, "invalid address", "negative memory address %d", addr)
	}
	a := uint64(addr)
	m.mem[a] = v
	m.init[a] = true
	return nil
}

// acc reads the accumulator; it is always initialized so this never fails.
func (m *VM) acc() int64 {
	return m.mem[accumulatorCell]
}

func (m *VM) setAcc(v int64) {
	m.mem[accumulatorCell] = v
	m.init[accumulatorCell] = true
}

// IP returns the current instruction pointer, for a debugger's status line.
func (m *VM) IP() int64 { return m.ip }

// Steps returns the number of instructions executed so far.
func (m *VM) Steps() int64 { return m.steps }

// Len returns the number of instructions in the loaded program.
func (m *VM) Len() int { return len(m.code) }

// Halted reports whether ip currently points at a HALT instruction.
func (m *VM) Halted() bool {
	return m.ip >= 0 && m.ip < int64(len(m.code)) && m.code[m.ip].Op == asm.HALT
}

// PeekCell reads a memory cell without the VM's own initialized-read
// enforcement, for a debugger inspecting state; ok is false for a cell that
// has never been written.
func (m *VM) PeekCell(addr uint64) (value int64, ok bool) {
	return m.mem[addr], m.init[addr]
}

// Output returns every value PUT so far, even mid-run.
func (m *VM) Output() []int64 { return m.out }

// StepOnce executes exactly one instruction and reports whether it was
// HALT, for pkg/debugger's single-step command.
func (m *VM) StepOnce() (halted bool, err error) {
	if m.ip < 0 || m.ip >= int64(len(m.code)) {
		return false, errors.NewRuntime(m.ip, "out-of-range ip", "instruction pointer %d outside program of length %d", m.ip, len(m.code))
	}
	instr := m.code[m.ip]
	m.steps++
	return m.step(instr)
}

// Run executes code from instruction 0 until HALT, returning every value
// PUT and the instruction count, or a RuntimeError/InternalError on a fault.
func (m *VM) Run() (*Result, error) {
	for {
		if m.MaxSteps > 0 && m.steps >= m.MaxSteps {
			return nil, errors.NewInternal("vm", "exceeded step budget of %d instructions", m.MaxSteps)
		}
		if m.ip < 0 || m.ip >= int64(len(m.code)) {
			return nil, errors.NewRuntime(m.ip, "out-of-range ip", "instruction pointer %d outside program of length %d", m.ip, len(m.code))
		}

		instr := m.code[m.ip]
		m.steps++

		halted, err := m.step(instr)
		if err != nil {
			return nil, err
		}
		if halted {
			return &Result{Output: m.out, Steps: m.steps}, nil
		}
	}
}

// step executes one instruction, advancing ip per spec §6 ("IP advances by
// one unless it is a taken jump"). Returns true once HALT has executed.
func (m *VM) step(instr asm.Instruction) (bool, error) {
	switch instr.Op {
	case asm.GET:
		v, err := m.scanInt()
		if err != nil {
			return false, err
		}
		m.setAcc(v)
		m.ip++
	case asm.PUT:
		m.out = append(m.out, m.acc())
		m.ip++
	case asm.LOAD:
		v, rerr := m.read(instr.Arg)
		if rerr != nil {
			return false, rerr
		}
		m.setAcc(v)
		m.ip++
	case asm.STORE:
		if rerr := m.write(instr.Arg, m.acc()); rerr != nil {
			return false, rerr
		}
		m.ip++
	case asm.LOADI:
		addr, rerr := m.read(instr.Arg)
		if rerr != nil {
			return false, rerr
		}
		v, rerr := m.read(addr)
		if rerr != nil {
			return false, rerr
		}
		m.setAcc(v)
		m.ip++
	case asm.STOREI:
		addr, rerr := m.read(instr.Arg)
		if rerr != nil {
			return false, rerr
		}
		if rerr := m.write(addr, m.acc()); rerr != nil {
			return false, rerr
		}
		m.ip++
	case asm.ADD:
		v, rerr := m.read(instr.Arg)
		if rerr != nil {
			return false, rerr
		}
		m.setAcc(m.acc() + v)
		m.ip++
	case asm.SUB:
		v, rerr := m.read(instr.Arg)
		if rerr != nil {
			return false, rerr
		}
		m.setAcc(m.acc() - v)
		m.ip++
	case asm.SHIFT:
		v, rerr := m.read(instr.Arg)
		if rerr != nil {
			return false, rerr
		}
		m.setAcc(shift(m.acc(), v))
		m.ip++
	case asm.INC:
		m.setAcc(m.acc() + 1)
		m.ip++
	case asm.DEC:
		m.setAcc(m.acc() - 1)
		m.ip++
	case asm.JUMP:
		m.ip = instr.Arg
	case asm.JPOS:
		if m.acc() > 0 {
			m.ip = instr.Arg
		} else {
			m.ip++
		}
	case asm.JZERO:
		if m.acc() == 0 {
			m.ip = instr.Arg
		} else {
			m.ip++
		}
	case asm.JNEG:
		if m.acc() < 0 {
			m.ip = instr.Arg
		} else {
			m.ip++
		}
	case asm.HALT:
		return true, nil
	default:
		return false, errors.NewInternal("vm", "unreachable opcode %v", instr.Op)
	}
	return false, nil
}

// shift implements `M(0) <- floor(M(0) * 2^M(i))` (spec §6). A non-negative
// shift amount is an exact left shift; a negative amount is an arithmetic
// right shift, which on Go's signed integers already rounds toward negative
// infinity, matching the floor requirement directly.
func shift(acc, amount int64) int64 {
	if amount >= 0 {
		if amount >= 63 {
			return 0
		}
		return acc << uint(amount)
	}
	n := -amount
	if n >= 63 {
		if acc < 0 {
			return -1
		}
		return 0
	}
	return acc >> uint(n)
}

func (m *VM) scanInt() (int64, *errors.RuntimeError) {
	if !m.in.Scan() {
		if err := m.in.Err(); err != nil {
			return 0, errors.NewRuntime(m.ip, "input exhausted", "reading GET operand: %v", err)
		}
		return 0, errors.NewRuntime(m.ip, "input exhausted", "GET with no more input available")
	}
	var v int64
	if _, err := fmt.Sscanf(m.in.Text(), "%d", &v); err != nil {
		return 0, errors.NewRuntime(m.ip, "input exhausted", "malformed GET operand %q: %v", m.in.Text(), err)
	}
	return v, nil
}
