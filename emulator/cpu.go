package emulator

import (
	"github.com/pkg/errors"
)

// CPU emulates the hack computer: a 16 bits machine with an A register, a D register, a
// program counter, a read only instruction memory and a data memory. The program runs until
// it reaches the halt loop emitted at the end of every translated unit:
// (END)
// @END
// 0;JMP

const (
	MemorySize = 1 << 15

	SP   = 0
	LCL  = 1
	ARG  = 2
	THIS = 3
	THAT = 4

	cInstructionMask = 0b111 << 13
	aBit             = 1 << 12
)

var (
	ErrPCOutOfRange      = errors.New("program counter out of range")
	ErrAddressOutOfRange = errors.New("address out of range")
	ErrStepLimit         = errors.New("step limit reached")
)

type CPU struct {
	ROM []uint16
	RAM []int16
	A   int16
	D   int16
	PC  int

	steps  int
	halted bool
}

func New(rom []uint16) *CPU {
	return &CPU{
		ROM: rom,
		RAM: make([]int16, MemorySize),
	}
}

func (c *CPU) Halted() bool {
	return c.halted
}

// Steps returns the number of instructions executed so far.
func (c *CPU) Steps() int {
	return c.steps
}

func (c *CPU) Read(addr int) int16 {
	return c.RAM[addr]
}

func (c *CPU) Write(addr int, value int16) {
	c.RAM[addr] = value
}

// StackTop returns the value just below SP.
func (c *CPU) StackTop() int16 {
	return c.RAM[int(c.RAM[SP])-1]
}

// Stack returns the slots between base and SP, bottom first.
func (c *CPU) Stack(base int) []int16 {
	sp := int(c.RAM[SP])
	if sp <= base {
		return nil
	}
	ret := make([]int16, sp-base)
	copy(ret, c.RAM[base:sp])
	return ret
}

// Step executes the instruction at PC.
func (c *CPU) Step() error {
	if c.halted {
		return nil
	}
	if c.PC < 0 || c.PC >= len(c.ROM) {
		return errors.Wrapf(ErrPCOutOfRange, "pc=%d, rom size %d", c.PC, len(c.ROM))
	}
	inst := c.ROM[c.PC]
	c.steps++
	if inst&cInstructionMask != cInstructionMask {
		if inst&0x8000 != 0 {
			return errors.Errorf("pc=%d: malformed instruction %016b", c.PC, inst)
		}
		c.A = int16(inst)
		c.PC++
		return nil
	}
	return c.execCompute(inst)
}

func (c *CPU) execCompute(inst uint16) error {
	addr := int(uint16(c.A))
	x := c.D
	y := c.A
	if inst&aBit != 0 {
		if addr >= len(c.RAM) {
			return errors.Wrapf(ErrAddressOutOfRange, "pc=%d: read M at %d", c.PC, addr)
		}
		y = c.RAM[addr]
	}
	out := alu(x, y, inst>>6&0b111111)

	if inst&0b001000 != 0 {
		if addr >= len(c.RAM) {
			return errors.Wrapf(ErrAddressOutOfRange, "pc=%d: write M at %d", c.PC, addr)
		}
		c.RAM[addr] = out
	}
	if inst&0b010000 != 0 {
		c.D = out
	}
	jumpTarget := int(uint16(c.A))
	if inst&0b100000 != 0 {
		c.A = out
	}
	if !jumps(out, inst&0b111) {
		c.PC++
		return nil
	}
	if c.isHaltLoop(inst, jumpTarget) {
		c.halted = true
		return nil
	}
	c.PC = jumpTarget
	return nil
}

// isHaltLoop reports whether the unconditional jump at PC goes back to the @label loading
// its own address right before it.
func (c *CPU) isHaltLoop(inst uint16, target int) bool {
	return inst&0b111 == 0b111 && target == c.PC-1 && c.ROM[target] == uint16(target)
}

// alu implements the hack ALU, control bits are zx nx zy ny f no.
func alu(x, y int16, control uint16) int16 {
	if control&0b100000 != 0 {
		x = 0
	}
	if control&0b010000 != 0 {
		x = ^x
	}
	if control&0b001000 != 0 {
		y = 0
	}
	if control&0b000100 != 0 {
		y = ^y
	}
	var out int16
	if control&0b000010 != 0 {
		out = x + y
	} else {
		out = x & y
	}
	if control&0b000001 != 0 {
		out = ^out
	}
	return out
}

func jumps(out int16, jump uint16) bool {
	return (jump&0b100 != 0 && out < 0) ||
		(jump&0b010 != 0 && out == 0) ||
		(jump&0b001 != 0 && out > 0)
}

// Run executes instructions until the halt loop is reached. It fails with ErrStepLimit if
// the program is still running after maxSteps instructions.
func (c *CPU) Run(maxSteps int) error {
	for i := 0; i < maxSteps; i++ {
		if c.halted {
			return nil
		}
		if err := c.Step(); err != nil {
			return err
		}
	}
	if c.halted {
		return nil
	}
	return errors.Wrapf(ErrStepLimit, "after %d steps at pc=%d", maxSteps, c.PC)
}
