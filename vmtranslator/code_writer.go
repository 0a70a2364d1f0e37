package vmtranslator

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// The code writer maps every instruction onto hack assembler code. The generated code
// relies on these conventions:
// * SP (RAM[0]) holds the address of the first free stack slot, the stack grows upwards.
// * LCL, ARG, THIS, THAT hold the base address of the local, argument, this and that segments.
// * temp i lives at RAM[5+i], pointer 0 and pointer 1 are THIS and THAT themselves.
// * static i of a unit is the assembler variable Unit.i.
// * R13 is a scratch cell, pop stores the target address there before reading the stack.
// True is -1 (all ones) and false is 0.

const (
	tempBase      = 5
	tempSize      = 8
	scratchCell   = "R13"
	maxConstant   = 1<<15 - 1
	defaultUnit   = "Static"
	haltLabel     = "END"
	bootstrapSP   = 256
	commentPrefix = "// "
)

var segmentBaseRegister = map[Segment]string{
	SegmentLocal:    "LCL",
	SegmentArgument: "ARG",
	SegmentThis:     "THIS",
	SegmentThat:     "THAT",
}

// LabelCounter numbers the labels generated for comparisons. It is owned by whoever drives
// a translation and never shared between runs.
type LabelCounter int

// Context is the state threaded through WriteCommand.
type Context struct {
	// Unit prefixes static variables, usually the source file name without extension.
	Unit   string
	Labels LabelCounter
}

func (ctx Context) unit() string {
	if ctx.Unit == "" {
		return defaultUnit
	}
	return ctx.Unit
}

// WriteCommand returns the assembler lines implementing inst, and ctx with its label
// counter advanced if inst consumed labels. ctx itself is not modified.
func WriteCommand(ctx Context, inst Instruction) ([]string, Context, error) {
	switch inst := inst.(type) {
	case Verbatim:
		return []string{inst.Text}, ctx, nil
	case Arithmetic:
		return writeArithmetic(ctx, inst)
	case PushPop:
		lines, err := writePushPop(ctx, inst)
		return lines, ctx, err
	case Label:
		return block(inst, "("+inst.Symbol+")"), ctx, nil
	case Goto:
		return block(inst, "@"+inst.Symbol, "0;JMP"), ctx, nil
	case IfGoto:
		// Pop the condition and jump if it is not false.
		return block(inst,
			"@SP",
			"AM=M-1",
			"D=M",
			"@"+inst.Symbol,
			"D;JNE",
		), ctx, nil
	case Function:
		return block(inst, "("+inst.Name+")"), ctx, nil
	}
	return nil, ctx, errors.Errorf("write %v: unsupported instruction %T", inst, inst)
}

// CodeWriter keeps a Context between calls so a caller can feed instructions one by one.
// A CodeWriter must not be shared by concurrent translations.
type CodeWriter struct {
	ctx Context
}

func NewCodeWriter(unit string) *CodeWriter {
	return &CodeWriter{ctx: Context{Unit: unit}}
}

func (w *CodeWriter) Write(inst Instruction) ([]string, error) {
	lines, ctx, err := WriteCommand(w.ctx, inst)
	if err != nil {
		return nil, err
	}
	w.ctx = ctx
	return lines, nil
}

// Labels returns the next label number the writer will use.
func (w *CodeWriter) Labels() LabelCounter {
	return w.ctx.Labels
}

func block(inst Instruction, code ...string) []string {
	lines := make([]string, 0, len(code)+1)
	lines = append(lines, commentPrefix+inst.String())
	return append(lines, code...)
}

// Binary commands pop the topmost element into D, then combine it with the new topmost
// element in place. For add:
// @SP
// AM=M-1 // SP=SP-1, A points to the old topmost
// D=M
// A=A-1
// M=D+M
var binaryComputation = map[Op]string{
	OpAdd: "M=D+M",
	OpSub: "M=M-D",
	OpAnd: "M=D&M",
	OpOr:  "M=D|M",
}

var unaryComputation = map[Op]string{
	OpNeg: "M=-M",
	OpNot: "M=!M",
}

var comparisonJump = map[Op]string{
	OpEq: "JEQ",
	OpGt: "JGT",
	OpLt: "JLT",
}

func writeArithmetic(ctx Context, inst Arithmetic) ([]string, Context, error) {
	if comp, ok := binaryComputation[inst.Op]; ok {
		return block(inst,
			"@SP",
			"AM=M-1",
			"D=M",
			"A=A-1",
			comp,
		), ctx, nil
	}
	if comp, ok := unaryComputation[inst.Op]; ok {
		return block(inst,
			"@SP",
			"A=M-1",
			comp,
		), ctx, nil
	}
	if jump, ok := comparisonJump[inst.Op]; ok {
		return writeComparison(ctx, inst, jump)
	}
	return nil, ctx, errors.Errorf("write %v: unsupported arithmetic command", inst.Op)
}

// writeComparison computes second - topmost and branches on it. For eq with counter 0:
// @SP
// AM=M-1
// D=M
// A=A-1
// D=M-D
// @EQ_TRUE_0
// D;JEQ
// @SP
// A=M-1
// M=0
// @EQ_END_0
// 0;JMP
// (EQ_TRUE_0)
// @SP
// A=M-1
// M=-1
// (EQ_END_0)
func writeComparison(ctx Context, inst Arithmetic, jump string) ([]string, Context, error) {
	kind := strings.ToUpper(inst.Op.String())
	trueLabel := fmt.Sprintf("%s_TRUE_%d", kind, ctx.Labels)
	endLabel := fmt.Sprintf("%s_END_%d", kind, ctx.Labels)
	ctx.Labels++
	return block(inst,
		"@SP",
		"AM=M-1",
		"D=M",
		"A=A-1",
		"D=M-D",
		"@"+trueLabel,
		"D;"+jump,
		"@SP",
		"A=M-1",
		"M=0",
		"@"+endLabel,
		"0;JMP",
		"("+trueLabel+")",
		"@SP",
		"A=M-1",
		"M=-1",
		"("+endLabel+")",
	), ctx, nil
}

// pushD appends the value of D to the stack.
var pushD = []string{
	"@SP",
	"A=M",
	"M=D",
	"@SP",
	"M=M+1",
}

// popToScratchTarget stores the topmost element at the address held by R13.
var popToScratchTarget = []string{
	"@SP",
	"AM=M-1",
	"D=M",
	"@" + scratchCell,
	"A=M",
	"M=D",
}

func writePushPop(ctx Context, inst PushPop) ([]string, error) {
	if err := validateOffset(inst); err != nil {
		return nil, err
	}
	if inst.Direction == Push {
		return block(inst, append(loadD(ctx, inst), pushD...)...), nil
	}
	return writePop(ctx, inst)
}

func validateOffset(inst PushPop) error {
	if inst.Offset < 0 {
		return errors.Wrapf(ErrInvalidOffset, "%v: offset %d must not be negative", inst, inst.Offset)
	}
	switch inst.Segment {
	case SegmentPointer:
		if inst.Offset > 1 {
			return errors.Wrapf(ErrInvalidPointerIndex, "%v: pointer index %d must be 0 or 1", inst, inst.Offset)
		}
	case SegmentTemp:
		if inst.Offset >= tempSize {
			return errors.Wrapf(ErrInvalidTempIndex, "%v: temp index %d cannot be greater than 7", inst, inst.Offset)
		}
	case SegmentConstant:
		if inst.Direction == Pop {
			return errors.Wrapf(ErrInvalidSegment, "%v: constant segment is read only", inst)
		}
		if inst.Offset > maxConstant {
			return errors.Wrapf(ErrInvalidOffset, "%v: constant %d does not fit in 15 bits", inst, inst.Offset)
		}
	}
	return nil
}

// loadD puts the value a push reads into D.
// constant i:      @i, D=A
// local i (etc.):  @i, D=A, @LCL, A=D+M, D=M
// temp i:          @i, D=A, @5, A=D+A, D=M
// pointer 0/1:     @THIS or @THAT, D=M
// static i:        @Unit.i, D=M
func loadD(ctx Context, inst PushPop) []string {
	switch inst.Segment {
	case SegmentConstant:
		return []string{fmt.Sprintf("@%d", inst.Offset), "D=A"}
	case SegmentLocal, SegmentArgument, SegmentThis, SegmentThat:
		return []string{
			fmt.Sprintf("@%d", inst.Offset),
			"D=A",
			"@" + segmentBaseRegister[inst.Segment],
			"A=D+M",
			"D=M",
		}
	case SegmentTemp:
		return []string{
			fmt.Sprintf("@%d", inst.Offset),
			"D=A",
			fmt.Sprintf("@%d", tempBase),
			"A=D+A",
			"D=M",
		}
	case SegmentPointer:
		return []string{"@" + pointerRegister(inst.Offset), "D=M"}
	default:
		return []string{"@" + staticSymbol(ctx, inst.Offset), "D=M"}
	}
}

// writePop handles pop segment i. Segments addressed through a base register, and temp,
// compute the target into R13 first since D is needed for the popped value:
// @i
// D=A
// @LCL
// D=D+M
// @R13
// M=D
// @SP
// AM=M-1
// D=M
// @R13
// A=M
// M=D
// pointer and static targets are fixed symbols and are written directly.
func writePop(ctx Context, inst PushPop) ([]string, error) {
	var target []string
	switch inst.Segment {
	case SegmentLocal, SegmentArgument, SegmentThis, SegmentThat:
		target = []string{
			fmt.Sprintf("@%d", inst.Offset),
			"D=A",
			"@" + segmentBaseRegister[inst.Segment],
			"D=D+M",
		}
	case SegmentTemp:
		target = []string{
			fmt.Sprintf("@%d", inst.Offset),
			"D=A",
			fmt.Sprintf("@%d", tempBase),
			"D=D+A",
		}
	case SegmentPointer:
		return block(inst, popDirect(pointerRegister(inst.Offset))...), nil
	case SegmentStatic:
		return block(inst, popDirect(staticSymbol(ctx, inst.Offset))...), nil
	default:
		return nil, errors.Wrapf(ErrInvalidSegment, "%v: cannot pop to %v", inst, inst.Segment)
	}
	code := append(target, "@"+scratchCell, "M=D")
	return block(inst, append(code, popToScratchTarget...)...), nil
}

func popDirect(symbol string) []string {
	return []string{
		"@SP",
		"AM=M-1",
		"D=M",
		"@" + symbol,
		"M=D",
	}
}

func pointerRegister(offset int) string {
	if offset == 0 {
		return "THIS"
	}
	return "THAT"
}

func staticSymbol(ctx Context, offset int) string {
	return fmt.Sprintf("%s.%d", ctx.unit(), offset)
}
