package vmtranslator

import (
	"fmt"
)

// A vm program is a sequence of commands, one per line. There are four kinds of them:
// * Arithmetic commands: add, sub, neg, eq, gt, lt, and, or, not.
// * Memory access commands: push segment index, pop segment index.
// * Program flow commands: label symbol, goto symbol, if-goto symbol.
// * Function commands: function name argCount.
// Blank lines and full line comments are kept as Verbatim so they can be copied to the
// output at the same position.

// Instruction is one parsed vm line. The set of implementations is closed, the code writer
// switches over all of them.
type Instruction interface {
	fmt.Stringer
	instruction()
}

type Op int

const (
	OpAdd Op = iota
	OpSub
	OpNeg
	OpEq
	OpGt
	OpLt
	OpAnd
	OpOr
	OpNot
)

var opNames = [...]string{
	OpAdd: "add",
	OpSub: "sub",
	OpNeg: "neg",
	OpEq:  "eq",
	OpGt:  "gt",
	OpLt:  "lt",
	OpAnd: "and",
	OpOr:  "or",
	OpNot: "not",
}

func (op Op) String() string {
	if op < 0 || int(op) >= len(opNames) {
		return fmt.Sprintf("Op(%d)", int(op))
	}
	return opNames[op]
}

// IsComparison reports whether op needs a pair of generated labels.
func (op Op) IsComparison() bool {
	return op == OpEq || op == OpGt || op == OpLt
}

// IsUnary reports whether op only rewrites the topmost stack element.
func (op Op) IsUnary() bool {
	return op == OpNeg || op == OpNot
}

type Segment int

const (
	SegmentLocal Segment = iota
	SegmentArgument
	SegmentThis
	SegmentThat
	SegmentConstant
	SegmentStatic
	SegmentPointer
	SegmentTemp
)

var segmentNames = [...]string{
	SegmentLocal:    "local",
	SegmentArgument: "argument",
	SegmentThis:     "this",
	SegmentThat:     "that",
	SegmentConstant: "constant",
	SegmentStatic:   "static",
	SegmentPointer:  "pointer",
	SegmentTemp:     "temp",
}

func (s Segment) String() string {
	if s < 0 || int(s) >= len(segmentNames) {
		return fmt.Sprintf("Segment(%d)", int(s))
	}
	return segmentNames[s]
}

type Direction int

const (
	Push Direction = iota
	Pop
)

func (d Direction) String() string {
	if d == Pop {
		return "pop"
	}
	return "push"
}

// Arithmetic is one of the nine stack arithmetic or logical commands.
type Arithmetic struct {
	Op Op
}

// PushPop moves a value between the stack and segment[Offset].
type PushPop struct {
	Direction Direction
	Segment   Segment
	Offset    int
}

type Label struct {
	Symbol string
}

type Goto struct {
	Symbol string
}

type IfGoto struct {
	Symbol string
}

// Function declares the entry point of a function. Only its name and argument count are
// kept, no calling convention is generated for it.
type Function struct {
	Name     string
	ArgCount int
}

// Verbatim is a blank or comment line copied unchanged to the output.
type Verbatim struct {
	Text string
}

func (Arithmetic) instruction() {}
func (PushPop) instruction()    {}
func (Label) instruction()      {}
func (Goto) instruction()       {}
func (IfGoto) instruction()     {}
func (Function) instruction()   {}
func (Verbatim) instruction()   {}

func (inst Arithmetic) String() string { return inst.Op.String() }

func (inst PushPop) String() string {
	return fmt.Sprintf("%s %s %d", inst.Direction, inst.Segment, inst.Offset)
}

func (inst Label) String() string  { return "label " + inst.Symbol }
func (inst Goto) String() string   { return "goto " + inst.Symbol }
func (inst IfGoto) String() string { return "if-goto " + inst.Symbol }

func (inst Function) String() string {
	return fmt.Sprintf("function %s %d", inst.Name, inst.ArgCount)
}

func (inst Verbatim) String() string { return inst.Text }
