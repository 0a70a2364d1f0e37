package vmtranslator

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type commandKind int

const (
	pushCommand commandKind = iota
	popCommand
	arithmeticCommand
	labelCommand
	gotoCommand
	ifGotoCommand
	functionCommand
)

type command struct {
	kind commandKind
	op   Op
}

var commandsMap = map[string]command{
	"push":     {kind: pushCommand},
	"pop":      {kind: popCommand},
	"add":      {kind: arithmeticCommand, op: OpAdd},
	"sub":      {kind: arithmeticCommand, op: OpSub},
	"neg":      {kind: arithmeticCommand, op: OpNeg},
	"eq":       {kind: arithmeticCommand, op: OpEq},
	"gt":       {kind: arithmeticCommand, op: OpGt},
	"lt":       {kind: arithmeticCommand, op: OpLt},
	"and":      {kind: arithmeticCommand, op: OpAnd},
	"or":       {kind: arithmeticCommand, op: OpOr},
	"not":      {kind: arithmeticCommand, op: OpNot},
	"label":    {kind: labelCommand},
	"goto":     {kind: gotoCommand},
	"if-goto":  {kind: ifGotoCommand},
	"function": {kind: functionCommand},
}

var segmentsMap = map[string]Segment{
	"local":    SegmentLocal,
	"argument": SegmentArgument,
	"this":     SegmentThis,
	"that":     SegmentThat,
	"constant": SegmentConstant,
	"static":   SegmentStatic,
	"pointer":  SegmentPointer,
	"temp":     SegmentTemp,
}

const commentMarker = "//"

// Parse splits source into lines (either line break convention) and parses them in order.
// On the first malformed line it returns the instructions parsed so far together with the
// error, annotated with the 1-based line number. Callers must treat the error as fatal.
func Parse(source string) ([]Instruction, error) {
	lines := strings.Split(source, "\n")
	ret := make([]Instruction, 0, len(lines))
	for i, line := range lines {
		inst, err := ParseLine(strings.TrimSuffix(line, "\r"))
		if err != nil {
			return ret, errors.Wrapf(err, "line %d", i+1)
		}
		ret = append(ret, inst)
	}
	return ret, nil
}

// ParseLine parses a single vm line. Blank lines and lines starting with "//" come back as
// Verbatim holding the line untouched.
func ParseLine(line string) (Instruction, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, commentMarker) {
		return Verbatim{Text: line}, nil
	}
	// Drop a trailing comment, e.g. "push constant 1 // one".
	if idx := strings.Index(trimmed, commentMarker); idx != -1 {
		trimmed = trimmed[:idx]
	}
	tokens := strings.Fields(trimmed)
	cmd, exist := commandsMap[tokens[0]]
	if !exist {
		return nil, errors.Wrapf(ErrUnrecognizedCommand, "parse %q", tokens[0])
	}
	switch cmd.kind {
	case pushCommand:
		return parsePushPop(Push, tokens, line)
	case popCommand:
		return parsePushPop(Pop, tokens, line)
	case arithmeticCommand:
		if err := expectOperands(tokens, 0, line); err != nil {
			return nil, err
		}
		return Arithmetic{Op: cmd.op}, nil
	case labelCommand:
		if err := expectOperands(tokens, 1, line); err != nil {
			return nil, err
		}
		return Label{Symbol: tokens[1]}, nil
	case gotoCommand:
		if err := expectOperands(tokens, 1, line); err != nil {
			return nil, err
		}
		return Goto{Symbol: tokens[1]}, nil
	case ifGotoCommand:
		if err := expectOperands(tokens, 1, line); err != nil {
			return nil, err
		}
		return IfGoto{Symbol: tokens[1]}, nil
	case functionCommand:
		if err := expectOperands(tokens, 2, line); err != nil {
			return nil, err
		}
		argCount, err := parseOffset(tokens[2])
		if err != nil {
			return nil, err
		}
		return Function{Name: tokens[1], ArgCount: argCount}, nil
	}
	return nil, errors.Wrapf(ErrUnrecognizedCommand, "parse %q", tokens[0])
}

func parsePushPop(dir Direction, tokens []string, line string) (Instruction, error) {
	if len(tokens) < 2 {
		return nil, errors.Wrapf(ErrMalformedInstruction, "parse %q: missing segment", line)
	}
	segment, exist := segmentsMap[tokens[1]]
	if !exist {
		return nil, errors.Wrapf(ErrInvalidSegment, "parse %q", tokens[1])
	}
	if err := expectOperands(tokens, 2, line); err != nil {
		return nil, err
	}
	offset, err := parseOffset(tokens[2])
	if err != nil {
		return nil, err
	}
	return PushPop{Direction: dir, Segment: segment, Offset: offset}, nil
}

func expectOperands(tokens []string, n int, line string) error {
	if len(tokens)-1 != n {
		return errors.Wrapf(ErrMalformedInstruction, "parse %q: want %d operands, got %d",
			line, n, len(tokens)-1)
	}
	return nil
}

// parseOffset accepts non negative base 10 integers only.
func parseOffset(token string) (int, error) {
	value, err := strconv.Atoi(token)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidOffset, "parse %q: not a base 10 integer", token)
	}
	if value < 0 {
		return 0, errors.Wrapf(ErrInvalidOffset, "parse %q: must not be negative", token)
	}
	return value, nil
}
