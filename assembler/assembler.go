package assembler

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/xiaobogaga/hackvm/util"
)

// A two pass assembler for the hack assembler language, which turns the output of the vm
// translator into the 16 bits instructions executed by the hack CPU.

// The most ambiguous instruction is the A instruction, A instruction is declared as @something, and it has
// several types:
// * @10 (decimal value), put this value to the A register.
// * @label, put the instruction address of label to A register, the label can be used before declared.
// * @R0-@R15, SP, LCL, ARG, THIS, THAT, SCREEN, KBD: predefined symbols.
// * @Variable, allocate a data memory address for the variable starting from 16 (if not allocated yet), and put
//   it to A register.

var predefinedSymbols = map[string]int{
	"SP":     0,
	"LCL":    1,
	"ARG":    2,
	"THIS":   3,
	"THAT":   4,
	"R0":     0,
	"R1":     1,
	"R2":     2,
	"R3":     3,
	"R4":     4,
	"R5":     5,
	"R6":     6,
	"R7":     7,
	"R8":     8,
	"R9":     9,
	"R10":    10,
	"R11":    11,
	"R12":    12,
	"R13":    13,
	"R14":    14,
	"R15":    15,
	"SCREEN": 16384,
	"KBD":    24576,
}

// compCodes holds the a bit followed by c1-c6.
var compCodes = map[string]uint16{
	"0":   0b0101010,
	"1":   0b0111111,
	"-1":  0b0111010,
	"D":   0b0001100,
	"A":   0b0110000,
	"!D":  0b0001101,
	"!A":  0b0110001,
	"-D":  0b0001111,
	"-A":  0b0110011,
	"D+1": 0b0011111,
	"1+D": 0b0011111,
	"A+1": 0b0110111,
	"1+A": 0b0110111,
	"D-1": 0b0001110,
	"A-1": 0b0110010,
	"D+A": 0b0000010,
	"A+D": 0b0000010,
	"D-A": 0b0010011,
	"A-D": 0b0000111,
	"D&A": 0b0000000,
	"A&D": 0b0000000,
	"D|A": 0b0010101,
	"A|D": 0b0010101,
	"M":   0b1110000,
	"!M":  0b1110001,
	"-M":  0b1110011,
	"M+1": 0b1110111,
	"1+M": 0b1110111,
	"M-1": 0b1110010,
	"D+M": 0b1000010,
	"M+D": 0b1000010,
	"D-M": 0b1010011,
	"M-D": 0b1000111,
	"D&M": 0b1000000,
	"M&D": 0b1000000,
	"D|M": 0b1010101,
	"M|D": 0b1010101,
}

var destCodes = map[string]uint16{
	"M":   0b001,
	"D":   0b010,
	"MD":  0b011,
	"DM":  0b011,
	"A":   0b100,
	"AM":  0b101,
	"MA":  0b101,
	"AD":  0b110,
	"DA":  0b110,
	"AMD": 0b111,
	"ADM": 0b111,
	"DAM": 0b111,
	"DMA": 0b111,
	"MAD": 0b111,
	"MDA": 0b111,
}

var jumpCodes = map[string]uint16{
	"JGT": 0b001,
	"JEQ": 0b010,
	"JGE": 0b011,
	"JLT": 0b100,
	"JNE": 0b101,
	"JLE": 0b110,
	"JMP": 0b111,
}

const (
	variableBase  = 16
	maxAddress    = 1<<15 - 1
	cInstruction  = 0b111 << 13
	compShift     = 6
	destShift     = 3
	commentMarker = "//"
)

var ErrSyntax = errors.New("syntax error")

type Kind int

const (
	KindConstant Kind = iota
	KindLabel
	KindVariable
	KindCompute
)

// Code is one machine instruction together with the source line it came from.
type Code struct {
	Kind   Kind
	Word   uint16
	Line   int
	Source string
}

func (code Code) String() string {
	return fmt.Sprintf("Code: {Kind: %d, Word: %s, Line: %d, Source: %s}", code.Kind, Format(code.Word),
		code.Line, code.Source)
}

type symbolRef struct {
	symbol string
	index  int
}

type Assembler struct {
	line         int
	nextVariable int
	labels       map[string]int
	symbolRefs   []symbolRef
	codes        []Code
}

func New() *Assembler {
	return &Assembler{
		nextVariable: variableBase,
		labels:       map[string]int{},
	}
}

// Assemble reads hack assembler code from rd and returns one Code per machine instruction.
// Label and variable references are resolved once the whole input has been read, since a
// label can be used before it is declared.
func (asm *Assembler) Assemble(rd io.Reader) ([]Code, error) {
	scanner := bufio.NewScanner(rd)
	for scanner.Scan() {
		asm.line++
		line, ok := trimLine(scanner.Text())
		if !ok {
			continue
		}
		if err := asm.transformLine(line); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read assembler code")
	}
	asm.resolveSymbols()
	return asm.codes, nil
}

// AssembleString is a shortcut assembling src with a fresh Assembler.
func AssembleString(src string) ([]uint16, error) {
	codes, err := New().Assemble(strings.NewReader(src))
	if err != nil {
		return nil, err
	}
	return Words(codes), nil
}

func Words(codes []Code) []uint16 {
	words := make([]uint16, len(codes))
	for i, code := range codes {
		words[i] = code.Word
	}
	return words
}

// Format renders word as the 16 characters binary text used by .hack files.
func Format(word uint16) string {
	return fmt.Sprintf("%016b", word)
}

// WriteHack writes codes in .hack format, one instruction per line.
func WriteHack(w io.Writer, codes []Code) error {
	bw := bufio.NewWriter(w)
	for _, code := range codes {
		if _, err := bw.WriteString(Format(code.Word) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// resolveSymbols patches the @symbol commands. A symbol declared as a label points to an
// instruction address, anything else is a variable.
func (asm *Assembler) resolveSymbols() {
	variables := map[string]int{}
	for _, ref := range asm.symbolRefs {
		if addr, exist := asm.labels[ref.symbol]; exist {
			asm.codes[ref.index].Kind = KindLabel
			asm.codes[ref.index].Word = uint16(addr)
			continue
		}
		addr, exist := variables[ref.symbol]
		if !exist {
			addr = asm.nextVariable
			variables[ref.symbol] = addr
			asm.nextVariable++
		}
		asm.codes[ref.index].Kind = KindVariable
		asm.codes[ref.index].Word = uint16(addr)
	}
}

// trimLine removes spaces and comments, and reports whether something is left.
func trimLine(line string) (string, bool) {
	if idx := strings.Index(line, commentMarker); idx != -1 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)
	return line, line != ""
}

func (asm *Assembler) transformLine(line string) error {
	switch line[0] {
	case '@':
		return asm.transformACommand(line)
	case '(':
		return asm.transformLabelCommand(line)
	default:
		return asm.transformCCommand(line)
	}
}

func (asm *Assembler) transformACommand(line string) error {
	value := line[1:]
	if util.IsDecimal(value) {
		return asm.transformADecimalCommand(line)
	}
	if addr, exist := predefinedSymbols[value]; exist {
		asm.appendCode(KindVariable, uint16(addr), line)
		return nil
	}
	if !util.IsSymbol(value) {
		return asm.makeSyntaxErr("wrong variable or label format near %s", line)
	}
	// Placeholder, patched by resolveSymbols.
	asm.symbolRefs = append(asm.symbolRefs, symbolRef{symbol: value, index: len(asm.codes)})
	asm.appendCode(KindLabel, 0, line)
	return nil
}

func (asm *Assembler) transformADecimalCommand(line string) error {
	value, err := strconv.Atoi(line[1:])
	if err != nil || value > maxAddress {
		return asm.makeSyntaxErr("decimal value %s out of range [0, %d]", line[1:], maxAddress)
	}
	asm.appendCode(KindConstant, uint16(value), line)
	return nil
}

// transformLabelCommand records the address of the next instruction for '(label)'. A label
// does not produce any instruction.
func (asm *Assembler) transformLabelCommand(line string) error {
	if !strings.HasSuffix(line, ")") {
		return asm.makeSyntaxErr("wrong label format near %s", line)
	}
	label := line[1 : len(line)-1]
	if !util.IsSymbol(label) {
		return asm.makeSyntaxErr("wrong label format near %s", line)
	}
	if _, exist := asm.labels[label]; exist {
		return asm.makeSyntaxErr("found duplicate label %s", label)
	}
	asm.labels[label] = len(asm.codes)
	return nil
}

// transformCCommand parses dest=comp;jump where dest and jump are optional.
func (asm *Assembler) transformCCommand(line string) error {
	rest := line
	var dest, jump uint16
	if idx := strings.IndexByte(rest, '='); idx != -1 {
		code, exist := destCodes[rest[:idx]]
		if !exist {
			return asm.makeSyntaxErr("wrong c command of dest code format near %s", line)
		}
		dest = code
		rest = rest[idx+1:]
	}
	if idx := strings.IndexByte(rest, ';'); idx != -1 {
		code, exist := jumpCodes[rest[idx+1:]]
		if !exist {
			return asm.makeSyntaxErr("wrong c command of jump code format near %s", line)
		}
		jump = code
		rest = rest[:idx]
	}
	comp, exist := compCodes[rest]
	if !exist {
		return asm.makeSyntaxErr("wrong c command of comp code format near %s", line)
	}
	asm.appendCode(KindCompute, cInstruction|comp<<compShift|dest<<destShift|jump, line)
	return nil
}

func (asm *Assembler) appendCode(kind Kind, word uint16, source string) {
	asm.codes = append(asm.codes, Code{Kind: kind, Word: word, Line: asm.line, Source: source})
}

func (asm *Assembler) makeSyntaxErr(format string, args ...interface{}) error {
	return errors.Wrapf(ErrSyntax, "line %d: %s", asm.line, fmt.Sprintf(format, args...))
}
