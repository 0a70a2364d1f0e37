package vmtranslator

import (
	"fmt"

	"github.com/pkg/errors"
)

// Options controls how a source unit is translated.
type Options struct {
	// Unit names the static segment of the unit, see Context.
	Unit string
	// Bootstrap prefixes the output with code setting SP to 256.
	Bootstrap bool
}

// Translate turns the vm source of one unit into hack assembler lines. Blank and comment
// lines are kept in place, and the halt loop is appended once at the end:
// (END)
// @END
// 0;JMP
// The first error aborts the translation and no lines are returned.
func Translate(source string, opts Options) ([]string, error) {
	instructions, err := Parse(source)
	if err != nil {
		return nil, err
	}
	var output []string
	if opts.Bootstrap {
		output = append(output, bootstrapCode()...)
	}
	writer := NewCodeWriter(opts.Unit)
	for i, inst := range instructions {
		lines, err := writer.Write(inst)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", i+1)
		}
		output = append(output, lines...)
	}
	return append(output, haltCode()...), nil
}

// bootstrapCode sets up the stack pointer before the first instruction runs.
// @256
// D=A
// @SP
// M=D
func bootstrapCode() []string {
	return []string{
		"// bootstrap",
		fmt.Sprintf("@%d", bootstrapSP),
		"D=A",
		"@SP",
		"M=D",
	}
}

func haltCode() []string {
	return []string{
		"(" + haltLabel + ")",
		"@" + haltLabel,
		"0;JMP",
	}
}
