package vmtranslator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaobogaga/hackvm/assembler"
	"github.com/xiaobogaga/hackvm/emulator"
)

const (
	stackBase = 256
	localBase = 300
	argBase   = 400
	thisBase  = 3000
	thatBase  = 3010
)

// execute translates source, assembles it and runs it until the halt loop, with the
// segment registers set up the way the nand2tetris test scripts do.
func execute(t *testing.T, source string) *emulator.CPU {
	t.Helper()
	lines, err := Translate(source, Options{Unit: "Test"})
	require.NoError(t, err)
	rom, err := assembler.AssembleString(strings.Join(lines, "\n"))
	require.NoError(t, err)
	cpu := emulator.New(rom)
	cpu.Write(emulator.SP, stackBase)
	cpu.Write(emulator.LCL, localBase)
	cpu.Write(emulator.ARG, argBase)
	cpu.Write(emulator.THIS, thisBase)
	cpu.Write(emulator.THAT, thatBase)
	require.NoError(t, cpu.Run(100000))
	return cpu
}

func TestExecute_Add(t *testing.T) {
	cpu := execute(t, "push constant 2\npush constant 3\nadd")
	assert.Equal(t, int16(5), cpu.StackTop())
	assert.Equal(t, int16(stackBase+1), cpu.Read(emulator.SP))
}

func TestExecute_RoundTripThroughLocal(t *testing.T) {
	cpu := execute(t, "push constant 10\npop local 10\npush local 10")
	assert.Equal(t, int16(10), cpu.StackTop())
	assert.Equal(t, int16(10), cpu.Read(localBase+10))
	assert.Equal(t, []int16{10}, cpu.Stack(stackBase))
}

func TestExecute_StackHeight(t *testing.T) {
	testData := []struct {
		source string
		want   int16
		height int
	}{
		{"push constant 7\npush constant 3\nadd", 10, 1},
		{"push constant 7\npush constant 3\nsub", 4, 1},
		{"push constant 12\npush constant 10\nand", 8, 1},
		{"push constant 12\npush constant 10\nor", 14, 1},
		{"push constant 3\npush constant 3\neq", -1, 1},
		{"push constant 7\npush constant 3\neq", 0, 1},
		{"push constant 7\npush constant 3\ngt", -1, 1},
		{"push constant 3\npush constant 7\ngt", 0, 1},
		{"push constant 3\npush constant 7\nlt", -1, 1},
		{"push constant 7\npush constant 7\nlt", 0, 1},
		{"push constant 0\npush constant 5\nsub\npush constant 3\nlt", -1, 1},
		{"push constant 7\nneg", -7, 1},
		{"push constant 0\nnot", -1, 1},
		{"push constant 1\npush constant 7\nneg", -7, 2},
		{"push constant 1\npush constant 1\npush constant 2\nlt", -1, 2},
	}
	for _, data := range testData {
		cpu := execute(t, data.source)
		assert.Equal(t, data.want, cpu.StackTop(), data.source)
		assert.Len(t, cpu.Stack(stackBase), data.height, data.source)
	}
}

func TestExecute_BasicTest(t *testing.T) {
	source := `push constant 10
pop local 0
push constant 21
push constant 22
pop argument 2
pop argument 1
push constant 36
pop this 6
push constant 42
push constant 45
pop that 5
pop that 2
push constant 510
pop temp 6
push local 0
push that 5
add
push argument 1
sub
push this 6
push this 6
add
sub
push temp 6
add`
	cpu := execute(t, source)
	assert.Equal(t, int16(472), cpu.Read(stackBase))
	assert.Equal(t, int16(10), cpu.Read(localBase))
	assert.Equal(t, int16(21), cpu.Read(argBase+1))
	assert.Equal(t, int16(22), cpu.Read(argBase+2))
	assert.Equal(t, int16(36), cpu.Read(thisBase+6))
	assert.Equal(t, int16(42), cpu.Read(thatBase+2))
	assert.Equal(t, int16(45), cpu.Read(thatBase+5))
	assert.Equal(t, int16(510), cpu.Read(11))
}

func TestExecute_PointerTest(t *testing.T) {
	source := `push constant 3030
pop pointer 0
push constant 3040
pop pointer 1
push constant 32
pop this 2
push constant 46
pop that 6
push pointer 0
push pointer 1
add
push this 2
sub
push that 6
add`
	cpu := execute(t, source)
	assert.Equal(t, int16(6084), cpu.Read(stackBase))
	assert.Equal(t, int16(3030), cpu.Read(emulator.THIS))
	assert.Equal(t, int16(3040), cpu.Read(emulator.THAT))
	assert.Equal(t, int16(32), cpu.Read(3032))
	assert.Equal(t, int16(46), cpu.Read(3046))
}

func TestExecute_StaticTest(t *testing.T) {
	source := `push constant 111
push constant 333
push constant 888
pop static 8
pop static 3
pop static 1
push static 3
push static 1
sub
push static 8
add`
	cpu := execute(t, source)
	assert.Equal(t, int16(1110), cpu.Read(stackBase))
}

func TestExecute_BasicLoop(t *testing.T) {
	source := `// sums 1..argument 0
push constant 0
pop local 0
label LOOP_START
push argument 0
push local 0
add
pop local 0
push argument 0
push constant 1
sub
pop argument 0
push argument 0
if-goto LOOP_START
push local 0
`
	lines, err := Translate(source, Options{})
	require.NoError(t, err)
	rom, err := assembler.AssembleString(strings.Join(lines, "\n"))
	require.NoError(t, err)
	cpu := emulator.New(rom)
	cpu.Write(emulator.SP, stackBase)
	cpu.Write(emulator.LCL, localBase)
	cpu.Write(emulator.ARG, argBase)
	cpu.Write(argBase, 4)
	require.NoError(t, cpu.Run(100000))
	assert.Equal(t, int16(10), cpu.StackTop())
	assert.Equal(t, int16(stackBase+1), cpu.Read(emulator.SP))
}

func TestExecute_Bootstrap(t *testing.T) {
	lines, err := Translate("push constant 9", Options{Bootstrap: true})
	require.NoError(t, err)
	rom, err := assembler.AssembleString(strings.Join(lines, "\n"))
	require.NoError(t, err)
	cpu := emulator.New(rom)
	require.NoError(t, cpu.Run(1000))
	assert.Equal(t, int16(257), cpu.Read(emulator.SP))
	assert.Equal(t, int16(9), cpu.Read(256))
}
