package emulator_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"

	"github.com/xiaobogaga/hackvm/assembler"
	"github.com/xiaobogaga/hackvm/emulator"
)

func load(src string) *emulator.CPU {
	rom, err := assembler.AssembleString(src)
	Expect(err).NotTo(HaveOccurred())
	return emulator.New(rom)
}

var _ = Describe("CPU", func() {
	Context("A instructions", func() {
		It("should load the constant into A", func() {
			cpu := load("@42")
			Expect(cpu.Step()).To(Succeed())
			Expect(cpu.A).To(Equal(int16(42)))
			Expect(cpu.PC).To(Equal(1))
		})
	})

	Context("C instructions", func() {
		It("should compute D+M and store into M", func() {
			cpu := load("@7\nD=A\n@100\nM=D+M")
			cpu.Write(100, 5)
			for i := 0; i < 4; i++ {
				Expect(cpu.Step()).To(Succeed())
			}
			Expect(cpu.Read(100)).To(Equal(int16(12)))
			Expect(cpu.D).To(Equal(int16(7)))
		})

		It("should write M at the old address for AM=M-1", func() {
			cpu := load("@SP\nAM=M-1")
			cpu.Write(emulator.SP, 258)
			Expect(cpu.Step()).To(Succeed())
			Expect(cpu.Step()).To(Succeed())
			Expect(cpu.Read(emulator.SP)).To(Equal(int16(257)))
			Expect(cpu.A).To(Equal(int16(257)))
		})

		It("should negate and invert", func() {
			cpu := load("@5\nD=A\nD=-D\n@0\nM=!M")
			cpu.Write(0, 0)
			for i := 0; i < 5; i++ {
				Expect(cpu.Step()).To(Succeed())
			}
			Expect(cpu.D).To(Equal(int16(-5)))
			Expect(cpu.Read(0)).To(Equal(int16(-1)))
		})

		It("should wrap around on overflow", func() {
			cpu := load("@32767\nD=A\nD=D+1")
			for i := 0; i < 3; i++ {
				Expect(cpu.Step()).To(Succeed())
			}
			Expect(cpu.D).To(Equal(int16(-32768)))
		})
	})

	Context("Jumps", func() {
		It("should only jump when the condition holds", func() {
			cpu := load("@10\nD=A\n@6\nD;JLT\n@9\nD;JGT")
			for i := 0; i < 4; i++ {
				Expect(cpu.Step()).To(Succeed())
			}
			Expect(cpu.PC).To(Equal(4))
			Expect(cpu.Step()).To(Succeed())
			Expect(cpu.Step()).To(Succeed())
			Expect(cpu.PC).To(Equal(9))
		})
	})

	Context("Run", func() {
		It("should stop on the halt loop", func() {
			cpu := load("@3\nD=A\n@R0\nM=D\n(END)\n@END\n0;JMP")
			Expect(cpu.Run(100)).To(Succeed())
			Expect(cpu.Halted()).To(BeTrue())
			Expect(cpu.Read(0)).To(Equal(int16(3)))
			Expect(cpu.Steps()).To(Equal(6))
		})

		It("should report a program that never halts", func() {
			cpu := load("(LOOP)\n@LOOP\nD;JEQ\n@LOOP\n0;JMP")
			err := cpu.Run(50)
			Expect(errors.Is(err, emulator.ErrStepLimit)).To(BeTrue())
		})

		It("should report running off the end of the program", func() {
			cpu := load("@1\nD=A")
			err := cpu.Run(10)
			Expect(errors.Is(err, emulator.ErrPCOutOfRange)).To(BeTrue())
		})
	})

	Context("Stack", func() {
		It("should expose the slots below SP", func() {
			cpu := emulator.New(nil)
			cpu.Write(emulator.SP, 259)
			cpu.Write(256, 1)
			cpu.Write(257, 2)
			cpu.Write(258, 3)
			Expect(cpu.StackTop()).To(Equal(int16(3)))
			Expect(cpu.Stack(256)).To(Equal([]int16{1, 2, 3}))
		})
	})
})
