// rsp_cpu.go - RSP scalar core for the Reality Display

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
Buy me a coffee: https://ko-fi.com/intuition/tip

License: GPLv3 or later
*/

/*
rsp_cpu.go - RSP Scalar Unit Interpreter

The scalar unit is a 32-bit MIPS core with 4KB of instruction memory and
4KB of data memory and nothing else: no caches, no TLB, no exceptions.
This interpreter covers the integer subset the display microcode uses.

Execution Model:

    pc is the instruction being fetched and npc the one after it. Each step
    advances pc to npc before executing, so a taken branch only rewrites
    npc and the delay slot runs naturally.
    Instruction addresses wrap at 4KB. Data addresses wrap at 4KB and may be
    unaligned.
    r0 reads as zero; writes to it are discarded after every instruction.
    ADD, ADDI and SUB do not trap on overflow, as on the real unit.

Halting:

    BREAK halts the core with the broke flag set. An opcode outside the
    implemented subset does the same and is reported on stdout.
*/

package main

import "fmt"

type rspHalt uint8

const (
	rspRunning rspHalt = iota
	rspBreak
	rspIllegal
)

type rspCore struct {
	gpr  [32]uint32
	pc   uint32
	npc  uint32
	imem *[SP_MEM_SIZE]byte
	dmem *[SP_MEM_SIZE]byte
}

func newRSPCore(imem, dmem *[SP_MEM_SIZE]byte) *rspCore {
	c := &rspCore{imem: imem, dmem: dmem}
	c.setPC(RSP_ENTRY_PC)
	return c
}

// setPC restarts fetch at pc with no branch pending.
func (c *rspCore) setPC(pc uint32) {
	c.pc = pc & RSP_PC_MASK
	c.npc = (c.pc + 4) & RSP_PC_MASK
}

func (c *rspCore) fetch(addr uint32) uint32 {
	a := addr & RSP_PC_MASK
	return uint32(c.imem[a])<<24 | uint32(c.imem[a+1])<<16 | uint32(c.imem[a+2])<<8 | uint32(c.imem[a+3])
}

func (c *rspCore) load8(addr uint32) uint8 {
	return c.dmem[addr&RSP_ADDR_MASK]
}

func (c *rspCore) load16(addr uint32) uint16 {
	return uint16(c.load8(addr))<<8 | uint16(c.load8(addr+1))
}

func (c *rspCore) load32(addr uint32) uint32 {
	return uint32(c.load16(addr))<<16 | uint32(c.load16(addr+2))
}

func (c *rspCore) store8(addr uint32, v uint8) {
	c.dmem[addr&RSP_ADDR_MASK] = v
}

func (c *rspCore) store16(addr uint32, v uint16) {
	c.store8(addr, uint8(v>>8))
	c.store8(addr+1, uint8(v))
}

func (c *rspCore) store32(addr uint32, v uint32) {
	c.store16(addr, uint16(v>>16))
	c.store16(addr+2, uint16(v))
}

func (c *rspCore) branch(taken bool, offset uint32) {
	if taken {
		c.npc = (c.pc + offset<<2) & RSP_PC_MASK
	}
}

// step executes one instruction.
func (c *rspCore) step() rspHalt {
	instr := c.fetch(c.pc)
	c.pc = c.npc
	c.npc = (c.npc + 4) & RSP_PC_MASK

	op := instr >> 26
	rs := instr >> 21 & 0x1F
	rt := instr >> 16 & 0x1F
	rd := instr >> 11 & 0x1F
	sa := instr >> 6 & 0x1F
	imm := instr & 0xFFFF
	simm := uint32(int32(int16(imm)))

	r := &c.gpr
	result := rspRunning

	switch op {
	case RSP_OP_SPECIAL:
		switch instr & 0x3F {
		case RSP_FN_SLL:
			r[rd] = r[rt] << sa
		case RSP_FN_SRL:
			r[rd] = r[rt] >> sa
		case RSP_FN_SRA:
			r[rd] = uint32(int32(r[rt]) >> sa)
		case RSP_FN_SLLV:
			r[rd] = r[rt] << (r[rs] & 0x1F)
		case RSP_FN_SRLV:
			r[rd] = r[rt] >> (r[rs] & 0x1F)
		case RSP_FN_SRAV:
			r[rd] = uint32(int32(r[rt]) >> (r[rs] & 0x1F))
		case RSP_FN_JR:
			c.npc = r[rs] & RSP_PC_MASK
		case RSP_FN_JALR:
			target := r[rs]
			r[rd] = (c.pc + 4) & RSP_PC_MASK
			c.npc = target & RSP_PC_MASK
		case RSP_FN_BREAK:
			result = rspBreak
		case RSP_FN_ADD, RSP_FN_ADDU:
			r[rd] = r[rs] + r[rt]
		case RSP_FN_SUB, RSP_FN_SUBU:
			r[rd] = r[rs] - r[rt]
		case RSP_FN_AND:
			r[rd] = r[rs] & r[rt]
		case RSP_FN_OR:
			r[rd] = r[rs] | r[rt]
		case RSP_FN_XOR:
			r[rd] = r[rs] ^ r[rt]
		case RSP_FN_NOR:
			r[rd] = ^(r[rs] | r[rt])
		case RSP_FN_SLT:
			r[rd] = boolWord(int32(r[rs]) < int32(r[rt]))
		case RSP_FN_SLTU:
			r[rd] = boolWord(r[rs] < r[rt])
		default:
			result = rspIllegal
		}

	case RSP_OP_REGIMM:
		neg := int32(r[rs]) < 0
		switch rt {
		case RSP_RT_BLTZ:
			c.branch(neg, simm)
		case RSP_RT_BGEZ:
			c.branch(!neg, simm)
		case RSP_RT_BLTZAL:
			r[RSP_RA] = (c.pc + 4) & RSP_PC_MASK
			c.branch(neg, simm)
		case RSP_RT_BGEZAL:
			r[RSP_RA] = (c.pc + 4) & RSP_PC_MASK
			c.branch(!neg, simm)
		default:
			result = rspIllegal
		}

	case RSP_OP_J:
		c.npc = (instr << 2) & RSP_PC_MASK
	case RSP_OP_JAL:
		r[RSP_RA] = (c.pc + 4) & RSP_PC_MASK
		c.npc = (instr << 2) & RSP_PC_MASK
	case RSP_OP_BEQ:
		c.branch(r[rs] == r[rt], simm)
	case RSP_OP_BNE:
		c.branch(r[rs] != r[rt], simm)
	case RSP_OP_BLEZ:
		c.branch(int32(r[rs]) <= 0, simm)
	case RSP_OP_BGTZ:
		c.branch(int32(r[rs]) > 0, simm)

	case RSP_OP_ADDI, RSP_OP_ADDIU:
		r[rt] = r[rs] + simm
	case RSP_OP_SLTI:
		r[rt] = boolWord(int32(r[rs]) < int32(simm))
	case RSP_OP_SLTIU:
		r[rt] = boolWord(r[rs] < simm)
	case RSP_OP_ANDI:
		r[rt] = r[rs] & imm
	case RSP_OP_ORI:
		r[rt] = r[rs] | imm
	case RSP_OP_XORI:
		r[rt] = r[rs] ^ imm
	case RSP_OP_LUI:
		r[rt] = imm << 16

	case RSP_OP_LB:
		r[rt] = uint32(int32(int8(c.load8(r[rs] + simm))))
	case RSP_OP_LH:
		r[rt] = uint32(int32(int16(c.load16(r[rs] + simm))))
	case RSP_OP_LW:
		r[rt] = c.load32(r[rs] + simm)
	case RSP_OP_LBU:
		r[rt] = uint32(c.load8(r[rs] + simm))
	case RSP_OP_LHU:
		r[rt] = uint32(c.load16(r[rs] + simm))
	case RSP_OP_SB:
		c.store8(r[rs]+simm, uint8(r[rt]))
	case RSP_OP_SH:
		c.store16(r[rs]+simm, uint16(r[rt]))
	case RSP_OP_SW:
		c.store32(r[rs]+simm, r[rt])

	default:
		result = rspIllegal
	}

	r[0] = 0
	if result == rspIllegal {
		fmt.Printf("rsp: unimplemented instruction %08X at PC %03X, halting\n", instr, (c.pc-4)&RSP_PC_MASK)
	}
	return result
}

func boolWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
