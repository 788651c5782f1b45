package main

import "encoding/binary"

// rspAsm builds RSP microcode one instruction at a time. Branch targets are
// instruction indices, as returned by Here.
type rspAsm struct {
	words []uint32
}

func rspR(funct, rs, rt, rd, sa uint32) uint32 {
	return RSP_OP_SPECIAL<<26 | rs<<21 | rt<<16 | rd<<11 | sa<<6 | funct
}

func rspI(op, rs, rt uint32, imm uint16) uint32 {
	return op<<26 | rs<<21 | rt<<16 | uint32(imm)
}

func (a *rspAsm) emit(w uint32) *rspAsm {
	a.words = append(a.words, w)
	return a
}

// Here returns the index of the next instruction.
func (a *rspAsm) Here() int {
	return len(a.words)
}

// branchOffset is relative to the delay slot of the branch being emitted.
func (a *rspAsm) branchOffset(target int) uint16 {
	return uint16(int16(target - (a.Here() + 1)))
}

func (a *rspAsm) Nop() *rspAsm                   { return a.emit(0) }
func (a *rspAsm) Break() *rspAsm                 { return a.emit(rspR(RSP_FN_BREAK, 0, 0, 0, 0)) }
func (a *rspAsm) Addu(rd, rs, rt uint32) *rspAsm { return a.emit(rspR(RSP_FN_ADDU, rs, rt, rd, 0)) }
func (a *rspAsm) Subu(rd, rs, rt uint32) *rspAsm { return a.emit(rspR(RSP_FN_SUBU, rs, rt, rd, 0)) }
func (a *rspAsm) Sll(rd, rt, sa uint32) *rspAsm  { return a.emit(rspR(RSP_FN_SLL, 0, rt, rd, sa)) }
func (a *rspAsm) Jr(rs uint32) *rspAsm           { return a.emit(rspR(RSP_FN_JR, rs, 0, 0, 0)) }

func (a *rspAsm) Addiu(rt, rs uint32, imm int16) *rspAsm {
	return a.emit(rspI(RSP_OP_ADDIU, rs, rt, uint16(imm)))
}

func (a *rspAsm) Ori(rt, rs uint32, imm uint16) *rspAsm {
	return a.emit(rspI(RSP_OP_ORI, rs, rt, imm))
}

func (a *rspAsm) Lui(rt uint32, imm uint16) *rspAsm {
	return a.emit(rspI(RSP_OP_LUI, 0, rt, imm))
}

func (a *rspAsm) Lw(rt uint32, offset int16, base uint32) *rspAsm {
	return a.emit(rspI(RSP_OP_LW, base, rt, uint16(offset)))
}

func (a *rspAsm) Sw(rt uint32, offset int16, base uint32) *rspAsm {
	return a.emit(rspI(RSP_OP_SW, base, rt, uint16(offset)))
}

func (a *rspAsm) Beq(rs, rt uint32, target int) *rspAsm {
	return a.emit(rspI(RSP_OP_BEQ, rs, rt, a.branchOffset(target)))
}

func (a *rspAsm) Bne(rs, rt uint32, target int) *rspAsm {
	return a.emit(rspI(RSP_OP_BNE, rs, rt, a.branchOffset(target)))
}

// J jumps to an instruction index.
func (a *rspAsm) J(target int) *rspAsm {
	return a.emit(RSP_OP_J<<26 | uint32(target)&0x3FFFFFF)
}

func (a *rspAsm) Jal(target int) *rspAsm {
	return a.emit(RSP_OP_JAL<<26 | uint32(target)&0x3FFFFFF)
}

// Bytes returns the big-endian IMEM image.
func (a *rspAsm) Bytes() []byte {
	out := make([]byte, len(a.words)*WORD_SIZE)
	for i, w := range a.words {
		binary.BigEndian.PutUint32(out[i*WORD_SIZE:], w)
	}
	return out
}
