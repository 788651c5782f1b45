package main

// RSP scalar unit instruction encoding (MIPS R4000 subset)
const (
	RSP_OP_SPECIAL = 0x00
	RSP_OP_REGIMM  = 0x01
	RSP_OP_J       = 0x02
	RSP_OP_JAL     = 0x03
	RSP_OP_BEQ     = 0x04
	RSP_OP_BNE     = 0x05
	RSP_OP_BLEZ    = 0x06
	RSP_OP_BGTZ    = 0x07
	RSP_OP_ADDI    = 0x08
	RSP_OP_ADDIU   = 0x09
	RSP_OP_SLTI    = 0x0A
	RSP_OP_SLTIU   = 0x0B
	RSP_OP_ANDI    = 0x0C
	RSP_OP_ORI     = 0x0D
	RSP_OP_XORI    = 0x0E
	RSP_OP_LUI     = 0x0F
	RSP_OP_LB      = 0x20
	RSP_OP_LH      = 0x21
	RSP_OP_LW      = 0x23
	RSP_OP_LBU     = 0x24
	RSP_OP_LHU     = 0x25
	RSP_OP_SB      = 0x28
	RSP_OP_SH      = 0x29
	RSP_OP_SW      = 0x2B
)

// SPECIAL function field
const (
	RSP_FN_SLL   = 0x00
	RSP_FN_SRL   = 0x02
	RSP_FN_SRA   = 0x03
	RSP_FN_SLLV  = 0x04
	RSP_FN_SRLV  = 0x06
	RSP_FN_SRAV  = 0x07
	RSP_FN_JR    = 0x08
	RSP_FN_JALR  = 0x09
	RSP_FN_BREAK = 0x0D
	RSP_FN_ADD   = 0x20
	RSP_FN_ADDU  = 0x21
	RSP_FN_SUB   = 0x22
	RSP_FN_SUBU  = 0x23
	RSP_FN_AND   = 0x24
	RSP_FN_OR    = 0x25
	RSP_FN_XOR   = 0x26
	RSP_FN_NOR   = 0x27
	RSP_FN_SLT   = 0x2A
	RSP_FN_SLTU  = 0x2B
)

// REGIMM rt field
const (
	RSP_RT_BLTZ   = 0x00
	RSP_RT_BGEZ   = 0x01
	RSP_RT_BLTZAL = 0x10
	RSP_RT_BGEZAL = 0x11
)

// Register names used by the built-in microcode
const (
	RSP_R0 = 0
	RSP_AT = 1
	RSP_T0 = 8
	RSP_T1 = 9
	RSP_T2 = 10
	RSP_T3 = 11
	RSP_RA = 31
)

const (
	RSP_PC_MASK     = SP_MEM_SIZE - 4
	RSP_ADDR_MASK   = SP_MEM_SIZE - 1
	RSP_RUN_QUANTUM = 256 // instructions executed per lock hold
)
