package main

// Built-in RSP microcode. Both programs run from RSP_ENTRY_PC and end in
// BREAK, which halts the RSP and sets BROKE.

// HelloWorldMicrocode stores i into DMEM word i for every word of DMEM. It
// proves IMEM upload, execution and DMEM readback end to end.
var HelloWorldMicrocode = buildHelloWorld()

// EchoMicrocode copies the input segment, DMEM[0x800:0x1000], to the
// output segment, DMEM[0x000:0x800].
var EchoMicrocode = buildEcho()

func buildHelloWorld() []byte {
	var a rspAsm
	a.Ori(RSP_T0, RSP_R0, 0).
		Ori(RSP_T1, RSP_R0, 0).
		Ori(RSP_T2, RSP_R0, SP_MEM_SIZE)
	loop := a.Here()
	a.Sw(RSP_T1, 0, RSP_T0).
		Addiu(RSP_T0, RSP_T0, WORD_SIZE).
		Bne(RSP_T0, RSP_T2, loop).
		Addiu(RSP_T1, RSP_T1, 1).
		Break()
	return a.Bytes()
}

func buildEcho() []byte {
	var a rspAsm
	a.Ori(RSP_T0, RSP_R0, RSP_INPUT_OFFSET).
		Ori(RSP_T1, RSP_R0, RSP_OUTPUT_OFFSET).
		Ori(RSP_T2, RSP_R0, RSP_OUTPUT_OFFSET+RSP_INPUT_CAPACITY)
	loop := a.Here()
	a.Lw(RSP_T3, 0, RSP_T0).
		Addiu(RSP_T0, RSP_T0, WORD_SIZE).
		Sw(RSP_T3, 0, RSP_T1).
		Addiu(RSP_T1, RSP_T1, WORD_SIZE).
		Bne(RSP_T1, RSP_T2, loop).
		Nop().
		Break()
	return a.Bytes()
}
