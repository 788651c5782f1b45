package main

import (
	"encoding/binary"
	"errors"
	"testing"
)

func newTestGraphics(t *testing.T) (*Console, *Graphics) {
	t.Helper()
	console := NewConsole()
	gfx, err := NewGraphics(console.Bus, VideoModeNTSC320x240)
	if err != nil {
		t.Fatalf("NewGraphics: %v", err)
	}
	t.Cleanup(func() {
		console.RSP.Wait()
		console.RDP.Wait()
	})
	return console, gfx
}

// runCore steps a bare interpreter until it halts or the budget runs out.
func runCore(t *testing.T, code []byte, budget int) (*rspCore, *[SP_MEM_SIZE]byte) {
	t.Helper()
	var imem, dmem [SP_MEM_SIZE]byte
	copy(imem[:], code)
	c := newRSPCore(&imem, &dmem)
	for range budget {
		switch c.step() {
		case rspBreak:
			return c, &dmem
		case rspIllegal:
			t.Fatalf("illegal instruction near pc 0x%03X", c.pc)
		}
	}
	t.Fatalf("core did not halt within %d steps", budget)
	return nil, nil
}

func TestRSP_HelloWorld(t *testing.T) {
	console, gfx := newTestGraphics(t)
	if err := gfx.RSPHelloWorld(); err != nil {
		t.Fatalf("RSPHelloWorld: %v", err)
	}
	if !gfx.RSP.Broke() {
		t.Fatalf("task did not end on BREAK: %s", console.RSP)
	}
}

func TestRSP_EchoRoundTrip(t *testing.T) {
	_, gfx := newTestGraphics(t)

	input := make([]byte, RSP_INPUT_CAPACITY)
	for i := range input {
		input[i] = byte(i*13 + 1)
	}
	out, err := gfx.RSPEcho(input)
	if err != nil {
		t.Fatalf("RSPEcho: %v", err)
	}
	if len(out) != RSP_INPUT_CAPACITY {
		t.Fatalf("output length %d", len(out))
	}

	// A shorter input leaves the rest of the output segment as DMEM held it.
	short := []byte{1, 2, 3, 4, 5}
	if _, err := gfx.RSPEcho(short); err != nil {
		t.Fatalf("RSPEcho(short): %v", err)
	}
}

func TestRSP_LoadAndRunRejectsOversizedTasks(t *testing.T) {
	_, gfx := newTestGraphics(t)

	cases := []struct {
		name      string
		microcode []byte
		input     []byte
	}{
		{"empty microcode", nil, nil},
		{"microcode too large", make([]byte, RSP_IMEM_CAPACITY+4), nil},
		{"input too large", HelloWorldMicrocode, make([]byte, RSP_INPUT_CAPACITY+1)},
	}
	for _, tc := range cases {
		err := gfx.RSP.LoadAndRun(tc.microcode, tc.input)
		var cerr *CoprocessorError
		if !errors.As(err, &cerr) {
			t.Errorf("%s: err = %v, want *CoprocessorError", tc.name, err)
		}
	}

	// The RSP was never started; a valid task still runs.
	if err := gfx.RSPHelloWorld(); err != nil {
		t.Fatalf("RSPHelloWorld after rejected loads: %v", err)
	}
}

func TestRSP_ExactCapacityAccepted(t *testing.T) {
	_, gfx := newTestGraphics(t)
	input := make([]byte, RSP_INPUT_CAPACITY)
	if err := gfx.RSP.LoadAndRun(EchoMicrocode, input); err != nil {
		t.Fatalf("LoadAndRun at capacity: %v", err)
	}
	gfx.RSP.WaitForDone()
}

func TestRSPCore_BranchDelaySlot(t *testing.T) {
	var a rspAsm
	a.Ori(RSP_T0, RSP_R0, 1)
	skip := a.Here() + 4
	a.Beq(RSP_R0, RSP_R0, skip).
		Ori(RSP_T1, RSP_R0, 7). // delay slot, always runs
		Ori(RSP_T2, RSP_R0, 9). // skipped
		Nop()
	a.Break()

	c, _ := runCore(t, a.Bytes(), 100)
	if c.gpr[RSP_T1] != 7 {
		t.Errorf("delay slot not executed: t1 = %d", c.gpr[RSP_T1])
	}
	if c.gpr[RSP_T2] != 0 {
		t.Errorf("branch not taken: t2 = %d", c.gpr[RSP_T2])
	}
}

func TestRSPCore_ZeroRegisterIsHardWired(t *testing.T) {
	var a rspAsm
	a.Ori(RSP_R0, RSP_R0, 0x1234).
		Addu(RSP_T0, RSP_R0, RSP_R0).
		Break()

	c, _ := runCore(t, a.Bytes(), 10)
	if c.gpr[RSP_R0] != 0 || c.gpr[RSP_T0] != 0 {
		t.Fatalf("r0 = 0x%X, t0 = 0x%X, want both 0", c.gpr[RSP_R0], c.gpr[RSP_T0])
	}
}

func TestRSPCore_StoreIsBigEndian(t *testing.T) {
	var a rspAsm
	a.Lui(RSP_T0, 0xDEAD).
		Ori(RSP_T0, RSP_T0, 0xBEEF).
		Sw(RSP_T0, 0x10, RSP_R0).
		Lw(RSP_T1, 0x10, RSP_R0).
		Break()

	c, dmem := runCore(t, a.Bytes(), 10)
	if got := binary.BigEndian.Uint32(dmem[0x10:]); got != 0xDEADBEEF {
		t.Fatalf("DMEM word = 0x%08X, want 0xDEADBEEF", got)
	}
	if c.gpr[RSP_T1] != 0xDEADBEEF {
		t.Fatalf("LW = 0x%08X", c.gpr[RSP_T1])
	}
}

func TestRSPCore_JumpAndLink(t *testing.T) {
	var a rspAsm
	a.Jal(4).
		Nop().
		Break().
		Nop()
	// 4: subroutine
	a.Ori(RSP_T0, RSP_R0, 5).
		Jr(RSP_RA).
		Nop()

	c, _ := runCore(t, a.Bytes(), 20)
	if c.gpr[RSP_T0] != 5 {
		t.Fatalf("subroutine did not run: t0 = %d", c.gpr[RSP_T0])
	}
	if c.gpr[RSP_RA] != 8 {
		t.Fatalf("ra = 0x%X, want 0x8", c.gpr[RSP_RA])
	}
}
