// rsp_driver.go - RSP driver for the Reality Display

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

package main

import (
	"fmt"
	"runtime"
)

// CoprocessorError reports a task the RSP cannot accept. It is a
// configuration error: the microcode or its input was built wrong.
type CoprocessorError struct {
	Operation string
	Details   string
	Err       error
}

func (e *CoprocessorError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("coprocessor %s failed: %s: %v", e.Operation, e.Details, e.Err)
	}
	return fmt.Sprintf("coprocessor %s failed: %s", e.Operation, e.Details)
}

// RSPDriver dispatches one task at a time to the RSP. A task is started
// with LoadAndRun and must be joined with WaitForDone before the next one
// or before its output is read.
type RSPDriver struct {
	bus  *SystemBus
	regs *RegisterFile
}

func NewRSPDriver(bus *SystemBus) *RSPDriver {
	return &RSPDriver{bus: bus, regs: NewRegisterFile(bus)}
}

// LoadAndRun uploads microcode to IMEM and input to DMEM at
// RSP_INPUT_OFFSET through SP DMA, then starts the RSP at RSP_ENTRY_PC.
func (d *RSPDriver) LoadAndRun(microcode, input []byte) error {
	if len(microcode) == 0 {
		return &CoprocessorError{Operation: "load", Details: "empty microcode"}
	}
	if len(microcode) > RSP_IMEM_CAPACITY {
		return &CoprocessorError{
			Operation: "load",
			Details:   fmt.Sprintf("microcode is %d bytes, IMEM holds %d", len(microcode), RSP_IMEM_CAPACITY),
		}
	}
	if len(input) > RSP_INPUT_CAPACITY {
		return &CoprocessorError{
			Operation: "load",
			Details:   fmt.Sprintf("input is %d bytes, DMEM input segment holds %d", len(input), RSP_INPUT_CAPACITY),
		}
	}
	if debugAssertions {
		assertf(d.regs.SpStatus()&SP_STATUS_HALT != 0, "rsp: LoadAndRun while a task is running")
	}

	d.bus.WriteBlock(RSP_STAGING_ADDR, microcode)
	d.regs.SpDMARead(SP_IMEM_FLAG|RSP_ENTRY_PC, RSP_STAGING_ADDR, uint32(len(microcode)))
	d.waitDMA()

	if len(input) > 0 {
		d.bus.WriteBlock(RSP_STAGING_ADDR+SP_MEM_SIZE, input)
		d.regs.SpDMARead(RSP_INPUT_OFFSET, RSP_STAGING_ADDR+SP_MEM_SIZE, uint32(len(input)))
		d.waitDMA()
	}

	d.regs.SetSpPC(RSP_ENTRY_PC)
	d.regs.SetSpStatus(SP_CLR_BROKE | SP_CLR_HALT)
	return nil
}

// WaitForDone spins until the RSP halts. There is no timeout and no way to
// abort a task.
func (d *RSPDriver) WaitForDone() {
	for d.regs.SpStatus()&SP_STATUS_HALT == 0 {
		runtime.Gosched()
	}
}

// Broke reports whether the last task ended on BREAK rather than a halt
// request.
func (d *RSPDriver) Broke() bool {
	return d.regs.SpStatus()&SP_STATUS_BROKE != 0
}

// ReadOutput copies DMEM[0:len(buf)] into buf. Only valid after
// WaitForDone.
func (d *RSPDriver) ReadOutput(buf []byte) {
	if len(buf) == 0 {
		return
	}
	if debugAssertions {
		assertf(len(buf) <= SP_MEM_SIZE, "rsp: ReadOutput of %d bytes exceeds DMEM", len(buf))
		assertf(d.regs.SpStatus()&SP_STATUS_HALT != 0, "rsp: ReadOutput while a task is running")
	}
	d.regs.SpDMAWrite(RSP_OUTPUT_OFFSET, RSP_STAGING_ADDR, uint32(min(len(buf), SP_MEM_SIZE)))
	d.waitDMA()
	d.bus.ReadBlock(RSP_STAGING_ADDR, buf)
}

func (d *RSPDriver) waitDMA() {
	for d.regs.SpDMABusy() {
		runtime.Gosched()
	}
}
