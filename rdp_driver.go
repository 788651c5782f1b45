package main

import "runtime"

// RDPDriver hands display lists to the RDP. Submit returns immediately;
// WaitForDone is the only synchronisation with the rasterizer.
type RDPDriver struct {
	regs *RegisterFile
}

func NewRDPDriver(bus MemoryBus) *RDPDriver {
	return &RDPDriver{regs: NewRegisterFile(bus)}
}

// Submit starts the list in [start, end). Both addresses must be 8-byte
// aligned and the RDP must be idle.
func (d *RDPDriver) Submit(start, end uint32) {
	if debugAssertions {
		assertf(start&7 == 0 && end&7 == 0, "rdp: unaligned display list %08X-%08X", start, end)
		assertf(!d.Busy(), "rdp: Submit while a list is executing")
	}
	d.regs.SetDpcStart(start)
	d.regs.SetDpcEnd(end)
}

func (d *RDPDriver) Busy() bool {
	return d.regs.DpcStatus()&DPC_BUSY_MASK != 0
}

// WaitForDone spins until both the command and pixel pipelines are idle.
// A stalled RDP blocks forever.
func (d *RDPDriver) WaitForDone() {
	for d.Busy() {
		runtime.Gosched()
	}
}
