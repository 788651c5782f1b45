// rsp_device.go - RSP device model for the Reality Display

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
	"sync"
	"sync/atomic"
)

// RSPDevice models the signal processor as seen from the bus: IMEM and
// DMEM, the SP DMA engine, the status register and the scalar unit, which
// runs in its own goroutine whenever HALT is clear.
type RSPDevice struct {
	bus *SystemBus

	mu   sync.Mutex
	imem [SP_MEM_SIZE]byte
	dmem [SP_MEM_SIZE]byte
	core *rspCore

	// MMIO shadow registers
	memAddr   uint32
	dramAddr  uint32
	rdLen     uint32
	wrLen     uint32
	status    uint32
	semaphore uint32

	done     chan struct{} // closed when the current run goroutine exits
	dmaCount atomic.Uint64
	runs     atomic.Uint64
}

func NewRSPDevice(bus *SystemBus) *RSPDevice {
	d := &RSPDevice{
		bus:    bus,
		status: SP_STATUS_HALT,
	}
	d.core = newRSPCore(&d.imem, &d.dmem)
	return d
}

func (d *RSPDevice) Map(bus *SystemBus) {
	bus.MapIO(SP_DMEM, SP_MEM_END, d.HandleRead, d.HandleWrite)
	bus.MapIO(SP_REG_BASE, SP_REG_END, d.HandleRead, d.HandleWrite)
	bus.MapIO(SP_PC, SP_PC_END, d.HandleRead, d.HandleWrite)
}

// spMemory returns the IMEM or DMEM array an SP address selects and the
// offset within it.
func (d *RSPDevice) spMemory(addr uint32) (*[SP_MEM_SIZE]byte, uint32) {
	if addr&SP_IMEM_FLAG != 0 {
		return &d.imem, addr & RSP_ADDR_MASK
	}
	return &d.dmem, addr & RSP_ADDR_MASK
}

// readReg returns the shadow register value for an aligned register address.
func (d *RSPDevice) readReg(reg uint32) uint32 {
	switch reg {
	case PhysAddr(SP_MEM_ADDR):
		return d.memAddr
	case PhysAddr(SP_DRAM_ADDR):
		return d.dramAddr
	case PhysAddr(SP_RD_LEN):
		return d.rdLen
	case PhysAddr(SP_WR_LEN):
		return d.wrLen
	case PhysAddr(SP_STATUS):
		return d.status
	case PhysAddr(SP_DMA_FULL), PhysAddr(SP_DMA_BUSY):
		// DMA completes inside the register write.
		return 0
	case PhysAddr(SP_SEMAPHORE):
		v := d.semaphore
		d.semaphore = 1
		return v
	case PhysAddr(SP_PC):
		return d.core.pc
	}
	return 0
}

func (d *RSPDevice) HandleRead(addr uint32) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()

	phys := PhysAddr(addr) &^ 3
	if phys <= PhysAddr(SP_MEM_END) && phys >= PhysAddr(SP_DMEM) {
		mem, off := d.spMemory(phys - PhysAddr(SP_DMEM))
		return uint32(mem[off])<<24 | uint32(mem[off+1])<<16 | uint32(mem[off+2])<<8 | uint32(mem[off+3])
	}
	return d.readReg(phys)
}

func (d *RSPDevice) HandleWrite(addr uint32, value uint32) {
	phys := PhysAddr(addr) &^ 3

	d.mu.Lock()
	switch {
	case phys <= PhysAddr(SP_MEM_END) && phys >= PhysAddr(SP_DMEM):
		mem, off := d.spMemory(phys - PhysAddr(SP_DMEM))
		mem[off], mem[off+1], mem[off+2], mem[off+3] = byte(value>>24), byte(value>>16), byte(value>>8), byte(value)
	case phys == PhysAddr(SP_MEM_ADDR):
		d.memAddr = value & 0x1FFF
	case phys == PhysAddr(SP_DRAM_ADDR):
		d.dramAddr = value & 0x00FFFFFF
	case phys == PhysAddr(SP_RD_LEN):
		d.rdLen = value
		d.dmaLocked(true)
	case phys == PhysAddr(SP_WR_LEN):
		d.wrLen = value
		d.dmaLocked(false)
	case phys == PhysAddr(SP_SEMAPHORE):
		d.semaphore = 0
	case phys == PhysAddr(SP_PC):
		if d.status&SP_STATUS_HALT != 0 {
			d.core.setPC(value)
		}
	case phys == PhysAddr(SP_STATUS):
		if start := d.writeStatusLocked(value); start {
			d.startLocked()
		}
	}
	d.mu.Unlock()
}

// dmaLocked performs the transfer latched in the DMA registers. Only the
// length field is honoured; count and skip are treated as a single row.
func (d *RSPDevice) dmaLocked(toSP bool) {
	length := int(d.rdLen&SP_DMA_MAXLEN) + 1
	if !toSP {
		length = int(d.wrLen&SP_DMA_MAXLEN) + 1
	}
	mem, off := d.spMemory(d.memAddr)
	buf := make([]byte, length)
	if toSP {
		d.bus.ReadBlock(d.dramAddr, buf)
		for i, b := range buf {
			mem[(off+uint32(i))&RSP_ADDR_MASK] = b
		}
	} else {
		for i := range buf {
			buf[i] = mem[(off+uint32(i))&RSP_ADDR_MASK]
		}
		d.bus.WriteBlock(d.dramAddr, buf)
	}
	d.dmaCount.Add(1)
}

// writeStatusLocked applies SP_CLR_* / SP_SET_* requests and reports
// whether the write released HALT.
func (d *RSPDevice) writeStatusLocked(bits uint32) bool {
	wasHalted := d.status&SP_STATUS_HALT != 0

	if bits&SP_CLR_BROKE != 0 {
		d.status &^= SP_STATUS_BROKE
	}
	if bits&SP_SET_HALT != 0 {
		d.status |= SP_STATUS_HALT
	}
	if bits&SP_CLR_HALT != 0 {
		d.status &^= SP_STATUS_HALT
	}
	if bits&SP_SET_SSTEP != 0 {
		d.status |= SP_STATUS_SSTEP
	}
	if bits&SP_CLR_SSTEP != 0 {
		d.status &^= SP_STATUS_SSTEP
	}
	if bits&SP_SET_INTR_BREAK != 0 {
		d.status |= SP_STATUS_INTR_BREAK
	}
	if bits&SP_CLR_INTR_BREAK != 0 {
		d.status &^= SP_STATUS_INTR_BREAK
	}
	return wasHalted && d.status&SP_STATUS_HALT == 0
}

func (d *RSPDevice) startLocked() {
	done := make(chan struct{})
	d.done = done
	d.runs.Add(1)
	go func() {
		defer close(done)
		d.run()
	}()
}

// run executes until BREAK, an illegal instruction or a SET_HALT from the
// CPU. The lock is dropped between quanta so the CPU can poll status.
func (d *RSPDevice) run() {
	for {
		d.mu.Lock()
		for range RSP_RUN_QUANTUM {
			if d.status&SP_STATUS_HALT != 0 {
				d.mu.Unlock()
				return
			}
			switch d.core.step() {
			case rspBreak, rspIllegal:
				d.status |= SP_STATUS_HALT | SP_STATUS_BROKE
			}
			if d.status&SP_STATUS_SSTEP != 0 {
				d.status |= SP_STATUS_HALT
			}
		}
		d.mu.Unlock()
		runtime.Gosched()
	}
}

// Wait blocks until the current run goroutine has exited. Tests use it to
// join the device before inspecting memory directly.
func (d *RSPDevice) Wait() {
	d.mu.Lock()
	done := d.done
	d.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (d *RSPDevice) String() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fmt.Sprintf("rsp: pc=%03X status=%04X runs=%d dma=%d",
		d.core.pc, d.status, d.runs.Load(), d.dmaCount.Load())
}
