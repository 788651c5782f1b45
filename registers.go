// registers.go - Memory-mapped register map for the Reality Display

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
registers.go - Typed Register Interface

Every driver in the Reality Display reaches the hardware through a
RegisterFile. It names each control register and documents what touching it
does, so driver code never spells a raw address.

REGISTER BLOCKS
===============

Block   Base          Constants          Notes
---------------------------------------------------------------------------
VI      0xA4400000    rcp_constants.go   display timing, origin, scan position
SP      0xA4040000    rcp_constants.go   RSP DMA, status (set/clear bit pairs)
SP_PC   0xA4080000    rcp_constants.go   RSP program counter, write while halted
DPC     0xA4100000    rcp_constants.go   RDP command list start/end, status

ACCESS RULES
============

Each Read or Write is exactly one bus transaction. The bus serialises all
transactions, so an access issued before a polling loop is visible to the
device before the first poll, and two writes are never merged or reordered.

Status registers on SP and DPC are write-to-set/write-to-clear: writing a
value does not store it, each bit requests one state change.
*/

package main

// Register is an uncached CPU address of a 32-bit control register.
type Register uint32

type RegisterFile struct {
	bus MemoryBus
}

func NewRegisterFile(bus MemoryBus) *RegisterFile {
	return &RegisterFile{bus: bus}
}

func (r *RegisterFile) Read(reg Register) uint32 {
	return r.bus.Read32(uint32(reg))
}

func (r *RegisterFile) Write(reg Register, value uint32) {
	r.bus.Write32(uint32(reg), value)
}

// =============================================================================
// VI
// =============================================================================

// ViCurrent returns the half-line the display is scanning. Reading has no
// side effect.
func (r *RegisterFile) ViCurrent() uint32 {
	return r.Read(VI_CURRENT)
}

// ViOrigin returns the RDRAM address the display is reading from.
func (r *RegisterFile) ViOrigin() uint32 {
	return r.Read(VI_ORIGIN)
}

// SetViOrigin latches a new framebuffer address. The display picks it up
// from the next field, so writing it inside vblank avoids tearing.
func (r *RegisterFile) SetViOrigin(addr uint32) {
	r.Write(VI_ORIGIN, addr)
}

// =============================================================================
// SP
// =============================================================================

func (r *RegisterFile) SpStatus() uint32 {
	return r.Read(SP_STATUS)
}

// SetSpStatus sends SP_CLR_* / SP_SET_* requests. Clearing HALT starts the
// RSP at SP_PC.
func (r *RegisterFile) SetSpStatus(bits uint32) {
	r.Write(SP_STATUS, bits)
}

// SetSpPC is only honoured while the RSP is halted.
func (r *RegisterFile) SetSpPC(pc uint32) {
	r.Write(SP_PC, pc)
}

// SpDMARead copies length bytes from RDRAM into SP memory. spAddr is an
// offset into DMEM, or IMEM when it carries SP_IMEM_FLAG. The transfer
// starts on the SP_RD_LEN write.
func (r *RegisterFile) SpDMARead(spAddr, dramAddr, length uint32) {
	r.Write(SP_MEM_ADDR, spAddr)
	r.Write(SP_DRAM_ADDR, PhysAddr(dramAddr))
	r.Write(SP_RD_LEN, length-1)
}

// SpDMAWrite copies length bytes from SP memory to RDRAM. The transfer
// starts on the SP_WR_LEN write.
func (r *RegisterFile) SpDMAWrite(spAddr, dramAddr, length uint32) {
	r.Write(SP_MEM_ADDR, spAddr)
	r.Write(SP_DRAM_ADDR, PhysAddr(dramAddr))
	r.Write(SP_WR_LEN, length-1)
}

func (r *RegisterFile) SpDMABusy() bool {
	return r.Read(SP_DMA_BUSY)&1 != 0
}

// =============================================================================
// DPC
// =============================================================================

func (r *RegisterFile) DpcStatus() uint32 {
	return r.Read(DPC_STATUS)
}

// SetDpcStart sets where the next command list begins. It does not start
// the RDP.
func (r *RegisterFile) SetDpcStart(addr uint32) {
	r.Write(DPC_START, PhysAddr(addr))
}

// SetDpcEnd marks the end of the command list and kicks the RDP.
func (r *RegisterFile) SetDpcEnd(addr uint32) {
	r.Write(DPC_END, PhysAddr(addr))
}
