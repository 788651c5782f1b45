// memory_bus.go - Big-endian RDRAM bus for the Reality Display

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
memory_bus.go - System Bus for the Reality Display

This module implements the bus that every driver and device in the Reality Display talks through. It models the console's RDRAM as a single contiguous block and routes accesses in the register ranges to memory-mapped device handlers.

Core Features:

    8MB of RDRAM allocated as a contiguous block.
    Memory-mapped I/O via a page-keyed region table, the same scheme the rest of the engine uses for peripherals.
    Big-endian 16-bit and 32-bit access, matching the console's byte order.
    Block copies for DMA engines and framebuffer clears.
    KSEG0/KSEG1 segment stripping so drivers can use uncached CPU addresses directly.

Technical Details:

    Page keys are computed with PAGE_MASK over the physical address, with a page size of PAGE_SIZE. A region spanning several pages is registered once per page.
    Device handlers are invoked without the bus lock held. A handler is free to start a DMA that reads or writes RDRAM through the same bus.
    Accesses to unmapped addresses outside RDRAM read as zero and discard writes, like an open bus.

Concurrency:

    A sync.RWMutex protects RDRAM and the region table. Every access takes the lock, so each register read or write is observed exactly once and in program order relative to other bus users.
*/

package main

import (
	"encoding/binary"
	"sync"
)

const (
	PAGE_SIZE = 0x1000
	PAGE_MASK = PHYS_ADDR_MASK &^ (PAGE_SIZE - 1)
)

// MemoryBus is the word-level view of the bus used by the register layer.
type MemoryBus interface {
	Read32(addr uint32) uint32
	Write32(addr uint32, value uint32)
	Reset()
}

type SystemBus struct {
	/*
		SystemBus implements MemoryBus over RDRAM plus a table of
		memory-mapped device regions.
	*/

	memory  []byte
	mutex   sync.RWMutex
	mapping map[uint32][]IORegion
}

type IORegion struct {
	start   uint32
	end     uint32
	onRead  func(addr uint32) uint32
	onWrite func(addr uint32, value uint32)
}

func NewSystemBus() *SystemBus {
	return &SystemBus{
		memory:  make([]byte, RDRAM_SIZE),
		mapping: make(map[uint32][]IORegion),
	}
}

func (bus *SystemBus) MapIO(start, end uint32, onRead func(addr uint32) uint32, onWrite func(addr uint32, value uint32)) {
	/*
		MapIO registers a device region. start and end are inclusive and
		may be given as KSEG addresses; handlers always receive the
		address exactly as the caller issued it, with segment bits intact.
	*/

	region := IORegion{
		start:   PhysAddr(start),
		end:     PhysAddr(end),
		onRead:  onRead,
		onWrite: onWrite,
	}

	bus.mutex.Lock()
	defer bus.mutex.Unlock()

	for page := region.start & PAGE_MASK; page <= region.end&PAGE_MASK; page += PAGE_SIZE {
		bus.mapping[page] = append(bus.mapping[page], region)
	}
}

// findRegion must be called with at least the read lock held.
func (bus *SystemBus) findRegion(phys uint32) (IORegion, bool) {
	for _, region := range bus.mapping[phys&PAGE_MASK] {
		if phys >= region.start && phys <= region.end {
			return region, true
		}
	}
	return IORegion{}, false
}

func inRDRAM(phys uint32, size uint32) bool {
	return uint64(phys)+uint64(size) <= RDRAM_SIZE
}

func (bus *SystemBus) Write32(addr uint32, value uint32) {
	phys := PhysAddr(addr)

	bus.mutex.Lock()
	if region, ok := bus.findRegion(phys); ok {
		bus.mutex.Unlock()
		if region.onWrite != nil {
			region.onWrite(addr, value)
		}
		return
	}
	if inRDRAM(phys, WORD_SIZE) {
		binary.BigEndian.PutUint32(bus.memory[phys:phys+WORD_SIZE], value)
	}
	bus.mutex.Unlock()
}

func (bus *SystemBus) Read32(addr uint32) uint32 {
	phys := PhysAddr(addr)

	bus.mutex.RLock()
	if region, ok := bus.findRegion(phys); ok {
		bus.mutex.RUnlock()
		if region.onRead == nil {
			return 0
		}
		return region.onRead(addr)
	}
	defer bus.mutex.RUnlock()
	if !inRDRAM(phys, WORD_SIZE) {
		return 0
	}
	return binary.BigEndian.Uint32(bus.memory[phys : phys+WORD_SIZE])
}

// Read16 and Write16 reach RDRAM only; the register blocks are word-wide.
func (bus *SystemBus) Read16(addr uint32) uint16 {
	phys := PhysAddr(addr)
	bus.mutex.RLock()
	defer bus.mutex.RUnlock()
	if !inRDRAM(phys, HALFWORD_SIZE) {
		return 0
	}
	return binary.BigEndian.Uint16(bus.memory[phys : phys+HALFWORD_SIZE])
}

func (bus *SystemBus) Write16(addr uint32, value uint16) {
	phys := PhysAddr(addr)
	bus.mutex.Lock()
	defer bus.mutex.Unlock()
	if inRDRAM(phys, HALFWORD_SIZE) {
		binary.BigEndian.PutUint16(bus.memory[phys:phys+HALFWORD_SIZE], value)
	}
}

// ReadBlock copies len(dst) bytes of RDRAM starting at addr. Bytes past
// the end of RDRAM read as zero.
func (bus *SystemBus) ReadBlock(addr uint32, dst []byte) {
	phys := PhysAddr(addr)
	bus.mutex.RLock()
	defer bus.mutex.RUnlock()
	if phys >= RDRAM_SIZE {
		clear(dst)
		return
	}
	n := copy(dst, bus.memory[phys:])
	clear(dst[n:])
}

// WriteBlock copies src into RDRAM starting at addr, dropping bytes past
// the end of RDRAM.
func (bus *SystemBus) WriteBlock(addr uint32, src []byte) {
	phys := PhysAddr(addr)
	bus.mutex.Lock()
	defer bus.mutex.Unlock()
	if phys >= RDRAM_SIZE {
		return
	}
	copy(bus.memory[phys:], src)
}

// Fill32 stores value into count consecutive words starting at addr.
func (bus *SystemBus) Fill32(addr uint32, value uint32, count int) {
	phys := PhysAddr(addr)
	bus.mutex.Lock()
	defer bus.mutex.Unlock()
	for i := range count {
		off := phys + uint32(i*WORD_SIZE)
		if !inRDRAM(off, WORD_SIZE) {
			return
		}
		binary.BigEndian.PutUint32(bus.memory[off:off+WORD_SIZE], value)
	}
}

func (bus *SystemBus) Reset() {
	bus.mutex.Lock()
	defer bus.mutex.Unlock()

	clear(bus.memory)
}
