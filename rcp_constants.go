/*
rcp_constants.go - Register map and memory layout for the Reality Display

All register addresses are uncached KSEG1 addresses as seen by the CPU. The
system bus strips the segment bits before decoding, so KSEG0 (0x80000000)
and physical addresses reach the same location.

Memory Map (physical):

	0x00000000 - 0x007FFFFF   RDRAM (8MB)
	  0x00300000              RSP DMA staging area (8KB)
	  0x00369FFC              Framebuffer 0 (FRAME_BUFFER_SIZE bytes)
	  0x003B4FFC              Framebuffer 1
	  0x00600000              RDP display list (1MB)
	  0x00700000              Texture upload area (1MB)
	0x04000000 - 0x04000FFF   SP DMEM
	0x04001000 - 0x04001FFF   SP IMEM
	0x04040000 - 0x0404001F   SP DMA and status registers
	0x04080000                SP PC
	0x04100000 - 0x04100013   DP command registers
	0x04400000 - 0x04400037   VI registers
*/

package main

// Address translation
const (
	KSEG0_BASE      = 0x80000000
	KSEG1_BASE      = 0xA0000000
	PHYS_ADDR_MASK  = 0x1FFFFFFF
	RDRAM_SIZE      = 8 * 1024 * 1024
	WORD_SIZE       = 4
	HALFWORD_SIZE   = 2
	DOUBLEWORD_SIZE = 8
)

// Video mode
const (
	SCREEN_WIDTH      = 320
	SCREEN_HEIGHT     = 240
	FRAME_BUFFER_SIZE = SCREEN_WIDTH * SCREEN_HEIGHT * 4
	FRAME_BUFFER_BASE = 0xA0400000 - 2*FRAME_BUFFER_SIZE - 4
	FRAME_BUFFER_FILL = 0x00010001 // two opaque black RGBA5551 pixels
	BACKGROUND_PIXEL  = 0x0001
	BACKGROUND_RGBA   = 0x000000FF
	PIXEL_BYTES       = 2
)

// VI registers
const (
	VI_BASE        = 0xA4400000
	VI_STATUS      = VI_BASE + 0x00
	VI_ORIGIN      = VI_BASE + 0x04 // VI_DRAM_ADDR
	VI_H_WIDTH     = VI_BASE + 0x08
	VI_V_INTR      = VI_BASE + 0x0C
	VI_CURRENT     = VI_BASE + 0x10
	VI_TIMING      = VI_BASE + 0x14
	VI_V_SYNC      = VI_BASE + 0x18
	VI_H_SYNC      = VI_BASE + 0x1C
	VI_H_SYNC_LEAP = VI_BASE + 0x20
	VI_H_VIDEO     = VI_BASE + 0x24
	VI_V_VIDEO     = VI_BASE + 0x28
	VI_V_BURST     = VI_BASE + 0x2C
	VI_X_SCALE     = VI_BASE + 0x30
	VI_Y_SCALE     = VI_BASE + 0x34
	VI_END         = VI_Y_SCALE + 3
	VI_REG_COUNT   = (VI_END - VI_BASE + 1) / WORD_SIZE
)

// VI programme for NTSC 320x240 16bpp
const (
	VI_NTSC_STATUS      = 0x0000320E
	VI_NTSC_V_INTR      = 2
	VI_NTSC_TIMING      = 0x03E52239
	VI_NTSC_V_SYNC      = 0x0000020D
	VI_NTSC_H_SYNC      = 0x00000C15
	VI_NTSC_H_SYNC_LEAP = 0x0C150C15
	VI_NTSC_H_VIDEO     = 0x006C02EC
	VI_NTSC_V_VIDEO     = 0x002501FF
	VI_NTSC_V_BURST     = 0x000E0204
	VI_NTSC_X_SCALE     = 0x00000200
	VI_NTSC_Y_SCALE     = 0x00000400
	VI_NTSC_REFRESH_HZ  = 60

	VI_STATUS_TYPE_MASK = 0x3
	VI_STATUS_TYPE_16   = 0x2
	VI_STATUS_TYPE_32   = 0x3

	VI_VBLANK_HALFLINE = 10 // VI_CURRENT at or below this is inside vblank
)

// SP (RSP) memory and registers
const (
	SP_DMEM       = 0xA4000000
	SP_IMEM       = 0xA4001000
	SP_MEM_SIZE   = 0x1000
	SP_MEM_END    = SP_IMEM + SP_MEM_SIZE - 1
	SP_IMEM_FLAG  = 0x1000 // SP_MEM_ADDR bit selecting IMEM
	SP_REG_BASE   = 0xA4040000
	SP_MEM_ADDR   = SP_REG_BASE + 0x00
	SP_DRAM_ADDR  = SP_REG_BASE + 0x04
	SP_RD_LEN     = SP_REG_BASE + 0x08 // RDRAM -> SP memory
	SP_WR_LEN     = SP_REG_BASE + 0x0C // SP memory -> RDRAM
	SP_STATUS     = SP_REG_BASE + 0x10
	SP_DMA_FULL   = SP_REG_BASE + 0x14
	SP_DMA_BUSY   = SP_REG_BASE + 0x18
	SP_SEMAPHORE  = SP_REG_BASE + 0x1C
	SP_REG_END    = SP_SEMAPHORE + 3
	SP_PC         = 0xA4080000
	SP_PC_END     = SP_PC + 3
	SP_DMA_MAXLEN = 0xFFF

	// SP_STATUS read bits
	SP_STATUS_HALT       = 0x0001
	SP_STATUS_BROKE      = 0x0002
	SP_STATUS_DMA_BUSY   = 0x0004
	SP_STATUS_DMA_FULL   = 0x0008
	SP_STATUS_IO_FULL    = 0x0010
	SP_STATUS_SSTEP      = 0x0020
	SP_STATUS_INTR_BREAK = 0x0040

	// SP_STATUS write bits
	SP_CLR_HALT       = 0x0001
	SP_SET_HALT       = 0x0002
	SP_CLR_BROKE      = 0x0004
	SP_CLR_INTR       = 0x0008
	SP_SET_INTR       = 0x0010
	SP_CLR_SSTEP      = 0x0020
	SP_SET_SSTEP      = 0x0040
	SP_CLR_INTR_BREAK = 0x0080
	SP_SET_INTR_BREAK = 0x0100
)

// RSP task layout
const (
	RSP_ENTRY_PC       = 0x000
	RSP_IMEM_CAPACITY  = SP_MEM_SIZE
	RSP_INPUT_OFFSET   = 0x800
	RSP_INPUT_CAPACITY = SP_MEM_SIZE - RSP_INPUT_OFFSET
	RSP_OUTPUT_OFFSET  = 0x000
	RSP_STAGING_ADDR   = 0xA0300000
)

// DP (RDP) command registers
const (
	DPC_BASE    = 0xA4100000
	DPC_START   = DPC_BASE + 0x00
	DPC_END     = DPC_BASE + 0x04
	DPC_CURRENT = DPC_BASE + 0x08
	DPC_STATUS  = DPC_BASE + 0x0C
	DPC_CLOCK   = DPC_BASE + 0x10
	DPC_REG_END = DPC_CLOCK + 3

	// DPC_STATUS read bits
	DPC_STATUS_XBUS_DMEM_DMA = 0x0001
	DPC_STATUS_FREEZE        = 0x0002
	DPC_STATUS_FLUSH         = 0x0004
	DPC_STATUS_START_GCLK    = 0x0008
	DPC_STATUS_TMEM_BUSY     = 0x0010
	DPC_STATUS_PIPE_BUSY     = 0x0020
	DPC_STATUS_CMD_BUSY      = 0x0040
	DPC_STATUS_CBUF_READY    = 0x0080
	DPC_STATUS_DMA_BUSY      = 0x0100
	DPC_STATUS_END_VALID     = 0x0200
	DPC_STATUS_START_VALID   = 0x0400

	// DPC_STATUS write bits
	DPC_CLR_XBUS_DMEM_DMA = 0x0001
	DPC_SET_XBUS_DMEM_DMA = 0x0002
	DPC_CLR_FREEZE        = 0x0004
	DPC_SET_FREEZE        = 0x0008
	DPC_CLR_FLUSH         = 0x0010
	DPC_SET_FLUSH         = 0x0020

	DPC_BUSY_MASK = DPC_STATUS_PIPE_BUSY | DPC_STATUS_CMD_BUSY
)

// RDP display list opcodes (bits 56..61 of the first command word)
const (
	RDP_CMD_VERTEX_TRIANGLE   = 0x0F
	RDP_CMD_SYNC_FULL         = 0x29
	RDP_CMD_SET_OTHER_MODES   = 0x2F
	RDP_CMD_SET_TILE_SIZE     = 0x32
	RDP_CMD_FILL_RECTANGLE    = 0x36
	RDP_CMD_SET_FILL_COLOR    = 0x37
	RDP_CMD_SET_PRIM_COLOR    = 0x3A
	RDP_CMD_SET_COMBINE       = 0x3C
	RDP_CMD_SET_TEXTURE_IMAGE = 0x3D
	RDP_CMD_SET_Z_IMAGE       = 0x3E
	RDP_CMD_SET_COLOR_IMAGE   = 0x3F

	RDP_VERTEX_TRIANGLE_WORDS = 1 + 3*3

	// SET_OTHER_MODES flags
	RDP_MODE_Z_COMPARE = 1 << 4
	RDP_MODE_Z_UPDATE  = 1 << 5
	RDP_MODE_BLEND     = 1 << 14
	RDP_MODE_TEXTURE   = 1 << 16

	// Image formats for SET_COLOR_IMAGE / SET_TEXTURE_IMAGE
	RDP_FMT_RGBA = 0
	RDP_SIZ_16B  = 2
)

// RDRAM work areas
const (
	ZBUFFER_ADDR      = 0xA0500000
	RDP_DL_ADDR       = 0xA0600000
	RDP_DL_SIZE       = 0x100000
	TEXTURE_AREA_ADDR = 0xA0700000
	TEXTURE_AREA_SIZE = 0x100000

	DEPTH_FAR_BITS = 0x3F800000 // float32(1.0), fill colour that clears the z image
)

// PhysAddr strips the KSEG segment bits from a CPU address.
func PhysAddr(addr uint32) uint32 {
	return addr & PHYS_ADDR_MASK
}
