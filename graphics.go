// graphics.go - Graphics subsystem bring-up for the Reality Display

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
	"bytes"
	"encoding/binary"
	"fmt"
	"time"
)

// Console is the register-level machine: RDRAM on the system bus plus the
// VI, RSP and RDP devices mapped into it.
type Console struct {
	Bus *SystemBus
	VI  *VIDevice
	RSP *RSPDevice
	RDP *RDPDevice
}

func NewConsole() *Console {
	bus := NewSystemBus()
	c := &Console{
		Bus: bus,
		VI:  NewVIDevice(bus),
		RSP: NewRSPDevice(bus),
		RDP: NewRDPDevice(bus),
	}
	c.VI.Map(bus)
	c.RSP.Map(bus)
	c.RDP.Map(bus)
	return c
}

// Graphics owns the drivers the frame loop needs on hardware and sequences
// the end of a frame.
type Graphics struct {
	Bus *SystemBus
	VI  *VideoInterface
	RSP *RSPDriver
	RDP *RDPDriver

	frames uint64
}

// NewGraphics initialises the video interface for mode and attaches the
// coprocessor drivers. Only the video mode can fail.
func NewGraphics(bus *SystemBus, mode VideoMode) (*Graphics, error) {
	vi, err := NewVideoInterface(bus, mode)
	if err != nil {
		return nil, err
	}
	return &Graphics{
		Bus: bus,
		VI:  vi,
		RSP: NewRSPDriver(bus),
		RDP: NewRDPDriver(bus),
	}, nil
}

// SwapBuffers ends the frame: it waits for the RDP to finish writing the
// write target, waits for vblank, then flips. It returns the time spent
// waiting for vblank.
func (g *Graphics) SwapBuffers() time.Duration {
	g.RDP.WaitForDone()
	start := time.Now()
	g.VI.WaitForVBlank()
	waited := time.Since(start)
	g.VI.SwapBuffers()
	g.frames++
	return waited
}

func (g *Graphics) Frames() uint64 {
	return g.frames
}

// RSPHelloWorld runs the built-in hello world microcode and checks every
// DMEM word it wrote.
func (g *Graphics) RSPHelloWorld() error {
	if err := g.RSP.LoadAndRun(HelloWorldMicrocode, nil); err != nil {
		return err
	}
	g.RSP.WaitForDone()

	out := make([]byte, SP_MEM_SIZE)
	g.RSP.ReadOutput(out)
	for i := range SP_MEM_SIZE / WORD_SIZE {
		if got := binary.BigEndian.Uint32(out[i*WORD_SIZE:]); got != uint32(i) {
			return &CoprocessorError{
				Operation: "hello world",
				Details:   fmt.Sprintf("DMEM word %d = 0x%08X, want 0x%08X", i, got, i),
			}
		}
	}
	return nil
}

// RSPEcho runs the echo microcode on input and returns the output segment.
// With a working RSP the first len(input) bytes equal input.
func (g *Graphics) RSPEcho(input []byte) ([]byte, error) {
	if err := g.RSP.LoadAndRun(EchoMicrocode, input); err != nil {
		return nil, err
	}
	g.RSP.WaitForDone()

	out := make([]byte, RSP_INPUT_CAPACITY)
	g.RSP.ReadOutput(out)
	if !bytes.Equal(out[:len(input)], input) {
		return out, &CoprocessorError{
			Operation: "echo",
			Details:   fmt.Sprintf("%d input bytes did not round trip", len(input)),
		}
	}
	return out, nil
}
