// main.go - Entry point for the Reality Display

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
	"errors"
	"flag"
	"fmt"
	"os"

	"golang.org/x/term"
)

const bannerTitle = "R E A L I T Y   D I S P L A Y"

func boilerPlate(colour bool) {
	if colour {
		// Pink-to-yellow ramp, one step per character.
		fmt.Print("\n")
		for i, r := range bannerTitle {
			g := 20 + i*235/len(bannerTitle)
			fmt.Printf("\033[38;2;255;%d;147m%c", g, r)
		}
		fmt.Print("\033[0m\n")
	} else {
		fmt.Printf("\n%s\n", bannerTitle)
	}
	fmt.Printf("\nDual-target fixed-function display pipeline, version %s\n", Version)
	fmt.Println("(c) 2024 - 2026 Zayn Otley")
	fmt.Println("License: GPLv3 or later")
}

func main() {
	cfg, err := ParseConfig(os.Args[1:], os.Stdout)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	boilerPlate(term.IsTerminal(int(os.Stdout.Fd())))

	if cfg.Features {
		printFeatures()
		return
	}
	if cfg.SelfTest {
		if err := selfTest(cfg); err != nil {
			fmt.Printf("selftest: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("selftest: ok")
		return
	}

	var scene *Scene
	if cfg.Scene == "" {
		scene, err = DemoScene()
	} else {
		scene, err = LoadScene(cfg.Scene)
	}
	if err != nil {
		fmt.Printf("Failed to load scene: %v\n", err)
		os.Exit(1)
	}
	defer scene.Close()
	if cfg.Watch {
		if err := scene.Watch(); err != nil {
			fmt.Printf("Failed to watch scene: %v\n", err)
			os.Exit(1)
		}
	}

	loop, err := NewFrameLoop(cfg, scene)
	if err != nil {
		fmt.Printf("Failed to initialize graphics: %v\n", err)
		os.Exit(1)
	}
	defer loop.Close()
	fmt.Printf("backend: %s, scene: %s\n", loop.Backend().Name(), scene.Name())

	if cfg.Record > 0 {
		if err := RecordFrames(loop, cfg.Out, cfg.Record, term.IsTerminal(int(os.Stderr.Fd()))); err != nil {
			fmt.Printf("Recording failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %d frames to %s\n", cfg.Record, cfg.Out)
		fmt.Println(loop.Summary())
		return
	}

	if err := runDisplay(cfg, loop); err != nil {
		fmt.Printf("Display error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(loop.Summary())
}

// runDisplay presents frames in a window until it closes or the -frames
// budget is spent. The hardware path is paced by the VI's vblank; the
// emulation path by the window's vsync.
func runDisplay(cfg Config, loop *FrameLoop) error {
	out, err := NewVideoOutput(DisplayConfig{
		Width:       SCREEN_WIDTH,
		Height:      SCREEN_HEIGHT,
		Scale:       cfg.Scale,
		RefreshRate: 60,
		VSync:       true,
		Fullscreen:  cfg.Fullscreen,
	})
	if err != nil {
		return err
	}
	if err := out.Start(); err != nil {
		return &VideoError{Operation: "start", Details: "display window", Err: err}
	}
	defer out.Close()

	rgba := make([]byte, SCREEN_WIDTH*SCREEN_HEIGHT*4)
	paced := cfg.Backend == BACKEND_HARDWARE
	for cfg.Frames == 0 || loop.Frames() < uint64(cfg.Frames) {
		select {
		case <-out.Done():
			return nil
		default:
		}
		loop.Step()
		loop.Shown().RGBA8(rgba)
		out.UpdateFrame(rgba)
		out.SetStatus(loop.Status())
		if !paced {
			out.WaitForVSync()
		}
	}
	return nil
}

// selfTest brings up a console and checks the RSP round trips.
func selfTest(cfg Config) error {
	console := NewConsole()
	gfx, err := NewGraphics(console.Bus, cfg.VideoMode())
	if err != nil {
		return err
	}
	if err := gfx.RSPHelloWorld(); err != nil {
		return err
	}
	fmt.Println("selftest: rsp hello world ok")

	input := make([]byte, RSP_INPUT_CAPACITY)
	for i := range input {
		input[i] = byte(i*7 + 3)
	}
	if _, err := gfx.RSPEcho(input); err != nil {
		return err
	}
	fmt.Printf("selftest: rsp echo ok (%s)\n", console.RSP)
	return nil
}
