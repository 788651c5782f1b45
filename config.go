// config.go - Configuration for the Reality Display

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
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	BACKEND_HARDWARE  = "hardware"
	BACKEND_EMULATION = "emulation"
)

// Config is the run configuration. A YAML file given with -config supplies
// defaults; command-line flags override it.
type Config struct {
	Backend    string `yaml:"backend"`
	Software   bool   `yaml:"software"`
	Scene      string `yaml:"scene"`
	Watch      bool   `yaml:"watch"`
	Standard   string `yaml:"standard"`
	Scale      int    `yaml:"scale"`
	Fullscreen bool   `yaml:"fullscreen"`
	Frames     int    `yaml:"frames"`
	Record     int    `yaml:"record"`
	Out        string `yaml:"out"`

	ConfigFile string `yaml:"-"`
	SelfTest   bool   `yaml:"-"`
	Features   bool   `yaml:"-"`
	DumpDL     bool   `yaml:"-"`
}

func DefaultConfig() Config {
	return Config{
		Backend:  BACKEND_EMULATION,
		Standard: "ntsc",
		Scale:    2,
		Out:      "frames",
	}
}

func bindFlags(fs *flag.FlagSet, c *Config) {
	fs.StringVar(&c.ConfigFile, "config", c.ConfigFile, "YAML config file (flags override it)")
	fs.StringVar(&c.Backend, "backend", c.Backend, "Render backend: hardware or emulation")
	fs.BoolVar(&c.Software, "software", c.Software, "Use the software renderer for the emulation backend")
	fs.StringVar(&c.Scene, "scene", c.Scene, "Lua scene file (default: built-in demo)")
	fs.BoolVar(&c.Watch, "watch", c.Watch, "Reload the scene file when it changes")
	fs.StringVar(&c.Standard, "standard", c.Standard, "TV standard: ntsc, pal or mpal")
	fs.IntVar(&c.Scale, "scale", c.Scale, "Window scale factor")
	fs.BoolVar(&c.Fullscreen, "fullscreen", c.Fullscreen, "Start fullscreen")
	fs.IntVar(&c.Frames, "frames", c.Frames, "Stop after n frames (0 runs until the window closes)")
	fs.IntVar(&c.Record, "record", c.Record, "Render n frames headless and write them as PNG")
	fs.StringVar(&c.Out, "out", c.Out, "Output directory for -record")
	fs.BoolVar(&c.SelfTest, "selftest", c.SelfTest, "Run the RSP hello world and echo checks and exit")
	fs.BoolVar(&c.Features, "features", c.Features, "Print compiled features and exit")
	fs.BoolVar(&c.DumpDL, "dump-dl", c.DumpDL, "Print the first hardware display list")
}

// ParseConfig reads flags from args, loading the -config file first when
// one is named. It returns flag.ErrHelp for -h.
func ParseConfig(args []string, usage io.Writer) (Config, error) {
	// First pass only finds -config.
	probe := DefaultConfig()
	fs := flag.NewFlagSet("reality", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	bindFlags(fs, &probe)
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			fs.SetOutput(usage)
			fmt.Fprintln(usage, "Usage: reality [flags]")
			fs.PrintDefaults()
		}
		return Config{}, err
	}

	cfg := DefaultConfig()
	if probe.ConfigFile != "" {
		data, err := os.ReadFile(probe.ConfigFile)
		if err != nil {
			return Config{}, err
		}
		if err := LoadConfigYAML(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("%s: %w", probe.ConfigFile, err)
		}
	}

	fs = flag.NewFlagSet("reality", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	bindFlags(fs, &cfg)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 0 && cfg.Scene == "" {
		cfg.Scene = fs.Arg(0)
	}
	return cfg, cfg.Validate()
}

// LoadConfigYAML overlays the keys present in data onto cfg.
func LoadConfigYAML(data []byte, cfg *Config) error {
	return yaml.Unmarshal(data, cfg)
}

func (c *Config) Validate() error {
	c.Backend = strings.ToLower(c.Backend)
	switch c.Backend {
	case BACKEND_HARDWARE, BACKEND_EMULATION:
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BACKEND_HARDWARE, BACKEND_EMULATION)
	}
	if c.Frames < 0 || c.Record < 0 {
		return fmt.Errorf("frame counts must not be negative")
	}
	if c.Watch && c.Scene == "" {
		return fmt.Errorf("-watch needs a -scene file")
	}
	if _, err := parseTVStandard(c.Standard); err != nil {
		return err
	}
	c.Scale = ClampScale(c.Scale)
	return nil
}

func parseTVStandard(s string) (TVStandard, error) {
	switch strings.ToLower(s) {
	case "ntsc", "":
		return TVStandardNTSC, nil
	case "pal":
		return TVStandardPAL, nil
	case "mpal":
		return TVStandardMPAL, nil
	}
	return 0, fmt.Errorf("unknown TV standard %q", s)
}

// VideoMode is the mode the VI is asked for. Only NTSC is supported by the
// driver; the others fail at init with a VideoError.
func (c Config) VideoMode() VideoMode {
	std, _ := parseTVStandard(c.Standard)
	m := VideoModeNTSC320x240
	m.Standard = std
	return m
}
