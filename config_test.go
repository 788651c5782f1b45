package main

import (
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfig_Defaults(t *testing.T) {
	cfg, err := ParseConfig(nil, io.Discard)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.Backend != BACKEND_EMULATION || cfg.Scale != 2 || cfg.Out != "frames" {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.VideoMode() != VideoModeNTSC320x240 {
		t.Fatalf("default video mode %s", cfg.VideoMode())
	}
}

func TestConfig_FileThenFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reality.yaml")
	yml := "backend: hardware\nscale: 4\nframes: 120\nout: shots\n"
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := ParseConfig([]string{"-config", path, "-scale", "3", "scenes/demo.lua"}, io.Discard)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.Backend != BACKEND_HARDWARE || cfg.Frames != 120 || cfg.Out != "shots" {
		t.Errorf("file values lost: %+v", cfg)
	}
	if cfg.Scale != 3 {
		t.Errorf("flag did not override file: scale %d", cfg.Scale)
	}
	if cfg.Scene != "scenes/demo.lua" {
		t.Errorf("positional scene = %q", cfg.Scene)
	}
}

func TestConfig_Rejects(t *testing.T) {
	cases := map[string][]string{
		"backend":        {"-backend", "vulkan"},
		"negative":       {"-record", "-1"},
		"watch no scene": {"-watch"},
		"standard":       {"-standard", "secam"},
		"unknown flag":   {"-turbo"},
	}
	for name, args := range cases {
		if _, err := ParseConfig(args, io.Discard); err == nil {
			t.Errorf("%s: accepted %v", name, args)
		}
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("scale: [1"), 0o644)
	if _, err := ParseConfig([]string{"-config", path}, io.Discard); err == nil {
		t.Error("malformed YAML accepted")
	}
}

func TestConfig_HelpAndNormalisation(t *testing.T) {
	var usage strings.Builder
	_, err := ParseConfig([]string{"-h"}, &usage)
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("-h err = %v", err)
	}
	if !strings.Contains(usage.String(), "-backend") {
		t.Errorf("usage does not list flags:\n%s", usage.String())
	}

	cfg, err := ParseConfig([]string{"-backend", "HARDWARE", "-scale", "99", "-standard", "pal"}, io.Discard)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.Backend != BACKEND_HARDWARE || cfg.Scale != MAX_DISPLAY_SCALE {
		t.Errorf("not normalised: %+v", cfg)
	}
	if cfg.VideoMode().Standard != TVStandardPAL {
		t.Errorf("standard %s", cfg.VideoMode().Standard)
	}
}
