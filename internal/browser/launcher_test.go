package browser

import (
	"net"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"testing"
)

func TestLaunch_SkipsWhenCDPPortBusy(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer func() { _ = ln.Close() }()
	port := ln.Addr().(*net.TCPAddr).Port

	l := NewLauncher(Config{
		BinaryPath: filepath.Join(t.TempDir(), "missing-browser"),
		CDPAddress: "127.0.0.1",
		CDPPort:    port,
		ProfileDir: t.TempDir(),
	})
	if err := l.Launch(t.Context()); err != nil {
		t.Fatalf("Launch() error = %v; want nil when CDP is already listening", err)
	}
	if l.Running() {
		t.Fatalf("Running() = true; want false for an external browser")
	}
	l.Stop()
}

func TestDetectBrowser_Override(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "chromium")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write fake binary: %v", err)
	}
	got, err := detectBrowser(bin)
	if err != nil || got != bin {
		t.Fatalf("detectBrowser() = %q, %v; want %q, nil", got, err, bin)
	}

	if _, err := detectBrowser(bin + "-missing"); err == nil {
		t.Fatalf("detectBrowser() error = nil; want missing binary error")
	}
}

func TestArgs(t *testing.T) {
	l := NewLauncher(Config{CDPAddress: "127.0.0.1", CDPPort: 9222, ProfileDir: "/tmp/p", Headless: true})
	args := l.args()

	for _, want := range []string{
		"--remote-debugging-port=" + strconv.Itoa(9222),
		"--user-data-dir=/tmp/p",
		"--window-size=1280,800",
		"--headless=new",
	} {
		if !slices.Contains(args, want) {
			t.Fatalf("args() = %v; want %q", args, want)
		}
	}
	if args[len(args)-1] != "about:blank" {
		t.Fatalf("args() last = %q; want about:blank", args[len(args)-1])
	}
}
