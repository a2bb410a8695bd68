package audio

import (
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"testing"
)

// fakePlayer installs an executable named name on an otherwise empty PATH, so scripts use absolute paths
func fakePlayer(t *testing.T, name, script string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0755); err != nil {
		t.Fatalf("write fake player: %v", err)
	}
	t.Setenv("PATH", dir)
	return path
}

func TestDetectBackendPicksInstalledPlayer(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script players")
	}
	path := fakePlayer(t, "aplay", "/bin/cat > /dev/null")

	b, err := DetectBackend(22050)
	if err != nil {
		t.Fatalf("DetectBackend: %v", err)
	}
	if b.Type != BackendALSA || b.Path != path {
		t.Errorf("Expected aplay at %s, got %s at %s", path, b.Name, b.Path)
	}
	if i := slices.Index(b.Args, "-r"); i < 0 || b.Args[i+1] != "22050" {
		t.Errorf("Expected rate 22050 in args, got %v", b.Args)
	}
}

func TestDetectBackendPriority(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script players")
	}
	dir := t.TempDir()
	for _, name := range []string{"aplay", "pacat"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"), 0755); err != nil {
			t.Fatal(err)
		}
	}
	t.Setenv("PATH", dir)

	b, err := DetectBackend(44100)
	if err != nil {
		t.Fatalf("DetectBackend: %v", err)
	}
	if b.Type != BackendPulse {
		t.Errorf("Expected pacat ahead of aplay, got %s", b.Name)
	}
	if !slices.Contains(b.Args, "--rate=44100") || !slices.Contains(b.Args, "--latency-msec=50") {
		t.Errorf("Expected rate and latency in args, got %v", b.Args)
	}
}

func TestDetectBackendNone(t *testing.T) {
	if runtime.GOOS == "freebsd" {
		t.Skip("OSS device may exist")
	}
	t.Setenv("PATH", t.TempDir())
	if _, err := DetectBackend(44100); err != ErrNoAudioBackend {
		t.Errorf("Expected ErrNoAudioBackend, got %v", err)
	}
}
