package audio

import (
	"io"
	"os"
	"os/exec"
	"runtime"
	"strconv"

	"github.com/pkg/errors"

	"github.com/lixenwraith/vi-studio/constant"
)

// BackendType identifies a command-line audio player
type BackendType int

const (
	BackendPulse BackendType = iota
	BackendPipeWire
	BackendALSA
	BackendSoX
	BackendFFplay
	BackendOSS
)

var ErrNoAudioBackend = errors.New("no compatible audio backend found")

// Backend is a player that accepts raw s16le stereo on stdin, or a device file for OSS
type Backend struct {
	Type BackendType
	Name string
	Path string
	Args []string
}

type backendSpec struct {
	typ  BackendType
	name string
	args func(rate, latencyMs string) []string
}

// backendSpecs in priority order: pacat > pw-cat > aplay > play (sox) > ffplay
var backendSpecs = []backendSpec{
	{BackendPulse, "pacat", func(rate, lat string) []string {
		return []string{"--raw", "--format=s16le", "--rate=" + rate, "--channels=2", "--latency-msec=" + lat, "--playback"}
	}},
	{BackendPipeWire, "pw-cat", func(rate, lat string) []string {
		return []string{"--playback", "--format=s16", "--rate=" + rate, "--channels=2", "--latency=" + lat + "ms", "-"}
	}},
	{BackendALSA, "aplay", func(rate, _ string) []string {
		return []string{"-t", "raw", "-f", "S16_LE", "-r", rate, "-c", "2", "-q"}
	}},
	{BackendSoX, "play", func(rate, _ string) []string {
		return []string{"-t", "raw", "-e", "signed", "-b", "16", "-c", "2", "-r", rate, "-", "-d", "-q"}
	}},
	{BackendFFplay, "ffplay", func(rate, _ string) []string {
		return []string{"-nodisp", "-autoexit", "-f", "s16le", "-ac", "2", "-ar", rate,
			"-probesize", "32", "-analyzeduration", "0", "-i", "pipe:0", "-loglevel", "quiet"}
	}},
}

// DetectBackend finds the first installed player able to take rate
func DetectBackend(rate int) (*Backend, error) {
	r := strconv.Itoa(rate)
	lat := strconv.Itoa(int(constant.PipeLatency.Milliseconds()))
	for _, spec := range backendSpecs {
		if path, err := exec.LookPath(spec.name); err == nil {
			return &Backend{Type: spec.typ, Name: spec.name, Path: path, Args: spec.args(r, lat)}, nil
		}
	}

	// FreeBSD OSS takes writes on the device itself
	if runtime.GOOS == "freebsd" {
		if _, err := os.Stat("/dev/dsp"); err == nil {
			return &Backend{Type: BackendOSS, Name: "oss", Path: "/dev/dsp"}, nil
		}
	}
	return nil, ErrNoAudioBackend
}

// open starts the player; cmd is nil for OSS
func (b *Backend) open() (io.WriteCloser, *exec.Cmd, error) {
	if b.Type == BackendOSS {
		f, err := os.OpenFile(b.Path, os.O_WRONLY, 0)
		if err != nil {
			return nil, nil, errors.Wrap(err, "open oss device")
		}
		return f, nil, nil
	}

	cmd := exec.Command(b.Path, b.Args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, errors.Wrapf(err, "%s stdin", b.Name)
	}
	if err := cmd.Start(); err != nil {
		stdin.Close()
		return nil, nil, errors.Wrapf(err, "start %s", b.Name)
	}
	return stdin, cmd, nil
}
