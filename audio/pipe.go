package audio

import (
	"encoding/binary"
	"io"
	"log"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/vi-studio/constant"
	"github.com/lixenwraith/vi-studio/core"
)

// pipeSink feeds a command-line player when the speaker cannot open
// Writes block on the player's buffer, which paces the render
type pipeSink struct {
	backend *Backend
	out     io.WriteCloser
	cmd     *exec.Cmd
	rate    beep.SampleRate
	frames  int

	mu      sync.Mutex // Held around each pull of the streamer
	done    chan struct{}
	exited  chan struct{}
	broken  atomic.Bool
	wg      sync.WaitGroup
	closing sync.Once
}

func (p *pipeSink) Init(rate beep.SampleRate, bufferSize int) error {
	b, err := DetectBackend(int(rate))
	if err != nil {
		return err
	}
	out, cmd, err := b.open()
	if err != nil {
		return err
	}

	p.backend, p.out, p.cmd = b, out, cmd
	p.rate = rate
	p.frames = max(bufferSize, 1)
	p.done = make(chan struct{})
	p.exited = make(chan struct{})
	p.broken.Store(false)
	p.closing = sync.Once{}

	if cmd == nil {
		close(p.exited)
	} else {
		core.Go(p.monitor)
	}
	log.Printf("audio: streaming through %s", b.Name)
	return nil
}

// monitor marks the sink broken if the player exits on its own
func (p *pipeSink) monitor() {
	defer close(p.exited)
	err := p.cmd.Wait()
	select {
	case <-p.done:
	default:
		p.broken.Store(true)
		log.Printf("audio: %s exited: %v", p.backend.Name, err)
	}
}

func (p *pipeSink) Play(s beep.Streamer) {
	p.wg.Add(1)
	core.Go(func() {
		defer p.wg.Done()
		p.stream(s)
	})
}

// stream pulls s until Close; once the player is gone it keeps pulling in real time so the clock runs on
func (p *pipeSink) stream(s beep.Streamer) {
	buf := make([][2]float64, p.frames)
	raw := make([]byte, p.frames*constant.AudioBytesPerFrame)
	chunk := p.rate.D(p.frames)

	for {
		select {
		case <-p.done:
			return
		default:
		}

		p.mu.Lock()
		n, ok := s.Stream(buf)
		p.mu.Unlock()
		if !ok {
			return
		}

		if p.broken.Load() {
			time.Sleep(chunk)
			continue
		}
		framesToBytes(buf[:n], raw)
		if _, err := p.out.Write(raw[:n*constant.AudioBytesPerFrame]); err != nil {
			if !p.broken.Swap(true) {
				log.Printf("audio: %s pipe closed: %v", p.backend.Name, err)
			}
		}
	}
}

func (p *pipeSink) Lock()   { p.mu.Lock() }
func (p *pipeSink) Unlock() { p.mu.Unlock() }

// Close stops streaming and lets the player drain, killing it after PipeCloseTimeout
func (p *pipeSink) Close() {
	p.closing.Do(func() {
		close(p.done)
		p.out.Close()
		p.wg.Wait()

		select {
		case <-p.exited:
		case <-time.After(constant.PipeCloseTimeout):
			if p.cmd != nil && p.cmd.Process != nil {
				p.cmd.Process.Kill()
			}
			<-p.exited
		}
	})
}

// framesToBytes converts stereo frames to interleaved s16le, soft limiting above the knee before the hard clip
func framesToBytes(in [][2]float64, out []byte) {
	for i, f := range in {
		for ch, v := range f {
			binary.LittleEndian.PutUint16(out[i*4+ch*2:], uint16(int16(softLimit(v)*32767)))
		}
	}
}

func softLimit(v float64) float64 {
	const knee = constant.SoftLimitKnee
	if v > knee {
		v = knee + (1-knee)*(1-1/(1+(v-knee)*5))
	} else if v < -knee {
		v = -knee - (1-knee)*(1-1/(1+(-v-knee)*5))
	}
	return max(-1, min(v, 1))
}
