// vi-render plays a drum pattern or a saved take through the studio offline and writes a WAV file
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/lixenwraith/vi-studio/audio"
	"github.com/lixenwraith/vi-studio/constant"
	"github.com/lixenwraith/vi-studio/recorder"
	"github.com/lixenwraith/vi-studio/sequencer"
	"github.com/lixenwraith/vi-studio/status"
	"github.com/lixenwraith/vi-studio/studio"
)

type options struct {
	pattern string
	bars    int
	bpm     int
	rate    int
	seed    uint64
	take    string
	out     string
}

func main() {
	var opts options
	flag.StringVar(&opts.pattern, "pattern", "basic", "Drum pattern to loop")
	flag.IntVar(&opts.bars, "bars", 2, "Times the pattern loops")
	flag.IntVar(&opts.bpm, "bpm", constant.DefaultBPM, "Tempo")
	flag.IntVar(&opts.rate, "rate", constant.AudioSampleRate, "Sample rate in Hz")
	flag.Uint64Var(&opts.seed, "seed", 1, "Jitter seed")
	flag.StringVar(&opts.take, "take", "", "Render a saved piano or synth take instead of a pattern")
	flag.StringVar(&opts.out, "out", "vi-render.wav", "Output WAV file")
	list := flag.Bool("list", false, "List drum patterns and exit")
	flag.Parse()

	if *list {
		for _, name := range sequencer.Names() {
			fmt.Println(name)
		}
		return
	}

	d, err := render(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vi-render: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s (%.2fs)\n", opts.out, d.Seconds())
}

// render schedules the material on a fresh studio and writes it plus a tail, returning the written length
func render(opts options) (time.Duration, error) {
	ctx, err := audio.NewContext(audio.Options{SampleRate: opts.rate})
	if err != nil {
		return 0, err
	}
	defer ctx.Close()

	cfg := studio.DefaultConfig()
	cfg.SampleRate = opts.rate
	cfg.BPM = opts.bpm
	cfg.Seed = opts.seed
	cfg.Enabled = false

	s, err := studio.New(ctx, cfg, status.NewRegistry())
	if err != nil {
		return 0, err
	}
	defer s.Stop()
	if err := s.Start(); err != nil {
		return 0, err
	}

	var length time.Duration
	if opts.take != "" {
		length, err = scheduleTake(s, opts.take)
	} else {
		length, err = schedulePattern(s, opts.pattern, opts.bars)
	}
	if err != nil {
		return 0, err
	}

	f, err := os.Create(opts.out)
	if err != nil {
		return 0, errors.Wrap(err, "create output")
	}
	defer f.Close()

	total := length + constant.RenderTail
	if err := audio.WriteWAV(f, ctx, total); err != nil {
		os.Remove(opts.out)
		return 0, err
	}
	return total, nil
}

// schedulePattern loops the named pattern bars times and stops the drums after the last step
func schedulePattern(s *studio.Studio, name string, bars int) (time.Duration, error) {
	p, err := sequencer.Lookup(name)
	if err != nil {
		return 0, err
	}
	if err := s.Drums.SetPattern(name); err != nil {
		return 0, err
	}
	length := patternLength(p, s.BPM(), bars)
	s.Drums.Play()

	// Steps fire one interval after their slot opens, so the stop lands half a step past the last hit
	ctx := s.Context()
	step := patternLength(p, s.BPM(), 1) / time.Duration(p.Len())
	ctx.At(ctx.CurrentTime()+(length+step+step/2).Seconds(), s.Drums.Stop)
	return length + step, nil
}

// patternLength is the time bars loops of p take at bpm
func patternLength(p *sequencer.Pattern, bpm, bars int) time.Duration {
	if p.Len() == 0 || p.StepsPerBeat <= 0 || bpm <= 0 || bars <= 0 {
		return 0
	}
	return time.Duration(bars*p.Len()) * time.Minute / time.Duration(bpm*p.StepsPerBeat)
}

// scheduleTake plays a saved take on the instrument that recorded it
func scheduleTake(s *studio.Studio, path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, "open take")
	}
	defer f.Close()

	rec, err := recorder.ReadJSON(f)
	if err != nil {
		return 0, errors.Wrapf(err, "read take %s", path)
	}

	var target interface {
		recorder.Target
		Recorder() *recorder.Recorder
	}
	switch rec.Instrument {
	case studio.NamePiano:
		target = s.Piano
	case studio.NameSynth:
		target = s.Synth
	default:
		return 0, errors.Errorf("take %s: cannot replay instrument %q", path, rec.Instrument)
	}
	if _, err := target.Recorder().Play(rec.Notes, target); err != nil {
		return 0, err
	}
	return time.Duration(rec.Duration) * time.Millisecond, nil
}
