package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/lixenwraith/vi-studio/audio"
	"github.com/lixenwraith/vi-studio/constant"
	"github.com/lixenwraith/vi-studio/core"
	"github.com/lixenwraith/vi-studio/recorder"
	"github.com/lixenwraith/vi-studio/service"
	"github.com/lixenwraith/vi-studio/status"
	"github.com/lixenwraith/vi-studio/studio"
)

var (
	debugFlag  = flag.Bool("debug", false, "Write a debug log to logs/vi-studio.log")
	silentFlag = flag.Bool("silent", false, "Run without an audio device")
	volumeFlag = flag.Int("volume", 0, "Instrument volume 0-100")
	masterFlag = flag.Int("master", 0, "Master volume 0-100")
	bpmFlag    = flag.Int("bpm", 0, "Sequencer tempo")
	rateFlag   = flag.Int("rate", 0, "Sample rate in Hz")
	voicesFlag = flag.Int("voices", 0, "Voice limit per instrument")
	seedFlag   = flag.Uint64("seed", 0, "Jitter seed, 0 picks one at random")
	modeFlag   = flag.String("mode", "", "Volume mode: snapshot or live")
	replayFlag = flag.String("replay", "", "Play a saved take on start")
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			core.HandleCrash(r)
		}
	}()

	flag.Parse()

	logFile := setupLogging(*debugFlag)
	if logFile != nil {
		defer logFile.Close()
	}

	cfg := studio.LoadConfig()
	if err := applyFlags(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "vi-studio: %v\n", err)
		os.Exit(2)
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "vi-studio: needs an interactive terminal, use vi-render to render offline")
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "vi-studio: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *studio.Config) error {
	ctx, err := audio.NewContext(audio.Options{SampleRate: cfg.SampleRate})
	if err != nil {
		return errors.Wrap(err, "audio context")
	}

	s, err := studio.New(ctx, cfg, status.NewRegistry())
	if err != nil {
		return errors.Wrap(err, "studio")
	}
	out := audio.NewOutputService(ctx)

	hub := service.NewHub()
	if err := hub.Register(out, !cfg.Enabled, cfg.MasterVolume); err != nil {
		return err
	}
	if err := hub.Register(s, cfg.Volume); err != nil {
		return err
	}
	if err := hub.InitAll(); err != nil {
		return err
	}
	if err := hub.StartAll(); err != nil {
		return err
	}
	defer hub.StopAll()

	if *replayFlag != "" {
		cancel, err := replay(s, *replayFlag)
		if err != nil {
			return err
		}
		defer cancel()
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return errors.Wrap(err, "screen")
	}
	if err := screen.Init(); err != nil {
		return errors.Wrap(err, "screen init")
	}
	core.SetCrashHook(screen.Fini)
	defer func() {
		core.SetCrashHook(nil)
		screen.Fini()
	}()

	newApp(screen, s, out).run()
	return nil
}

// applyFlags overrides the environment configuration with the flags given on the command line
func applyFlags(cfg *studio.Config) error {
	var err error
	flag.Visit(func(f *flag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "silent":
			cfg.Enabled = !*silentFlag
		case "volume":
			cfg.Volume = percent(*volumeFlag)
		case "master":
			cfg.MasterVolume = percent(*masterFlag)
		case "bpm":
			cfg.BPM = max(constant.MinBPM, min(*bpmFlag, constant.MaxBPM))
		case "rate":
			cfg.SampleRate = *rateFlag
		case "voices":
			cfg.MaxVoices = max(constant.MinMaxVoices, min(*voicesFlag, constant.MaxMaxVoices))
		case "seed":
			cfg.Seed = *seedFlag
		case "mode":
			m, ok := core.ParseVolumeMode(*modeFlag)
			if !ok {
				err = errors.Errorf("unknown volume mode %q", *modeFlag)
				return
			}
			cfg.VolumeMode = m
		}
	})
	return err
}

func percent(v int) float64 {
	return float64(max(0, min(v, 100))) / 100
}

// replay loads a saved take and schedules it on the instrument that recorded it
func replay(s *studio.Studio, path string) (func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "replay")
	}
	defer f.Close()

	rec, err := recorder.ReadJSON(f)
	if err != nil {
		return nil, errors.Wrapf(err, "replay %s", path)
	}

	var kb keyboard
	switch rec.Instrument {
	case studio.NamePiano:
		kb = s.Piano
	case studio.NameSynth:
		kb = s.Synth
	default:
		return nil, errors.Errorf("replay %s: no keyboard instrument %q", path, rec.Instrument)
	}
	return kb.Recorder().Play(rec.Notes, kb)
}
