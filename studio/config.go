package studio

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/lixenwraith/vi-studio/constant"
	"github.com/lixenwraith/vi-studio/core"
	"github.com/lixenwraith/vi-studio/effects"
)

// Instrument names used for per-instrument volumes and recordings
const (
	NamePiano      = "piano"
	NameGuitar     = "guitar"
	NameDrums      = "drums"
	NamePercussion = "percussion"
	NameSynth      = "synth"
)

var instrumentNames = []string{NamePiano, NameGuitar, NameDrums, NamePercussion, NameSynth}

// Config holds studio settings
type Config struct {
	Enabled      bool    // Audio device enabled, false runs silent
	MasterVolume float64 // 0.0 to 1.0, the output fader
	Volume       float64 // 0.0 to 1.0, the global instrument volume
	SampleRate   int
	MaxVoices    int // Per instrument
	BPM          int
	VolumeMode   core.VolumeMode
	Effects      effects.Settings   // Synth chain
	Volumes      map[string]float64 // Per instrument, 0.0 to 1.0
	Seed         uint64             // Jitter seed, 0 draws a random one
}

// DefaultConfig returns default studio configuration
func DefaultConfig() *Config {
	vols := make(map[string]float64, len(instrumentNames))
	for _, n := range instrumentNames {
		vols[n] = 1.0
	}
	return &Config{
		Enabled:      true,
		MasterVolume: constant.DefaultMasterVolume,
		Volume:       constant.DefaultVolume,
		SampleRate:   constant.AudioSampleRate,
		MaxVoices:    constant.DefaultMaxVoices,
		BPM:          constant.DefaultBPM,
		VolumeMode:   core.VolumeSnapshot,
		Effects:      effects.DefaultSettings(),
		Volumes:      vols,
	}
}

// LoadConfig loads studio configuration from environment variables
// Malformed values are ignored, out of range values are clamped
func LoadConfig() *Config {
	cfg := DefaultConfig()

	if enabled := os.Getenv("VI_STUDIO_AUDIO_ENABLED"); enabled != "" {
		if val, err := strconv.ParseBool(enabled); err == nil {
			cfg.Enabled = val
		}
	}

	// Master volume 0-100 converted to 0.0-1.0
	if volume := os.Getenv("VI_STUDIO_MASTER_VOLUME"); volume != "" {
		if val, err := strconv.Atoi(volume); err == nil {
			cfg.MasterVolume = clamp01(float64(val) / 100.0)
		}
	}

	if sampleRate := os.Getenv("VI_STUDIO_SAMPLE_RATE"); sampleRate != "" {
		if val, err := strconv.Atoi(sampleRate); err == nil && val >= constant.MinSampleRate && val <= constant.MaxSampleRate {
			cfg.SampleRate = val
		}
	}

	if voices := os.Getenv("VI_STUDIO_MAX_VOICES"); voices != "" {
		if val, err := strconv.Atoi(voices); err == nil {
			cfg.MaxVoices = max(constant.MinMaxVoices, min(val, constant.MaxMaxVoices))
		}
	}

	if bpm := os.Getenv("VI_STUDIO_BPM"); bpm != "" {
		if val, err := strconv.Atoi(bpm); err == nil {
			cfg.BPM = max(constant.MinBPM, min(val, constant.MaxBPM))
		}
	}

	if mode := os.Getenv("VI_STUDIO_VOLUME_MODE"); mode != "" {
		if m, ok := core.ParseVolumeMode(mode); ok {
			cfg.VolumeMode = m
		}
	}

	// Effects from JSON, rejected as a whole when invalid
	if fx := os.Getenv("VI_STUDIO_EFFECTS"); fx != "" {
		s := cfg.Effects
		if err := json.Unmarshal([]byte(fx), &s); err == nil && s.Validate() == nil {
			cfg.Effects = s
		}
	}

	// Instrument volumes from JSON, unknown names ignored
	if vols := os.Getenv("VI_STUDIO_INSTRUMENT_VOLUMES"); vols != "" {
		var volumes map[string]float64
		if err := json.Unmarshal([]byte(vols), &volumes); err == nil {
			for name, v := range volumes {
				if _, ok := cfg.Volumes[name]; ok {
					cfg.Volumes[name] = clamp01(v)
				}
			}
		}
	}

	return cfg
}

func clamp01(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
