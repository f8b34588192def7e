// SPDX-License-Identifier: EPL-2.0

package soundscape

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/ik5/soundscape/audio"
	"github.com/ik5/soundscape/backend"
	"github.com/ik5/soundscape/backend/mixer"
	"github.com/ik5/soundscape/backend/oto"
	"github.com/ik5/soundscape/config"
	"github.com/ik5/soundscape/formats/midi"
	"github.com/ik5/soundscape/sound"
)

// Engine is a sound device wired to its mixer and, for the oto backend,
// to the system output.
type Engine struct {
	*sound.Device

	// Mixer renders the device. Callers on the mixer backend drive it.
	Mixer *mixer.Mixer

	output *oto.Output
}

// liveBackend closes the output before the mixer it reads from.
type liveBackend struct {
	*mixer.Mixer
	output *oto.Output
}

func (b liveBackend) Close() error {
	return errors.Join(b.output.Close(), b.Mixer.Close())
}

// Open builds the backend named in cfg and a device on top of it. Every
// decoder is registered; MIDI only when cfg.SoundFont is set. opts are
// applied after the defaults derived from cfg, so they win.
func Open(cfg config.Device, opts ...sound.Option) (*Engine, error) {
	if err := errors.Join(config.ValidateDevice(cfg)...); err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel.Level()}))

	formats, err := registry(cfg)
	if err != nil {
		return nil, err
	}

	m := mixer.New(mixer.Options{
		SampleRate:        cfg.Frequency,
		Channels:          cfg.Channels,
		NativeSpatializer: cfg.NativeSpatializer,
		Logger:            logger,
	})

	eng := &Engine{Mixer: m}
	var b backend.Backend = m
	if cfg.Backend == config.BackendOto {
		out, err := oto.Open(m, cfg.BufferSize())
		if err != nil {
			return nil, err
		}
		eng.output = out
		b = liveBackend{Mixer: m, output: out}
	}

	base := []sound.Option{sound.WithLogger(logger), sound.WithFormats(formats)}
	dev, err := sound.NewDevice(b, cfg, append(base, opts...)...)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	eng.Device = dev
	return eng, nil
}

// registry returns the default decoders plus MIDI when a SoundFont is
// configured.
func registry(cfg config.Device) (*audio.Registry, error) {
	r := sound.DefaultFormats()
	if cfg.SoundFont == "" {
		return r, nil
	}

	f, err := os.Open(cfg.SoundFont)
	if err != nil {
		return nil, fmt.Errorf("opening soundfont: %w", err)
	}
	defer f.Close()

	sf, err := midi.LoadSoundFont(f)
	if err != nil {
		return nil, err
	}
	r.Register(audio.FormatMIDI, midi.Decoder{SoundFont: sf, SampleRate: cfg.Frequency})
	return r, nil
}

// Suspend pauses the system output, which also freezes the audio clock.
// It does nothing on the mixer backend.
func (e *Engine) Suspend() error {
	if e.output == nil {
		return nil
	}
	return e.output.Suspend()
}

// Resume undoes Suspend.
func (e *Engine) Resume() error {
	if e.output == nil {
		return nil
	}
	return e.output.Resume()
}

// Close destroys the device, which stops the output and the mixer.
func (e *Engine) Close() error {
	return e.Device.Destroy()
}
