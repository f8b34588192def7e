// SPDX-License-Identifier: EPL-2.0

package config

import (
	"log/slog"
	"time"

	"github.com/ik5/soundscape/spatial"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Level maps l to a slog level. Unknown or empty levels map to Info.
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Backend selects where rendered audio goes.
type Backend string

const (
	// BackendMixer renders only when the caller pulls frames.
	BackendMixer Backend = "mixer"
	// BackendOto plays through the system audio device.
	BackendOto Backend = "oto"
)

func (b Backend) IsValid() bool {
	return b == BackendMixer || b == BackendOto
}

// Device holds the settings a sound device is built with. It is read once;
// runtime changes go through the device setters.
type Device struct {
	Frequency       int     `yaml:"frequency"`
	DopplerFactor   float32 `yaml:"doppler_factor"`
	DopplerVelocity float32 `yaml:"doppler_velocity"`
	SpeedOfSound    float32 `yaml:"speed_of_sound"`
	LinearDistance  bool    `yaml:"linear_distance"`
	ListenerGain    float32 `yaml:"listener_gain"`

	Backend  Backend `yaml:"backend"`
	Channels int     `yaml:"channels"`
	// BufferSizeMS is the output latency; 0 lets the driver decide.
	BufferSizeMS int `yaml:"buffer_size_ms"`

	// LoadConcurrency bounds how many assets decode at once.
	LoadConcurrency int `yaml:"load_concurrency"`
	// AssetRoot is the directory named loads are resolved in.
	AssetRoot       string `yaml:"asset_root"`
	ForceUncompress bool   `yaml:"force_uncompress"`

	// NativeSpatializer lets the mixer apply distance, pan and Doppler.
	// When off, the device attenuates every source by hand.
	NativeSpatializer bool `yaml:"native_spatializer"`

	// SoundFont enables MIDI playback when set.
	SoundFont string `yaml:"soundfont"`

	LogLevel LogLevel `yaml:"log_level"`
}

// DefaultDevice returns the device defaults.
func DefaultDevice() Device {
	return Device{
		Frequency:         44100,
		DopplerFactor:     1,
		DopplerVelocity:   1,
		SpeedOfSound:      343.3,
		LinearDistance:    true,
		ListenerGain:      1,
		Backend:           BackendMixer,
		Channels:          2,
		LoadConcurrency:   4,
		AssetRoot:         ".",
		NativeSpatializer: true,
		LogLevel:          LogInfo,
	}
}

// BufferSize is BufferSizeMS as a duration.
func (d Device) BufferSize() time.Duration {
	return time.Duration(d.BufferSizeMS) * time.Millisecond
}

// DistanceModel is the falloff curve sources start with.
func (d Device) DistanceModel() spatial.DistanceModel {
	if d.LinearDistance {
		return spatial.Linear
	}
	return spatial.Inverse
}

// MaxDistance is the default far bound: effectively unbounded.
const MaxDistance float32 = 3.4e38

// Source holds creation parameters for a sound source.
type Source struct {
	Gain        float32 `yaml:"gain"`
	Looping     bool    `yaml:"looping"`
	Pitch       float32 `yaml:"pitch"`
	Relative    bool    `yaml:"relative"`
	MinDistance float32 `yaml:"min_distance"`
	MaxDistance float32 `yaml:"max_distance"`
	RollOff     float32 `yaml:"roll_off"`

	Position  *spatial.Vec3 `yaml:"position"`
	Velocity  *spatial.Vec3 `yaml:"velocity"`
	Direction *spatial.Vec3 `yaml:"direction"`
}

// DefaultSource returns the source defaults.
func DefaultSource() Source {
	return Source{
		Gain:        1,
		Pitch:       1,
		MinDistance: 1,
		MaxDistance: MaxDistance,
		RollOff:     1,
	}
}
