// SPDX-License-Identifier: EPL-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk layout: device settings plus named source presets.
type File struct {
	Device  Device            `yaml:"device"`
	Sources map[string]Source `yaml:"sources"`
}

// Load reads the YAML file at path and returns a validated [File].
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes YAML from r over the defaults and validates the
// result. Keys absent from the document keep their default value, including
// inside each source preset.
func LoadFromReader(r io.Reader) (*File, error) {
	var raw struct {
		Device  Device               `yaml:"device"`
		Sources map[string]yaml.Node `yaml:"sources"`
	}
	raw.Device = DefaultDevice()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}

	cfg := &File{Device: raw.Device}
	if len(raw.Sources) > 0 {
		cfg.Sources = make(map[string]Source, len(raw.Sources))
	}
	for name, node := range raw.Sources {
		src := DefaultSource()
		if err := decodeStrict(&node, &src); err != nil {
			return nil, fmt.Errorf("config: source %q: %w", name, err)
		}
		cfg.Sources[name] = src
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decodeStrict decodes node into v rejecting unknown keys, which
// yaml.Node.Decode alone does not do.
func decodeStrict(node *yaml.Node, v any) error {
	b, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	return dec.Decode(v)
}

// Validate checks cfg for coherent values and returns every problem found
// joined into one error.
func Validate(cfg *File) error {
	errs := ValidateDevice(cfg.Device)
	for name, src := range cfg.Sources {
		for _, err := range validateSource(src) {
			errs = append(errs, fmt.Errorf("sources.%s.%w", name, err))
		}
	}
	return errors.Join(errs...)
}

// ValidateDevice returns one error per invalid device field.
func ValidateDevice(d Device) []error {
	var errs []error

	if d.Frequency <= 0 {
		errs = append(errs, fmt.Errorf("device.frequency %d must be positive", d.Frequency))
	}
	if d.Channels != 1 && d.Channels != 2 {
		errs = append(errs, fmt.Errorf("device.channels %d must be 1 or 2", d.Channels))
	}
	if !d.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("device.backend %q is invalid; valid values: mixer, oto", d.Backend))
	}
	if d.LogLevel != "" && !d.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("device.log_level %q is invalid; valid values: debug, info, warn, error", d.LogLevel))
	}
	if d.LoadConcurrency < 1 {
		errs = append(errs, fmt.Errorf("device.load_concurrency %d must be at least 1", d.LoadConcurrency))
	}
	if d.BufferSizeMS < 0 {
		errs = append(errs, fmt.Errorf("device.buffer_size_ms %d must not be negative", d.BufferSizeMS))
	}
	if d.SpeedOfSound <= 0 {
		errs = append(errs, fmt.Errorf("device.speed_of_sound %v must be positive", d.SpeedOfSound))
	}
	if d.DopplerFactor < 0 {
		errs = append(errs, fmt.Errorf("device.doppler_factor %v must not be negative", d.DopplerFactor))
	}
	if d.ListenerGain < 0 {
		errs = append(errs, fmt.Errorf("device.listener_gain %v must not be negative", d.ListenerGain))
	}

	return errs
}

// ValidateSource checks creation parameters. It returns nil when s is usable.
func ValidateSource(s Source) error {
	var errs []error
	for _, err := range validateSource(s) {
		errs = append(errs, fmt.Errorf("source.%w", err))
	}
	return errors.Join(errs...)
}

func validateSource(s Source) []error {
	var errs []error

	if s.Pitch <= 0 {
		errs = append(errs, fmt.Errorf("pitch %v must be positive", s.Pitch))
	}
	if s.MinDistance < 0 {
		errs = append(errs, fmt.Errorf("min_distance %v must not be negative", s.MinDistance))
	}
	if s.MaxDistance < s.MinDistance {
		errs = append(errs, fmt.Errorf("max_distance %v is below min_distance %v", s.MaxDistance, s.MinDistance))
	}
	if s.RollOff < 0 {
		errs = append(errs, fmt.Errorf("roll_off %v must not be negative", s.RollOff))
	}

	return errs
}
