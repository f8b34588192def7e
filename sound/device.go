// SPDX-License-Identifier: EPL-2.0

package sound

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"

	"github.com/ik5/soundscape/audio"
	"github.com/ik5/soundscape/backend"
	"github.com/ik5/soundscape/config"
	"github.com/ik5/soundscape/formats/aiff"
	"github.com/ik5/soundscape/formats/mp3"
	"github.com/ik5/soundscape/formats/vorbis"
	"github.com/ik5/soundscape/formats/wav"
	"github.com/ik5/soundscape/spatial"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	Vendor  = "soundscape"
	Version = "1.0"
)

// Option configures a Device.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	meters  metric.MeterProvider
	tracers trace.TracerProvider
	formats *audio.Registry
	fsys    fs.FS
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meters = mp }
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracers = tp }
}

// WithFormats replaces the decoders assets are loaded with.
func WithFormats(r *audio.Registry) Option {
	return func(o *options) { o.formats = r }
}

// WithFS sets where LoadAsset and LoadArchive resolve Src paths. The
// default is the configured asset root on disk.
func WithFS(fsys fs.FS) Option {
	return func(o *options) { o.fsys = fsys }
}

// DefaultFormats returns a registry with every decoder that needs no
// external data. MIDI needs a SoundFont and is added by the caller.
func DefaultFormats() *audio.Registry {
	r := audio.NewRegistry()
	r.Register(audio.FormatWAV, wav.Decoder{})
	r.Register(audio.FormatMP3, mp3.Decoder{})
	r.Register(audio.FormatOgg, vorbis.Decoder{})
	r.Register(audio.FormatAIFF, aiff.Decoder{})
	return r
}

// Device owns the backend, the listener and every source created from it.
// It is not safe for concurrent use: all calls, including Update, belong on
// one frame thread. Asset loads run in the background and report back
// through Update.
type Device struct {
	cfg     config.Device
	backend backend.Backend
	caps    backend.Capabilities
	att     attenuator
	logger  *slog.Logger
	formats *audio.Registry
	fsys    fs.FS
	metrics *metrics
	tracer  trace.Tracer

	ctx    context.Context
	cancel context.CancelFunc

	// rate and channels are read by loader goroutines.
	rate     int
	channels int

	listener     backend.Listener
	listenerGain float32
	doppler      backend.Doppler
	model        spatial.DistanceModel

	registry *Registry
	sources  map[int]*Source
	nextID   int
	loads    *loader

	destroyed bool
}

// NewDevice drives b with cfg. The device takes ownership of b and closes
// it in Destroy.
func NewDevice(b backend.Backend, cfg config.Device, opts ...Option) (*Device, error) {
	if err := errors.Join(config.ValidateDevice(cfg)...); err != nil {
		return nil, err
	}

	o := options{
		logger:  slog.Default(),
		meters:  otel.GetMeterProvider(),
		tracers: otel.GetTracerProvider(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.formats == nil {
		o.formats = DefaultFormats()
	}
	if o.fsys == nil {
		o.fsys = os.DirFS(cfg.AssetRoot)
	}

	met, err := newMetrics(o.meters)
	if err != nil {
		return nil, fmt.Errorf("sound: creating metrics: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Device{
		cfg:          cfg,
		backend:      b,
		caps:         b.Capabilities(),
		rate:         b.SampleRate(),
		channels:     b.Channels(),
		logger:       o.logger.With("component", "sound"),
		formats:      o.formats,
		fsys:         o.fsys,
		metrics:      met,
		tracer:       o.tracers.Tracer(scopeName),
		ctx:          ctx,
		cancel:       cancel,
		listener:     backend.Listener{Transform: spatial.Identity()},
		listenerGain: cfg.ListenerGain,
		doppler: backend.Doppler{
			Factor:       cfg.DopplerFactor,
			Velocity:     cfg.DopplerVelocity,
			SpeedOfSound: cfg.SpeedOfSound,
		},
		model:    cfg.DistanceModel(),
		registry: NewRegistry(),
		sources:  make(map[int]*Source),
	}
	d.loads = newLoader(d, cfg.LoadConcurrency)

	if d.caps.NativeSpatializer {
		d.att = nativeAttenuator{d}
	} else {
		d.att = manualAttenuator{d}
	}

	b.SetListener(d.listener)
	b.SetDoppler(d.doppler)
	b.MasterGain().SetGain(d.att.masterGain(d.listenerGain))

	d.logger.Info("sound device opened",
		"backend", b.Name(),
		"frequency", b.SampleRate(),
		"channels", b.Channels(),
		"native_spatializer", d.caps.NativeSpatializer,
		"formats", d.formats.Formats(),
	)
	return d, nil
}

// CreateSource makes a stopped source from p. Use config.DefaultSource for
// the defaults.
func (d *Device) CreateSource(p config.Source) (*Source, error) {
	if d.destroyed {
		return nil, ErrDestroyed
	}
	if err := config.ValidateSource(p); err != nil {
		return nil, err
	}

	v, err := d.backend.NewVoice()
	if err != nil {
		return nil, fmt.Errorf("sound: creating voice: %w", err)
	}

	d.nextID++
	s := newSource(d, d.nextID, v, p)
	d.sources[s.id] = s
	d.att.apply(s)
	return s, nil
}

// Update is the per-frame driver. It delivers finished loads, refreshes the
// master gain, retires sources that reached their end, wraps looping buffer
// playback and re-attenuates the sources that need it. Its cost grows with
// the number of playing sources only.
func (d *Device) Update() {
	if d.destroyed {
		return
	}

	d.loads.deliver()
	d.backend.MasterGain().SetGain(d.att.masterGain(d.listenerGain))

	now := d.backend.CurrentTime()
	before := d.registry.Len()
	d.registry.Scan(func(s *Source) bool {
		return d.updateSource(s, now)
	})
	if retired := before - d.registry.Len(); retired > 0 {
		d.metrics.playing.Add(context.Background(), -int64(retired))
	}
}

// updateSource reports whether s stays playing.
func (d *Device) updateSource(s *Source, now float64) bool {
	switch {
	case s.node != nil:
		tell := now - s.playStart
		if dur := s.asset.duration; tell > dur {
			if !s.looping {
				s.finish()
				return false
			}
			s.playStart = now
			if dur > 0 {
				s.playStart -= math.Mod(tell, dur)
			}
		}

	case s.stream != nil && s.stream.Ended():
		if s.looping && !d.caps.Looping && s.stream.Seek(0) == nil {
			s.playStart = now
			break
		}
		s.finish()
		return false
	}

	if d.att.perFrame(s) {
		d.att.apply(s)
	}
	return true
}

func (d *Device) register(s *Source) {
	if d.registry.Add(s) {
		d.metrics.playing.Add(context.Background(), 1)
	}
}

func (d *Device) unregister(s *Source) {
	if d.registry.Remove(s) {
		d.metrics.playing.Add(context.Background(), -1)
	}
}

// NumPlaying is the number of sources in the playback registry.
func (d *Device) NumPlaying() int { return d.registry.Len() }

// NumSources is the number of sources not yet destroyed.
func (d *Device) NumSources() int { return len(d.sources) }

// Destroy stops every source, drops pending loads and closes the backend.
// Later calls do nothing.
func (d *Device) Destroy() error {
	if d.destroyed {
		return nil
	}
	d.destroyed = true
	d.cancel()
	d.loads.close()

	for _, s := range d.sources {
		s.Stop()
	}

	d.logger.Info("sound device closed", "backend", d.backend.Name())
	if err := d.backend.Close(); err != nil {
		return fmt.Errorf("sound: closing backend: %w", err)
	}
	return nil
}

func (d *Device) Destroyed() bool { return d.destroyed }

// Frequency is the backend output rate in Hz.
func (d *Device) Frequency() int { return d.backend.SampleRate() }

func (d *Device) Vendor() string   { return Vendor }
func (d *Device) Renderer() string { return d.backend.Name() }
func (d *Device) Version() string  { return Version }

// Extensions lists the registered format keys.
func (d *Device) Extensions() []string { return d.formats.Formats() }

// LinearDistance reports whether sources use the linear distance model.
func (d *Device) LinearDistance() bool { return d.model == spatial.Linear }

var fileFormats = map[string]string{
	"FILEFORMAT_OGG":  audio.FormatOgg,
	"FILEFORMAT_MP3":  audio.FormatMP3,
	"FILEFORMAT_WAV":  audio.FormatWAV,
	"FILEFORMAT_AIFF": audio.FormatAIFF,
	"FILEFORMAT_MID":  audio.FormatMIDI,
}

// IsSupported answers capability queries such as "FILEFORMAT_OGG".
// Unknown names are unsupported.
func (d *Device) IsSupported(name string) bool {
	format, ok := fileFormats[name]
	return ok && d.registered(format)
}

// IsResourceSupported reports whether the extension of p has a decoder.
func (d *Device) IsResourceSupported(p string) bool {
	format, ok := audio.FormatForPath(p)
	return ok && d.registered(format)
}

func (d *Device) registered(format string) bool {
	_, ok := d.formats.Get(format)
	return ok
}

// ListenerTransform is the listener's m43 matrix.
func (d *Device) ListenerTransform() spatial.Transform { return d.listener.Transform }

func (d *Device) SetListenerTransform(t spatial.Transform) {
	d.listener.Transform = t
	d.backend.SetListener(d.listener)
}

func (d *Device) ListenerVelocity() spatial.Vec3 { return d.listener.Velocity }

func (d *Device) SetListenerVelocity(v spatial.Vec3) {
	d.listener.Velocity = v
	d.backend.SetListener(d.listener)
}

func (d *Device) ListenerGain() float32 { return d.listenerGain }

// SetListenerGain takes effect on the next Update.
func (d *Device) SetListenerGain(g float32) { d.listenerGain = g }

func (d *Device) DopplerFactor() float32   { return d.doppler.Factor }
func (d *Device) DopplerVelocity() float32 { return d.doppler.Velocity }
func (d *Device) SpeedOfSound() float32    { return d.doppler.SpeedOfSound }

func (d *Device) SetDopplerFactor(f float32) {
	d.doppler.Factor = f
	d.backend.SetDoppler(d.doppler)
}

func (d *Device) SetDopplerVelocity(v float32) {
	d.doppler.Velocity = v
	d.backend.SetDoppler(d.doppler)
}

func (d *Device) SetSpeedOfSound(c float32) {
	d.doppler.SpeedOfSound = c
	d.backend.SetDoppler(d.doppler)
}
