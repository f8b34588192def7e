// SPDX-License-Identifier: EPL-2.0

package sound

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ik5/soundscape/audio"
	"github.com/remeh/sizedwaitgroup"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// LoadFunc receives a finished load on the frame thread. a is nil unless
// status is StatusOK.
type LoadFunc func(a *Asset, status int)

// AssetParams describes one asset to load. Exactly one of Src and Data is
// normally set; Data wins when both are.
type AssetParams struct {
	// Name defaults to Src.
	Name string
	// Src is a path in the device filesystem.
	Src string
	// Data is an encoded file already in memory.
	Data []byte
	// Uncompress decodes the whole asset up front instead of streaming it
	// on every play.
	Uncompress bool
	// Format overrides detection, e.g. audio.FormatOgg.
	Format string
}

// loader runs decodes in the background and queues their completions for
// the frame thread.
type loader struct {
	d       *Device
	slots   sizedwaitgroup.SizedWaitGroup
	pending sync.WaitGroup

	mu     sync.Mutex
	queue  []func()
	closed bool
}

func newLoader(d *Device, concurrency int) *loader {
	return &loader{d: d, slots: sizedwaitgroup.New(concurrency)}
}

// run executes work on its own goroutine once a decode slot is free. The
// work's context is cancelled when ctx is or when the device is destroyed.
func (l *loader) run(ctx context.Context, work func(context.Context), abort func()) {
	l.pending.Add(1)
	go func() {
		defer l.pending.Done()

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		stop := context.AfterFunc(l.d.ctx, cancel)
		defer stop()

		if err := l.slots.AddWithContext(ctx); err != nil {
			abort()
			return
		}
		defer l.slots.Done()

		work(ctx)
	}()
}

// post queues fn for the next Update. Completions arriving after Destroy
// are dropped.
func (l *loader) post(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		l.d.logger.Warn("load finished after device destroy, dropped")
		return
	}
	l.queue = append(l.queue, fn)
}

func (l *loader) deliver() {
	l.mu.Lock()
	q := l.queue
	l.queue = nil
	l.mu.Unlock()

	for _, fn := range q {
		fn()
	}
}

func (l *loader) close() {
	l.mu.Lock()
	dropped := len(l.queue)
	l.queue = nil
	l.closed = true
	l.mu.Unlock()

	if dropped > 0 {
		l.d.logger.Warn("pending load completions dropped", "count", dropped)
	}
}

// WaitLoads blocks until every started load has queued its completion.
// Completions are still delivered by Update.
func (d *Device) WaitLoads() { d.loads.pending.Wait() }

// LoadAsset reads and decodes an asset in the background. fn runs from a
// later Update with the asset and StatusOK, or with nil and the failure
// status: StatusFailed for unsupported or undecodable data, StatusNotFound
// for a missing file and StatusIOError for read errors. Paths whose
// extension has no decoder fail without touching the filesystem.
func (d *Device) LoadAsset(ctx context.Context, p AssetParams, fn LoadFunc) error {
	if d.destroyed {
		return ErrDestroyed
	}
	if p.Src == "" && p.Data == nil {
		return ErrNoData
	}

	name := p.Name
	if name == "" {
		name = p.Src
	}

	if p.Format == "" && p.Data == nil && path.Ext(p.Src) != "" && !d.IsResourceSupported(p.Src) {
		d.logger.Warn("asset format not supported", "asset", name)
		d.metrics.recordLoad(ctx, StatusFailed, 0)
		d.loads.post(func() { fn(nil, StatusFailed) })
		return nil
	}

	uncompress := p.Uncompress || d.cfg.ForceUncompress
	d.loads.run(ctx,
		func(ctx context.Context) {
			a, pcm, status := d.loadAsset(ctx, name, p, uncompress)
			d.loads.post(func() {
				if a != nil && !d.attach(a, pcm) {
					a, status = nil, StatusFailed
				}
				fn(a, status)
			})
		},
		func() { d.loads.post(func() { fn(nil, StatusFailed) }) },
	)
	return nil
}

// attach creates the backend buffer for a decoded asset. Frame thread only.
func (d *Device) attach(a *Asset, pcm *audio.Buffer) bool {
	if pcm == nil {
		return true
	}
	buf, err := d.backend.NewBuffer(pcm)
	if err != nil {
		d.logger.Warn("asset rejected by backend", "asset", a.name, "err", err)
		return false
	}
	a.buffer = buf
	return true
}

func (d *Device) loadAsset(ctx context.Context, name string, p AssetParams, uncompress bool) (*Asset, *audio.Buffer, int) {
	ctx, span := d.tracer.Start(ctx, "sound.LoadAsset", trace.WithAttributes(
		attribute.String("asset.name", name),
		attribute.Bool("asset.uncompress", uncompress),
	))
	defer span.End()

	start := time.Now()
	a, pcm, status, err := d.readAsset(ctx, name, p, uncompress)
	d.metrics.recordLoad(ctx, status, time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("asset.status", status))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.logger.Warn("asset load failed", "asset", name, "status", status, "err", err)
		return nil, nil, status
	}

	d.logger.Info("asset loaded",
		"asset", name,
		"format", a.format,
		"duration", time.Duration(a.duration*float64(time.Second)),
		"compressed", a.compressed,
		"took", time.Since(start),
	)
	return a, pcm, StatusOK
}

func (d *Device) readAsset(ctx context.Context, name string, p AssetParams, uncompress bool) (*Asset, *audio.Buffer, int, error) {
	data := p.Data
	if data == nil {
		if err := ctx.Err(); err != nil {
			return nil, nil, StatusFailed, err
		}

		var err error
		data, err = fs.ReadFile(d.fsys, p.Src)
		switch {
		case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrInvalid):
			return nil, nil, StatusNotFound, err
		case err != nil:
			return nil, nil, StatusIOError, err
		}
		d.logger.Debug("asset read", "asset", name, "size", humanize.Bytes(uint64(len(data))))
	}

	format := p.Format
	if format == "" {
		format = detectFormat(data, p.Src)
	}

	a, pcm, err := d.decode(name, format, data, uncompress)
	if err != nil {
		return nil, nil, StatusFailed, err
	}
	return a, pcm, StatusOK, nil
}

// detectFormat trusts container magic, then the extension, then falls back
// to MP3.
func detectFormat(data []byte, src string) string {
	if f := audio.DetectFormat(data); f != audio.FormatMP3 {
		return f
	}
	if f, ok := audio.FormatForPath(src); ok {
		return f
	}
	return audio.FormatMP3
}

// decode turns encoded bytes into an asset. Uncompressed assets come back
// with their PCM converted to the backend layout; the backend buffer is
// made later on the frame thread. Safe to call from any goroutine.
func (d *Device) decode(name, format string, data []byte, uncompress bool) (*Asset, *audio.Buffer, error) {
	dec, ok := d.formats.Get(format)
	if !ok {
		return nil, nil, fmt.Errorf("%s: %w", format, audio.ErrUnknownFormat)
	}

	if !uncompress {
		a, err := streamAsset(name, format, data, dec)
		if err != nil {
			return nil, nil, fmt.Errorf("decoding %s: %w", format, err)
		}
		return a, nil, nil
	}

	src, err := dec.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("decoding %s: %w", format, err)
	}
	defer src.Close()

	pcm, err := d.convert(src)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding %s: %w", format, err)
	}
	return pcmAsset(name, format, pcm), pcm, nil
}

// convert reads src whole at the backend rate. Mono stays mono so the
// spatializer can pan it; anything else takes the backend channel count.
func (d *Device) convert(src audio.Source) (*audio.Buffer, error) {
	channels := 1
	if src.Channels() != 1 {
		channels = d.channels
	}
	return audio.ReadAll(audio.Convert(src, d.rate, channels), 4096)
}

func isEOF(err error) bool { return errors.Is(err, io.EOF) }
