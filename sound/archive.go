// SPDX-License-Identifier: EPL-2.0

package sound

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ik5/soundscape/audio"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// ArchiveParams names a tar archive of sound files.
type ArchiveParams struct {
	// Src is a path in the device filesystem; Reader is used when it is
	// empty.
	Src    string
	Reader io.Reader
	// Uncompress applies to every member, as in AssetParams.
	Uncompress bool
}

type archiveMember struct {
	name   string
	format string
	data   []byte
}

type archiveItem struct {
	asset *Asset
	pcm   *audio.Buffer
}

// LoadArchive loads every supported member of a tar archive in the
// background. From a later Update, onAsset receives each decoded asset in
// archive order and then onDone reports the overall result. Members with no
// decoder or that fail to decode are skipped.
func (d *Device) LoadArchive(ctx context.Context, p ArchiveParams, onAsset func(*Asset), onDone func(ok bool, status int)) error {
	if d.destroyed {
		return ErrDestroyed
	}
	if p.Src == "" && p.Reader == nil {
		return ErrNoData
	}

	uncompress := p.Uncompress || d.cfg.ForceUncompress
	d.loads.run(ctx,
		func(ctx context.Context) {
			items, status := d.loadArchive(ctx, p, uncompress)
			d.loads.post(func() {
				for _, it := range items {
					if d.attach(it.asset, it.pcm) {
						onAsset(it.asset)
					}
				}
				onDone(status == StatusOK, status)
			})
		},
		func() { d.loads.post(func() { onDone(false, StatusFailed) }) },
	)
	return nil
}

func (d *Device) loadArchive(ctx context.Context, p ArchiveParams, uncompress bool) ([]archiveItem, int) {
	ctx, span := d.tracer.Start(ctx, "sound.LoadArchive", trace.WithAttributes(
		attribute.String("archive.src", p.Src),
	))
	defer span.End()

	start := time.Now()
	items, status, err := d.readArchive(ctx, p, uncompress)
	span.SetAttributes(
		attribute.Int("archive.status", status),
		attribute.Int("archive.assets", len(items)),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.logger.Warn("archive load failed", "archive", p.Src, "status", status, "err", err)
		return nil, status
	}

	d.logger.Info("archive loaded", "archive", p.Src, "assets", len(items), "took", time.Since(start))
	return items, StatusOK
}

func (d *Device) readArchive(ctx context.Context, p ArchiveParams, uncompress bool) ([]archiveItem, int, error) {
	r := p.Reader
	if p.Src != "" {
		f, err := d.fsys.Open(p.Src)
		switch {
		case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrInvalid):
			return nil, StatusNotFound, err
		case err != nil:
			return nil, StatusIOError, err
		}
		defer f.Close()
		r = f
	}

	members, err := d.readMembers(r)
	if err != nil {
		return nil, StatusIOError, err
	}

	results := make([]*archiveItem, len(members))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.LoadConcurrency)
	for i, m := range members {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			a, pcm, err := d.decode(m.name, m.format, m.data, uncompress)
			if err != nil {
				d.logger.Warn("archive member skipped", "member", m.name, "err", err)
				return nil
			}
			results[i] = &archiveItem{asset: a, pcm: pcm}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, StatusFailed, err
	}

	items := make([]archiveItem, 0, len(results))
	for _, it := range results {
		if it != nil {
			items = append(items, *it)
		}
	}
	return items, StatusOK, nil
}

// readMembers pulls every regular file with a registered format out of the
// tar stream. Tar can only be read in order, so this part is sequential.
func (d *Device) readMembers(r io.Reader) ([]archiveMember, error) {
	var members []archiveMember
	var total int

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if isEOF(err) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading archive: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		format, ok := audio.FormatForPath(hdr.Name)
		if !ok || !d.registered(format) {
			d.logger.Debug("archive member has no decoder", "member", hdr.Name)
			continue
		}

		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", hdr.Name, err)
		}
		total += len(data)
		members = append(members, archiveMember{name: hdr.Name, format: format, data: data})
	}

	d.logger.Debug("archive read", "members", len(members), "size", humanize.Bytes(uint64(total)))
	return members, nil
}
