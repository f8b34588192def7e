// SPDX-License-Identifier: EPL-2.0

package sound

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/ik5/soundscape/sound"

// loadBuckets are histogram bounds in seconds for asset decode times.
var loadBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5,
}

type metrics struct {
	started  metric.Int64Counter
	retired  metric.Int64Counter
	playing  metric.Int64UpDownCounter
	loads    metric.Int64Counter
	loadTime metric.Float64Histogram
}

func newMetrics(mp metric.MeterProvider) (*metrics, error) {
	m := mp.Meter(scopeName)
	var err error
	met := &metrics{}

	if met.started, err = m.Int64Counter("soundscape.sources.started",
		metric.WithDescription("Playbacks started by Play."),
	); err != nil {
		return nil, err
	}
	if met.retired, err = m.Int64Counter("soundscape.sources.retired",
		metric.WithDescription("Non-looping playbacks that reached their natural end."),
	); err != nil {
		return nil, err
	}
	if met.playing, err = m.Int64UpDownCounter("soundscape.sources.playing",
		metric.WithDescription("Sources currently in the playback registry."),
	); err != nil {
		return nil, err
	}
	if met.loads, err = m.Int64Counter("soundscape.assets.loads",
		metric.WithDescription("Asset loads by status code."),
	); err != nil {
		return nil, err
	}
	if met.loadTime, err = m.Float64Histogram("soundscape.assets.load.duration",
		metric.WithDescription("Time spent reading and decoding an asset."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(loadBuckets...),
	); err != nil {
		return nil, err
	}

	return met, nil
}

func (m *metrics) recordLoad(ctx context.Context, status int, seconds float64) {
	attrs := metric.WithAttributes(attribute.String("status", strconv.Itoa(status)))
	m.loads.Add(ctx, 1, attrs)
	m.loadTime.Record(ctx, seconds, attrs)
}
