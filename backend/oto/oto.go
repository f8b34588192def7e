// SPDX-License-Identifier: EPL-2.0

//go:build !headless

package oto

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/ik5/soundscape/backend/mixer"
)

// Output owns the process-wide oto context. Only one may exist at a time.
type Output struct {
	mu     sync.Mutex
	ctx    *oto.Context
	player *oto.Player
	closed bool
}

// Open starts playing m. bufferSize is the device latency; zero lets the
// driver choose.
func Open(m *mixer.Mixer, bufferSize time.Duration) (*Output, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   m.SampleRate(),
		ChannelCount: m.Channels(),
		Format:       oto.FormatFloat32LE,
		BufferSize:   bufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("opening audio device: %w", err)
	}
	<-ready

	player := ctx.NewPlayer(m)
	player.Play()

	return &Output{ctx: ctx, player: player}, nil
}

// Suspend pauses the hardware stream, freezing the mixer clock.
func (o *Output) Suspend() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil
	}
	return o.ctx.Suspend()
}

func (o *Output) Resume() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil
	}
	return o.ctx.Resume()
}

func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil
	}
	o.closed = true
	return o.player.Close()
}
