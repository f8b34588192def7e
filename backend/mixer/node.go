// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/ik5/soundscape/audio"
	"github.com/ik5/soundscape/backend"
	"github.com/ik5/soundscape/utils"
)

var errStarted = errors.New("mixer: node already started")

type nodeState int

const (
	nodeIdle nodeState = iota
	nodePlaying
	nodeStopped
	nodeDisconnected
)

// addFrame adds one source frame into output frame i of dst. A mono frame
// feeds every output channel.
func addFrame(dst []float32, i, channels int, frame, gains []float32) {
	base := i * channels
	if len(frame) == 1 {
		for c := range channels {
			dst[base+c] += frame[0] * gains[c]
		}
		return
	}
	for c := range channels {
		dst[base+c] += frame[c] * gains[c]
	}
}

type bufferNode struct {
	m       *Mixer
	buf     *buffer
	v       *voice
	looping bool
	pitch   float32
	pos     float64
	state   nodeState

	gains [2]float32
	frame [2]float32
}

func (m *Mixer) NewBufferNode(b backend.Buffer, v backend.Voice, looping bool, pitch float32) (backend.Node, error) {
	buf, ok := b.(*buffer)
	if !ok {
		return nil, fmt.Errorf("%w: foreign buffer %T", backend.ErrNodeCreation, b)
	}
	vc, ok := v.(*voice)
	if !ok {
		return nil, fmt.Errorf("%w: foreign voice %T", backend.ErrNodeCreation, v)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.closed:
		return nil, backend.ErrClosed
	case buf.released:
		return nil, fmt.Errorf("%w: buffer released", backend.ErrNodeCreation)
	case vc.disconnected:
		return nil, fmt.Errorf("%w: voice disconnected", backend.ErrDisconnected)
	}

	return &bufferNode{m: m, buf: buf, v: vc, looping: looping, pitch: pitch}, nil
}

func (n *bufferNode) Start(offset float64) error {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()

	if n.state != nodeIdle {
		return errStarted
	}
	if n.m.closed {
		return backend.ErrClosed
	}

	n.pos = max(offset, 0) * float64(n.m.rate)
	if frames := float64(n.buf.pcm.Frames()); n.looping && frames > 0 {
		n.pos = math.Mod(n.pos, frames)
	}
	n.state = nodePlaying
	n.m.activate(n)
	return nil
}

func (n *bufferNode) Stop() {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()

	if n.state == nodePlaying {
		n.m.deactivate(n)
		n.state = nodeStopped
	}
}

func (n *bufferNode) Disconnect() {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()

	if n.state == nodePlaying {
		n.m.deactivate(n)
	}
	n.state = nodeDisconnected
}

func (n *bufferNode) SetLooping(looping bool) {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()

	n.looping = looping
}

func (n *bufferNode) SetPitch(pitch float32) {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()

	n.pitch = pitch
}

func (n *bufferNode) mix(dst []float32, count int) bool {
	pcm := n.buf.pcm
	frames := pcm.Frames()
	if frames == 0 {
		n.state = nodeStopped
		return true
	}

	ch := pcm.Channels
	gains := n.gains[:n.m.channels]
	n.v.channelGains(gains)
	step := float64(n.pitch * n.v.dopplerRate())
	// A node with no forward rate, NaN included, holds its position.
	if !(step > 0) {
		return false
	}
	frame := n.frame[:ch]
	end := float64(frames)

	for i := range count {
		if n.pos >= end {
			if !n.looping {
				n.state = nodeStopped
				return true
			}
			n.pos = math.Mod(n.pos, end)
		}

		i0 := int64(n.pos)
		frac := float32(n.pos - float64(i0))
		i1 := i0 + 1
		if i1 >= frames {
			i1 = i0
			if n.looping {
				i1 = 0
			}
		}
		s0 := pcm.Samples[i0*int64(ch):]
		s1 := pcm.Samples[i1*int64(ch):]
		for c := range ch {
			frame[c] = utils.Lerp(s0[c], s1[c], frac)
		}
		addFrame(dst, i, n.m.channels, frame, gains)

		n.pos += step
	}

	if n.pos >= end && !n.looping {
		n.state = nodeStopped
		return true
	}
	return false
}

type streamNode struct {
	m       *Mixer
	src     audio.Source
	v       *voice
	looping bool
	pitch   float32
	state   nodeState
	active  bool
	paused  bool
	drained bool
	ended   bool

	ch       int
	chunk    []float32
	chunkPos int
	chunkLen int
	cur      [2]float32
	next     [2]float32
	frac     float64
	primed   bool
	played   float64

	gains [2]float32
	frame [2]float32
}

func (m *Mixer) NewStreamNode(src audio.Source, v backend.Voice, looping bool, pitch float32) (backend.StreamNode, error) {
	vc, ok := v.(*voice)
	if !ok {
		return nil, fmt.Errorf("%w: foreign voice %T", backend.ErrNodeCreation, v)
	}
	if src.Channels() <= 0 || src.SampleRate() <= 0 {
		return nil, fmt.Errorf("%w: invalid stream layout", backend.ErrUnsupportedAsset)
	}

	ch := 1
	if src.Channels() != 1 {
		ch = m.channels
	}
	converted := audio.Convert(src, m.rate, ch)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, backend.ErrClosed
	}
	if vc.disconnected {
		return nil, fmt.Errorf("%w: voice disconnected", backend.ErrDisconnected)
	}

	return &streamNode{
		m:       m,
		src:     converted,
		v:       vc,
		looping: looping,
		pitch:   pitch,
		ch:      ch,
		chunk:   make([]float32, 1024*ch),
	}, nil
}

func (n *streamNode) Start(offset float64) error {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()

	if n.state != nodeIdle {
		return errStarted
	}
	if n.m.closed {
		return backend.ErrClosed
	}
	if offset > 0 {
		if err := n.seekLocked(offset); err != nil {
			return err
		}
	}

	n.state = nodePlaying
	n.activateLocked()
	return nil
}

func (n *streamNode) activateLocked() {
	if !n.active {
		n.active = true
		n.m.activate(n)
	}
}

func (n *streamNode) deactivateLocked() {
	if n.active {
		n.active = false
		n.m.deactivate(n)
	}
}

func (n *streamNode) Stop() {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()

	if n.state == nodePlaying {
		n.deactivateLocked()
		n.state = nodeStopped
	}
}

// Disconnect also closes the decoder; each play opens its own.
func (n *streamNode) Disconnect() {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()

	n.deactivateLocked()
	if n.state != nodeDisconnected {
		n.state = nodeDisconnected
		if err := n.src.Close(); err != nil {
			n.m.logger.Debug("closing stream decoder", "err", err)
		}
	}
}

func (n *streamNode) SetLooping(looping bool) {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()

	n.looping = looping
}

func (n *streamNode) SetPitch(pitch float32) {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()

	n.pitch = pitch
}

func (n *streamNode) Pause() {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()

	n.paused = true
}

func (n *streamNode) Resume() {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()

	n.paused = false
}

func (n *streamNode) Seek(offset float64) error {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()

	if n.state == nodeDisconnected {
		return backend.ErrDisconnected
	}
	if err := n.seekLocked(offset); err != nil {
		return err
	}
	if n.state == nodePlaying {
		n.activateLocked()
	}
	return nil
}

func (n *streamNode) seekLocked(offset float64) error {
	frame := int64(math.Round(max(offset, 0) * float64(n.m.rate)))
	if err := audio.SeekFrame(n.src, frame); err != nil {
		return fmt.Errorf("seeking stream to %.3fs: %w", offset, err)
	}
	n.chunkPos, n.chunkLen = 0, 0
	n.primed = false
	n.frac = 0
	n.played = float64(frame)
	n.drained = false
	n.ended = false
	return nil
}

func (n *streamNode) Position() float64 {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()

	return n.played / float64(n.m.rate)
}

func (n *streamNode) Ended() bool {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()

	return n.ended
}

// readFrame pulls the next source frame into dst, rewinding when looping.
// It returns false once the source has nothing more to give.
func (n *streamNode) readFrame(dst []float32) bool {
	for attempt := 0; n.chunkPos >= n.chunkLen; attempt++ {
		if attempt > 1 {
			return false
		}

		got, err := n.src.ReadSamples(n.chunk)
		n.chunkPos, n.chunkLen = 0, got-got%n.ch
		if n.chunkLen > 0 {
			break
		}

		if err != nil && !errors.Is(err, io.EOF) {
			n.m.warn.Do(func() {
				n.m.logger.Warn("stream decode failed", "err", err)
			})
			return false
		}

		if !n.looping {
			return false
		}
		if err := audio.SeekFrame(n.src, 0); err != nil {
			return false
		}
		n.played = 0
	}

	copy(dst, n.chunk[n.chunkPos:n.chunkPos+n.ch])
	n.chunkPos += n.ch
	return true
}

// finish marks the stream over. The mixer drops it from the active list.
func (n *streamNode) finish() bool {
	n.ended = true
	n.active = false
	return true
}

func (n *streamNode) mix(dst []float32, count int) bool {
	if n.paused {
		return false
	}
	if n.ended {
		return n.finish()
	}

	cur, next := n.cur[:n.ch], n.next[:n.ch]
	if !n.primed {
		if !n.readFrame(cur) {
			return n.finish()
		}
		if !n.readFrame(next) {
			copy(next, cur)
			n.drained = true
		}
		n.primed = true
	}

	gains := n.gains[:n.m.channels]
	n.v.channelGains(gains)
	step := float64(n.pitch * n.v.dopplerRate())
	if !(step > 0) {
		return false
	}
	frame := n.frame[:n.ch]

	for i := range count {
		f := float32(n.frac)
		for c := range n.ch {
			frame[c] = utils.Lerp(cur[c], next[c], f)
		}
		addFrame(dst, i, n.m.channels, frame, gains)

		n.frac += step
		n.played += step
		for n.frac >= 1 {
			if n.drained {
				return n.finish()
			}
			n.frac--
			copy(cur, next)
			if !n.readFrame(next) {
				copy(next, cur)
				n.drained = true
			}
		}
	}
	return false
}
