// SPDX-License-Identifier: EPL-2.0

// Package backendtest provides a scriptable backend.Backend for tests.
package backendtest

import (
	"errors"

	"github.com/ik5/soundscape/audio"
	"github.com/ik5/soundscape/backend"
	"github.com/ik5/soundscape/spatial"
)

// ErrInjected is returned by node creation while FailNodes is set.
var ErrInjected = errors.New("backendtest: injected failure")

// Backend records every call and never renders. Time moves only through
// Advance.
type Backend struct {
	Now      float64
	Rate     int
	Chans    int
	Caps     backend.Capabilities
	Master   Gain
	Listener backend.Listener
	Doppler  backend.Doppler
	Closed   bool

	// FailNodes makes NewBufferNode and NewStreamNode fail.
	FailNodes bool
	// SeekErr is copied into every new stream node.
	SeekErr error

	Voices  []*Voice
	Buffers []*Buffer
	Nodes   []*Node
}

// New returns a backend at 44100 Hz stereo with the given capabilities.
func New(caps backend.Capabilities) *Backend {
	return &Backend{Rate: 44100, Chans: 2, Caps: caps, Master: Gain{Value: 1}}
}

// Advance moves the clock forward by seconds.
func (b *Backend) Advance(seconds float64) { b.Now += seconds }

func (b *Backend) Name() string                       { return "fake" }
func (b *Backend) SampleRate() int                    { return b.Rate }
func (b *Backend) Channels() int                      { return b.Chans }
func (b *Backend) Capabilities() backend.Capabilities { return b.Caps }
func (b *Backend) CurrentTime() float64               { return b.Now }
func (b *Backend) MasterGain() backend.GainStage      { return &b.Master }
func (b *Backend) SetListener(l backend.Listener)     { b.Listener = l }
func (b *Backend) SetDoppler(d backend.Doppler)       { b.Doppler = d }

func (b *Backend) Close() error {
	b.Closed = true
	return nil
}

func (b *Backend) NewVoice() (backend.Voice, error) {
	if b.Closed {
		return nil, backend.ErrClosed
	}
	v := &Voice{Gain: Gain{Value: 1}}
	if b.Caps.NativeSpatializer {
		v.Spatial = &Spatializer{}
	}
	b.Voices = append(b.Voices, v)
	return v, nil
}

func (b *Backend) NewBuffer(pcm *audio.Buffer) (backend.Buffer, error) {
	if b.Closed {
		return nil, backend.ErrClosed
	}
	buf := &Buffer{PCM: pcm}
	b.Buffers = append(b.Buffers, buf)
	return buf, nil
}

func (b *Backend) NewBufferNode(buf backend.Buffer, v backend.Voice, looping bool, pitch float32) (backend.Node, error) {
	if b.FailNodes {
		return nil, ErrInjected
	}
	n := &Node{Buffer: buf.(*Buffer), Voice: v.(*Voice), Looping: looping, Pitch: pitch}
	b.Nodes = append(b.Nodes, n)
	return n, nil
}

func (b *Backend) NewStreamNode(src audio.Source, v backend.Voice, looping bool, pitch float32) (backend.StreamNode, error) {
	if b.FailNodes {
		return nil, ErrInjected
	}
	n := &Node{Stream: true, Source: src, Voice: v.(*Voice), Looping: looping, Pitch: pitch, SeekErr: b.SeekErr}
	b.Nodes = append(b.Nodes, n)
	return n, nil
}

// LastNode returns the most recently created node or nil.
func (b *Backend) LastNode() *Node {
	if len(b.Nodes) == 0 {
		return nil
	}
	return b.Nodes[len(b.Nodes)-1]
}

type Gain struct{ Value float32 }

func (g *Gain) SetGain(v float32) { g.Value = v }

type Voice struct {
	Gain
	Spatial      *Spatializer
	Disconnected bool
}

func (v *Voice) Spatializer() backend.Spatializer {
	if v.Spatial == nil {
		return nil
	}
	return v.Spatial
}

func (v *Voice) Disconnect() { v.Disconnected = true }

type Spatializer struct {
	Position    spatial.Vec3
	Velocity    spatial.Vec3
	Orientation spatial.Vec3
	Params      spatial.Params
}

func (s *Spatializer) SetPosition(p spatial.Vec3)      { s.Position = p }
func (s *Spatializer) SetVelocity(v spatial.Vec3)      { s.Velocity = v }
func (s *Spatializer) SetOrientation(dir spatial.Vec3) { s.Orientation = dir }
func (s *Spatializer) SetDistance(p spatial.Params)    { s.Params = p }

type Buffer struct {
	PCM      *audio.Buffer
	Released bool
}

func (b *Buffer) Duration() float64 { return b.PCM.Duration() }
func (b *Buffer) Release()          { b.Released = true }

// Node implements both backend.Node and backend.StreamNode.
type Node struct {
	Stream bool
	Buffer *Buffer
	Source audio.Source
	Voice  *Voice

	Looping      bool
	Pitch        float32
	Starts       []float64
	Seeks        []float64
	Stopped      bool
	Disconnected bool
	Paused       bool

	// Pos and Done are what Position and Ended report; tests script them.
	Pos  float64
	Done bool
	// SeekErr is returned by Seek and by Start with a positive offset.
	SeekErr error
}

func (n *Node) Start(offset float64) error {
	if offset > 0 && n.SeekErr != nil {
		return n.SeekErr
	}
	n.Starts = append(n.Starts, offset)
	n.Pos = offset
	return nil
}

func (n *Node) Stop()                   { n.Stopped = true }
func (n *Node) Disconnect()             { n.Disconnected = true }
func (n *Node) SetLooping(looping bool) { n.Looping = looping }
func (n *Node) SetPitch(pitch float32)  { n.Pitch = pitch }
func (n *Node) Pause()                  { n.Paused = true }
func (n *Node) Resume()                 { n.Paused = false }
func (n *Node) Position() float64       { return n.Pos }
func (n *Node) Ended() bool             { return n.Done }

func (n *Node) Seek(offset float64) error {
	if n.SeekErr != nil {
		return n.SeekErr
	}
	n.Seeks = append(n.Seeks, offset)
	n.Pos = offset
	n.Done = false
	return nil
}

// Live reports whether the node has been started and not released.
func (n *Node) Live() bool {
	return len(n.Starts) > 0 && !n.Stopped && !n.Disconnected
}
