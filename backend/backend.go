// SPDX-License-Identifier: EPL-2.0

package backend

import (
	"github.com/ik5/soundscape/audio"
	"github.com/ik5/soundscape/spatial"
)

// Capabilities is decided once when a backend is built. The sound device
// selects its attenuation strategy from it.
type Capabilities struct {
	// NativeSpatializer means voices carry a Spatializer that applies the
	// distance model, panning and Doppler itself.
	NativeSpatializer bool
	// Looping means stream nodes loop on their own.
	Looping bool
}

// Listener is the single ear every voice is rendered for.
type Listener struct {
	Transform spatial.Transform
	Velocity  spatial.Vec3
}

// Doppler configures the spatializer's pitch shift.
type Doppler struct {
	Factor       float32
	Velocity     float32
	SpeedOfSound float32
}

// Backend is the rendering substrate the sound device drives. Implementations
// may render on their own goroutine but every method here is called from the
// device's frame thread.
type Backend interface {
	Name() string
	SampleRate() int
	Channels() int
	Capabilities() Capabilities

	// CurrentTime is the audio clock in seconds. It only moves forward.
	CurrentTime() float64

	// MasterGain is the output stage shared by every voice.
	MasterGain() GainStage

	// SetListener is ignored by backends without a native spatializer.
	SetListener(l Listener)
	SetDoppler(d Doppler)

	// NewVoice creates a source's persistent gain (and spatializer) chain.
	NewVoice() (Voice, error)
	// NewBuffer uploads decoded PCM; buf is already at the backend rate.
	NewBuffer(buf *audio.Buffer) (Buffer, error)
	// NewBufferNode creates a one-shot node playing buf through v. It does
	// not sound until Start.
	NewBufferNode(buf Buffer, v Voice, looping bool, pitch float32) (Node, error)
	// NewStreamNode creates a node decoding src on demand through v.
	NewStreamNode(src audio.Source, v Voice, looping bool, pitch float32) (StreamNode, error)

	Close() error
}

// GainStage is a linear amplitude multiplier.
type GainStage interface {
	SetGain(g float32)
}

// Voice is a source's output chain. It outlives individual nodes.
type Voice interface {
	GainStage
	// Spatializer is nil unless the backend has a native spatializer.
	Spatializer() Spatializer
	// Disconnect detaches the chain from the output; the voice is unusable
	// afterwards.
	Disconnect()
}

// Spatializer renders a voice at a world position. Listener-relative
// sources are placed by the caller at listener position + offset.
type Spatializer interface {
	SetPosition(p spatial.Vec3)
	SetVelocity(v spatial.Vec3)
	SetOrientation(dir spatial.Vec3)
	SetDistance(p spatial.Params)
}

// Buffer is backend-owned decoded PCM.
type Buffer interface {
	Duration() float64
	Release()
}

// Node is one playback of a buffer or stream.
type Node interface {
	// Start begins playback offset seconds into the data.
	Start(offset float64) error
	Stop()
	// Disconnect detaches the node from its voice; it cannot be restarted.
	Disconnect()
	SetLooping(looping bool)
	SetPitch(pitch float32)
}

// StreamNode can be paused and repositioned in place.
type StreamNode interface {
	Node
	Pause()
	Resume()
	Seek(offset float64) error
	// Position is the playback position in seconds.
	Position() float64
	// Ended reports that a non-looping stream ran out of data.
	Ended() bool
}
