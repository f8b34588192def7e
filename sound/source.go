// SPDX-License-Identifier: EPL-2.0

package sound

import (
	"context"
	"fmt"
	"math"

	"github.com/ik5/soundscape/backend"
	"github.com/ik5/soundscape/config"
	"github.com/ik5/soundscape/spatial"
)

// SeekTolerance is how close, in seconds, two playback positions must be to
// count as the same. Seeks closer than this are skipped and starts closer
// than this to zero start from the beginning.
const SeekTolerance = 0.05

// State of a source's playback.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	}
	return "stopped"
}

// Source is one playback slot. It plays at most one asset at a time through
// a voice it owns for its whole life. Like the rest of the package it must
// only be used from the frame thread.
type Source struct {
	id  int
	dev *Device

	voice backend.Voice

	gain        float32
	gainFactor  float32
	pitch       float32
	looping     bool
	relative    bool
	minDistance float32
	maxDistance float32
	rollOff     float32
	position    spatial.Vec3
	velocity    spatial.Vec3
	direction   spatial.Vec3

	state  State
	asset  *Asset
	node   backend.Node
	stream backend.StreamNode

	playStart  float64
	playPaused float64

	err       error
	destroyed bool
}

func newSource(d *Device, id int, v backend.Voice, p config.Source) *Source {
	s := &Source{
		id:          id,
		dev:         d,
		voice:       v,
		gain:        p.Gain,
		gainFactor:  1,
		pitch:       p.Pitch,
		looping:     p.Looping,
		relative:    p.Relative,
		minDistance: p.MinDistance,
		maxDistance: p.MaxDistance,
		rollOff:     p.RollOff,
	}
	if p.Position != nil {
		s.position = *p.Position
	}
	if p.Velocity != nil {
		s.velocity = *p.Velocity
	}
	if p.Direction != nil {
		s.direction = *p.Direction
	}
	return s
}

// ID is unique per device and never reused.
func (s *Source) ID() int { return s.id }

func (s *Source) State() State    { return s.state }
func (s *Source) Playing() bool   { return s.state == Playing }
func (s *Source) Paused() bool    { return s.state == Paused }
func (s *Source) Asset() *Asset   { return s.asset }
func (s *Source) Destroyed() bool { return s.destroyed }

// Err returns why the last failed operation failed, or nil.
func (s *Source) Err() error { return s.err }

func (s *Source) params() spatial.Params {
	return spatial.Params{
		MinDistance: s.minDistance,
		MaxDistance: s.maxDistance,
		RollOff:     s.rollOff,
		Model:       s.dev.model,
	}
}

func (s *Source) fail(err error) bool {
	s.err = err
	s.dev.logger.Debug("source operation failed", "source", s.id, "err", err)
	return false
}

// Play binds a and starts it seek seconds in. Playing the asset the source
// is already bound to is a Seek. Any other playback is stopped first.
func (s *Source) Play(a *Asset, seek float64) bool {
	switch {
	case s.destroyed:
		return s.fail(ErrDestroyed)
	case a == nil:
		return s.fail(ErrNoAsset)
	case s.asset == a:
		return s.Seek(seek)
	case a.destroyed:
		return s.fail(fmt.Errorf("play %q: %w", a.name, ErrAssetDestroyed))
	}

	if s.state != Stopped {
		s.Stop()
	}

	if err := s.startNode(a, seek); err != nil {
		return s.fail(fmt.Errorf("play %q: %w", a.name, err))
	}

	s.asset = a
	s.state = Playing
	s.err = nil
	s.dev.register(s)
	s.dev.metrics.started.Add(context.Background(), 1)
	s.dev.logger.Debug("source playing", "source", s.id, "asset", a.name, "seek", seek)
	return true
}

// startNode creates and starts the node for a at offset. On error nothing
// is left allocated.
func (s *Source) startNode(a *Asset, offset float64) error {
	if offset < SeekTolerance {
		offset = 0
	}
	b := s.dev.backend
	now := b.CurrentTime()

	if a.buffer != nil {
		node, err := b.NewBufferNode(a.buffer, s.voice, s.looping, s.pitch)
		if err != nil {
			return err
		}
		if err := node.Start(offset); err != nil {
			node.Disconnect()
			return err
		}
		s.node = node
		s.playStart = now - offset
		return nil
	}

	src, err := a.open()
	if err != nil {
		return err
	}
	stream, err := b.NewStreamNode(src, s.voice, s.looping && s.dev.caps.Looping, s.pitch)
	if err != nil {
		src.Close()
		return err
	}
	if err := stream.Start(offset); err != nil {
		if offset == 0 {
			stream.Disconnect()
			return err
		}
		s.dev.logger.Debug("stream cannot seek, starting from zero", "source", s.id, "err", err)
		if err := stream.Start(0); err != nil {
			stream.Disconnect()
			return err
		}
		offset = 0
	}
	s.stream = stream
	s.playStart = now - offset
	return nil
}

// releaseNode stops and disconnects whichever node is live.
func (s *Source) releaseNode() {
	if s.node != nil {
		s.node.Stop()
		s.node.Disconnect()
		s.node = nil
	}
	if s.stream != nil {
		s.stream.Stop()
		s.stream.Disconnect()
		s.stream = nil
	}
}

// Stop ends playback and unbinds the asset. It reports whether the source
// was playing or paused.
func (s *Source) Stop() bool {
	if s.state == Stopped {
		return false
	}
	s.releaseNode()
	s.asset = nil
	s.state = Stopped
	s.dev.unregister(s)
	s.dev.logger.Debug("source stopped", "source", s.id)
	return true
}

// finish is the natural end of a non-looping playback, reached from
// Update. The registry drops the source itself.
func (s *Source) finish() {
	s.releaseNode()
	s.asset = nil
	s.state = Stopped
	s.dev.metrics.retired.Add(context.Background(), 1)
	s.dev.logger.Debug("source ended", "source", s.id)
}

// Pause holds the playback position. Buffer nodes are released and
// recreated on Resume; streams pause in place.
func (s *Source) Pause() bool {
	if s.state != Playing {
		return false
	}

	s.playPaused = s.dev.backend.CurrentTime()
	if s.node != nil {
		s.node.Stop()
		s.node.Disconnect()
		s.node = nil
	}
	if s.stream != nil {
		s.stream.Pause()
	}

	s.state = Paused
	s.dev.unregister(s)
	return true
}

// Resume continues from where Pause left off.
func (s *Source) Resume() bool {
	return s.resume(math.NaN())
}

// ResumeAt continues from seek seconds instead of the paused position.
func (s *Source) ResumeAt(seek float64) bool {
	return s.resume(seek)
}

func (s *Source) resume(seek float64) bool {
	if s.state != Paused {
		return false
	}

	if s.stream != nil {
		if !math.IsNaN(seek) && math.Abs(s.stream.Position()-seek) > SeekTolerance {
			s.seekStream(seek)
		}
		s.stream.Resume()
	} else {
		if math.IsNaN(seek) {
			seek = s.playPaused - s.playStart
		}
		if err := s.startNode(s.asset, seek); err != nil {
			s.Stop()
			return s.fail(fmt.Errorf("resume: %w", err))
		}
	}

	s.state = Playing
	s.dev.register(s)
	return true
}

// Rewind restarts a playing source from the beginning.
func (s *Source) Rewind() bool {
	if s.state != Playing {
		return false
	}
	return s.reposition(0)
}

// Seek moves a playing source to seek seconds. Targets within
// SeekTolerance of the current position, or of the same position one loop
// later, are skipped. It returns true whenever the source is playing.
func (s *Source) Seek(seek float64) bool {
	if s.state != Playing {
		return s.fail(ErrNotPlaying)
	}

	tell := s.Tell()
	delta := math.Abs(tell - seek)
	if s.looping {
		delta = min(math.Abs(tell-(s.asset.duration+seek)), delta)
	}
	if delta <= SeekTolerance {
		return true
	}
	return s.reposition(seek)
}

// reposition moves playback to seek. Buffer nodes cannot move, so they are
// replaced; if that fails the source stops.
func (s *Source) reposition(seek float64) bool {
	if s.stream != nil {
		s.seekStream(seek)
		return true
	}

	s.node.Stop()
	s.node.Disconnect()
	s.node = nil
	if err := s.startNode(s.asset, seek); err != nil {
		s.Stop()
		return s.fail(fmt.Errorf("seek: %w", err))
	}
	return true
}

// seekStream is best effort: decoders that cannot seek keep their position.
func (s *Source) seekStream(seek float64) {
	if err := s.stream.Seek(max(seek, 0)); err != nil {
		s.dev.logger.Debug("stream seek ignored", "source", s.id, "seek", seek, "err", err)
		return
	}
	s.playStart = s.dev.backend.CurrentTime() - seek
}

// Tell is the playback position in seconds, or 0 when stopped.
func (s *Source) Tell() float64 {
	switch {
	case s.state == Stopped:
		return 0
	case s.stream != nil:
		return s.stream.Position()
	case s.state == Paused:
		return s.playPaused - s.playStart
	}
	return s.dev.backend.CurrentTime() - s.playStart
}

// Destroy stops the source and detaches its voice. The source cannot be
// used afterwards.
func (s *Source) Destroy() {
	if s.destroyed {
		return
	}
	s.Stop()
	s.voice.Disconnect()
	s.destroyed = true
	delete(s.dev.sources, s.id)
}

func (s *Source) Gain() float32 { return s.gain }

// SetGain takes effect immediately, whether or not the source is playing.
func (s *Source) SetGain(g float32) {
	s.gain = g
	s.dev.att.apply(s)
}

func (s *Source) Pitch() float32 { return s.pitch }

// SetPitch rejects anything but a positive rate, leaving the source as it
// was.
func (s *Source) SetPitch(p float32) bool {
	if !(p > 0) {
		return s.fail(fmt.Errorf("%w: pitch %v must be positive", ErrInvalidParam, p))
	}
	s.pitch = p
	if s.node != nil {
		s.node.SetPitch(p)
	}
	if s.stream != nil {
		s.stream.SetPitch(p)
	}
	return true
}

func (s *Source) Looping() bool { return s.looping }

func (s *Source) SetLooping(l bool) {
	s.looping = l
	if s.node != nil {
		s.node.SetLooping(l)
	}
	if s.stream != nil {
		s.stream.SetLooping(l && s.dev.caps.Looping)
	}
}

func (s *Source) Relative() bool { return s.relative }

func (s *Source) SetRelative(r bool) {
	s.relative = r
	s.dev.att.apply(s)
}

func (s *Source) Position() spatial.Vec3 { return s.position }

func (s *Source) SetPosition(p spatial.Vec3) {
	s.position = p
	s.dev.att.apply(s)
}

func (s *Source) Velocity() spatial.Vec3 { return s.velocity }

func (s *Source) SetVelocity(v spatial.Vec3) {
	s.velocity = v
	s.dev.att.apply(s)
}

func (s *Source) Direction() spatial.Vec3 { return s.direction }

func (s *Source) SetDirection(d spatial.Vec3) {
	s.direction = d
	s.dev.att.apply(s)
}

func (s *Source) MinDistance() float32 { return s.minDistance }

// SetMinDistance stores v, pulled just below the max distance when equal
// to it. Negative values and values above the max distance are rejected.
func (s *Source) SetMinDistance(v float32) bool {
	if !(v >= 0 && v <= s.maxDistance) {
		return s.fail(fmt.Errorf("%w: min distance %v outside [0, %v]", ErrInvalidParam, v, s.maxDistance))
	}
	s.minDistance = spatial.NudgeMin(v, s.maxDistance)
	s.dev.att.apply(s)
	return true
}

func (s *Source) MaxDistance() float32 { return s.maxDistance }

// SetMaxDistance stores v, pushed just above the min distance when equal
// to it. Values below the min distance are rejected.
func (s *Source) SetMaxDistance(v float32) bool {
	if !(v >= s.minDistance) {
		return s.fail(fmt.Errorf("%w: max distance %v below min distance %v", ErrInvalidParam, v, s.minDistance))
	}
	s.maxDistance = spatial.NudgeMax(s.minDistance, v)
	s.dev.att.apply(s)
	return true
}

func (s *Source) RollOff() float32 { return s.rollOff }

func (s *Source) SetRollOff(v float32) bool {
	if !(v >= 0) {
		return s.fail(fmt.Errorf("%w: roll-off %v must not be negative", ErrInvalidParam, v))
	}
	s.rollOff = v
	s.dev.att.apply(s)
	return true
}

// GainFactor is the distance attenuation last computed on the device,
// listener gain included. It stays 1 when the backend spatializes.
func (s *Source) GainFactor() float32 { return s.gainFactor }
