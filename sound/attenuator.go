// SPDX-License-Identifier: EPL-2.0

package sound

import "github.com/ik5/soundscape/spatial"

// attenuator applies a source's gain and geometry to its voice. The device
// picks one implementation at construction from the backend capabilities.
type attenuator interface {
	// masterGain is the value for the shared output stage.
	masterGain(listenerGain float32) float32
	// apply pushes the source's current state to its voice.
	apply(s *Source)
	// perFrame reports whether Update must call apply for s.
	perFrame(s *Source) bool
}

// nativeAttenuator hands distance, pan and Doppler to the backend
// spatializer. Relative sources are re-placed at listener + offset every
// frame since the spatializer works in world space.
type nativeAttenuator struct{ d *Device }

func (a nativeAttenuator) masterGain(listenerGain float32) float32 { return listenerGain }

func (a nativeAttenuator) perFrame(s *Source) bool { return s.relative }

func (a nativeAttenuator) apply(s *Source) {
	s.voice.SetGain(s.gain)

	sp := s.voice.Spatializer()
	if sp == nil {
		return
	}
	pos := s.position
	if s.relative {
		pos = pos.Add(a.d.listener.Transform.Position())
	}
	sp.SetPosition(pos)
	sp.SetVelocity(s.velocity)
	sp.SetOrientation(s.direction)
	sp.SetDistance(s.params())
}

// manualAttenuator evaluates the distance model on the device and folds the
// listener gain into every voice, so the master stage stays at unity.
type manualAttenuator struct{ d *Device }

func (a manualAttenuator) masterGain(float32) float32 { return 1 }

func (a manualAttenuator) perFrame(*Source) bool { return true }

func (a manualAttenuator) apply(s *Source) {
	s.gainFactor = spatial.Gain(s.position, a.d.listener.Transform.Position(), s.relative, s.params(), a.d.listenerGain)
	s.voice.SetGain(s.gainFactor * s.gain)
}
