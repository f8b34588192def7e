// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"github.com/ik5/soundscape/backend"
	"github.com/ik5/soundscape/spatial"
)

type voice struct {
	m *Mixer

	gain         float32
	native       bool
	position     spatial.Vec3
	velocity     spatial.Vec3
	direction    spatial.Vec3
	params       spatial.Params
	disconnected bool
}

func (m *Mixer) NewVoice() (backend.Voice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, backend.ErrClosed
	}

	return &voice{
		m:      m,
		gain:   1,
		native: m.caps.NativeSpatializer,
		params: spatial.Params{MinDistance: 1, MaxDistance: math32Max, RollOff: 1},
	}, nil
}

const math32Max = 3.4e38

func (v *voice) SetGain(g float32) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()

	v.gain = g
}

func (v *voice) Spatializer() backend.Spatializer {
	if !v.native {
		return nil
	}
	return spatializer{v}
}

func (v *voice) Disconnect() {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()

	v.disconnected = true
}

// channelGains computes per-output-channel gain for the current geometry.
// Called with m.mu held.
func (v *voice) channelGains(out []float32) {
	g := v.gain
	if v.disconnected {
		g = 0
	}

	if !v.native {
		for c := range out {
			out[c] = g
		}
		return
	}

	l := v.m.listener
	g *= v.params.Falloff(spatial.Distance(v.position, l.Transform.Position(), false))

	if len(out) != 2 {
		out[0] = g
		return
	}

	left, right := spatial.Pan(l.Transform.ToLocal(v.position))
	out[0], out[1] = g*left, g*right
}

// dopplerRate is the pitch multiplier from relative motion. Called with
// m.mu held.
func (v *voice) dopplerRate() float32 {
	if !v.native {
		return 1
	}

	d := v.m.doppler
	l := v.m.listener
	return spatial.DopplerFactor(v.position, v.velocity, l.Transform.Position(), l.Velocity, d.Factor, d.Velocity, d.SpeedOfSound)
}

type spatializer struct{ v *voice }

func (s spatializer) SetPosition(p spatial.Vec3) {
	s.v.m.mu.Lock()
	defer s.v.m.mu.Unlock()

	s.v.position = p
}

func (s spatializer) SetVelocity(vel spatial.Vec3) {
	s.v.m.mu.Lock()
	defer s.v.m.mu.Unlock()

	s.v.velocity = vel
}

func (s spatializer) SetOrientation(dir spatial.Vec3) {
	s.v.m.mu.Lock()
	defer s.v.m.mu.Unlock()

	s.v.direction = dir
}

func (s spatializer) SetDistance(p spatial.Params) {
	s.v.m.mu.Lock()
	defer s.v.m.mu.Unlock()

	s.v.params = p
}
