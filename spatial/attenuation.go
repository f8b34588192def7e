// SPDX-License-Identifier: EPL-2.0

package spatial

// DistanceModel selects the falloff curve between min and max distance.
type DistanceModel int

const (
	Inverse DistanceModel = iota
	Linear
)

func (m DistanceModel) String() string {
	if m == Linear {
		return "linear"
	}
	return "inverse"
}

// Params are the per-source falloff settings.
type Params struct {
	MinDistance float32
	MaxDistance float32
	RollOff     float32
	Model       DistanceModel
}

// Distance from the listener. A relative source's position is already
// listener-relative, so its length is the distance.
func Distance(source, listener Vec3, relative bool) float32 {
	if relative {
		return source.Len()
	}
	return source.Sub(listener).Len()
}

// Falloff is the distance curve alone, in [0,1].
func (p Params) Falloff(d float32) float32 {
	switch {
	case d <= p.MinDistance:
		return 1
	case d >= p.MaxDistance:
		return 0
	case p.Model == Linear:
		return (p.MaxDistance - d) / (p.MaxDistance - p.MinDistance)
	default:
		return p.MinDistance / (p.MinDistance + p.RollOff*(d-p.MinDistance))
	}
}

// Gain is the attenuated output gain for a source, scaled by the listener
// gain.
func Gain(source, listener Vec3, relative bool, p Params, listenerGain float32) float32 {
	return p.Falloff(Distance(source, listener, relative)) * listenerGain
}

// NudgeMin returns the min distance to store when min is set while max is
// max. Equal bounds would make the linear curve divide by zero, so min is
// pulled just under max.
func NudgeMin(min, max float32) float32 {
	if min == max {
		return max * 0.999
	}
	return min
}

// NudgeMax is the counterpart of NudgeMin for setting max.
func NudgeMax(min, max float32) float32 {
	if max == min {
		return min * 1.001
	}
	return max
}
