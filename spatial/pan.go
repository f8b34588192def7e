// SPDX-License-Identifier: EPL-2.0

package spatial

import "math"

// Pan maps a listener-local position to an equal-power stereo pair.
// Sources straight ahead, behind or on the listener are centred.
func Pan(local Vec3) (left, right float32) {
	var x float32
	if l := local.Len(); l > 0 {
		x = local[0] / l
	}
	angle := (float64(x) + 1) * math.Pi / 4
	return float32(math.Cos(angle)), float32(math.Sin(angle))
}

// DopplerFactor is the playback-rate multiplier for a source moving
// relative to the listener. Velocities are projected on the line between
// them; the shift is scaled by factor and computed against speedOfSound
// expressed in world units via dopplerVelocity.
func DopplerFactor(sourcePos, sourceVel, listenerPos, listenerVel Vec3, factor, dopplerVelocity, speedOfSound float32) float32 {
	if factor <= 0 || speedOfSound <= 0 {
		return 1
	}
	toListener := listenerPos.Sub(sourcePos)
	dist := toListener.Len()
	if dist == 0 {
		return 1
	}
	axis := toListener.Scale(1 / dist)

	c := speedOfSound * max(dopplerVelocity, 1e-6)
	limit := c / factor
	vl := clamp(listenerVel.Dot(axis), -limit, limit)
	vs := clamp(sourceVel.Dot(axis), -limit, limit)

	den := c - factor*vs
	if den <= 0 {
		return 1
	}
	return (c - factor*vl) / den
}

func clamp(x, lo, hi float32) float32 {
	return max(lo, min(x, hi))
}
