// SPDX-License-Identifier: EPL-2.0

package spatial

// Transform is a 4x3 affine matrix stored as four basis rows:
// right [0..2], up [3..5], back [6..8], position [9..11].
type Transform [12]float32

// Identity places the listener at the origin looking down -Z with +Y up.
func Identity() Transform {
	return Transform{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
		0, 0, 0,
	}
}

// LookAt builds a transform at pos facing at, with up as the approximate up
// vector.
func LookAt(pos, at, up Vec3) Transform {
	back := pos.Sub(at).Normalize()
	right := up.Cross(back).Normalize()
	trueUp := back.Cross(right)
	return Transform{
		right[0], right[1], right[2],
		trueUp[0], trueUp[1], trueUp[2],
		back[0], back[1], back[2],
		pos[0], pos[1], pos[2],
	}
}

func (t Transform) Position() Vec3 { return Vec3{t[9], t[10], t[11]} }
func (t Transform) Right() Vec3    { return Vec3{t[0], t[1], t[2]} }
func (t Transform) Up() Vec3       { return Vec3{t[3], t[4], t[5]} }

// At is the facing direction, the negated back row.
func (t Transform) At() Vec3 { return Vec3{-t[6], -t[7], -t[8]} }

// ToLocal expresses a world-space point in the listener's frame
// (x right, y up, z back).
func (t Transform) ToLocal(p Vec3) Vec3 {
	d := p.Sub(t.Position())
	return Vec3{
		d.Dot(t.Right()),
		d.Dot(t.Up()),
		-d.Dot(t.At()),
	}
}
