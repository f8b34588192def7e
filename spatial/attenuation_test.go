// SPDX-License-Identifier: EPL-2.0

package spatial

import (
	"math"
	"testing"
)

func approx(a, b float32) bool { return math.Abs(float64(a-b)) < 1e-5 }

func TestGain_Boundaries(t *testing.T) {
	t.Parallel()

	for _, model := range []DistanceModel{Inverse, Linear} {
		t.Run(model.String(), func(t *testing.T) {
			t.Parallel()

			p := Params{MinDistance: 2, MaxDistance: 20, RollOff: 1, Model: model}

			tests := []struct {
				name string
				d    float32
				want float32
			}{
				{"inside min", 0.5, 1},
				{"at min", 2, 1},
				{"at max", 20, 0},
				{"beyond max", 100, 0},
			}
			for _, tt := range tests {
				got := Gain(Vec3{tt.d, 0, 0}, Vec3{}, false, p, 1)
				if got != tt.want {
					t.Errorf("%s: Gain(d=%v) = %v, want %v", tt.name, tt.d, got, tt.want)
				}
			}
		})
	}
}

func TestGain_Curves(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		params       Params
		source       Vec3
		listener     Vec3
		relative     bool
		listenerGain float32
		want         float32
	}{
		{
			name:         "inverse at 5 with min 1 max 10",
			params:       Params{MinDistance: 1, MaxDistance: 10, RollOff: 1, Model: Inverse},
			source:       Vec3{5, 0, 0},
			listenerGain: 1,
			want:         0.2,
		},
		{
			name:         "linear midpoint",
			params:       Params{MinDistance: 0, MaxDistance: 10, RollOff: 1, Model: Linear},
			source:       Vec3{0, 5, 0},
			listenerGain: 1,
			want:         0.5,
		},
		{
			name:         "rolloff steepens inverse",
			params:       Params{MinDistance: 1, MaxDistance: 10, RollOff: 2, Model: Inverse},
			source:       Vec3{3, 0, 0},
			listenerGain: 1,
			want:         0.2,
		},
		{
			name:         "listener gain scales",
			params:       Params{MinDistance: 1, MaxDistance: 10, RollOff: 1, Model: Inverse},
			source:       Vec3{5, 0, 0},
			listenerGain: 0.5,
			want:         0.1,
		},
		{
			name:         "world space uses listener position",
			params:       Params{MinDistance: 1, MaxDistance: 10, RollOff: 1, Model: Inverse},
			source:       Vec3{10, 0, 0},
			listener:     Vec3{5, 0, 0},
			listenerGain: 1,
			want:         0.2,
		},
		{
			name:         "relative ignores listener position",
			params:       Params{MinDistance: 1, MaxDistance: 10, RollOff: 1, Model: Inverse},
			source:       Vec3{0, 0, 5},
			listener:     Vec3{0, 0, 5},
			relative:     true,
			listenerGain: 1,
			want:         0.2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Gain(tt.source, tt.listener, tt.relative, tt.params, tt.listenerGain)
			if !approx(got, tt.want) {
				t.Errorf("Gain() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNudge(t *testing.T) {
	t.Parallel()

	if got := NudgeMin(10, 10); !approx(got, 9.99) {
		t.Errorf("NudgeMin(10, 10) = %v, want 9.99", got)
	}
	if got := NudgeMin(3, 10); got != 3 {
		t.Errorf("NudgeMin(3, 10) = %v, want 3", got)
	}
	if got := NudgeMax(10, 10); !approx(got, 10.01) {
		t.Errorf("NudgeMax(10, 10) = %v, want 10.01", got)
	}
	if got := NudgeMax(1, 10); got != 10 {
		t.Errorf("NudgeMax(1, 10) = %v, want 10", got)
	}
}

func BenchmarkGain(b *testing.B) {
	p := Params{MinDistance: 1, MaxDistance: 100, RollOff: 1}
	src := Vec3{3, 4, 12}

	b.ReportAllocs()
	var sink float32
	for b.Loop() {
		sink = Gain(src, Vec3{}, false, p, 1)
	}
	_ = sink
}
