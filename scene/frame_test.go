package scene

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func vecsEqual(a, b Vec3) bool {
	return almostEqual(a.X, b.X) && almostEqual(a.Y, b.Y) && almostEqual(a.Z, b.Z)
}

func TestToRender(t *testing.T) {
	tests := []struct {
		name   string
		point  Vec3
		offset Vec3
		want   Vec3
	}{
		{
			name:   "zero offset swaps up axis",
			point:  Vec3{X: 0, Y: 5, Z: 2},
			offset: Vec3{},
			want:   Vec3{X: 0, Y: 2, Z: 5},
		},
		{
			name:   "offset subtracted before swap",
			point:  Vec3{X: 1, Y: 2, Z: 3},
			offset: Vec3{X: 10, Y: 20, Z: 30},
			want:   Vec3{X: -9, Y: -27, Z: -18},
		},
		{
			name:   "origin maps to origin",
			point:  Vec3{},
			offset: Vec3{},
			want:   Vec3{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToRender(tt.point, tt.offset)
			if !vecsEqual(got, tt.want) {
				t.Errorf("ToRender(%v, %v) = %v, want %v", tt.point, tt.offset, got, tt.want)
			}
		})
	}
}

func TestFromRenderRoundTrip(t *testing.T) {
	points := []Vec3{
		{X: 1, Y: 2, Z: 3},
		{X: -4.5, Y: 0, Z: 12.25},
		{},
	}
	offset := Vec3{X: 100, Y: -50, Z: 7}

	for _, p := range points {
		got := FromRender(ToRender(p, offset), offset)
		if !vecsEqual(got, p) {
			t.Errorf("round trip of %v through offset %v = %v", p, offset, got)
		}
	}
}

func TestVec3Normalize(t *testing.T) {
	v := Vec3{X: 3, Y: 0, Z: 4}.Normalize()
	if !almostEqual(v.Len(), 1) {
		t.Errorf("normalized length = %v, want 1", v.Len())
	}
	if !vecsEqual(v, (Vec3{X: 0.6, Y: 0, Z: 0.8})) {
		t.Errorf("normalized direction = %v", v)
	}

	zero := Vec3{}.Normalize()
	if !vecsEqual(zero, Vec3{}) {
		t.Errorf("normalizing zero vector = %v, want zero", zero)
	}
}

func TestVec3Cross(t *testing.T) {
	x := Vec3{X: 1}
	y := Vec3{Y: 1}
	got := x.Cross(y)
	if !vecsEqual(got, (Vec3{Z: 1})) {
		t.Errorf("x cross y = %v, want +z", got)
	}
}

func TestVec3IsFinite(t *testing.T) {
	if !(Vec3{X: 1, Y: 2, Z: 3}).IsFinite() {
		t.Error("finite vector reported as non-finite")
	}
	if (Vec3{X: math.Inf(1)}).IsFinite() {
		t.Error("infinite vector reported as finite")
	}
	if (Vec3{Y: math.NaN()}).IsFinite() {
		t.Error("NaN vector reported as finite")
	}
}
