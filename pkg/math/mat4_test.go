package math

import (
	"math"
	"testing"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
}

func TestMulIdentity(t *testing.T) {
	m := Compose(Vec3{1, 2, 3}, QuatIdentity(), Vec3{1, 1, 1})
	result := m.Mul(Identity())

	for i := 0; i < 16; i++ {
		if result[i] != m[i] {
			t.Errorf("M * I should equal M, element %d: got %f, want %f", i, result[i], m[i])
		}
	}
}

func TestTransformPoint(t *testing.T) {
	m := Compose(Vec3{10, 20, 30}, QuatIdentity(), Vec3{1, 1, 1})
	result := m.TransformPoint([3]float32{1, 2, 3})

	expected := [3]float32{11, 22, 33}
	if result != expected {
		t.Errorf("TransformPoint: got %v, want %v", result, expected)
	}
}

func TestPerspective(t *testing.T) {
	m := Perspective(float32(math.Pi/4), 1, 0.1, 100)

	if m[0] == 0 || m[5] == 0 {
		t.Error("Perspective should have non-zero elements")
	}
	if m[15] != 0 {
		t.Errorf("Perspective [15] should be 0, got %f", m[15])
	}
	if m[11] != -1 {
		t.Errorf("Perspective [11] should be -1, got %f", m[11])
	}
}

func TestLookAtMovesEyeToOrigin(t *testing.T) {
	eye := Vec3{3, 4, 5}
	m := LookAt(eye, Vec3{}, Vec3{0, 1, 0})

	got := V3(m.TransformPoint(eye.Array()))
	if got.Length() > 0.0001 {
		t.Errorf("LookAt should map the eye to the origin, got %v", got)
	}
}

func TestInverse(t *testing.T) {
	m := Compose(Vec3{1, 2, 3}, QuatFromAxisAngle(Vec3{0, 1, 0}, 0.7), Vec3{2, 2, 2})
	product := m.Mul(m.Inverse())
	id := Identity()
	for i := 0; i < 16; i++ {
		if abs(product[i]-id[i]) > 0.0001 {
			t.Fatalf("M * M^-1 element %d = %f, want %f", i, product[i], id[i])
		}
	}
}

func TestComposeDecompose(t *testing.T) {
	tests := []struct {
		name string
		t    Vec3
		r    Quat
		s    Vec3
	}{
		{"identity", Vec3{}, QuatIdentity(), Vec3{1, 1, 1}},
		{"translated", Vec3{5, -2, 7}, QuatIdentity(), Vec3{1, 1, 1}},
		{"rotated scaled", Vec3{1, 1, 1}, QuatFromAxisAngle(Vec3{0, 0, 1}, 1.2), Vec3{0.01, 0.01, 0.01}},
		{"mirrored", Vec3{}, QuatIdentity(), Vec3{-0.1, 0.1, 0.1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotT, gotR, gotS := Compose(tt.t, tt.r, tt.s).Decompose()
			if gotT.Distance(tt.t) > 0.0001 {
				t.Errorf("translation = %v, want %v", gotT, tt.t)
			}
			if gotS.Distance(tt.s) > 0.0001 {
				t.Errorf("scale = %v, want %v", gotS, tt.s)
			}
			if d := abs(gotR.Dot(tt.r)); d < 0.999 {
				t.Errorf("rotation dot = %v, want ~1", d)
			}
		})
	}
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
