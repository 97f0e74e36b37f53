package transform

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/orena1/bigstream/pkg/errors"
	"github.com/orena1/bigstream/pkg/ndarray"
)

func TestIdentityApply(t *testing.T) {
	id := Identity(3)
	pt := []float64{1.5, -2, 7}
	got := id.Apply(pt)
	for i := range pt {
		if got[i] != pt[i] {
			t.Errorf("identity moved axis %d: %g -> %g", i, pt[i], got[i])
		}
	}
}

func TestAffineApply(t *testing.T) {
	// Scale by 2 and translate by (1, -1).
	a, err := AffineFromValues(2, []float64{
		2, 0, 1,
		0, 2, -1,
		0, 0, 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	got := a.Apply([]float64{3, 4})
	want := []float64{7, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("axis %d = %g, want %g", i, got[i], want[i])
		}
	}
}

func TestAffineInvert(t *testing.T) {
	a, err := AffineFromValues(2, []float64{
		2, 0, 3,
		0, 4, -1,
		0, 0, 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	inv, err := a.Invert()
	if err != nil {
		t.Fatal(err)
	}

	pt := []float64{5, 6}
	back := inv.Apply(a.Apply(pt))
	for i := range pt {
		if math.Abs(back[i]-pt[i]) > 1e-12 {
			t.Errorf("round trip axis %d = %g, want %g", i, back[i], pt[i])
		}
	}
}

func TestAffineInvertSingular(t *testing.T) {
	a, err := NewAffine(mat.NewDense(3, 3, make([]float64, 9)))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Invert(); !errors.Is(err, errors.ErrCodeInvalidTransform) {
		t.Errorf("singular inversion error = %v, want INVALID_TRANSFORM", err)
	}
}

func TestNewAffineRejectsNonSquare(t *testing.T) {
	if _, err := NewAffine(mat.NewDense(2, 3, make([]float64, 6))); err == nil {
		t.Error("non-square matrix should fail")
	}
}

func TestTranslation(t *testing.T) {
	tr := Translation([]float64{1, 2, 3})
	got := tr.Apply([]float64{0, 0, 0})
	want := []float64{1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("axis %d = %g, want %g", i, got[i], want[i])
		}
	}
}

func TestNewFieldValidation(t *testing.T) {
	tests := []struct {
		name    string
		shape   []int
		spacing []float64
		origin  []float64
		wantOK  bool
	}{
		{"valid 2d", []int{4, 4, 2}, []float64{1, 1}, nil, true},
		{"valid with origin", []int{4, 4, 2}, []float64{1, 1}, []float64{5, 5}, true},
		{"wrong trailing axis", []int{4, 4, 3}, []float64{1, 1}, nil, false},
		{"spacing arity", []int{4, 4, 2}, []float64{1}, nil, false},
		{"origin arity", []int{4, 4, 2}, []float64{1, 1}, []float64{0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewField(ndarray.New(tt.shape), tt.spacing, tt.origin)
			if (err == nil) != tt.wantOK {
				t.Errorf("NewField err = %v, wantOK %v", err, tt.wantOK)
			}
		})
	}
}

func TestFieldApply(t *testing.T) {
	// Constant displacement (+2, -1) on a 3x3 grid with spacing 2.
	data := ndarray.New([]int{3, 3, 2})
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			data.Set(2, i, j, 0)
			data.Set(-1, i, j, 1)
		}
	}
	f, err := NewField(data, []float64{2, 2}, nil)
	if err != nil {
		t.Fatal(err)
	}

	got := f.Apply([]float64{3, 1})
	want := []float64{5, 0}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("axis %d = %g, want %g", i, got[i], want[i])
		}
	}

	// Far outside the support the displacement clamps to the edge value.
	got = f.Apply([]float64{100, 100})
	want = []float64{102, 99}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("clamped axis %d = %g, want %g", i, got[i], want[i])
		}
	}
}

func TestFieldApplyRespectsOrigin(t *testing.T) {
	// Displacement +1 on axis 0 only at grid sample (0,0); origin (10, 10).
	data := ndarray.New([]int{2, 2, 2})
	data.Set(1, 0, 0, 0)
	f, err := NewField(data, []float64{1, 1}, []float64{10, 10})
	if err != nil {
		t.Fatal(err)
	}

	got := f.Apply([]float64{10, 10})
	if math.Abs(got[0]-11) > 1e-12 || math.Abs(got[1]-10) > 1e-12 {
		t.Errorf("Apply at origin = %v, want [11 10]", got)
	}
}
