package transform

import (
	"math"
	"testing"

	"github.com/orena1/bigstream/pkg/errors"
	"github.com/orena1/bigstream/pkg/ndarray"
)

func TestMapPointsStackOrder(t *testing.T) {
	// Chain [scale2, shift1]: the last element acts first, so the result is
	// (x+1)*2, not x*2+1.
	scale2, _ := AffineFromValues(1, []float64{2, 0, 0, 1})
	shift1 := Translation([]float64{1})

	got := MapPoints([][]float64{{3}}, []Transform{scale2, shift1})
	if got[0][0] != 8 {
		t.Errorf("mapped = %g, want 8 ((3+1)*2)", got[0][0])
	}
}

func TestMapPointsPayload(t *testing.T) {
	shift := Translation([]float64{10, 20})
	points := [][]float64{
		{1, 2, 42, 7},
		{3, 4, 43, 8},
	}

	got := MapPoints(points, []Transform{shift})
	want := [][]float64{
		{11, 22, 42, 7},
		{13, 24, 43, 8},
	}
	for i := range want {
		for j := range want[i] {
			if math.Abs(got[i][j]-want[i][j]) > 1e-12 {
				t.Errorf("point %d column %d = %g, want %g", i, j, got[i][j], want[i][j])
			}
		}
	}

	// Inputs must stay untouched.
	if points[0][0] != 1 {
		t.Error("MapPoints modified its input")
	}
}

func TestMapPointsEmptyChain(t *testing.T) {
	points := [][]float64{{1, 2, 3}}
	got := MapPoints(points, nil)
	if &got[0][0] == &points[0][0] {
		t.Error("empty chain should still copy the points")
	}
	for j := range points[0] {
		if got[0][j] != points[0][j] {
			t.Errorf("column %d = %g, want %g", j, got[0][j], points[0][j])
		}
	}
}

func TestValidateChain(t *testing.T) {
	if err := ValidateChain([]Transform{Identity(3), Identity(3)}, 3); err != nil {
		t.Errorf("uniform chain should validate: %v", err)
	}
	err := ValidateChain([]Transform{Identity(3), Identity(2)}, 3)
	if !errors.Is(err, errors.ErrCodeInvalidTransform) {
		t.Errorf("mixed-rank chain error = %v, want INVALID_TRANSFORM", err)
	}
}

func TestChainFromArrays(t *testing.T) {
	affineArr, _ := ndarray.FromData([]int{3, 3}, []float64{
		1, 0, 5,
		0, 1, -5,
		0, 0, 1,
	})
	fieldArr := ndarray.New([]int{4, 4, 2})

	chain, err := ChainFromArrays(
		[]*ndarray.Array{affineArr, fieldArr},
		nil, nil, 2, []float64{1, 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(chain) != 2 {
		t.Fatalf("chain length = %d, want 2", len(chain))
	}
	if _, ok := chain[0].(*Affine); !ok {
		t.Errorf("element 0 is %T, want *Affine", chain[0])
	}
	if _, ok := chain[1].(*Field); !ok {
		t.Errorf("element 1 is %T, want *Field", chain[1])
	}
}

func TestChainFromArraysErrors(t *testing.T) {
	good := ndarray.New([]int{3, 3})

	tests := []struct {
		name     string
		arrays   []*ndarray.Array
		spacings [][]float64
		origins  [][]float64
	}{
		{"unclassifiable shape", []*ndarray.Array{ndarray.New([]int{5})}, nil, nil},
		{"spacings arity", []*ndarray.Array{good}, [][]float64{}, nil},
		{"origins arity", []*ndarray.Array{good}, nil, [][]float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ChainFromArrays(tt.arrays, tt.spacings, tt.origins, 2, []float64{1, 1}); err == nil {
				t.Error("want error")
			}
		})
	}
}
