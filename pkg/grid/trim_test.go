package grid

import "testing"

func TestTrim(t *testing.T) {
	blocksize := []int{128}
	overlap := []int{64}

	tests := []struct {
		name          string
		extended      Box
		resultShape   []int
		wantLo        []int
		wantLen       []int
		wantPlacement Box
	}{
		{
			name:          "interior block drops leading overlap",
			extended:      Box{{64, 320}},
			resultShape:   []int{256},
			wantLo:        []int{64},
			wantLen:       []int{128},
			wantPlacement: Box{{128, 256}},
		},
		{
			name:          "low boundary block keeps its front",
			extended:      Box{{0, 192}},
			resultShape:   []int{192},
			wantLo:        []int{0},
			wantLen:       []int{128},
			wantPlacement: Box{{0, 128}},
		},
		{
			name:          "high boundary block is shorter than blocksize",
			extended:      Box{{192, 300}},
			resultShape:   []int{108},
			wantLo:        []int{64},
			wantLen:       []int{44},
			wantPlacement: Box{{256, 300}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := Trim(tt.extended, tt.resultShape, blocksize, overlap)
			if !equalInts(spec.Lo, tt.wantLo) {
				t.Errorf("Lo = %v, want %v", spec.Lo, tt.wantLo)
			}
			if !equalInts(spec.Len, tt.wantLen) {
				t.Errorf("Len = %v, want %v", spec.Len, tt.wantLen)
			}
			if !spec.Placement.Equal(tt.wantPlacement) {
				t.Errorf("Placement = %v, want %v", spec.Placement, tt.wantPlacement)
			}
		})
	}
}

func TestTrimMatchesPlan(t *testing.T) {
	// Trimming every planned block must reproduce its canonical extent.
	shape := []int{300, 100}
	blocksize := []int{128, 32}
	factor := 0.5

	blocks, err := Plan(shape, blocksize, factor)
	if err != nil {
		t.Fatal(err)
	}
	overlap := Overlap(blocksize, factor)

	for _, blk := range blocks {
		spec := Trim(blk.Extended, blk.Extended.Shape(), blocksize, overlap)
		if !spec.Placement.Equal(blk.Canonical) {
			t.Errorf("block %v: placement %v, want canonical %v", blk.Index, spec.Placement, blk.Canonical)
		}
		if !blk.Extended.Contains(spec.Placement) {
			t.Errorf("block %v: placement %v outside extended %v", blk.Index, spec.Placement, blk.Extended)
		}
	}
}

func TestTrimRel(t *testing.T) {
	spec := TrimSpec{Lo: []int{64, 0}, Len: []int{128, 32}}
	got := spec.Rel()
	want := Box{{64, 192}, {0, 32}}
	if !got.Equal(want) {
		t.Errorf("Rel = %v, want %v", got, want)
	}
}
