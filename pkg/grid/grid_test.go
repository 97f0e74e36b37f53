package grid

import (
	"testing"
)

func TestOverlap(t *testing.T) {
	tests := []struct {
		name      string
		blocksize []int
		factor    float64
		want      []int
	}{
		{"half of 128", []int{128, 128, 128}, 0.5, []int{64, 64, 64}},
		{"quarter of 50", []int{50, 60}, 0.25, []int{13, 15}},
		{"zero factor", []int{128}, 0, []int{0}},
		{"rounds half up", []int{5}, 0.5, []int{3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Overlap(tt.blocksize, tt.factor)
			if !equalInts(got, tt.want) {
				t.Errorf("Overlap(%v, %g) = %v, want %v", tt.blocksize, tt.factor, got, tt.want)
			}
		})
	}
}

func TestNumBlocks(t *testing.T) {
	tests := []struct {
		name      string
		shape     []int
		blocksize []int
		want      []int
	}{
		{"exact fit", []int{256, 256}, []int{128, 128}, []int{2, 2}},
		{"remainder adds a block", []int{130, 128}, []int{128, 128}, []int{2, 1}},
		{"block larger than shape", []int{10}, []int{128}, []int{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NumBlocks(tt.shape, tt.blocksize)
			if !equalInts(got, tt.want) {
				t.Errorf("NumBlocks(%v, %v) = %v, want %v", tt.shape, tt.blocksize, got, tt.want)
			}
		})
	}
}

func TestPlanCanonicalTilesExactly(t *testing.T) {
	shape := []int{100, 70}
	blocks, err := Plan(shape, []int{32, 32}, 0.5)
	if err != nil {
		t.Fatal(err)
	}

	// Every voxel must be covered by exactly one canonical extent.
	covered := make([]int, shape[0]*shape[1])
	for _, blk := range blocks {
		for i := blk.Canonical[0].Start; i < blk.Canonical[0].Stop; i++ {
			for j := blk.Canonical[1].Start; j < blk.Canonical[1].Stop; j++ {
				covered[i*shape[1]+j]++
			}
		}
	}
	for i, c := range covered {
		if c != 1 {
			t.Fatalf("voxel %d covered %d times, want exactly 1", i, c)
		}
	}
}

func TestPlanExtendedContainsCanonical(t *testing.T) {
	shape := []int{100, 70, 30}
	blocks, err := Plan(shape, []int{32, 32, 16}, 0.5)
	if err != nil {
		t.Fatal(err)
	}

	volume := BoxOf(shape)
	for _, blk := range blocks {
		if !blk.Extended.Contains(blk.Canonical) {
			t.Errorf("block %v: extended %v does not contain canonical %v",
				blk.Index, blk.Extended, blk.Canonical)
		}
		if !volume.Contains(blk.Extended) {
			t.Errorf("block %v: extended %v escapes volume %v", blk.Index, blk.Extended, shape)
		}
	}
}

func TestPlanLargeVolumeScenario(t *testing.T) {
	// 256^3 volume, 128^3 blocks, overlap factor 0.5: eight blocks, each
	// extended extent clipped at the volume faces.
	blocks, err := Plan([]int{256, 256, 256}, []int{128, 128, 128}, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 8 {
		t.Fatalf("got %d blocks, want 8", len(blocks))
	}

	first := blocks[0]
	if !equalInts(first.Index, []int{0, 0, 0}) {
		t.Fatalf("first block index = %v", first.Index)
	}
	for ax := 0; ax < 3; ax++ {
		if first.Canonical[ax] != (Interval{0, 128}) {
			t.Errorf("first canonical axis %d = %v, want [0:128]", ax, first.Canonical[ax])
		}
		if first.Extended[ax] != (Interval{0, 192}) {
			t.Errorf("first extended axis %d = %v, want [0:192]", ax, first.Extended[ax])
		}
	}

	last := blocks[len(blocks)-1]
	for ax := 0; ax < 3; ax++ {
		if last.Canonical[ax] != (Interval{128, 256}) {
			t.Errorf("last canonical axis %d = %v, want [128:256]", ax, last.Canonical[ax])
		}
		if last.Extended[ax] != (Interval{64, 256}) {
			t.Errorf("last extended axis %d = %v, want [64:256]", ax, last.Extended[ax])
		}
	}
}

func TestPlanErrors(t *testing.T) {
	tests := []struct {
		name      string
		shape     []int
		blocksize []int
		factor    float64
	}{
		{"rank mismatch", []int{10, 10}, []int{5}, 0.5},
		{"negative factor", []int{10}, []int{5}, -0.1},
		{"factor above one", []int{10}, []int{5}, 1.5},
		{"zero blocksize", []int{10}, []int{0}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Plan(tt.shape, tt.blocksize, tt.factor); err == nil {
				t.Errorf("Plan(%v, %v, %g) succeeded, want error", tt.shape, tt.blocksize, tt.factor)
			}
		})
	}
}

func TestBoxClip(t *testing.T) {
	box := Box{{-5, 20}, {3, 50}}
	got := box.Clip([]int{10, 40})
	want := Box{{0, 10}, {3, 40}}
	if !got.Equal(want) {
		t.Errorf("Clip = %v, want %v", got, want)
	}
}

func TestBoxEmpty(t *testing.T) {
	if (Box{{0, 10}, {5, 5}}).Empty() != true {
		t.Error("zero-length axis should be empty")
	}
	if (Box{{0, 10}}).Empty() {
		t.Error("non-degenerate box should not be empty")
	}
	if !(Box{}).Empty() {
		t.Error("rank-0 box should be empty")
	}
}

func TestMultiIndexOrder(t *testing.T) {
	var got [][]int
	for idx := range MultiIndex([]int{2, 3}) {
		got = append(got, idx)
	}
	want := [][]int{{0, 0}, {0, 1}, {0, 2}, {1, 0}, {1, 1}, {1, 2}}
	if len(got) != len(want) {
		t.Fatalf("got %d indices, want %d", len(got), len(want))
	}
	for i := range want {
		if !equalInts(got[i], want[i]) {
			t.Errorf("index %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMultiIndexEmpty(t *testing.T) {
	for range MultiIndex([]int{3, 0}) {
		t.Fatal("zero-count axis should yield nothing")
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
