package chunking

import "testing"

func TestPlanCoversRangeExactly(t *testing.T) {
	tests := []struct {
		name       string
		total      int64
		chunk      int64
		wantCount  int
		wantLastSz int64
	}{
		{"even split", 100, 25, 4, 25},
		{"ragged tail", 100, 30, 4, 10},
		{"single chunk", 10, 100, 1, 10},
		{"one byte", 1, 4096, 1, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			specs := Plan(tc.total, tc.chunk)
			if len(specs) != tc.wantCount {
				t.Fatalf("count = %d, want %d", len(specs), tc.wantCount)
			}
			var cursor int64
			for i, spec := range specs {
				if spec.Index != i {
					t.Errorf("spec %d has index %d", i, spec.Index)
				}
				if spec.StartByte != cursor {
					t.Errorf("spec %d starts at %d, want %d (gap or overlap)", i, spec.StartByte, cursor)
				}
				if spec.EndByte <= spec.StartByte {
					t.Errorf("spec %d has empty range [%d, %d)", i, spec.StartByte, spec.EndByte)
				}
				if spec.Length() > tc.chunk {
					t.Errorf("spec %d length %d exceeds chunk size %d", i, spec.Length(), tc.chunk)
				}
				cursor = spec.EndByte
			}
			if cursor != tc.total {
				t.Errorf("ranges cover [0, %d), want [0, %d)", cursor, tc.total)
			}
			if last := specs[len(specs)-1]; last.Length() != tc.wantLastSz {
				t.Errorf("last chunk length = %d, want %d", last.Length(), tc.wantLastSz)
			}
		})
	}
}

func TestPlanDegenerateInputs(t *testing.T) {
	if specs := Plan(0, 1024); specs != nil {
		t.Fatalf("Plan(0, _) = %v, want nil", specs)
	}
	if specs := Plan(1024, 0); specs != nil {
		t.Fatalf("Plan(_, 0) = %v, want nil", specs)
	}
}

func TestPlanIsPure(t *testing.T) {
	a := Plan(1000, 64)
	b := Plan(1000, 64)
	if len(a) != len(b) {
		t.Fatalf("same input produced different counts: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("spec %d differs between identical calls: %+v vs %+v", i, a[i], b[i])
		}
	}
}
