package framecache

import "testing"

func TestAggregateBlocks(t *testing.T) {
	tests := []struct {
		name   string
		frames []frameState
		want   []Block
	}{
		{name: "empty", frames: nil, want: nil},
		{
			name:   "single run",
			frames: []frameState{{frame: 3}, {frame: 4}, {frame: 5}},
			want:   []Block{{Start: 3, Length: 3}},
		},
		{
			name: "gaps and lock changes split runs",
			frames: []frameState{
				{frame: 0}, {frame: 1}, {frame: 2},
				{frame: 5, locked: true}, {frame: 6, locked: true},
				{frame: 9},
			},
			want: []Block{{0, 3, false}, {5, 2, true}, {9, 1, false}},
		},
		{
			name:   "adjacent frames with different lock state",
			frames: []frameState{{frame: 0}, {frame: 1, locked: true}, {frame: 2}},
			want:   []Block{{0, 1, false}, {1, 1, true}, {2, 1, false}},
		},
		{
			name:   "negative frames",
			frames: []frameState{{frame: -2}, {frame: -1}, {frame: 0}},
			want:   []Block{{-2, 3, false}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := aggregateBlocks(tt.frames)
			if len(got) != len(tt.want) {
				t.Fatalf("blocks = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("block %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBlockString(t *testing.T) {
	if got := (Block{Start: 4, Length: 3, Locked: true}).String(); got != "[4,7) locked" {
		t.Fatalf("String = %q", got)
	}
}
