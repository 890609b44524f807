package framecache

import "fmt"

// Range is a half-open frame interval [Start, End).
type Range struct {
	Start int
	End   int
}

// Block is a maximal run of contiguous cached frames sharing one lock state.
type Block struct {
	Start  int  `json:"start"`
	Length int  `json:"length"`
	Locked bool `json:"locked"`
}

// End returns the first frame after the block.
func (b Block) End() int {
	return b.Start + b.Length
}

func (b Block) String() string {
	state := "unlocked"
	if b.Locked {
		state = "locked"
	}
	return fmt.Sprintf("[%d,%d) %s", b.Start, b.End(), state)
}

// frameState is the minimal per-frame view block aggregation needs.
type frameState struct {
	frame  int
	locked bool
}

// aggregateBlocks merges frames, which must be in ascending order, into blocks.
// A gap or a change of lock state starts a new block.
func aggregateBlocks(frames []frameState) []Block {
	blocks := make([]Block, 0)
	for _, f := range frames {
		if n := len(blocks); n > 0 {
			last := &blocks[n-1]
			if last.End() == f.frame && last.Locked == f.locked {
				last.Length++
				continue
			}
		}
		blocks = append(blocks, Block{Start: f.frame, Length: 1, Locked: f.locked})
	}
	return blocks
}
