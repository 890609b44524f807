package framecache

import (
	"slices"
	"sync"
)

type blockUpdate struct {
	seq    uint64
	blocks []Block
}

// blockPublisher holds the published block list and its subscribers. Updates
// are computed under the manager lock but delivered outside it; seq drops an
// update that lost the race to a newer one. One goroutine delivers at a time.
// A publish that arrives mid-delivery, including one made by a subscriber,
// is handed to that goroutine, which delivers the newest list once the current
// round finishes.
type blockPublisher struct {
	mu         sync.Mutex
	seq        uint64
	blocks     []Block
	nextID     int
	targets    map[int]func([]Block)
	delivering bool
	dirty      bool
}

func (p *blockPublisher) publish(update blockUpdate) {
	p.mu.Lock()
	if update.seq <= p.seq {
		p.mu.Unlock()
		return
	}
	p.seq = update.seq
	p.blocks = update.blocks
	if p.delivering {
		p.dirty = true
		p.mu.Unlock()
		return
	}
	p.delivering = true
	for {
		p.dirty = false
		blocks := p.blocks
		targets := make([]func([]Block), 0, len(p.targets))
		for _, id := range p.sortedIDs() {
			targets = append(targets, p.targets[id])
		}
		p.mu.Unlock()

		for _, fn := range targets {
			fn(slices.Clone(blocks))
		}

		p.mu.Lock()
		if !p.dirty {
			p.delivering = false
			p.mu.Unlock()
			return
		}
	}
}

func (p *blockPublisher) current() []Block {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.blocks)
}

func (p *blockPublisher) subscribe(fn func([]Block)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.targets == nil {
		p.targets = make(map[int]func([]Block))
	}
	id := p.nextID
	p.nextID++
	p.targets[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.targets, id)
	}
}

func (p *blockPublisher) sortedIDs() []int {
	ids := make([]int, 0, len(p.targets))
	for id := range p.targets {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
