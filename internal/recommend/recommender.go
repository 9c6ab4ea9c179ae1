// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package recommend

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
)

// RecommenderOptions controls how the tree is walked.
type RecommenderOptions struct {
	// Parallel walks sibling subtrees concurrently.
	Parallel bool

	// MaxWorkers bounds the number of extra goroutines in parallel mode.
	// Subtrees that find no free worker run on the caller's goroutine.
	MaxWorkers int
}

// Recommender fills one Slot per leaf of a partition tree.
// A Recommender is bound to one pool and may be reused for several walks.
type Recommender struct {
	k      int
	target int
	pool   []Record

	parallel bool
	workers  chan struct{}

	peerBorrowed atomic.Int64
	globalFilled atomic.Int64
	deferred     atomic.Int64
	degraded     atomic.Int64
}

// NewRecommender creates a Recommender drawing global fills from pool.
func NewRecommender(pool []Record, k int, opts RecommenderOptions) (*Recommender, error) {
	if k < 1 {
		return nil, ErrInvalidK
	}
	if len(pool) == 0 {
		return nil, ErrEmptyCatalog
	}

	r := &Recommender{
		k:        k,
		target:   min(k, len(pool)),
		pool:     pool,
		parallel: opts.Parallel,
	}
	if opts.Parallel {
		workers := opts.MaxWorkers
		if workers <= 0 {
			workers = 1
		}
		r.workers = make(chan struct{}, workers)
	}
	return r, nil
}

// Recommend walks the tree rooted at root. Every slot of the returned batch is
// complete and the batch's Incomplete set is empty.
func (r *Recommender) Recommend(root GroupNode, rng *rand.Rand) Batch {
	return r.recommend(root, 0, rng)
}

// Stats returns the fallback counters accumulated since creation.
func (r *Recommender) Stats() FallbackStats {
	return FallbackStats{
		PeerBorrowed: int(r.peerBorrowed.Load()),
		GlobalFilled: int(r.globalFilled.Load()),
		Deferred:     int(r.deferred.Load()),
		Degraded:     int(r.degraded.Load()),
	}
}

func (r *Recommender) recommend(node GroupNode, level int, rng *rand.Rand) Batch {
	switch n := node.(type) {
	case *Leaf:
		return r.recommendLeaf(n, rng)
	case *Interior:
		return r.recommendInterior(n, level, rng)
	default:
		// A missing child means the tree's Values and Children disagree.
		panic(fmt.Sprintf("recommend: unexpected group node %T", node))
	}
}

func (r *Recommender) recommendLeaf(leaf *Leaf, rng *rand.Rand) Batch {
	records := make([]Record, len(leaf.Records))
	copy(records, leaf.Records)

	if len(records) < r.k {
		rng.Shuffle(len(records), func(i, j int) {
			records[i], records[j] = records[j], records[i]
		})
		return Batch{
			Slots:      []*Slot{{Entries: records}},
			Incomplete: []int{0},
		}
	}

	// Partial Fisher-Yates: the first k positions end up a uniform sample
	// without replacement.
	for i := 0; i < r.k; i++ {
		j := i + rng.IntN(len(records)-i)
		records[i], records[j] = records[j], records[i]
	}
	return Batch{
		Slots: []*Slot{{Entries: records[:r.k:r.k], Complete: true}},
	}
}

func (r *Recommender) recommendInterior(node *Interior, level int, rng *rand.Rand) Batch {
	// Child sources are derived before any child runs so that the outcome does
	// not depend on scheduling.
	rngs := make([]*rand.Rand, len(node.Values))
	for i := range rngs {
		rngs[i] = rand.New(rand.NewPCG(rng.Uint64(), rng.Uint64())) //nolint:gosec // sampling, not security
	}

	results := make([]Batch, len(node.Values))
	if r.parallel && len(node.Values) > 1 {
		var wg sync.WaitGroup
		for i, value := range node.Values {
			child := node.Children[value]
			select {
			case r.workers <- struct{}{}:
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer func() { <-r.workers }()
					results[i] = r.recommend(child, level+1, rngs[i])
				}()
			default:
				results[i] = r.recommend(child, level+1, rngs[i])
			}
		}
		wg.Wait()
	} else {
		for i, value := range node.Values {
			results[i] = r.recommend(node.Children[value], level+1, rngs[i])
		}
	}

	combined := Batch{}
	for _, res := range results {
		offset := len(combined.Slots)
		combined.Slots = append(combined.Slots, res.Slots...)
		for _, idx := range res.Incomplete {
			combined.Incomplete = append(combined.Incomplete, idx+offset)
		}
	}

	r.relax(&combined, level, rng)
	return combined
}

// relax applies the fallback policy to the short slots of b.
func (r *Recommender) relax(b *Batch, level int, rng *rand.Rand) {
	if len(b.Incomplete) == 0 {
		return
	}

	completeCount := len(b.Slots) - len(b.Incomplete)
	switch {
	case completeCount >= r.k:
		donors := completeSlots(b)
		for _, idx := range b.Incomplete {
			slot := b.Slots[idx]
			for len(slot.Entries) < r.target {
				donor := donors[rng.IntN(len(donors))]
				slot.Entries = append(slot.Entries, donor.Entries[rng.IntN(len(donor.Entries))])
			}
			slot.Complete = true
		}
		r.peerBorrowed.Add(int64(len(b.Incomplete)))
		b.Incomplete = nil

	case level == 0:
		for _, idx := range b.Incomplete {
			slot := b.Slots[idx]
			for len(slot.Entries) < r.target {
				slot.Entries = append(slot.Entries, r.pool[rng.IntN(len(r.pool))])
			}
			slot.Complete = true
			if len(slot.Entries) < r.k {
				slot.Degraded = true
				r.degraded.Add(1)
			}
		}
		r.globalFilled.Add(int64(len(b.Incomplete)))
		b.Incomplete = nil

	default:
		// A slot may be deferred at several levels; it is counted once.
		for _, idx := range b.Incomplete {
			if slot := b.Slots[idx]; !slot.deferred {
				slot.deferred = true
				r.deferred.Add(1)
			}
		}
	}
}

// completeSlots returns the slots of b that are not listed in b.Incomplete.
func completeSlots(b *Batch) []*Slot {
	donors := make([]*Slot, 0, len(b.Slots)-len(b.Incomplete))
	next := 0
	for i, slot := range b.Slots {
		if next < len(b.Incomplete) && b.Incomplete[next] == i {
			next++
			continue
		}
		donors = append(donors, slot)
	}
	return donors
}
