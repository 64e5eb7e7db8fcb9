// Package broadphase proposes the pairs of placed objects that may touch and hands them to the collision
// matrix.
package broadphase

import (
	"cmp"
	"context"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"go.viam.com/collide/bv"
	"go.viam.com/collide/collision"
	"go.viam.com/collide/logging"
	"go.viam.com/collide/spatialhash"
)

// Pair is a candidate pair. A was registered before B.
type Pair struct {
	A, B *collision.Object
}

// PairResult is the outcome of the narrow phase on one candidate pair.
type PairResult struct {
	Pair
	Result *collision.Result
}

// Option configures a SpatialHashManager.
type Option func(*SpatialHashManager)

// WithSparseTable stores cells in a map instead of one bucket per cell of the region.
func WithSparseTable() Option {
	return func(m *SpatialHashManager) { m.sparse = true }
}

// WithMatrix sets the dispatch matrix used by CollideAll. The default is collision.DefaultMatrix.
func WithMatrix(matrix *collision.Matrix) Option {
	return func(m *SpatialHashManager) { m.matrix = matrix }
}

// SpatialHashManager indexes objects by the grid cells their world bounds overlap. Objects reaching outside
// the hashed region are also kept in a list checked against everything. It is not safe for concurrent
// mutation.
type SpatialHashManager struct {
	logger logging.Logger
	grid   *spatialhash.GridHash
	table  spatialhash.Table[bv.AABB, *collision.Object]
	sparse bool
	matrix *collision.Matrix

	objects []*collision.Object
	order   map[*collision.Object]int
	hashed  map[*collision.Object]bv.AABB
	outside map[*collision.Object]struct{}
}

// NewSpatialHashManager returns an empty manager hashing the region limit with cubic cells.
func NewSpatialHashManager(limit bv.AABB, cellSize float64, logger logging.Logger, opts ...Option) (*SpatialHashManager, error) {
	grid, err := spatialhash.NewGridHash(limit, cellSize)
	if err != nil {
		return nil, err
	}
	m := &SpatialHashManager{
		logger:  logger,
		grid:    grid,
		matrix:  collision.DefaultMatrix(),
		order:   map[*collision.Object]int{},
		hashed:  map[*collision.Object]bv.AABB{},
		outside: map[*collision.Object]struct{}{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.sparse {
		m.table = spatialhash.NewSparseHashTable[bv.AABB, *collision.Object](grid.Hash)
	} else {
		dense := spatialhash.NewSimpleHashTable[bv.AABB, *collision.Object](grid.Hash)
		if err := dense.Init(grid.NumCells()); err != nil {
			return nil, err
		}
		m.table = dense
	}
	logger.Debugw("spatial hash manager created", "cells", grid.NumCells(), "sparse", m.sparse)
	return m, nil
}

// Size returns the number of registered objects.
func (m *SpatialHashManager) Size() int { return len(m.objects) }

// Register adds objects. Objects already registered are ignored.
func (m *SpatialHashManager) Register(objs ...*collision.Object) error {
	for _, o := range objs {
		if _, ok := m.order[o]; ok {
			continue
		}
		m.order[o] = len(m.objects)
		m.objects = append(m.objects, o)
		if err := m.insert(o); err != nil {
			return err
		}
	}
	return nil
}

func (m *SpatialHashManager) insert(o *collision.Object) error {
	box := o.AABB()
	m.hashed[o] = box
	if !m.grid.Inside(box) {
		m.outside[o] = struct{}{}
	}
	return m.table.Insert(box, o)
}

func (m *SpatialHashManager) remove(o *collision.Object) {
	m.table.Remove(m.hashed[o], o)
	delete(m.hashed, o)
	delete(m.outside, o)
}

// Unregister removes an object. Unknown objects are ignored.
func (m *SpatialHashManager) Unregister(o *collision.Object) {
	idx, ok := m.order[o]
	if !ok {
		return
	}
	m.remove(o)
	m.objects = slices.Delete(m.objects, idx, idx+1)
	delete(m.order, o)
	for i := idx; i < len(m.objects); i++ {
		m.order[m.objects[i]] = i
	}
}

// Update rehashes every object whose bounds changed since it was last hashed.
func (m *SpatialHashManager) Update() error {
	moved := 0
	for _, o := range m.objects {
		if o.AABB() == m.hashed[o] {
			continue
		}
		moved++
		m.remove(o)
		if err := m.insert(o); err != nil {
			return err
		}
	}
	m.logger.Debugw("spatial hash updated", "moved", moved)
	return nil
}

// Candidates returns every pair of objects whose world bounds overlap, each once, ordered by registration.
func (m *SpatialHashManager) Candidates() []Pair {
	var pairs []Pair
	for i, a := range m.objects {
		box := m.hashed[a]
		seen := map[*collision.Object]struct{}{}
		consider := func(b *collision.Object) {
			if m.order[b] <= i {
				return
			}
			if _, ok := seen[b]; ok {
				return
			}
			seen[b] = struct{}{}
			if box.Overlap(m.hashed[b], 0) {
				pairs = append(pairs, Pair{A: a, B: b})
			}
		}
		if _, out := m.outside[a]; out {
			for _, b := range m.objects {
				consider(b)
			}
			continue
		}
		for _, b := range m.table.Query(box) {
			consider(b)
		}
		for b := range m.outside {
			consider(b)
		}
	}
	sortPairs(pairs, m.order)
	m.logger.Debugw("broad phase candidates", "objects", len(m.objects), "pairs", len(pairs))
	return pairs
}

// CollideAll runs the narrow phase on every candidate pair concurrently and returns the colliding pairs in
// candidate order. Each pair gets its own copy of req and its own Result.
func (m *SpatialHashManager) CollideAll(ctx context.Context, req *collision.Request) ([]PairResult, error) {
	pairs := m.Candidates()
	results := make([]*collision.Result, len(pairs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, p := range pairs {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			local := *req
			res := collision.NewResult()
			if _, err := m.matrix.Collide(p.A.Geometry(), p.A.Pose(), p.B.Geometry(), p.B.Pose(), &local, res); err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var colliding []PairResult
	for i, res := range results {
		if res.IsCollision() {
			colliding = append(colliding, PairResult{Pair: pairs[i], Result: res})
		}
	}
	return colliding, nil
}

func sortPairs(pairs []Pair, order map[*collision.Object]int) {
	slices.SortFunc(pairs, func(p, q Pair) int {
		if c := cmp.Compare(order[p.A], order[q.A]); c != 0 {
			return c
		}
		return cmp.Compare(order[p.B], order[q.B])
	})
}
