// Package octree implements a voxel occupancy grid that recursively partitions 3D space into octants. Each
// node stores a log-odds occupancy; inner nodes carry the maximum of their children so that a free subtree
// can be pruned without descending.
package octree

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/collide/geometry"
	"go.viam.com/collide/logging"
)

const (
	// maxDepth is the number of subdivisions between the root and a leaf of side resolution.
	maxDepth = 16

	probHit     = 0.7
	probMiss    = 0.4
	clampingMin = 0.1192
	clampingMax = 0.971

	// DefaultOccupancyThreshold is the probability at or above which a node is occupied.
	DefaultOccupancyThreshold = 0.5
	// DefaultFreeThreshold is the probability at or below which a node is free.
	DefaultFreeThreshold = 0.
)

// NodeType represents the possible types of nodes in an octree.
type NodeType uint8

// Each node in the octree is either an internal node which links to other nodes, or a leaf that holds one
// occupancy value.
const (
	InternalNode = NodeType(iota)
	LeafNode
)

// Node is one cell of the tree. Children are nil until a point is inserted below the node.
type Node struct {
	children [8]*Node
	logOdds  float64
}

// Type returns whether the node is internal or a leaf.
func (n *Node) Type() NodeType {
	if n.HasChildren() {
		return InternalNode
	}
	return LeafNode
}

// HasChildren reports whether any child exists.
func (n *Node) HasChildren() bool {
	for _, c := range n.children {
		if c != nil {
			return true
		}
	}
	return false
}

// Child returns child i in [0, 8), nil if it was never observed.
func (n *Node) Child(i int) *Node {
	return n.children[i]
}

// LogOdds returns the log-odds occupancy of the node.
func (n *Node) LogOdds() float64 {
	return n.logOdds
}

// Occupancy returns the occupancy probability of the node.
func (n *Node) Occupancy() float64 {
	return probability(n.logOdds)
}

// Cell is a leaf of the tree placed in the tree's frame.
type Cell struct {
	Center    r3.Vector
	Side      float64
	Occupancy float64
}

// OcTree is an occupancy grid over a cube centered at the origin of its frame whose leaves have side
// Resolution.
type OcTree struct {
	logger     logging.Logger
	root       *Node
	resolution float64
	sideLength float64
	size       int

	occupancyThreshold float64
	freeThreshold      float64
}

// NewOcTree creates an empty tree with the given leaf side length.
func NewOcTree(resolution float64, logger logging.Logger) (*OcTree, error) {
	if resolution <= 0 || math.IsNaN(resolution) || math.IsInf(resolution, 0) {
		return nil, errors.Errorf("invalid resolution (%.2f) for octree", resolution)
	}
	return &OcTree{
		logger:             logger,
		resolution:         resolution,
		sideLength:         resolution * float64(int(1)<<maxDepth),
		occupancyThreshold: DefaultOccupancyThreshold,
		freeThreshold:      DefaultFreeThreshold,
	}, nil
}

// NewOcTreeFromPoints creates a tree with every point marked as an occupied hit.
func NewOcTreeFromPoints(points []r3.Vector, resolution float64, logger logging.Logger) (*OcTree, error) {
	tree, err := NewOcTree(resolution, logger)
	if err != nil {
		return nil, err
	}
	for _, p := range points {
		if err := tree.UpdateNode(p, true); err != nil {
			return nil, err
		}
	}
	logger.Debugw("built octree from points", "points", len(points), "leaves", tree.Size())
	return tree, nil
}

// ObjectType returns OTOctree.
func (octree *OcTree) ObjectType() geometry.ObjectType { return geometry.OTOctree }

// NodeType returns GeomOctree.
func (octree *OcTree) NodeType() geometry.NodeType { return geometry.GeomOctree }

// AABB returns the bounds of every observed leaf, or an empty box at the origin for an empty tree.
func (octree *OcTree) AABB() (r3.Vector, r3.Vector) {
	inf := math.Inf(1)
	minPt := r3.Vector{X: inf, Y: inf, Z: inf}
	maxPt := minPt.Mul(-1)
	found := false
	octree.walk(func(c Cell) {
		h := c.Side / 2
		found = true
		minPt = r3.Vector{X: math.Min(minPt.X, c.Center.X-h), Y: math.Min(minPt.Y, c.Center.Y-h), Z: math.Min(minPt.Z, c.Center.Z-h)}
		maxPt = r3.Vector{X: math.Max(maxPt.X, c.Center.X+h), Y: math.Max(maxPt.Y, c.Center.Y+h), Z: math.Max(maxPt.Z, c.Center.Z+h)}
	})
	if !found {
		return r3.Vector{}, r3.Vector{}
	}
	return minPt, maxPt
}

// Resolution returns the side length of a leaf.
func (octree *OcTree) Resolution() float64 { return octree.resolution }

// Size returns the number of leaves.
func (octree *OcTree) Size() int { return octree.size }

// Root returns the root node, nil for an empty tree.
func (octree *OcTree) Root() *Node { return octree.root }

// RootBox returns the center and half side of the root cube.
func (octree *OcTree) RootBox() (r3.Vector, float64) {
	return r3.Vector{}, octree.sideLength / 2
}

// ChildBox returns the center and half side of child i of the cube (center, half).
func ChildBox(center r3.Vector, half float64, i int) (r3.Vector, float64) {
	q := half / 2
	c := center
	if i&1 != 0 {
		c.X += q
	} else {
		c.X -= q
	}
	if i&2 != 0 {
		c.Y += q
	} else {
		c.Y -= q
	}
	if i&4 != 0 {
		c.Z += q
	} else {
		c.Z -= q
	}
	return c, q
}

// SetOccupancyThreshold sets the probability at or above which nodes are occupied.
func (octree *OcTree) SetOccupancyThreshold(p float64) { octree.occupancyThreshold = p }

// SetFreeThreshold sets the probability at or below which nodes are free.
func (octree *OcTree) SetFreeThreshold(p float64) { octree.freeThreshold = p }

// OccupancyThreshold returns the occupied threshold as a probability.
func (octree *OcTree) OccupancyThreshold() float64 { return octree.occupancyThreshold }

// FreeThreshold returns the free threshold as a probability.
func (octree *OcTree) FreeThreshold() float64 { return octree.freeThreshold }

// IsNodeOccupied reports whether the node's occupancy reaches the occupied threshold.
func (octree *OcTree) IsNodeOccupied(n *Node) bool {
	return n.logOdds >= logit(octree.occupancyThreshold)
}

// IsNodeFree reports whether the node's occupancy is at or below the free threshold.
func (octree *OcTree) IsNodeFree(n *Node) bool {
	return n.logOdds <= logit(octree.freeThreshold)
}

// IsNodeUncertain reports whether the node is neither occupied nor free.
func (octree *OcTree) IsNodeUncertain(n *Node) bool {
	return !octree.IsNodeOccupied(n) && !octree.IsNodeFree(n)
}

// UpdateNode integrates one observation of the leaf containing p, a hit when occupied is true and a miss
// otherwise.
func (octree *OcTree) UpdateNode(p r3.Vector, occupied bool) error {
	delta := logit(probMiss)
	if occupied {
		delta = logit(probHit)
	}
	return octree.update(p, func(current float64, fresh bool) float64 {
		if fresh {
			return clampLogOdds(delta)
		}
		return clampLogOdds(current + delta)
	})
}

// SetOccupancy overwrites the occupancy probability of the leaf containing p.
func (octree *OcTree) SetOccupancy(p r3.Vector, prob float64) error {
	if prob < 0 || prob > 1 || math.IsNaN(prob) {
		return errors.Errorf("occupancy %.3f is not a probability", prob)
	}
	return octree.update(p, func(float64, bool) float64 { return logit(prob) })
}

// Search returns the leaf containing p if it was observed.
func (octree *OcTree) Search(p r3.Vector) (*Node, bool) {
	if !octree.checkPointPlacement(p) || octree.root == nil {
		return nil, false
	}
	n := octree.root
	center, half := octree.RootBox()
	for depth := 0; depth < maxDepth; depth++ {
		i := octantIndex(center, p)
		if n.children[i] == nil {
			return nil, false
		}
		n = n.children[i]
		center, half = ChildBox(center, half, i)
	}
	return n, true
}

// Leaves returns every observed leaf.
func (octree *OcTree) Leaves() []Cell {
	var cells []Cell
	octree.walk(func(c Cell) { cells = append(cells, c) })
	return cells
}

// OccupiedCells returns the leaves that are occupied.
func (octree *OcTree) OccupiedCells() []Cell {
	var cells []Cell
	threshold := octree.occupancyThreshold
	octree.walk(func(c Cell) {
		if c.Occupancy >= threshold {
			cells = append(cells, c)
		}
	})
	return cells
}

func (octree *OcTree) walk(fn func(Cell)) {
	if octree.root == nil {
		return
	}
	var rec func(n *Node, center r3.Vector, half float64)
	rec = func(n *Node, center r3.Vector, half float64) {
		if !n.HasChildren() {
			fn(Cell{Center: center, Side: 2 * half, Occupancy: n.Occupancy()})
			return
		}
		for i, c := range n.children {
			if c != nil {
				cc, ch := ChildBox(center, half, i)
				rec(c, cc, ch)
			}
		}
	}
	center, half := octree.RootBox()
	rec(octree.root, center, half)
}

// update descends to the leaf containing p, creating nodes on the way, applies fn to its log-odds and
// refreshes the inner maxima on the way back up.
func (octree *OcTree) update(p r3.Vector, fn func(current float64, fresh bool) float64) error {
	if !octree.checkPointPlacement(p) {
		return errors.New("error point is outside the bounds of this octree")
	}
	if octree.root == nil {
		octree.root = &Node{}
	}
	path := make([]*Node, 0, maxDepth+1)
	n := octree.root
	path = append(path, n)
	center, half := octree.RootBox()
	fresh := false
	for depth := 0; depth < maxDepth; depth++ {
		i := octantIndex(center, p)
		if n.children[i] == nil {
			n.children[i] = &Node{}
			fresh = true
		}
		n = n.children[i]
		path = append(path, n)
		center, half = ChildBox(center, half, i)
	}
	if fresh {
		octree.size++
	}
	n.logOdds = fn(n.logOdds, fresh)
	for i := len(path) - 2; i >= 0; i-- {
		path[i].logOdds = maxChildLogOdds(path[i])
	}
	return nil
}

func maxChildLogOdds(n *Node) float64 {
	best := math.Inf(-1)
	for _, c := range n.children {
		if c != nil && c.logOdds > best {
			best = c.logOdds
		}
	}
	return best
}

// checkPointPlacement reports whether p lies inside the root cube.
func (octree *OcTree) checkPointPlacement(p r3.Vector) bool {
	h := octree.sideLength / 2
	return math.Abs(p.X) <= h && math.Abs(p.Y) <= h && math.Abs(p.Z) <= h
}

func octantIndex(center, p r3.Vector) int {
	i := 0
	if p.X >= center.X {
		i |= 1
	}
	if p.Y >= center.Y {
		i |= 2
	}
	if p.Z >= center.Z {
		i |= 4
	}
	return i
}

func logit(p float64) float64 {
	return math.Log(p / (1 - p))
}

func probability(logOdds float64) float64 {
	return 1 - 1/(1+math.Exp(logOdds))
}

func clampLogOdds(l float64) float64 {
	return math.Max(logit(clampingMin), math.Min(logit(clampingMax), l))
}
