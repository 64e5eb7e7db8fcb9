package meshloader

import (
	"slices"

	"github.com/golang/geo/r3"
	"github.com/samber/lo"
	"golang.org/x/exp/constraints"

	"go.viam.com/collide/bvh"
	"go.viam.com/collide/geometry"
	"go.viam.com/collide/logging"
)

// CacheKey identifies a loaded hierarchy. Keys order by kind, then scale component by component, then path.
type CacheKey struct {
	Kind  geometry.NodeType
	Scale r3.Vector
	Path  string
}

func compare[T constraints.Ordered](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Compare returns -1, 0 or 1 as k sorts before, with or after other.
func (k CacheKey) Compare(other CacheKey) int {
	if c := compare(k.Kind, other.Kind); c != 0 {
		return c
	}
	for _, pair := range [3][2]float64{
		{k.Scale.X, other.Scale.X},
		{k.Scale.Y, other.Scale.Y},
		{k.Scale.Z, other.Scale.Z},
	} {
		if c := compare(pair[0], pair[1]); c != 0 {
			return c
		}
	}
	return compare(k.Path, other.Path)
}

// Less reports whether k sorts before other.
func (k CacheKey) Less(other CacheKey) bool { return k.Compare(other) < 0 }

type cacheEntry struct {
	key  CacheKey
	geom bvh.Hierarchy
}

// CachedMeshLoader is a MeshLoader that keeps every hierarchy it builds. Loading the same key again returns
// the same instance. Entries are never evicted. It is not safe for concurrent use.
type CachedMeshLoader struct {
	*MeshLoader
	entries []cacheEntry
}

// NewCachedMeshLoader returns an empty cache in front of a MeshLoader reading through resources.
func NewCachedMeshLoader(resources ResourceLoader, logger logging.Logger) *CachedMeshLoader {
	return &CachedMeshLoader{MeshLoader: NewMeshLoader(resources, logger)}
}

// Load implements Loader.
func (c *CachedMeshLoader) Load(path string, scale r3.Vector, kind geometry.NodeType) (bvh.Hierarchy, error) {
	key := CacheKey{Kind: kind, Scale: scale, Path: path}
	i, found := slices.BinarySearchFunc(c.entries, key, func(e cacheEntry, k CacheKey) int {
		return e.key.Compare(k)
	})
	if found {
		c.logger.Debugw("mesh cache hit", "path", path, "kind", kind, "scale", scale)
		return c.entries[i].geom, nil
	}
	geom, err := c.MeshLoader.Load(path, scale, kind)
	if err != nil {
		return nil, err
	}
	c.entries = slices.Insert(c.entries, i, cacheEntry{key: key, geom: geom})
	c.logger.Debugw("mesh cache miss", "path", path, "kind", kind, "scale", scale, "entries", len(c.entries))
	return geom, nil
}

// Len returns the number of cached hierarchies.
func (c *CachedMeshLoader) Len() int { return len(c.entries) }

// Keys returns the cached keys in order.
func (c *CachedMeshLoader) Keys() []CacheKey {
	return lo.Map(c.entries, func(e cacheEntry, _ int) CacheKey { return e.key })
}
