package meshloader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/chenzhekl/goply"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// ResourceLoader decodes a mesh resource into vertices, scaled per axis, and triangles.
type ResourceLoader interface {
	LoadResource(path string, scale r3.Vector) ([]r3.Vector, [][3]int, error)
}

func scaled(v, scale r3.Vector) r3.Vector {
	return r3.Vector{X: v.X * scale.X, Y: v.Y * scale.Y, Z: v.Z * scale.Z}
}

// PLYLoader reads PLY files from disk. Polygons with more than three vertices are split into fans.
type PLYLoader struct{}

// LoadResource implements ResourceLoader.
func (PLYLoader) LoadResource(path string, scale r3.Vector) (vertices []r3.Vector, triangles [][3]int, err error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".ply" {
		return nil, nil, errors.Errorf("unsupported mesh file format: %s (must be .ply)", ext)
	}
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, NewResourceNotFoundError(path)
		}
		return nil, nil, err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()

	// the decoder panics on malformed input
	defer func() {
		if r := recover(); r != nil {
			vertices, triangles, err = nil, nil, NewBadResourceError(path, fmt.Sprint(r))
		}
	}()
	ply := goply.New(f)

	for i, v := range ply.Elements("vertex") {
		x, okX := number(v["x"])
		y, okY := number(v["y"])
		z, okZ := number(v["z"])
		if !okX || !okY || !okZ {
			return nil, nil, NewBadResourceError(path, fmt.Sprintf("vertex %d has no numeric x, y and z", i))
		}
		vertices = append(vertices, scaled(r3.Vector{X: x, Y: y, Z: z}, scale))
	}
	for i, face := range ply.Elements("face") {
		list, ok := face["vertex_indices"]
		if !ok {
			list, ok = face["vertex_index"]
		}
		idx, okIdx := indices(list)
		if !ok || !okIdx || len(idx) < 3 {
			return nil, nil, NewBadResourceError(path, fmt.Sprintf("face %d has no usable vertex list", i))
		}
		for j := 1; j+1 < len(idx); j++ {
			tri := [3]int{idx[0], idx[j], idx[j+1]}
			for _, k := range tri {
				if k < 0 || k >= len(vertices) {
					return nil, nil, NewBadResourceError(path, fmt.Sprintf("face %d references vertex %d", i, k))
				}
			}
			triangles = append(triangles, tri)
		}
	}
	if len(triangles) == 0 {
		return nil, nil, NewBadResourceError(path, "no faces")
	}
	return vertices, triangles, nil
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int8, int16, int32, int64, int, uint8, uint16, uint32, uint64:
		i, ok := integer(n)
		return float64(i), ok
	}
	return 0, false
}

func integer(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case int:
		return n, true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	}
	return 0, false
}

func indices(v interface{}) ([]int, bool) {
	switch l := v.(type) {
	case []int32:
		return convert(l), true
	case []uint32:
		return convert(l), true
	case []int8:
		return convert(l), true
	case []uint8:
		return convert(l), true
	case []int16:
		return convert(l), true
	case []uint16:
		return convert(l), true
	case []int64:
		return convert(l), true
	case []int:
		return l, true
	case []interface{}:
		out := make([]int, 0, len(l))
		for _, e := range l {
			i, ok := integer(e)
			if !ok {
				return nil, false
			}
			out = append(out, i)
		}
		return out, true
	}
	return nil, false
}

func convert[T int8 | uint8 | int16 | uint16 | int32 | uint32 | int64](l []T) []int {
	out := make([]int, len(l))
	for i, e := range l {
		out[i] = int(e)
	}
	return out
}

type memoryMesh struct {
	vertices  []r3.Vector
	triangles [][3]int
}

// MemoryLoader serves meshes registered in memory. It counts the resources it decodes.
type MemoryLoader struct {
	mu     sync.Mutex
	meshes map[string]memoryMesh
	loads  int
}

// NewMemoryLoader returns an empty in-memory loader.
func NewMemoryLoader() *MemoryLoader {
	return &MemoryLoader{meshes: map[string]memoryMesh{}}
}

// Add registers a mesh under path, replacing any previous one.
func (l *MemoryLoader) Add(path string, vertices []r3.Vector, triangles [][3]int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.meshes[path] = memoryMesh{vertices: vertices, triangles: triangles}
}

// Loads returns the number of successful LoadResource calls.
func (l *MemoryLoader) Loads() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loads
}

// LoadResource implements ResourceLoader.
func (l *MemoryLoader) LoadResource(path string, scale r3.Vector) ([]r3.Vector, [][3]int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.meshes[path]
	if !ok {
		return nil, nil, NewResourceNotFoundError(path)
	}
	l.loads++
	vertices := make([]r3.Vector, len(m.vertices))
	for i, v := range m.vertices {
		vertices[i] = scaled(v, scale)
	}
	return vertices, append([][3]int(nil), m.triangles...), nil
}
