// Package scene reads collision scenes: named geometries with their placements, plus the request options and
// the broad phase grid used to test them against each other.
package scene

import (
	"fmt"
	"os"
	"slices"

	"github.com/go-viper/mapstructure/v2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"
	"go.uber.org/multierr"

	"go.viam.com/collide/geometry"
)

// Geometry types understood in a scene file.
const (
	TypeBox       = "box"
	TypeSphere    = "sphere"
	TypeCapsule   = "capsule"
	TypeCone      = "cone"
	TypeCylinder  = "cylinder"
	TypeConvex    = "convex"
	TypePlane     = "plane"
	TypeHalfspace = "halfspace"
	TypeTriangle  = "triangle"
	TypeMesh      = "mesh"
	TypeOctree    = "octree"
)

// Vector is a point or direction in a scene file.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vector) r3() r3.Vector { return r3.Vector{X: v.X, Y: v.Y, Z: v.Z} }

// OrientationConfig is an axis angle rotation; Theta is in radians.
type OrientationConfig struct {
	Theta float64 `json:"theta"`
	RX    float64 `json:"rx"`
	RY    float64 `json:"ry"`
	RZ    float64 `json:"rz"`
}

// PoseConfig places a geometry in the world frame.
type PoseConfig struct {
	Translation Vector             `json:"translation"`
	Orientation *OrientationConfig `json:"orientation,omitempty"`
}

// GeometryConfig describes one geometry. Which fields apply depends on Type.
type GeometryConfig struct {
	Type string `json:"type"`

	// box: full side lengths
	Size *Vector `json:"size,omitempty"`

	// sphere, capsule, cone, cylinder
	Radius float64 `json:"radius,omitempty"`
	Length float64 `json:"length,omitempty"`

	// plane, halfspace
	Normal *Vector `json:"normal,omitempty"`
	Offset float64 `json:"offset,omitempty"`

	// convex, triangle and octree occupied points
	Points   []Vector `json:"points,omitempty"`
	Polygons [][]int  `json:"polygons,omitempty"`

	// mesh
	Path  string  `json:"path,omitempty"`
	Scale *Vector `json:"scale,omitempty"`
	BV    string  `json:"bv,omitempty"`

	// octree
	Resolution float64 `json:"resolution,omitempty"`
}

// ObjectConfig is a named, placed geometry.
type ObjectConfig struct {
	Name     string         `json:"name"`
	Geometry GeometryConfig `json:"geometry"`
	Pose     PoseConfig     `json:"pose"`
}

// RequestConfig mirrors the options of a collision request.
type RequestConfig struct {
	MaxContacts        int     `json:"max_contacts"`
	Contacts           bool    `json:"contacts"`
	DistanceLowerBound bool    `json:"distance_lower_bound"`
	SecurityMargin     float64 `json:"security_margin"`
	BreakDistance      float64 `json:"break_distance"`
	CachedGJKGuess     bool    `json:"cached_gjk_guess"`
}

// HashConfig bounds the broad phase grid. Objects outside Min and Max are still tested, only without the grid.
type HashConfig struct {
	Min      Vector  `json:"min"`
	Max      Vector  `json:"max"`
	CellSize float64 `json:"cell_size"`
	Sparse   bool    `json:"sparse"`
}

// Config is the content of a scene file.
type Config struct {
	Request *RequestConfig `json:"request,omitempty"`
	Hash    *HashConfig    `json:"hash,omitempty"`
	Objects []ObjectConfig `json:"objects"`
}

// ReadConfig reads and validates the scene file at path.
func ReadConfig(path string) (*Config, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read scene")
	}
	conf, err := ParseConfig(data)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot parse scene %q", path)
	}
	return conf, nil
}

// ParseConfig decodes a JSON5 scene and validates it. Keys that no field decodes are an error.
func ParseConfig(data []byte) (*Config, error) {
	var raw map[string]interface{}
	if err := json5.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	var conf Config
	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:  "json",
		Result:   &conf,
		Metadata: &md,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, err
	}
	if len(md.Unused) != 0 {
		unused := slices.Clone(md.Unused)
		slices.Sort(unused)
		return nil, NewUnknownFieldsError(unused)
	}
	if err := conf.Validate("scene"); err != nil {
		return nil, err
	}
	return &conf, nil
}

// Validate reports every problem found in the scene, not just the first.
func (conf *Config) Validate(path string) error {
	var err error
	if conf.Request != nil {
		err = multierr.Combine(err, conf.Request.Validate(path+".request"))
	}
	if conf.Hash != nil {
		err = multierr.Combine(err, conf.Hash.Validate(path+".hash"))
	}
	seen := map[string]bool{}
	for idx, obj := range conf.Objects {
		objPath := fmt.Sprintf("%s.%s.%d", path, "objects", idx)
		err = multierr.Combine(err, obj.Validate(objPath))
		if obj.Name != "" {
			if seen[obj.Name] {
				err = multierr.Combine(err, NewInvalidFieldError(objPath, "name", fmt.Sprintf("duplicate name %q", obj.Name)))
			}
			seen[obj.Name] = true
		}
	}
	return err
}

// Validate ensures the request options are usable.
func (conf *RequestConfig) Validate(path string) error {
	var err error
	if conf.MaxContacts < 0 {
		err = multierr.Combine(err, NewInvalidFieldError(path, "max_contacts", "must not be negative"))
	}
	if conf.SecurityMargin < 0 {
		err = multierr.Combine(err, NewInvalidFieldError(path, "security_margin", "must not be negative"))
	}
	if conf.BreakDistance < 0 {
		err = multierr.Combine(err, NewInvalidFieldError(path, "break_distance", "must not be negative"))
	}
	return err
}

// Validate ensures the grid has a positive cell size and a non-empty extent.
func (conf *HashConfig) Validate(path string) error {
	var err error
	if conf.CellSize <= 0 {
		err = multierr.Combine(err, NewInvalidFieldError(path, "cell_size", "must be positive"))
	}
	if conf.Max.X <= conf.Min.X || conf.Max.Y <= conf.Min.Y || conf.Max.Z <= conf.Min.Z {
		err = multierr.Combine(err, NewInvalidFieldError(path, "max", "must exceed min on every axis"))
	}
	return err
}

// Validate ensures the object is named and its geometry has what its type needs.
func (conf *ObjectConfig) Validate(path string) error {
	var err error
	if conf.Name == "" {
		err = multierr.Combine(err, NewFieldRequiredError(path, "name"))
	}
	if o := conf.Pose.Orientation; o != nil && o.Theta != 0 && o.RX == 0 && o.RY == 0 && o.RZ == 0 {
		err = multierr.Combine(err, NewInvalidFieldError(path+".pose", "orientation", "rotation axis is zero"))
	}
	return multierr.Combine(err, conf.Geometry.Validate(path+".geometry"))
}

// Validate checks the fields the geometry type requires.
func (conf *GeometryConfig) Validate(path string) error {
	positive := func(field string, v float64) error {
		if v <= 0 {
			return NewInvalidFieldError(path, field, "must be positive")
		}
		return nil
	}

	switch conf.Type {
	case "":
		return NewFieldRequiredError(path, "type")
	case TypeBox:
		if conf.Size == nil {
			return NewFieldRequiredError(path, "size")
		}
		return multierr.Combine(positive("size.x", conf.Size.X), positive("size.y", conf.Size.Y), positive("size.z", conf.Size.Z))
	case TypeSphere:
		return positive("radius", conf.Radius)
	case TypeCapsule, TypeCone, TypeCylinder:
		return multierr.Combine(positive("radius", conf.Radius), positive("length", conf.Length))
	case TypePlane, TypeHalfspace:
		if conf.Normal == nil {
			return NewFieldRequiredError(path, "normal")
		}
		if conf.Normal.r3().Norm2() == 0 {
			return NewInvalidFieldError(path, "normal", "must not be zero")
		}
		return nil
	case TypeConvex:
		if len(conf.Points) == 0 {
			return NewFieldRequiredError(path, "points")
		}
		return nil
	case TypeTriangle:
		if len(conf.Points) != 3 {
			return NewInvalidFieldError(path, "points", fmt.Sprintf("a triangle needs 3 points, got %d", len(conf.Points)))
		}
		return nil
	case TypeMesh:
		var err error
		if conf.Path == "" {
			err = multierr.Combine(err, NewFieldRequiredError(path, "path"))
		}
		if conf.BV != "" {
			kind, perr := geometry.ParseNodeType(conf.BV)
			switch {
			case perr != nil:
				err = multierr.Combine(err, NewInvalidFieldError(path, "bv", perr.Error()))
			case !kind.IsBV():
				err = multierr.Combine(err, NewInvalidFieldError(path, "bv", fmt.Sprintf("%v is not a bounding volume", kind)))
			}
		}
		return err
	case TypeOctree:
		return positive("resolution", conf.Resolution)
	default:
		return NewInvalidFieldError(path, "type", fmt.Sprintf("unknown geometry type %q", conf.Type))
	}
}
