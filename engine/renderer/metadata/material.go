package metadata

import (
	"github.com/google/uuid"
	"golang.org/x/exp/slices"

	"github.com/spaghettifunk/delta/engine/math"
)

/** @brief Type of a material parameter, mirrored from the shader uniform type. */
type ParameterType int

const (
	ParameterTypeBool ParameterType = iota
	ParameterTypeInt
	ParameterTypeUint
	ParameterTypeFloat
	ParameterTypeVec2
	ParameterTypeVec3
	ParameterTypeVec4
	/** @brief A texture asset, referenced by GUID. */
	ParameterTypeTexture
)

var parameterTypeNames = map[ParameterType]string{
	ParameterTypeBool:    "bool",
	ParameterTypeInt:     "int",
	ParameterTypeUint:    "uint",
	ParameterTypeFloat:   "float",
	ParameterTypeVec2:    "vec2",
	ParameterTypeVec3:    "vec3",
	ParameterTypeVec4:    "vec4",
	ParameterTypeTexture: "texture",
}

func (t ParameterType) String() string {
	return parameterTypeNames[t]
}

func ParseParameterType(name string) (ParameterType, bool) {
	for t, n := range parameterTypeNames {
		if n == name {
			return t, true
		}
	}
	return 0, false
}

// Identifiers set by the engine on every draw. They never show up as
// user-editable material parameters.
var ReservedParameters = []string{
	"modelMatrix",
	"viewMatrix",
	"projectionMatrix",
}

func IsReservedParameter(name string) bool {
	return slices.Contains(ReservedParameters, name)
}

/** @brief A declared parameter: what the shader exposes. */
type ParameterSpec struct {
	Name string
	Type ParameterType
}

/**
 * @brief A typed material parameter value. Only the member matching Type is
 * meaningful.
 */
type Parameter struct {
	Name    string
	Type    ParameterType
	Bool    bool
	Int     int32
	Uint    uint32
	Float   float32
	Vec     math.Vec4
	Texture uuid.UUID
}

// DefaultParameter returns the zero value for spec, with vec4 defaulting to
// opaque white so a freshly declared colour is visible.
func DefaultParameter(spec ParameterSpec) Parameter {
	p := Parameter{Name: spec.Name, Type: spec.Type}
	if spec.Type == ParameterTypeVec4 {
		p.Vec = math.Vec4{X: 1, Y: 1, Z: 1, W: 1}
	}
	return p
}

/** @brief Named parameter collection of a material. */
type ParameterCollection map[string]Parameter

// Set stores p under its name.
func (pc ParameterCollection) Set(p Parameter) {
	pc[p.Name] = p
}

func (pc ParameterCollection) Get(name string) (Parameter, bool) {
	p, ok := pc[name]
	return p, ok
}

// Editable returns the user-editable parameters sorted by name.
func (pc ParameterCollection) Editable() []Parameter {
	out := make([]Parameter, 0, len(pc))
	for name, p := range pc {
		if IsReservedParameter(name) {
			continue
		}
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b Parameter) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return out
}

// Rebuild produces a collection shaped by specs. A value survives when an
// identifier with the same name and type is declared again; identifiers that
// disappeared are dropped and new ones start at their default.
func (pc ParameterCollection) Rebuild(specs []ParameterSpec) ParameterCollection {
	out := make(ParameterCollection, len(specs))
	for _, spec := range specs {
		if IsReservedParameter(spec.Name) {
			continue
		}
		if old, ok := pc[spec.Name]; ok && old.Type == spec.Type {
			out[spec.Name] = old
			continue
		}
		out[spec.Name] = DefaultParameter(spec)
	}
	return out
}

// Overlay copies every parameter from src whose name and type match a
// parameter already present in pc.
func (pc ParameterCollection) Overlay(src ParameterCollection) {
	for name, p := range src {
		if cur, ok := pc[name]; ok && cur.Type == p.Type {
			pc[name] = p
		}
	}
}

func (pc ParameterCollection) Clone() ParameterCollection {
	out := make(ParameterCollection, len(pc))
	for k, v := range pc {
		out[k] = v
	}
	return out
}

/**
 * @brief Material as stored on disk: which sources to build the program from
 * and the user-set parameter values.
 */
type MaterialDocument struct {
	Name string
	/** @brief Stage -> source path, relative to the asset directory. */
	Sources map[ShaderStage]string
	/** @brief Values written in the file. */
	Parameters ParameterCollection
}
