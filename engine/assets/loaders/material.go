package loaders

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/delta/engine/core"
	"github.com/spaghettifunk/delta/engine/math"
	"github.com/spaghettifunk/delta/engine/renderer/metadata"
)

/*
A .dmat file:

	name = "metal"

	[shaders]
	vertex = "shaders/basic.vert"
	fragment = "shaders/metal.frag"

	[parameters.shininess]
	type = "float"
	value = 32.0

	[parameters.diffuseColour]
	type = "vec4"
	value = [1.0, 0.8, 0.8, 1.0]
*/

type materialFile struct {
	Name       string                   `toml:"name"`
	Shaders    map[string]string        `toml:"shaders"`
	Parameters map[string]parameterFile `toml:"parameters,omitempty"`
}

type parameterFile struct {
	Type  string `toml:"type"`
	Value any    `toml:"value"`
}

type MaterialLoader struct{}

// Load parses a .dmat file. Shader paths are returned as written, relative to
// the asset directory.
func (ml *MaterialLoader) Load(path string) (*metadata.MaterialDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", core.ErrFileNotFound, path)
		}
		return nil, err
	}
	var mf materialFile
	if err := toml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrParseError, path, err)
	}

	doc := &metadata.MaterialDocument{
		Name:       mf.Name,
		Sources:    map[metadata.ShaderStage]string{},
		Parameters: metadata.ParameterCollection{},
	}
	if doc.Name == "" {
		base := filepath.Base(path)
		doc.Name = base[:len(base)-len(filepath.Ext(base))]
	}
	for stageName, src := range mf.Shaders {
		stage, ok := metadata.ParseShaderStage(stageName)
		if !ok {
			return nil, fmt.Errorf("%w: %s: unknown shader stage %q", core.ErrParseError, path, stageName)
		}
		if src == "" {
			return nil, fmt.Errorf("%w: %s: empty %s shader path", core.ErrParseError, path, stageName)
		}
		doc.Sources[stage] = src
	}
	for name, pf := range mf.Parameters {
		p, err := decodeParameter(name, pf)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", core.ErrParseError, path, err)
		}
		doc.Parameters.Set(p)
	}
	return doc, nil
}

// Save writes doc to path in the .dmat format.
func (ml *MaterialLoader) Save(doc *metadata.MaterialDocument, path string) error {
	mf := materialFile{
		Name:       doc.Name,
		Shaders:    map[string]string{},
		Parameters: map[string]parameterFile{},
	}
	for stage, src := range doc.Sources {
		mf.Shaders[stage.String()] = src
	}
	names := make([]string, 0, len(doc.Parameters))
	for name := range doc.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		mf.Parameters[name] = encodeParameter(doc.Parameters[name])
	}
	data, err := toml.Marshal(mf)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func decodeParameter(name string, pf parameterFile) (metadata.Parameter, error) {
	t, ok := metadata.ParseParameterType(pf.Type)
	if !ok {
		return metadata.Parameter{}, fmt.Errorf("parameter %s: unknown type %q", name, pf.Type)
	}
	p := metadata.Parameter{Name: name, Type: t}
	bad := func() (metadata.Parameter, error) {
		return metadata.Parameter{}, fmt.Errorf("parameter %s: value %v is not a %s", name, pf.Value, t)
	}
	switch t {
	case metadata.ParameterTypeBool:
		v, ok := pf.Value.(bool)
		if !ok {
			return bad()
		}
		p.Bool = v
	case metadata.ParameterTypeInt:
		v, ok := toFloat(pf.Value)
		if !ok {
			return bad()
		}
		p.Int = int32(v)
	case metadata.ParameterTypeUint:
		v, ok := toFloat(pf.Value)
		if !ok || v < 0 {
			return bad()
		}
		p.Uint = uint32(v)
	case metadata.ParameterTypeFloat:
		v, ok := toFloat(pf.Value)
		if !ok {
			return bad()
		}
		p.Float = float32(v)
	case metadata.ParameterTypeVec2, metadata.ParameterTypeVec3, metadata.ParameterTypeVec4:
		want := int(t-metadata.ParameterTypeVec2) + 2
		list, ok := pf.Value.([]any)
		if !ok || len(list) != want {
			return bad()
		}
		var comps [4]float32
		for i, c := range list {
			f, ok := toFloat(c)
			if !ok {
				return bad()
			}
			comps[i] = float32(f)
		}
		p.Vec = math.Vec4{X: comps[0], Y: comps[1], Z: comps[2], W: comps[3]}
	case metadata.ParameterTypeTexture:
		s, ok := pf.Value.(string)
		if !ok {
			return bad()
		}
		if s != "" {
			id, err := uuid.Parse(s)
			if err != nil {
				return metadata.Parameter{}, fmt.Errorf("parameter %s: %v", name, err)
			}
			p.Texture = id
		}
	}
	return p, nil
}

func encodeParameter(p metadata.Parameter) parameterFile {
	pf := parameterFile{Type: p.Type.String()}
	switch p.Type {
	case metadata.ParameterTypeBool:
		pf.Value = p.Bool
	case metadata.ParameterTypeInt:
		pf.Value = int64(p.Int)
	case metadata.ParameterTypeUint:
		pf.Value = int64(p.Uint)
	case metadata.ParameterTypeFloat:
		pf.Value = float64(p.Float)
	case metadata.ParameterTypeVec2:
		pf.Value = []float64{float64(p.Vec.X), float64(p.Vec.Y)}
	case metadata.ParameterTypeVec3:
		pf.Value = []float64{float64(p.Vec.X), float64(p.Vec.Y), float64(p.Vec.Z)}
	case metadata.ParameterTypeVec4:
		pf.Value = []float64{float64(p.Vec.X), float64(p.Vec.Y), float64(p.Vec.Z), float64(p.Vec.W)}
	case metadata.ParameterTypeTexture:
		if p.Texture == uuid.Nil {
			pf.Value = ""
		} else {
			pf.Value = p.Texture.String()
		}
	}
	return pf
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
