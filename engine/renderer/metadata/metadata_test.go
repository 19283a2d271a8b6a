package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindForPath(t *testing.T) {
	cases := map[string]AssetKind{
		"models/cube.obj":         AssetKindModel,
		"models/ship.glb":         AssetKindModel,
		"textures/wood.png":       AssetKindTexture,
		"textures/sky.hdr":        AssetKindTexture,
		"textures/WOOD.PNG":       AssetKindUnknown,
		"materials/metal.dmat":    AssetKindMaterial,
		"scenes/main.dscene":      AssetKindScene,
		"shaders/basic.vert":      AssetKindVertexShader,
		"shaders/basic.frag":      AssetKindFragmentShader,
		"shaders/lod.tesc":        AssetKindTessControlShader,
		"shaders/lod.tese":        AssetKindTessEvaluationShader,
		"shaders/post.hlsl":       AssetKindHlslShader,
		"models/cube.obj.dmeta":   AssetKindUnknown,
		"README":                  AssetKindUnknown,
		"fonts/regular.fnt":       AssetKindUnknown,
		"shaders/particles.comp":  AssetKindComputeShader,
		"shaders/outline.geom":    AssetKindGeometryShader,
		"textures/scan.tif":       AssetKindTexture,
		"textures/heightmap.tiff": AssetKindTexture,
	}
	for path, want := range cases {
		assert.Equal(t, want, KindForPath(path), path)
	}
}

func TestStageForKind(t *testing.T) {
	stage, ok := StageForKind(AssetKindFragmentShader)
	assert.True(t, ok)
	assert.Equal(t, ShaderStageFragment, stage)

	_, ok = StageForKind(AssetKindHlslShader)
	assert.False(t, ok)
	assert.True(t, AssetKindHlslShader.IsShaderSource())
	assert.False(t, AssetKindMaterial.IsShaderSource())
}

func TestParameterRebuildKeepsMatchingValues(t *testing.T) {
	pc := ParameterCollection{}
	pc.Set(Parameter{Name: "roughness", Type: ParameterTypeFloat, Float: 0.25})
	pc.Set(Parameter{Name: "tiling", Type: ParameterTypeFloat, Float: 4})
	pc.Set(Parameter{Name: "metallic", Type: ParameterTypeFloat, Float: 1})

	out := pc.Rebuild([]ParameterSpec{
		{Name: "roughness", Type: ParameterTypeFloat},
		{Name: "tiling", Type: ParameterTypeVec2},
		{Name: "tint", Type: ParameterTypeVec4},
		{Name: "modelMatrix", Type: ParameterTypeVec4},
	})

	assert.Len(t, out, 3)
	assert.Equal(t, float32(0.25), out["roughness"].Float)
	assert.Equal(t, ParameterTypeVec2, out["tiling"].Type)
	assert.Equal(t, float32(1), out["tint"].Vec.W)
	_, hasMetallic := out["metallic"]
	assert.False(t, hasMetallic)
	_, hasReserved := out["modelMatrix"]
	assert.False(t, hasReserved)
}

func TestEditableExcludesReserved(t *testing.T) {
	pc := ParameterCollection{}
	pc.Set(Parameter{Name: "modelMatrix", Type: ParameterTypeVec4})
	pc.Set(Parameter{Name: "b", Type: ParameterTypeBool})
	pc.Set(Parameter{Name: "a", Type: ParameterTypeInt})

	editable := pc.Editable()
	assert.Len(t, editable, 2)
	assert.Equal(t, "a", editable[0].Name)
	assert.Equal(t, "b", editable[1].Name)
}

func TestPlaceholderContainer(t *testing.T) {
	c := NewPlaceholderContainer()
	assert.Equal(t, uint32(4), c.Width)
	assert.Len(t, c.Pixels, 4*4*TextureFormatRGBA8.BytesPerPixel())
	assert.Equal(t, uint8(255), c.Pixels[0])
	assert.Equal(t, uint8(0), c.Pixels[4])
}

func TestSceneReferences(t *testing.T) {
	doc := &SceneDocument{Nodes: []*SceneNode{
		{Name: "root", Model: "m1", Children: []*SceneNode{
			{Name: "child", Model: "m1", Material: "mat"},
		}},
	}}
	assert.Equal(t, []string{"m1", "mat"}, doc.References())
}
