package loaders

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/delta/engine/core"
	"github.com/spaghettifunk/delta/engine/math"
	"github.com/spaghettifunk/delta/engine/renderer/metadata"
)

const cubeFace = `# one quad
g quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
usemtl brick
f 1/1/1 2/2/1 3/3/1 4/4/1
`

func TestParseOBJQuad(t *testing.T) {
	meshes, err := parseOBJ(strings.NewReader(cubeFace), "cube")
	require.NoError(t, err)
	require.Len(t, meshes, 1)

	m := meshes[0]
	assert.Equal(t, "quad", m.Name)
	assert.Equal(t, "brick", m.MaterialName)
	assert.Equal(t, 4, m.VertexCount(), "shared corners are not duplicated")
	assert.Equal(t, 2, m.TriangleCount())
	for _, v := range m.Vertices {
		assert.Equal(t, math.NewVec3(0, 0, 1), v.Normal)
		if v.Position == math.NewVec3(1, 1, 0) {
			assert.Equal(t, math.Vec2{X: 1, Y: 1}, v.Texcoord)
		}
	}
	assert.Equal(t, math.NewVec3(1, 1, 0), m.Extents.Max)
	assert.True(t, m.Center().Compare(math.NewVec3(0.5, 0.5, 0), 1e-6))
}

func TestParseOBJGroups(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
v 0 0 1
g first
f 1 2 3
g second
f 1 2 4
`
	meshes, err := parseOBJ(strings.NewReader(src), "tri")
	require.NoError(t, err)
	require.Len(t, meshes, 2)
	assert.Equal(t, "first", meshes[0].Name)
	assert.Equal(t, "second", meshes[1].Name)
	assert.Equal(t, 3, meshes[1].VertexCount(), "each mesh holds only its own vertices")
	assert.Equal(t, []uint32{0, 1, 2}, meshes[1].Indices)
	// normals are generated when the file has none
	assert.InDelta(t, 1.0, meshes[0].Vertices[0].Normal.Length(), 1e-5)
}

func TestParseOBJMalformed(t *testing.T) {
	for name, src := range map[string]string{
		"out of range": "v 0 0 0\nf 1 2 3\n",
		"bad number":   "v 0 zero 0\n",
		"short face":   "v 0 0 0\nv 1 0 0\nf 1 2\n",
		"empty":        "# nothing\n",
	} {
		_, err := parseOBJ(strings.NewReader(src), "x")
		assert.ErrorIs(t, err, core.ErrImportError, name)
	}
}

func TestModelLoaderImport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cube.obj")
	require.NoError(t, os.WriteFile(path, []byte(cubeFace), 0o644))

	ml := &ModelLoader{}
	meshes, err := ml.Import(path)
	require.NoError(t, err)
	assert.Len(t, meshes, 1)

	_, err = ml.Import(filepath.Join(dir, "missing.obj"))
	assert.ErrorIs(t, err, core.ErrFileNotFound)

	fbx := filepath.Join(dir, "rig.fbx")
	require.NoError(t, os.WriteFile(fbx, []byte("Kaydara"), 0o644))
	_, err = ml.Import(fbx)
	assert.ErrorIs(t, err, core.ErrImportError)
}

func TestMaterialRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metal.dmat")
	tex := uuid.New()
	doc := &metadata.MaterialDocument{
		Name: "metal",
		Sources: map[metadata.ShaderStage]string{
			metadata.ShaderStageVertex:   "shaders/basic.vert",
			metadata.ShaderStageFragment: "shaders/metal.frag",
		},
		Parameters: metadata.ParameterCollection{},
	}
	doc.Parameters.Set(metadata.Parameter{Name: "shininess", Type: metadata.ParameterTypeFloat, Float: 32})
	doc.Parameters.Set(metadata.Parameter{Name: "tint", Type: metadata.ParameterTypeVec3, Vec: math.Vec4{X: 1, Y: 0.5, Z: 0.25}})
	doc.Parameters.Set(metadata.Parameter{Name: "useMap", Type: metadata.ParameterTypeBool, Bool: true})
	doc.Parameters.Set(metadata.Parameter{Name: "layers", Type: metadata.ParameterTypeUint, Uint: 3})
	doc.Parameters.Set(metadata.Parameter{Name: "diffuseMap", Type: metadata.ParameterTypeTexture, Texture: tex})

	ml := &MaterialLoader{}
	require.NoError(t, ml.Save(doc, path))
	got, err := ml.Load(path)
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestMaterialLoadErrors(t *testing.T) {
	dir := t.TempDir()
	ml := &MaterialLoader{}

	_, err := ml.Load(filepath.Join(dir, "missing.dmat"))
	assert.ErrorIs(t, err, core.ErrFileNotFound)

	cases := map[string]string{
		"syntax":     "name = \n",
		"stage":      "[shaders]\npixel = \"a.frag\"\n",
		"type":       "[parameters.x]\ntype = \"mat4\"\nvalue = 1\n",
		"value":      "[parameters.x]\ntype = \"vec2\"\nvalue = [1.0]\n",
		"texture id": "[parameters.x]\ntype = \"texture\"\nvalue = \"nope\"\n",
	}
	for name, body := range cases {
		path := filepath.Join(dir, name+".dmat")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		_, err := ml.Load(path)
		assert.ErrorIs(t, err, core.ErrParseError, name)
	}
}

func TestMaterialNameDefaultsToStem(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wood.dmat")
	require.NoError(t, os.WriteFile(path, []byte("[shaders]\nfragment = \"a.frag\"\n"), 0o644))
	doc, err := (&MaterialLoader{}).Load(path)
	require.NoError(t, err)
	assert.Equal(t, "wood", doc.Name)
	assert.Equal(t, "a.frag", doc.Sources[metadata.ShaderStageFragment])
}

func writePNG(t *testing.T, path string, alpha uint8) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 2; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 100), G: uint8(y * 50), B: 7, A: alpha})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestDecodePNG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.png")
	writePNG(t, path, 255)

	c, err := (&ImageLoader{}).Decode(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), c.Width)
	assert.Equal(t, uint32(3), c.Height)
	assert.Equal(t, metadata.TextureFormatRGBA8, c.Format)
	assert.Len(t, c.Pixels, 2*3*4)
	assert.False(t, c.HasTransparency)
	// pixel (1, 2)
	assert.Equal(t, []uint8{100, 100, 7, 255}, c.Pixels[(2*2+1)*4:(2*2+1)*4+4])

	flipped, err := (&ImageLoader{FlipY: true}).Decode(path)
	require.NoError(t, err)
	assert.Equal(t, c.Pixels[2*2*4:3*2*4], flipped.Pixels[0:2*4])

	writePNG(t, path, 128)
	c, err = (&ImageLoader{}).Decode(path)
	require.NoError(t, err)
	assert.True(t, c.HasTransparency)
}

func TestDecodeErrors(t *testing.T) {
	dir := t.TempDir()
	il := &ImageLoader{}

	_, err := il.Decode(filepath.Join(dir, "missing.png"))
	assert.ErrorIs(t, err, core.ErrFileNotFound)

	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not a png"), 0o644))
	_, err = il.Decode(bad)
	assert.ErrorIs(t, err, core.ErrImportError)

	hdr := filepath.Join(dir, "sky.hdr")
	require.NoError(t, os.WriteFile(hdr, []byte("#?RADIANCE"), 0o644))
	_, err = il.Decode(hdr)
	assert.ErrorIs(t, err, core.ErrImportError)

	exr := filepath.Join(dir, "sky.exr")
	require.NoError(t, os.WriteFile(exr, []byte{0x76, 0x2f, 0x31, 0x01}, 0o644))
	_, err = il.Decode(exr)
	assert.ErrorIs(t, err, core.ErrImportError)
}

func TestDecodeTGA(t *testing.T) {
	dir := t.TempDir()
	il := &ImageLoader{}
	decode := func(name string, raw []byte) (*metadata.TextureContainer, error) {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, raw, 0o644))
		return il.Decode(path)
	}

	// 2x1, 24 bit, bottom-up: blue then red stored as BGR
	raw := []byte{0, 0, 2, 0, 0, 0, 0, 0, 0, 0, 0, 0, 2, 0, 1, 0, 24, 0,
		255, 0, 0,
		0, 0, 255,
	}
	c, err := decode("raw.tga", raw)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), c.Width)
	assert.Equal(t, []uint8{0, 0, 255, 255, 255, 0, 0, 255}, c.Pixels)
	assert.False(t, c.HasTransparency)

	// same image run-length encoded: one raw packet of two pixels
	rle := []byte{0, 0, 10, 0, 0, 0, 0, 0, 0, 0, 0, 0, 2, 0, 1, 0, 24, 0,
		0x01, 255, 0, 0, 0, 0, 255,
	}
	packed, err := decode("rle.tga", rle)
	require.NoError(t, err)
	assert.Equal(t, c.Pixels, packed.Pixels)

	_, err = decode("short.tga", raw[:10])
	assert.ErrorIs(t, err, core.ErrImportError)
}

func TestDecodeHDR(t *testing.T) {
	// 2x1 flat RGBE scanline: a lit pixel then a black one
	src := "#?RADIANCE\nFORMAT=32-bit_rle_rgbe\n\n-Y 1 +X 2\n"
	raw := append([]byte(src), 128, 64, 32, 129, 0, 0, 0, 0)
	path := filepath.Join(t.TempDir(), "sky.hdr")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	c, err := (&ImageLoader{}).Decode(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), c.Width)
	assert.Equal(t, uint32(1), c.Height)
	assert.Equal(t, metadata.TextureFormatRGBA8, c.Format)
	assert.Greater(t, c.Pixels[0], c.Pixels[4], "tone mapped, not clipped to black")
	assert.Equal(t, uint8(255), c.Pixels[3])
}

func TestSceneLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "level.dscene")
	model := uuid.NewString()
	body := "name: level\nnodes:\n  - name: root\n    model: " + model + "\n    transform:\n      position: {x: 1, y: 2, z: 3}\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	sl := &SceneLoader{}
	doc, err := sl.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "level", doc.Name)
	require.Len(t, doc.Nodes, 1)
	assert.Equal(t, []string{model}, doc.References())
	tr := doc.Nodes[0].Transform
	assert.Equal(t, math.NewVec3(1, 2, 3), tr.Position)
	assert.Equal(t, math.NewTransform().Rotation, tr.Rotation)
	assert.Equal(t, math.NewVec3(1, 1, 1), tr.Scale)

	require.NoError(t, os.WriteFile(path, []byte("nodes: [\n"), 0o644))
	_, err = sl.Load(path)
	assert.ErrorIs(t, err, core.ErrParseError)
}

func TestShaderLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.frag")
	require.NoError(t, os.WriteFile(path, []byte("void main() {}"), 0o644))
	src, err := (&ShaderLoader{}).LoadSource(path)
	require.NoError(t, err)
	assert.Equal(t, "void main() {}", src)

	_, err = (&ShaderLoader{}).LoadSource(path + ".missing")
	assert.ErrorIs(t, err, core.ErrFileNotFound)
}

func TestBytesToBytecode(t *testing.T) {
	blob := []byte{0x03, 0x02, 0x23, 0x07, 0, 0, 1, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0}
	words, err := BytesToBytecode(blob)
	require.NoError(t, err)
	assert.Equal(t, SPIRVMagic, words[0])
	assert.Len(t, words, 5)

	blob[0] = 0
	_, err = BytesToBytecode(blob)
	assert.ErrorIs(t, err, core.ErrParseError)
	_, err = BytesToBytecode([]byte{1, 2, 3})
	assert.ErrorIs(t, err, core.ErrParseError)
}
