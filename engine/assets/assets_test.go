package assets

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/delta/engine/assets/identity"
	"github.com/spaghettifunk/delta/engine/assets/listener"
	"github.com/spaghettifunk/delta/engine/assets/loaders"
	"github.com/spaghettifunk/delta/engine/assets/registry"
	"github.com/spaghettifunk/delta/engine/core"
	"github.com/spaghettifunk/delta/engine/math"
	"github.com/spaghettifunk/delta/engine/renderer"
	"github.com/spaghettifunk/delta/engine/renderer/metadata"
)

const cubeOBJ = `o cube
v 0 0 0
v 1 0 0
v 1 1 0
f 1 2 3
`

const basicVert = `#version 450
layout(location = 0) in vec3 inPosition;
uniform mat4 modelMatrix;
void main() { gl_Position = vec4(inPosition, 1.0); }
`

const metalFrag = `#version 450
uniform vec4 diffuseColour;
uniform float shininess;
uniform float roughness;
void main() { }
`

const metalDmat = `name = "metal"

[shaders]
vertex = "shaders/basic.vert"
fragment = "shaders/shader.frag"

[parameters.shininess]
type = "float"
value = 16.0
`

type countingImporter struct {
	calls int
}

func (c *countingImporter) Import(path string) ([]*metadata.Mesh, error) {
	c.calls++
	return (&loaders.ModelLoader{}).Import(path)
}

type fixture struct {
	t       *testing.T
	dir     string
	db      *AssetDatabase
	backend *renderer.HeadlessBackend
}

func newFixture(t *testing.T, mutate ...func(*Options)) *fixture {
	t.Helper()
	f := &fixture{t: t, dir: t.TempDir(), backend: renderer.NewHeadlessBackend()}
	opts := Options{
		AssetDir:       f.dir,
		Logger:         log.New(io.Discard),
		Backend:        f.backend,
		TextureWorkers: 2,
	}
	for _, m := range mutate {
		m(&opts)
	}
	db, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	f.db = db
	return f
}

func (f *fixture) write(rel, content string) string {
	f.t.Helper()
	path := filepath.Join(f.dir, rel)
	require.NoError(f.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(f.t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (f *fixture) writePNG(rel string) string {
	f.t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(f.t, png.Encode(&buf, img))
	return f.write(rel, buf.String())
}

func (f *fixture) settle() {
	f.t.Helper()
	require.Eventually(f.t, func() bool {
		f.db.Tick()
		return f.db.Idle()
	}, 3*time.Second, 5*time.Millisecond)
}

func (f *fixture) material(rel string) *registry.MaterialPayload {
	f.t.Helper()
	ref, err := Retrieve[*registry.MaterialPayload](f.db, rel)
	require.NoError(f.t, err)
	mp, err := ref.Resolve(f.db.GetRegistry())
	require.NoError(f.t, err)
	return mp
}

func (f *fixture) metalProject() {
	f.write("shaders/basic.vert", basicVert)
	f.write("shaders/shader.frag", metalFrag)
	f.write("materials/metal.dmat", metalDmat)
	_, err := f.db.ReimportAll()
	require.NoError(f.t, err)
}

func TestImportModelScenario(t *testing.T) {
	f := newFixture(t)
	path := f.write("models/cube.obj", cubeOBJ)

	id, err := f.db.Import("models/cube.obj")
	require.NoError(t, err)
	assert.Equal(t, 1, f.db.GetRegistry().Len())

	e, err := f.db.Entry(path)
	require.NoError(t, err)
	assert.Equal(t, metadata.AssetKindModel, e.Kind)
	assert.Equal(t, "cube", e.Name)
	assert.Equal(t, id, e.ID)

	stored, err := identity.ReadId(path)
	require.NoError(t, err)
	assert.Equal(t, id, stored)
	assert.FileExists(t, path+".dmeta")
	assert.Equal(t, StateValid, f.db.State("models/cube.obj"))

	ref, err := Retrieve[*registry.ModelPayload](f.db, "models/cube.obj")
	require.NoError(t, err)
	model, err := ref.Resolve(f.db.GetRegistry())
	require.NoError(t, err)
	require.Len(t, model.Meshes, 1)
	assert.Equal(t, 1, model.Meshes[0].TriangleCount())

	_, err = Retrieve[*registry.TexturePayload](f.db, "models/cube.obj")
	assert.ErrorIs(t, err, core.ErrKindMismatch)
	_, err = Retrieve[*registry.ModelPayload](f.db, "models/none.obj")
	assert.ErrorIs(t, err, core.ErrAssetNotFound)

	byID, err := RetrieveByID[*registry.ModelPayload](f.db, id)
	require.NoError(t, err)
	assert.Equal(t, ref.Handle(), byID.Handle())
}

func TestImportTwiceIsDuplicatePath(t *testing.T) {
	f := newFixture(t)
	f.write("models/cube.obj", cubeOBJ)
	_, err := f.db.Import("models/cube.obj")
	require.NoError(t, err)
	_, err = f.db.Import("models/cube.obj")
	assert.ErrorIs(t, err, core.ErrDuplicatePath)

	require.NoError(t, f.db.Remove("models/cube.obj"))
	assert.Equal(t, StateRemoved, f.db.State("models/cube.obj"))
	_, err = f.db.Import("models/cube.obj")
	assert.NoError(t, err)
}

func TestImportErrors(t *testing.T) {
	f := newFixture(t)
	_, err := f.db.Import("missing.obj")
	assert.ErrorIs(t, err, core.ErrFileNotFound)

	f.write("a.png.dmeta", `{"guid":"x"}`)
	_, err = f.db.Import("a.png.dmeta")
	assert.ErrorIs(t, err, core.ErrImportError)

	// malformed geometry is kept as unknown instead of failing the import
	f.write("broken.obj", "f 1 2 3\n")
	_, err = f.db.Import("broken.obj")
	require.NoError(t, err)
	e, err := f.db.Entry("broken.obj")
	require.NoError(t, err)
	assert.IsType(t, &registry.UnknownPayload{}, e.Payload)
	assert.Equal(t, StateImported, f.db.State("broken.obj"))
}

func TestRemovedHandleIsStale(t *testing.T) {
	f := newFixture(t)
	f.write("a.obj", cubeOBJ)
	f.write("b.obj", cubeOBJ)
	_, err := f.db.Import("a.obj")
	require.NoError(t, err)
	ref, err := Retrieve[*registry.ModelPayload](f.db, "a.obj")
	require.NoError(t, err)

	require.NoError(t, f.db.Remove("a.obj"))
	_, err = f.db.Import("b.obj")
	require.NoError(t, err)
	b, err := f.db.Handle("b.obj")
	require.NoError(t, err)
	assert.Equal(t, ref.Handle().Index, b.Index)

	_, err = ref.Resolve(f.db.GetRegistry())
	assert.ErrorIs(t, err, core.ErrStaleHandle)
	_, err = f.db.GetRegistry().Get(ref.Handle())
	assert.ErrorIs(t, err, core.ErrStaleHandle)
	assert.False(t, f.db.Exists("a.obj"))
}

func TestCorruptMetadataIsRegenerated(t *testing.T) {
	f := newFixture(t)
	path := f.write("a.obj", cubeOBJ)
	f.write("a.obj.dmeta", "{broken")

	id, err := f.db.Import("a.obj")
	require.NoError(t, err)
	stored, err := identity.ReadId(path)
	require.NoError(t, err)
	assert.Equal(t, id, stored)
}

func TestCopiedSidecarGetsNewID(t *testing.T) {
	f := newFixture(t)
	a := f.write("a.obj", cubeOBJ)
	_, err := f.db.Import("a.obj")
	require.NoError(t, err)

	b := f.write("b.obj", cubeOBJ)
	data, err := os.ReadFile(identity.MetadataPath(a))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(identity.MetadataPath(b), data, 0o644))

	idB, err := f.db.Import("b.obj")
	require.NoError(t, err)
	idA, _ := identity.ReadId(a)
	assert.NotEqual(t, idA, idB)
}

func TestReimportDeduplicates(t *testing.T) {
	counter := &countingImporter{}
	f := newFixture(t, func(o *Options) { o.Models = counter })
	f.write("models/cube.obj", cubeOBJ)
	_, err := f.db.Import("models/cube.obj")
	require.NoError(t, err)
	assert.Equal(t, 1, counter.calls)

	f.write("models/cube.obj", cubeOBJ+"f 3 2 1\n")
	for i := 0; i < 3; i++ {
		f.db.QueueReimport("models/cube.obj")
	}
	assert.Equal(t, StateStale, f.db.State("models/cube.obj"))

	stats := f.db.Tick()
	assert.Equal(t, 1, stats.Reimports)
	assert.Equal(t, 2, counter.calls)
	assert.Equal(t, StateValid, f.db.State("models/cube.obj"))

	// unchanged bytes are skipped
	f.db.QueueReimport("models/cube.obj")
	f.db.Tick()
	assert.Equal(t, 2, counter.calls)
}

func TestReimportRoundTrip(t *testing.T) {
	f := newFixture(t)
	path := f.write("models/cube.obj", cubeOBJ)
	id, err := f.db.Import("models/cube.obj")
	require.NoError(t, err)
	before, err := Retrieve[*registry.ModelPayload](f.db, path)
	require.NoError(t, err)

	require.NoError(t, f.db.Reimport(path))

	after, err := Retrieve[*registry.ModelPayload](f.db, path)
	require.NoError(t, err)
	assert.Equal(t, before.Handle(), after.Handle())
	assert.True(t, before.Valid(f.db.GetRegistry()))
	e, _ := f.db.Entry(path)
	assert.Equal(t, id, e.ID)
	assert.Equal(t, path, e.Path)

	assert.ErrorIs(t, f.db.Reimport("nothing.obj"), core.ErrAssetNotFound)
}

func TestFailedReimportKeepsPayload(t *testing.T) {
	f := newFixture(t)
	f.write("cube.obj", cubeOBJ)
	_, err := f.db.Import("cube.obj")
	require.NoError(t, err)

	f.write("cube.obj", "f 9 9 9\n")
	assert.ErrorIs(t, f.db.Reimport("cube.obj"), core.ErrImportError)
	assert.Equal(t, StateStale, f.db.State("cube.obj"))
	e, _ := f.db.Entry("cube.obj")
	assert.IsType(t, &registry.ModelPayload{}, e.Payload)

	f.write("cube.obj", cubeOBJ)
	require.NoError(t, f.db.Reimport("cube.obj"))
	assert.Equal(t, StateValid, f.db.State("cube.obj"))
}

func TestRenameKeepsIdentity(t *testing.T) {
	f := newFixture(t)
	f.metalProject()
	from := filepath.Join(f.dir, "materials/metal.dmat")
	to := filepath.Join(f.dir, "materials/b.dmat")
	before, err := f.db.Entry(from)
	require.NoError(t, err)
	h, id := before.Handle, before.ID

	require.NoError(t, f.db.Rename("materials/metal.dmat", "materials/b.dmat"))

	e, err := f.db.Entry(to)
	require.NoError(t, err)
	assert.Equal(t, h, e.Handle)
	assert.Equal(t, id, e.ID)
	assert.Equal(t, "b", e.Name)
	assert.FileExists(t, to)
	assert.NoFileExists(t, from)
	assert.NoFileExists(t, from+".dmeta")
	stored, err := identity.ReadId(to)
	require.NoError(t, err)
	assert.Equal(t, id, stored)
	assert.False(t, f.db.Exists(from))
	assert.Equal(t, StateValid, f.db.State(to))

	f.write("materials/c.dmat", metalDmat)
	_, err = f.db.Import("materials/c.dmat")
	require.NoError(t, err)
	assert.ErrorIs(t, f.db.Rename("materials/b.dmat", "materials/c.dmat"), core.ErrDuplicatePath)
}

func TestRenameShaderSourceFollowsWatch(t *testing.T) {
	f := newFixture(t)
	f.metalProject()
	require.NoError(t, f.db.Rename("shaders/shader.frag", "shaders/metal.frag"))

	mh, err := f.db.Handle("materials/metal.dmat")
	require.NoError(t, err)
	assert.Equal(t, []registry.Handle{mh}, f.db.Shaders().MaterialsFor(filepath.Join(f.dir, "shaders/metal.frag")))
}

func TestRenameDirectory(t *testing.T) {
	f := newFixture(t)
	f.write("models/cube.obj", cubeOBJ)
	f.write("models/sub/tri.obj", cubeOBJ)
	_, err := f.db.ReimportAll()
	require.NoError(t, err)
	cube, _ := f.db.Entry("models/cube.obj")
	id := cube.ID

	require.NoError(t, f.db.RenameDirectory("models", "meshes"))

	assert.False(t, f.db.Exists("models/cube.obj"))
	moved, err := f.db.Entry("meshes/cube.obj")
	require.NoError(t, err)
	assert.Equal(t, id, moved.ID)
	assert.True(t, f.db.Exists("meshes/sub/tri.obj"))
	stored, err := identity.ReadId(filepath.Join(f.dir, "meshes/sub/tri.obj"))
	require.NoError(t, err)
	tri, _ := f.db.Entry("meshes/sub/tri.obj")
	assert.Equal(t, tri.ID, stored)
}

func TestShaderCascade(t *testing.T) {
	f := newFixture(t)
	f.metalProject()
	mh, err := f.db.Handle("materials/metal.dmat")
	require.NoError(t, err)

	mp := f.material("materials/metal.dmat")
	program, ok := f.db.Shaders().Get(mp.Shader)
	require.True(t, ok)
	require.True(t, program.IsCompiled())
	assert.Equal(t, StateValid, f.db.State("materials/metal.dmat"))
	assert.Equal(t, float32(16), mp.Parameters["shininess"].Float)
	_, reserved := mp.Parameters["modelMatrix"]
	assert.False(t, reserved)

	red := metadata.Parameter{Name: "diffuseColour", Type: metadata.ParameterTypeVec4, Vec: math.Vec4{X: 1, W: 1}}
	require.NoError(t, f.db.SetParameter(mh, red))
	attempts := program.Attempts

	// roughness goes away, tint appears
	f.write("shaders/shader.frag", `#version 450
uniform vec4 diffuseColour;
uniform float shininess;
uniform vec3 tint;
void main() { }
`)
	f.db.QueueReimport("shaders/shader.frag")
	f.db.QueueReimport("shaders/shader.frag")
	stats := f.db.Tick()
	assert.Equal(t, 1, stats.Recompiled)

	assert.Equal(t, attempts+1, program.Attempts)
	assert.True(t, program.IsCompiled())
	mp = f.material("materials/metal.dmat")
	assert.Equal(t, red, mp.Parameters["diffuseColour"])
	assert.Equal(t, float32(16), mp.Parameters["shininess"].Float)
	assert.Contains(t, mp.Parameters, "tint")
	assert.NotContains(t, mp.Parameters, "roughness")
}

func TestShaderCompileFailureKeepsProgram(t *testing.T) {
	f := newFixture(t)
	f.metalProject()
	mp := f.material("materials/metal.dmat")
	program, _ := f.db.Shaders().Get(mp.Shader)
	bound := program.Program

	f.write("shaders/shader.frag", "void main() {")
	f.db.QueueReimport("shaders/shader.frag")
	f.db.Tick()

	assert.False(t, program.IsCompiled())
	assert.NotEmpty(t, program.Log(metadata.ShaderStageFragment))
	assert.Equal(t, bound, program.Program)
	assert.Contains(t, f.material("materials/metal.dmat").Parameters, "roughness")
	assert.Equal(t, StateImported, f.db.State("materials/metal.dmat"))
}

func TestMaterialReloadPolicy(t *testing.T) {
	f := newFixture(t)
	f.metalProject()
	mh, _ := f.db.Handle("materials/metal.dmat")
	red := metadata.Parameter{Name: "diffuseColour", Type: metadata.ParameterTypeVec4, Vec: math.Vec4{X: 1, W: 1}}
	require.NoError(t, f.db.SetParameter(mh, red))
	rough := metadata.Parameter{Name: "roughness", Type: metadata.ParameterTypeFloat, Float: 0.5}
	require.NoError(t, f.db.SetParameter(mh, rough))

	f.write("materials/metal.dmat", `name = "metal"

[shaders]
vertex = "shaders/basic.vert"
fragment = "shaders/shader.frag"

[parameters.shininess]
type = "float"
value = 8.0

[parameters.roughness]
type = "float"
value = 0.25
`)
	program, _ := f.db.Shaders().Get(f.material("materials/metal.dmat").Shader)
	attempts := program.Attempts
	f.db.QueueReimport("materials/metal.dmat")
	f.db.Tick()
	f.db.Tick()
	assert.Equal(t, attempts+1, program.Attempts, "one build per edit")

	mp := f.material("materials/metal.dmat")
	assert.Equal(t, float32(8), mp.Parameters["shininess"].Float, "file wins")
	assert.Equal(t, float32(0.25), mp.Parameters["roughness"].Float, "file wins over user value")
	assert.Equal(t, red, mp.Parameters["diffuseColour"], "user value kept when the file is silent")

	assert.ErrorIs(t, f.db.SetParameter(mh, metadata.Parameter{Name: "shininess", Type: metadata.ParameterTypeInt}), core.ErrKindMismatch)
	assert.ErrorIs(t, f.db.SetParameter(mh, metadata.Parameter{Name: "missing", Type: metadata.ParameterTypeInt}), core.ErrAssetNotFound)
}

func TestSaveMaterial(t *testing.T) {
	f := newFixture(t)
	f.metalProject()
	mh, _ := f.db.Handle("materials/metal.dmat")
	require.NoError(t, f.db.SetParameter(mh, metadata.Parameter{Name: "roughness", Type: metadata.ParameterTypeFloat, Float: 0.75}))
	require.NoError(t, f.db.SaveMaterial(mh))

	doc, err := (&loaders.MaterialLoader{}).Load(filepath.Join(f.dir, "materials/metal.dmat"))
	require.NoError(t, err)
	assert.Equal(t, float32(0.75), doc.Parameters["roughness"].Float)
	assert.Equal(t, "shaders/shader.frag", doc.Sources[metadata.ShaderStageFragment])

	// the save itself is not a change
	f.db.QueueReimport("materials/metal.dmat")
	program, _ := f.db.Shaders().Get(f.material("materials/metal.dmat").Shader)
	attempts := program.Attempts
	f.db.Tick()
	assert.Equal(t, attempts, program.Attempts)
}

func TestMaterialTextureReference(t *testing.T) {
	f := newFixture(t)
	f.writePNG("textures/wall.png")
	f.write("shaders/basic.vert", basicVert)
	f.write("shaders/tex.frag", "uniform sampler2D diffuseMap;\nvoid main() { }\n")
	_, err := f.db.Import("textures/wall.png")
	require.NoError(t, err)
	wall, _ := f.db.Entry("textures/wall.png")

	f.write("materials/wall.dmat", `[shaders]
vertex = "shaders/basic.vert"
fragment = "shaders/tex.frag"

[parameters.diffuseMap]
type = "texture"
value = "`+wall.ID.String()+`"
`)
	_, err = f.db.ReimportAll()
	require.NoError(t, err)

	mp := f.material("materials/wall.dmat")
	ref, ok := mp.Textures["diffuseMap"]
	require.True(t, ok)
	assert.True(t, ref.Valid(f.db.GetRegistry()))

	require.NoError(t, f.db.Remove("textures/wall.png"))
	assert.False(t, ref.Valid(f.db.GetRegistry()))
}

func TestTextureLifecycle(t *testing.T) {
	f := newFixture(t)
	f.writePNG("textures/wall.png")
	_, err := f.db.Import("textures/wall.png")
	require.NoError(t, err)

	ref, err := Retrieve[*registry.TexturePayload](f.db, "textures/wall.png")
	require.NoError(t, err)
	tex, _ := ref.Resolve(f.db.GetRegistry())
	assert.True(t, tex.Placeholder)
	assert.NotEqual(t, metadata.InvalidTexture, tex.Texture)
	assert.Equal(t, StateImported, f.db.State("textures/wall.png"))

	f.settle()
	assert.Equal(t, StateValid, f.db.State("textures/wall.png"))
	assert.False(t, tex.Placeholder)
	assert.Equal(t, uint32(2), tex.Width)

	f.write("textures/wall.png", "garbage")
	require.NoError(t, f.db.Reimport("textures/wall.png"))
	f.settle()
	assert.True(t, tex.Placeholder)
	assert.Error(t, tex.Err)
	assert.Equal(t, StateImported, f.db.State("textures/wall.png"))

	require.NoError(t, f.db.Remove("textures/wall.png"))
	// only the placeholder is left
	assert.Equal(t, 1, f.backend.LiveTextures())
}

func TestReimportAll(t *testing.T) {
	f := newFixture(t)
	f.metalProject()
	f.write("models/cube.obj", cubeOBJ)
	f.write("models/bad.obj", "v 1 2\n")
	f.write("notes.txt", "hello")
	f.write(".hidden/skip.obj", cubeOBJ)
	f.write("scenes/level.dscene", "name: level\nnodes: []\n")

	report, err := f.db.ReimportAll()
	require.NoError(t, err)
	assert.Len(t, report.Imported, 4)
	assert.Len(t, report.Reimported, 3)
	assert.Contains(t, report.Failed, filepath.Join(f.dir, "models/bad.obj"))
	assert.False(t, f.db.Exists(".hidden/skip.obj"))
	assert.True(t, f.db.Exists("notes.txt"))
	assert.Equal(t, 1, registry.Count[*registry.ScenePayload](f.db.GetRegistry()))

	// a material imported before its sources still compiles
	mp := f.material("materials/metal.dmat")
	program, _ := f.db.Shaders().Get(mp.Shader)
	assert.True(t, program.IsCompiled())
	assert.Equal(t, 2, program.Attempts, "once on import, once on this pass")
	assert.Zero(t, f.db.Tick().Recompiled)

	require.NoError(t, os.Remove(filepath.Join(f.dir, "models/cube.obj")))
	report, err = f.db.ReimportAll()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(f.dir, "models/cube.obj")}, report.Removed)
}

func TestDeletedFileIsRemovedOnDrain(t *testing.T) {
	f := newFixture(t)
	path := f.write("models/cube.obj", cubeOBJ)
	_, err := f.db.Import("models/cube.obj")
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))
	f.db.QueueReimport(path)
	f.db.Tick()

	assert.False(t, f.db.Exists(path))
	assert.Equal(t, StateRemoved, f.db.State(path))
	assert.NoFileExists(t, path+".dmeta")
}

func TestWatcherDrivesImports(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.Watch = true })
	require.NotNil(t, f.db.Listener())

	path := f.write("models/cube.obj", cubeOBJ)
	require.Eventually(t, func() bool {
		f.db.Tick()
		return f.db.Exists(path)
	}, 3*time.Second, 10*time.Millisecond)

	to := filepath.Join(f.dir, "models/box.obj")
	e, _ := f.db.Entry(path)
	id := e.ID
	require.NoError(t, os.Rename(path, to))
	require.NoError(t, os.Rename(path+".dmeta", to+".dmeta"))
	require.Eventually(t, func() bool {
		f.db.Tick()
		return f.db.Exists(to) && !f.db.Exists(path)
	}, 3*time.Second, 10*time.Millisecond)
	moved, _ := f.db.Entry(to)
	assert.Equal(t, id, moved.ID)
}

func TestNewRequiresAssetDirectory(t *testing.T) {
	_, err := New(Options{AssetDir: filepath.Join(t.TempDir(), "missing")})
	assert.ErrorIs(t, err, core.ErrFileNotFound)
}

func TestLookupByID(t *testing.T) {
	f := newFixture(t)
	f.write("cube.obj", cubeOBJ)
	id, err := f.db.Import("cube.obj")
	require.NoError(t, err)
	assert.Equal(t, f.dir, f.db.GetAssetDirectoryPath())
	assert.True(t, f.db.ExistsID(id))

	require.NoError(t, f.db.RemoveID(id))
	assert.False(t, f.db.ExistsID(id))
	assert.ErrorIs(t, f.db.RemoveID(id), core.ErrAssetNotFound)
	assert.FileExists(t, filepath.Join(f.dir, "cube.obj"))
}

const glossFrag = `#version 450
uniform vec4 diffuseColour;
uniform float shininess;
uniform float gloss;
void main() { }
`

func TestSaveOverTrackedFileReimports(t *testing.T) {
	f := newFixture(t)
	f.metalProject()
	frag := filepath.Join(f.dir, "shaders/shader.frag")
	before, err := f.db.Entry(frag)
	require.NoError(t, err)
	h, id := before.Handle, before.ID

	// the temp file was picked up as an asset of its own before the rename
	tmp := f.write("shaders/shader.tmp.frag", glossFrag)
	_, err = f.db.Import(tmp)
	require.NoError(t, err)
	require.NoError(t, os.Rename(tmp, frag))

	f.db.HandleEvent(listener.Event{Kind: listener.EventMoved, From: tmp, Path: frag})
	stats := f.db.Tick()
	assert.Equal(t, 1, stats.Recompiled)

	assert.False(t, f.db.Exists(tmp))
	assert.NoFileExists(t, tmp+".dmeta")
	after, err := f.db.Entry(frag)
	require.NoError(t, err)
	assert.Equal(t, h, after.Handle)
	assert.Equal(t, id, after.ID)
	assert.Contains(t, f.material("materials/metal.dmat").Parameters, "gloss")
}

func TestWatcherCascadesShaderEdits(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.Watch = true })
	f.metalProject()
	f.settle()
	program, _ := f.db.Shaders().Get(f.material("materials/metal.dmat").Shader)
	attempts := program.Attempts
	frag := filepath.Join(f.dir, "shaders/shader.frag")
	fragID, _ := identity.ReadId(frag)

	f.write("shaders/shader.frag", `#version 450
uniform vec4 diffuseColour;
uniform float shininess;
uniform vec3 tint;
void main() { }
`)
	require.Eventually(t, func() bool {
		f.db.Tick()
		_, ok := f.material("materials/metal.dmat").Parameters["tint"]
		return ok
	}, 3*time.Second, 10*time.Millisecond)
	// a plain write may land as more than one event; each changed read builds
	assert.Greater(t, program.Attempts, attempts)

	// editors that save through a temp file and rename it into place
	tmp := f.write("shaders/shader.frag.tmp123", glossFrag)
	require.NoError(t, os.Rename(tmp, frag))
	require.Eventually(t, func() bool {
		f.db.Tick()
		_, ok := f.material("materials/metal.dmat").Parameters["gloss"]
		return ok && !f.db.Exists(tmp)
	}, 3*time.Second, 10*time.Millisecond)

	id, err := identity.ReadId(frag)
	require.NoError(t, err)
	assert.Equal(t, fragID, id)
	assert.True(t, program.IsCompiled())
}

func TestWatcherNeverHandsAnIDToAnUnrelatedFile(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.Watch = true })
	a := f.write("a.obj", cubeOBJ)
	idA, err := f.db.Import("a.obj")
	require.NoError(t, err)
	f.settle()

	require.NoError(t, os.Rename(a, filepath.Join(t.TempDir(), "a.obj")))
	b := f.write("b.txt", "notes")
	require.Eventually(t, func() bool {
		f.db.Tick()
		return f.db.Exists(b) && !f.db.Exists(a)
	}, 3*time.Second, 10*time.Millisecond)

	e, err := f.db.Entry(b)
	require.NoError(t, err)
	assert.NotEqual(t, idA, e.ID)
	assert.False(t, f.db.ExistsID(idA))
}
