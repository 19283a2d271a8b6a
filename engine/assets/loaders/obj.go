package loaders

import (
	"bufio"
	"fmt"
	"io"

	"github.com/udhos/gwob"

	"github.com/spaghettifunk/delta/engine/core"
	"github.com/spaghettifunk/delta/engine/math"
	"github.com/spaghettifunk/delta/engine/renderer/metadata"
)

// parseOBJ reads Wavefront OBJ geometry. Every group (g, or a usemtl switch)
// becomes its own mesh with a compact vertex array; groups without a name take
// the file's.
func parseOBJ(r io.Reader, name string) ([]*metadata.Mesh, error) {
	obj, err := gwob.NewObjFromReader(name, bufio.NewReader(r), &gwob.ObjParserOptions{
		Logger: func(string) {},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrImportError, err)
	}

	stride := obj.StrideSize / 4
	if stride < 3 {
		return nil, fmt.Errorf("%w: no vertices", core.ErrImportError)
	}
	count := len(obj.Coord) / stride

	var meshes []*metadata.Mesh
	for _, g := range obj.Groups {
		end := g.IndexBegin + g.IndexCount
		if g.IndexCount < 3 {
			continue
		}
		if g.IndexBegin < 0 || end > len(obj.Indices) {
			return nil, fmt.Errorf("%w: group %q indexes past the face list", core.ErrImportError, g.Name)
		}
		mesh := &metadata.Mesh{Name: g.Name, MaterialName: g.Usemtl, Extents: math.NewExtents3DEmpty()}
		if mesh.Name == "" {
			mesh.Name = name
		}
		local := map[int]uint32{}
		indices := obj.Indices[g.IndexBegin:end]
		for _, gi := range indices[:len(indices)/3*3] {
			idx, ok := local[gi]
			if !ok {
				if gi < 0 || gi >= count {
					return nil, fmt.Errorf("%w: vertex index %d out of range", core.ErrImportError, gi)
				}
				vert := objVertex(obj, gi*stride)
				idx = uint32(len(mesh.Vertices))
				mesh.Vertices = append(mesh.Vertices, vert)
				mesh.Extents = mesh.Extents.Include(vert.Position)
				local[gi] = idx
			}
			mesh.Indices = append(mesh.Indices, idx)
		}
		generateNormals(mesh)
		meshes = append(meshes, mesh)
	}
	if len(meshes) == 0 {
		return nil, fmt.Errorf("%w: no faces", core.ErrImportError)
	}
	return meshes, nil
}

// objVertex unpacks the interleaved vertex starting at float offset base.
func objVertex(obj *gwob.Obj, base int) math.Vertex3D {
	c := obj.Coord
	p := base + obj.StrideOffsetPosition/4
	vert := math.Vertex3D{Position: math.NewVec3(c[p], c[p+1], c[p+2])}
	if obj.TextCoordFound {
		t := base + obj.StrideOffsetTexture/4
		vert.Texcoord = math.Vec2{X: c[t], Y: c[t+1]}
	}
	if obj.NormCoordFound {
		n := base + obj.StrideOffsetNormal/4
		vert.Normal = math.NewVec3(c[n], c[n+1], c[n+2])
	}
	return vert
}

// generateNormals fills zero normals with the average of the adjacent face
// normals.
func generateNormals(m *metadata.Mesh) {
	acc := make([]math.Vec3, len(m.Vertices))
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a, b, c := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		e1 := m.Vertices[b].Position.Sub(m.Vertices[a].Position)
		e2 := m.Vertices[c].Position.Sub(m.Vertices[a].Position)
		n := e1.Cross(e2)
		acc[a] = acc[a].Add(n)
		acc[b] = acc[b].Add(n)
		acc[c] = acc[c].Add(n)
	}
	zero := math.Vec3{}
	for i := range m.Vertices {
		if m.Vertices[i].Normal == zero {
			m.Vertices[i].Normal = acc[i].Normalized()
		}
	}
}
