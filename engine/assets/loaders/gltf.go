package loaders

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/spaghettifunk/delta/engine/core"
	"github.com/spaghettifunk/delta/engine/math"
	"github.com/spaghettifunk/delta/engine/renderer/metadata"
)

// loadGLTF imports every triangle primitive of a .gltf or .glb file as one
// mesh.
func loadGLTF(path string) ([]*metadata.Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrImportError, path, err)
	}
	var meshes []*metadata.Mesh
	for mi, m := range doc.Meshes {
		for pi, prim := range m.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				continue
			}
			mesh, err := gltfPrimitive(doc, prim)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: mesh %d primitive %d: %v", core.ErrImportError, path, mi, pi, err)
			}
			mesh.Name = m.Name
			if mesh.Name == "" {
				mesh.Name = fmt.Sprintf("mesh_%d", mi)
			}
			if len(m.Primitives) > 1 {
				mesh.Name = fmt.Sprintf("%s_%d", mesh.Name, pi)
			}
			meshes = append(meshes, mesh)
		}
	}
	if len(meshes) == 0 {
		return nil, fmt.Errorf("%w: %s: no triangle meshes", core.ErrImportError, path)
	}
	return meshes, nil
}

func gltfPrimitive(doc *gltf.Document, prim *gltf.Primitive) (*metadata.Mesh, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, fmt.Errorf("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[int(posIdx)], nil)
	if err != nil {
		return nil, err
	}
	var normals [][3]float32
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if normals, err = modeler.ReadNormal(doc, doc.Accessors[int(idx)], nil); err != nil {
			return nil, err
		}
	}
	var uvs [][2]float32
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[int(idx)], nil); err != nil {
			return nil, err
		}
	}

	mesh := &metadata.Mesh{
		Vertices: make([]math.Vertex3D, len(positions)),
		Extents:  math.NewExtents3DEmpty(),
	}
	for i, p := range positions {
		v := math.Vertex3D{Position: math.NewVec3(p[0], p[1], p[2])}
		if i < len(normals) {
			v.Normal = math.NewVec3(normals[i][0], normals[i][1], normals[i][2])
		}
		if i < len(uvs) {
			v.Texcoord = math.Vec2{X: uvs[i][0], Y: uvs[i][1]}
		}
		mesh.Vertices[i] = v
		mesh.Extents = mesh.Extents.Include(v.Position)
	}

	if prim.Indices != nil {
		if mesh.Indices, err = modeler.ReadIndices(doc, doc.Accessors[int(*prim.Indices)], nil); err != nil {
			return nil, err
		}
	} else {
		mesh.Indices = make([]uint32, len(positions))
		for i := range mesh.Indices {
			mesh.Indices[i] = uint32(i)
		}
	}
	for _, i := range mesh.Indices {
		if int(i) >= len(mesh.Vertices) {
			return nil, fmt.Errorf("index %d out of range", i)
		}
	}
	if prim.Material != nil && int(*prim.Material) < len(doc.Materials) {
		mesh.MaterialName = doc.Materials[int(*prim.Material)].Name
	}
	if len(normals) == 0 {
		generateNormals(mesh)
	}
	return mesh, nil
}
