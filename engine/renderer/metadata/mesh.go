package metadata

import (
	"github.com/spaghettifunk/delta/engine/math"
)

/**
 * @brief CPU side geometry produced by a model importer.
 */
type Mesh struct {
	Name string
	/** @brief Material name as written by the source file, if any. */
	MaterialName string
	Vertices     []math.Vertex3D
	Indices      []uint32
	Extents      math.Extents3D
}

func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Center returns the middle of the mesh bounds.
func (m *Mesh) Center() math.Vec3 {
	return m.Extents.Center()
}
