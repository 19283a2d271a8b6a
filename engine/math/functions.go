package math

import (
	m "math"
)

const (
	/** @brief A huge number that should be larger than any valid number used. */
	K_INFINITY float32 = 1e30
	/** @brief Smallest positive number where 1.0 + FLOAT_EPSILON != 0 */
	K_FLOAT_EPSILON float32 = 1.192092896e-07
)

func ksqrt(x float32) float32 {
	return float32(m.Sqrt(float64(x)))
}

func kabs(x float32) float32 {
	return float32(m.Abs(float64(x)))
}

/**
 * @brief Creates and returns a new 3-element vector using the supplied values.
 */
func NewVec3(x, y, z float32) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

/** @brief A transform at the origin with the identity rotation and unit scale. */
func NewTransform() Transform {
	return Transform{
		Rotation: Quaternion{0, 0, 0, 1.0},
		Scale:    Vec3{1.0, 1.0, 1.0},
	}
}

func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		v.X + other.X,
		v.Y + other.Y,
		v.Z + other.Z}
}

func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{
		v.X - other.X,
		v.Y - other.Y,
		v.Z - other.Z}
}

func (v Vec3) MulScalar(scalar float32) Vec3 {
	return Vec3{
		v.X * scalar,
		v.Y * scalar,
		v.Z * scalar}
}

func (v Vec3) Length() float32 {
	return ksqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

/**
 * @brief Returns a normalized copy of the supplied vector. A zero vector is
 * returned unchanged.
 */
func (v Vec3) Normalized() Vec3 {
	length := v.Length()
	if length < K_FLOAT_EPSILON {
		return v
	}
	return Vec3{
		v.X / length,
		v.Y / length,
		v.Z / length}
}

/**
 * @brief Calculates and returns the cross product of the supplied vectors.
 * The cross product is a new vector which is orthoganal to both provided vectors.
 */
func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		v.Y*other.Z - v.Z*other.Y,
		v.Z*other.X - v.X*other.Z,
		v.X*other.Y - v.Y*other.X}
}

/**
 * @brief Compares all elements of v and other and ensures the difference
 * is less than tolerance.
 */
func (v Vec3) Compare(other Vec3, tolerance float32) bool {
	return kabs(v.X-other.X) <= tolerance &&
		kabs(v.Y-other.Y) <= tolerance &&
		kabs(v.Z-other.Z) <= tolerance
}

/** @brief An empty extents value which any point will grow. */
func NewExtents3DEmpty() Extents3D {
	return Extents3D{
		Min: Vec3{K_INFINITY, K_INFINITY, K_INFINITY},
		Max: Vec3{-K_INFINITY, -K_INFINITY, -K_INFINITY},
	}
}

/** @brief Grows the extents to include p. */
func (e Extents3D) Include(p Vec3) Extents3D {
	return Extents3D{
		Min: Vec3{min(e.Min.X, p.X), min(e.Min.Y, p.Y), min(e.Min.Z, p.Z)},
		Max: Vec3{max(e.Max.X, p.X), max(e.Max.Y, p.Y), max(e.Max.Z, p.Z)},
	}
}

/** @brief The center point of the extents. */
func (e Extents3D) Center() Vec3 {
	return e.Min.Add(e.Max).MulScalar(0.5)
}
