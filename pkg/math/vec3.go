// Package math provides small vector helpers for mesh processing.
package math

import "math"

// Vec3 is a 3D vector.
type Vec3 struct {
	X, Y, Z float32
}

// FromArray converts a [3]float32 to a Vec3.
func FromArray(a [3]float32) Vec3 {
	return Vec3{a[0], a[1], a[2]}
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// Length returns the magnitude.
func (v Vec3) Length() float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y + v.Z*v.Z)))
}

// Min returns the component-wise minimum.
func (v Vec3) Min(other Vec3) Vec3 {
	return Vec3{min(v.X, other.X), min(v.Y, other.Y), min(v.Z, other.Z)}
}

// Max returns the component-wise maximum.
func (v Vec3) Max(other Vec3) Vec3 {
	return Vec3{max(v.X, other.X), max(v.Y, other.Y), max(v.Z, other.Z)}
}

// Box is an axis-aligned bounding box.
type Box struct {
	Min, Max Vec3
}

// BoxOf returns the bounding box of points. ok is false when points is empty.
func BoxOf(points [][3]float32) (box Box, ok bool) {
	if len(points) == 0 {
		return Box{}, false
	}
	box.Min = FromArray(points[0])
	box.Max = box.Min
	for _, p := range points[1:] {
		v := FromArray(p)
		box.Min = box.Min.Min(v)
		box.Max = box.Max.Max(v)
	}
	return box, true
}

// Size returns the box extents.
func (b Box) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// Center returns the box midpoint.
func (b Box) Center() Vec3 {
	return Vec3{
		(b.Min.X + b.Max.X) / 2,
		(b.Min.Y + b.Max.Y) / 2,
		(b.Min.Z + b.Max.Z) / 2,
	}
}
