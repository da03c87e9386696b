package scenegraph

import (
	gomath "math"
)

// SphereGeometry builds a UV sphere centered on the origin with outward
// facing triangles. widthSegments and heightSegments are clamped to 3 and 2.
func SphereGeometry(radius float32, widthSegments, heightSegments int) *Primitive {
	if widthSegments < 3 {
		widthSegments = 3
	}
	if heightSegments < 2 {
		heightSegments = 2
	}

	p := &Primitive{}
	grid := make([][]uint32, heightSegments+1)
	var index uint32

	for iy := 0; iy <= heightSegments; iy++ {
		v := float64(iy) / float64(heightSegments)
		row := make([]uint32, widthSegments+1)
		for ix := 0; ix <= widthSegments; ix++ {
			u := float64(ix) / float64(widthSegments)
			x := -float64(radius) * gomath.Cos(u*2*gomath.Pi) * gomath.Sin(v*gomath.Pi)
			y := float64(radius) * gomath.Cos(v*gomath.Pi)
			z := float64(radius) * gomath.Sin(u*2*gomath.Pi) * gomath.Sin(v*gomath.Pi)

			p.Positions = append(p.Positions, [3]float32{float32(x), float32(y), float32(z)})
			l := gomath.Sqrt(x*x + y*y + z*z)
			if l == 0 {
				l = 1
			}
			p.Normals = append(p.Normals, [3]float32{float32(x / l), float32(y / l), float32(z / l)})
			p.UVs = append(p.UVs, [2]float32{float32(u), float32(v)})

			row[ix] = index
			index++
		}
		grid[iy] = row
	}

	for iy := 0; iy < heightSegments; iy++ {
		for ix := 0; ix < widthSegments; ix++ {
			a := grid[iy][ix+1]
			b := grid[iy][ix]
			c := grid[iy+1][ix]
			d := grid[iy+1][ix+1]
			if iy != 0 {
				p.Indices = append(p.Indices, a, b, d)
			}
			if iy != heightSegments-1 {
				p.Indices = append(p.Indices, b, c, d)
			}
		}
	}

	p.Bounds = ComputeBounds(p.Positions)
	return p
}
