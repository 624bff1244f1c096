package backend

import "golang.org/x/image/math/f32"

// Vertex is one point of the shared static geometry: a position and a
// color, both in homogeneous coordinates to match the shader layout.
type Vertex struct {
	Pos   f32.Vec4
	Color f32.Vec4
}

// Mesh is a triangle list of vertices. The coordinator uploads one mesh at
// startup; all workers share it read-only, without locking.
type Mesh struct {
	Vertices []Vertex
}

// VertexCount returns the number of vertices in the mesh.
func (m Mesh) VertexCount() int {
	return len(m.Vertices)
}

// CubeMesh returns the unit cube as a 36-vertex triangle list, one face
// color per side. Instances scale it down by 1/gridSize before placement.
func CubeMesh() Mesh {
	var (
		red     = f32.Vec4{1, 0, 0, 1}
		green   = f32.Vec4{0, 1, 0, 1}
		blue    = f32.Vec4{0, 0, 1, 1}
		yellow  = f32.Vec4{1, 1, 0, 1}
		cyan    = f32.Vec4{0, 1, 1, 1}
		magenta = f32.Vec4{1, 0, 1, 1}
	)

	quad := func(a, b, c, d f32.Vec4, col f32.Vec4) []Vertex {
		return []Vertex{
			{Pos: a, Color: col}, {Pos: b, Color: col}, {Pos: c, Color: col},
			{Pos: a, Color: col}, {Pos: c, Color: col}, {Pos: d, Color: col},
		}
	}

	var (
		// Corners of the [-1,1] cube, n = near (z=-1), f = far (z=+1).
		nbl = f32.Vec4{-1, -1, -1, 1}
		nbr = f32.Vec4{1, -1, -1, 1}
		ntr = f32.Vec4{1, 1, -1, 1}
		ntl = f32.Vec4{-1, 1, -1, 1}
		fbl = f32.Vec4{-1, -1, 1, 1}
		fbr = f32.Vec4{1, -1, 1, 1}
		ftr = f32.Vec4{1, 1, 1, 1}
		ftl = f32.Vec4{-1, 1, 1, 1}
	)

	verts := make([]Vertex, 0, 36)
	verts = append(verts, quad(nbl, ntl, ntr, nbr, red)...)     // front
	verts = append(verts, quad(fbr, ftr, ftl, fbl, green)...)   // back
	verts = append(verts, quad(fbl, ftl, ntl, nbl, blue)...)    // left
	verts = append(verts, quad(nbr, ntr, ftr, fbr, yellow)...)  // right
	verts = append(verts, quad(ntl, ftl, ftr, ntr, cyan)...)    // top
	verts = append(verts, quad(nbl, nbr, fbr, fbl, magenta)...) // bottom

	return Mesh{Vertices: verts}
}
