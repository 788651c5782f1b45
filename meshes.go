package main

// Mesh is an indexed triangle list in the layout AddMeshIndexed takes.
type Mesh struct {
	Verts   [][3]float32
	UVs     [][2]float32
	Colors  []uint32
	Indices []uint16
}

var cubeFaceColors = [6]uint32{
	0xE04040FF, 0x40E040FF, 0x4040E0FF,
	0xE0E040FF, 0x40E0E0FF, 0xE040E0FF,
}

// newCube builds a unit cube centred on the origin, four vertices per face
// so each face has its own colour and full texture.
func newCube() *Mesh {
	// Each face: a corner and the two edge directions, counter-clockwise
	// seen from outside.
	faces := [6][3][3]float32{
		{{-1, -1, 1}, {2, 0, 0}, {0, 2, 0}},  // +Z
		{{1, -1, -1}, {-2, 0, 0}, {0, 2, 0}}, // -Z
		{{1, -1, 1}, {0, 0, -2}, {0, 2, 0}},  // +X
		{{-1, -1, -1}, {0, 0, 2}, {0, 2, 0}}, // -X
		{{-1, 1, 1}, {2, 0, 0}, {0, 0, -2}},  // +Y
		{{-1, -1, -1}, {2, 0, 0}, {0, 0, 2}}, // -Y
	}
	m := &Mesh{}
	for f, face := range faces {
		o, u, v := face[0], face[1], face[2]
		base := uint16(len(m.Verts))
		for _, c := range [4][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}} {
			m.Verts = append(m.Verts, [3]float32{
				(o[0] + u[0]*c[0] + v[0]*c[1]) * 0.5,
				(o[1] + u[1]*c[0] + v[1]*c[1]) * 0.5,
				(o[2] + u[2]*c[0] + v[2]*c[1]) * 0.5,
			})
			m.UVs = append(m.UVs, [2]float32{c[0], 1 - c[1]})
			m.Colors = append(m.Colors, cubeFaceColors[f])
		}
		m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return m
}

func newQuad() *Mesh {
	return &Mesh{
		Verts:   [][3]float32{{-1, -1, 0}, {1, -1, 0}, {1, 1, 0}, {-1, 1, 0}},
		UVs:     [][2]float32{{0, 1}, {1, 1}, {1, 0}, {0, 0}},
		Colors:  []uint32{0xFFFFFFFF, 0xFFFFFFFF, 0xFFFFFFFF, 0xFFFFFFFF},
		Indices: []uint16{0, 1, 2, 0, 2, 3},
	}
}

func newTri() *Mesh {
	return &Mesh{
		Verts:   [][3]float32{{-1, -1, 0}, {1, -1, 0}, {0, 1, 0}},
		UVs:     [][2]float32{{0, 1}, {1, 1}, {0.5, 0}},
		Colors:  []uint32{0xFF0000FF, 0x00FF00FF, 0x0000FFFF},
		Indices: []uint16{0, 1, 2},
	}
}

var builtinMeshes = map[string]*Mesh{
	"cube": newCube(),
	"quad": newQuad(),
	"tri":  newTri(),
}

// BuiltinMesh returns one of the meshes scenes can draw by name. The
// returned mesh is shared and must not be modified.
func BuiltinMesh(name string) (*Mesh, bool) {
	m, ok := builtinMeshes[name]
	return m, ok
}
