package main

import (
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/midgard-terrain/internal/terrain"
)

// segmentsPerRegion is the grid resolution inside one region.
const segmentsPerRegion = 32

// gridMesh builds a flat square grid of segments×segments quads starting at
// (origin, origin) on the XZ plane. Heights come from the terrain shader.
func gridMesh(segments int, origin, extent float32) ([]float32, []uint32) {
	n := segments + 1
	step := extent / float32(segments)

	vertices := make([]float32, 0, n*n*3)
	for z := 0; z < n; z++ {
		for x := 0; x < n; x++ {
			vertices = append(vertices, origin+float32(x)*step, 0, origin+float32(z)*step)
		}
	}

	indices := make([]uint32, 0, segments*segments*6)
	for z := 0; z < segments; z++ {
		for x := 0; x < segments; x++ {
			i := uint32(z*n + x)
			below := i + uint32(n)
			indices = append(indices, i, below, i+1, i+1, below, below+1)
		}
	}
	return vertices, indices
}

// grid is the GPU mesh covering every cell of the region map.
type grid struct {
	vao, vbo, ebo uint32
	count         int32
}

func newGrid(size terrain.RegionSize) *grid {
	// Region offset o spans [o-0.5, o+0.5) region lengths.
	half := float32(terrain.RegionMapSize / 2)
	origin := -(half + 0.5) * float32(size)
	vertices, indices := gridMesh(terrain.RegionMapSize*segmentsPerRegion, origin, terrain.RegionMapSize*float32(size))

	g := &grid{count: int32(len(indices))}
	gl.GenVertexArrays(1, &g.vao)
	gl.BindVertexArray(g.vao)

	gl.GenBuffers(1, &g.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, unsafe.Pointer(&vertices[0]), gl.STATIC_DRAW)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 3*4, 0)
	gl.EnableVertexAttribArray(0)

	gl.GenBuffers(1, &g.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, g.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, unsafe.Pointer(&indices[0]), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	return g
}

func (g *grid) draw() {
	gl.BindVertexArray(g.vao)
	gl.DrawElements(gl.TRIANGLES, g.count, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
}

func (g *grid) delete() {
	gl.DeleteBuffers(1, &g.ebo)
	gl.DeleteBuffers(1, &g.vbo)
	gl.DeleteVertexArrays(1, &g.vao)
}
