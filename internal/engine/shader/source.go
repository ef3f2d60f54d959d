// Package shader generates the terrain shader sources consumed by the
// rendering backend.
package shader

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed terrain.vert.tmpl
var terrainVertexTemplate string

//go:embed terrain.frag.tmpl
var terrainFragmentTemplate string

// MaxLayers is the length of the per-layer uniform arrays.
const MaxLayers = 256

var (
	vertexTmpl   = template.Must(template.New("terrain.vert").Parse(terrainVertexTemplate))
	fragmentTmpl = template.Must(template.New("terrain.frag").Parse(terrainFragmentTemplate))
)

// Source is a vertex/fragment program pair.
type Source struct {
	Vertex   string
	Fragment string
}

// Features selects the optional blocks of the terrain template.
type Features struct {
	// Noise enables the noise overlay that fades in outside painted regions.
	Noise bool
}

// Terrain renders the terrain program for the given features.
func Terrain(f Features) Source {
	data := struct {
		Features
		MaxLayers int
	}{f, MaxLayers}

	// Both templates are fixed at compile time; execution only fails on a broken template.
	return Source{
		Vertex:   mustExecute(vertexTmpl, data),
		Fragment: mustExecute(fragmentTmpl, data),
	}
}

func mustExecute(t *template.Template, data any) string {
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		panic(fmt.Sprintf("shader template %s: %v", t.Name(), err))
	}
	return sb.String()
}
