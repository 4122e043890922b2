package mesh_expr

import (
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/fine-structures/rnacad/librna"
	"github.com/fine-structures/rnacad/rnacad"
)

// MeshExpr is the free-text structure notation: vertex positions then edges.
//
//	[-10.0, 0.0, 0.0]
//	[10.0, 0.0, 0.0]
//	(0, 1)
type MeshExpr struct {
	Vertices []*VertexExpr `@@*`
	Edges    []*EdgeExpr   `@@*`
}

type VertexExpr struct {
	Coords []float64 `"[" @Number ( "," @Number )* "]"`
}

type EdgeExpr struct {
	Origin      int `"(" @Number ","`
	Destination int `@Number ")"`
}

var sMeshLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Number", Pattern: `[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`},
	{Name: "Punct", Pattern: `[\[\](),]`},
	{Name: "comment", Pattern: `#[^\n]*`},
	{Name: "whitespace", Pattern: `\s+`},
})

var sParseMeshExpr = participle.MustBuild[MeshExpr](
	participle.Lexer(sMeshLexer),
	participle.Elide("comment", "whitespace"),
)

// ParseMeshExpr parses vertices and edges given in one text.
func ParseMeshExpr(expr string) (*MeshExpr, error) {
	ast, err := sParseMeshExpr.ParseString("", expr)
	if err != nil {
		return nil, errors.Wrap(rnacad.ErrBadExpr, err.Error())
	}
	if err = ast.Validate(); err != nil {
		return nil, err
	}
	return ast, nil
}

// ParsePanels parses vertex and edge text kept apart, e.g. two editor fields.
func ParsePanels(verticesExpr, edgesExpr string) (*MeshExpr, error) {
	return ParseMeshExpr(verticesExpr + "\n" + edgesExpr)
}

// Validate checks that every vertex has exactly three coordinates.
func (expr *MeshExpr) Validate() error {
	for i, v := range expr.Vertices {
		if len(v.Coords) != 3 {
			return errors.Wrapf(rnacad.ErrBadExpr, "vertex %d has %d coordinates", i, len(v.Coords))
		}
	}
	return nil
}

func (expr *MeshExpr) Positions() []mgl64.Vec3 {
	positions := make([]mgl64.Vec3, len(expr.Vertices))
	for i, v := range expr.Vertices {
		copy(positions[i][:], v.Coords)
	}
	return positions
}

func (expr *MeshExpr) EdgePairs() []librna.EdgePair {
	pairs := make([]librna.EdgePair, len(expr.Edges))
	for i, e := range expr.Edges {
		pairs[i] = librna.EdgePair{librna.VtxID(e.Origin), librna.VtxID(e.Destination)}
	}
	return pairs
}

// Mesh builds the structure graph the expression describes.
func (expr *MeshExpr) Mesh() (*librna.Mesh, error) {
	return librna.BuildMesh(expr.Positions(), expr.EdgePairs())
}

// AppendExpr renders the expression back in canonical form, one item per line.
func (expr *MeshExpr) AppendExpr(dst []byte) []byte {
	for _, v := range expr.Vertices {
		dst = append(dst, '[')
		for i, c := range v.Coords {
			if i > 0 {
				dst = append(dst, ", "...)
			}
			dst = strconv.AppendFloat(dst, c, 'f', -1, 64)
		}
		dst = append(dst, "]\n"...)
	}
	for _, e := range expr.Edges {
		dst = append(dst, '(')
		dst = strconv.AppendInt(dst, int64(e.Origin), 10)
		dst = append(dst, ", "...)
		dst = strconv.AppendInt(dst, int64(e.Destination), 10)
		dst = append(dst, ")\n"...)
	}
	return dst
}
