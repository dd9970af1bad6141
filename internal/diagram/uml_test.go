package diagram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schema-display/internal/graph"
	"schema-display/internal/mapping"
)

func fooBarMappings() []mapping.Mapping {
	return []mapping.Mapping{
		{
			Name:       "Foo",
			Attributes: []mapping.Attribute{{Name: "id", Type: "Integer", PrimaryKey: true}},
			Relationships: []mapping.Relationship{
				{Name: "bars", Target: "Bar", Multiplicity: mapping.Many, Backref: "foo"},
			},
		},
		{
			Name: "Bar",
			Attributes: []mapping.Attribute{
				{Name: "id", Type: "Integer", PrimaryKey: true},
				{Name: "foo_id", Type: "Integer"},
			},
			Relationships: []mapping.Relationship{
				{Name: "foo", Target: "Foo", Multiplicity: mapping.ZeroOrOne},
			},
		},
	}
}

func TestUMLEmpty(t *testing.T) {
	g, err := BuildUMLGraph(nil, DefaultUMLOptions())
	require.NoError(t, err)
	assert.Empty(t, g.Nodes())
	assert.Empty(t, g.Edges())
	assert.Equal(t, "neato", g.Prog)
	assert.Equal(t, "major", g.Attrs.Mode)
	assert.Equal(t, 3, g.Attrs.Dim)
	assert.Equal(t, ".75", g.Attrs.Ratio)
}

func TestUMLAttributes(t *testing.T) {
	g, err := BuildUMLGraph(fooBarMappings()[:1:1], UMLOptions{ShowAttributes: true, ShowDatatypes: true})
	// Foo 引用了 Bar，单独构建必须报错
	require.Error(t, err)
	assert.True(t, graph.IsInputError(err))
	assert.Nil(t, g)

	only := []mapping.Mapping{{Name: "Foo", Attributes: []mapping.Attribute{{Name: "id", Type: "Integer"}}}}

	g, err = BuildUMLGraph(only, UMLOptions{ShowAttributes: true, ShowDatatypes: true})
	require.NoError(t, err)
	assert.Contains(t, g.Node("Foo").Attrs.Label.Text, "+id : Integer")
	assert.Contains(t, g.Node("Foo").Attrs.Label.Text, `<FONT POINT-SIZE="10">Foo</FONT>`)

	g, err = BuildUMLGraph(only, UMLOptions{ShowAttributes: true})
	require.NoError(t, err)
	l := g.Node("Foo").Attrs.Label.Text
	assert.Contains(t, l, "+id</TD>")
	assert.NotContains(t, l, "Integer")

	g, err = BuildUMLGraph(only, UMLOptions{})
	require.NoError(t, err)
	assert.NotContains(t, g.Node("Foo").Attrs.Label.Text, "+id")
}

func assertPairedEdge(t *testing.T, g *graph.Graph, from, to, head, tail string) {
	t.Helper()
	edges := g.EdgesBetween(from, to)
	require.Len(t, edges, 1)
	assert.Empty(t, g.EdgesBetween(to, from), "a bidirectional pair is drawn once")
	e := edges[0].Attrs
	assert.Equal(t, head, e.HeadLabel)
	assert.Equal(t, tail, e.TailLabel)
	assert.Equal(t, graph.ArrowNone, e.ArrowHead)
	assert.Equal(t, graph.ArrowNone, e.ArrowTail)
	require.NotNil(t, e.Constraint)
	assert.False(t, *e.Constraint)
}

func TestUMLAssociations(t *testing.T) {
	g, err := BuildUMLGraph(fooBarMappings(), DefaultUMLOptions())
	require.NoError(t, err)

	// Foo.bars 声明了 backref，Bar.foo 没有：依然是同一个双向关系
	assertPairedEdge(t, g, "Foo", "Bar", "+bars *", "+foo 0..1")
	assert.Equal(t, "setlinewidth(1)", g.EdgesBetween("Foo", "Bar")[0].Attrs.Style)
}

func TestUMLBackrefDeclaredOnEitherSide(t *testing.T) {
	tests := []struct {
		name     string
		mappings []mapping.Mapping
		from, to string
		head     string
		tail     string
	}{
		{
			name: "declared on the reverse side only",
			mappings: []mapping.Mapping{
				{Name: "Foo", Relationships: []mapping.Relationship{{Name: "bars", Target: "Bar", Multiplicity: mapping.Many}}},
				{Name: "Bar", Relationships: []mapping.Relationship{{Name: "foo", Target: "Foo", Multiplicity: mapping.ZeroOrOne, Backref: "bars"}}},
			},
			from: "Foo", to: "Bar", head: "+bars *", tail: "+foo 0..1",
		},
		{
			name: "declared on both sides",
			mappings: []mapping.Mapping{
				{Name: "Foo", Relationships: []mapping.Relationship{{Name: "bars", Target: "Bar", Multiplicity: mapping.Many, Backref: "foo"}}},
				{Name: "Bar", Relationships: []mapping.Relationship{{Name: "foo", Target: "Foo", Multiplicity: mapping.ZeroOrOne, Backref: "bars"}}},
			},
			from: "Foo", to: "Bar", head: "+bars *", tail: "+foo 0..1",
		},
		{
			name: "self reference",
			mappings: []mapping.Mapping{{Name: "Node", Relationships: []mapping.Relationship{
				{Name: "children", Target: "Node", Multiplicity: mapping.Many, Backref: "parent"},
				{Name: "parent", Target: "Node", Multiplicity: mapping.ZeroOrOne},
			}}},
			from: "Node", to: "Node", head: "+children *", tail: "+parent 0..1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := BuildUMLGraph(tt.mappings, DefaultUMLOptions())
			require.NoError(t, err)
			edges := g.EdgesBetween(tt.from, tt.to)
			require.Len(t, edges, 1)
			e := edges[0].Attrs
			assert.Equal(t, tt.head, e.HeadLabel)
			assert.Equal(t, tt.tail, e.TailLabel)
			assert.Equal(t, graph.ArrowNone, e.ArrowHead)
			require.NotNil(t, e.Constraint)
			assert.False(t, *e.Constraint)
		})
	}
}

func TestUMLUnpairedRelationshipIsNavigable(t *testing.T) {
	mappings := []mapping.Mapping{
		{Name: "Foo", Relationships: []mapping.Relationship{{Name: "bars", Target: "Bar", Multiplicity: mapping.Many, Backref: "owner"}}},
		{Name: "Bar", Relationships: []mapping.Relationship{{Name: "foo", Target: "Foo", Multiplicity: mapping.ZeroOrOne}}},
	}
	g, err := BuildUMLGraph(mappings, DefaultUMLOptions())
	require.NoError(t, err)

	// backref 指向不存在的关系，两条边各自可导航
	for _, e := range g.Edges() {
		assert.Equal(t, graph.ArrowVee, e.Attrs.ArrowHead)
		assert.Equal(t, graph.ArrowNone, e.Attrs.ArrowTail)
		assert.Empty(t, e.Attrs.TailLabel)
		assert.Nil(t, e.Attrs.Constraint)
	}
	assert.Len(t, g.Edges(), 2)
}

func TestUMLMultiplicityOne(t *testing.T) {
	mappings := []mapping.Mapping{
		{Name: "A", Relationships: []mapping.Relationship{{Name: "b", Target: "B", Multiplicity: mapping.One}}},
		{Name: "B", Relationships: []mapping.Relationship{{Name: "as", Target: "A"}}},
	}

	tests := []struct {
		showOne bool
		wantB   string
		wantAs  string
	}{
		{false, "+b", "+as"},
		{true, "+b 1", "+as 1"},
	}
	for _, tt := range tests {
		opts := DefaultUMLOptions()
		opts.ShowMultiplicityOne = tt.showOne
		g, err := BuildUMLGraph(mappings, opts)
		require.NoError(t, err)
		assert.Equal(t, tt.wantB, g.EdgesBetween("A", "B")[0].Attrs.HeadLabel)
		assert.Equal(t, tt.wantAs, g.EdgesBetween("B", "A")[0].Attrs.HeadLabel)
	}
}

func TestUMLInheritance(t *testing.T) {
	mappings := []mapping.Mapping{
		{Name: "X", Attributes: []mapping.Attribute{{Name: "id", Type: "Integer"}}},
		{Name: "Y", Parent: "X", Attributes: []mapping.Attribute{{Name: "id", Type: "Integer"}}},
	}

	opts := DefaultUMLOptions()
	opts.LineWidth = 2
	g, err := BuildUMLGraph(mappings, opts)
	require.NoError(t, err)

	gen := g.EdgesBetween("Y", "X")
	require.Len(t, gen, 1)
	assert.Equal(t, graph.ArrowEmpty, gen[0].Attrs.ArrowHead)
	assert.Equal(t, graph.ArrowNone, gen[0].Attrs.ArrowTail)
	assert.Equal(t, "setlinewidth(2)", gen[0].Attrs.Style)
	assert.Contains(t, g.Node("Y").Attrs.Label.Text, "+id : Integer")
	assert.Contains(t, g.Node("Y").Attrs.Label.Text, `CELLBORDER="2"`)

	opts.SkipInherited = true
	g, err = BuildUMLGraph(mappings, opts)
	require.NoError(t, err)
	assert.NotContains(t, g.Node("Y").Attrs.Label.Text, "+id")
	assert.Contains(t, g.Node("X").Attrs.Label.Text, "+id : Integer")
}

func TestUMLSkipInheritedTransitive(t *testing.T) {
	mappings := []mapping.Mapping{
		{
			Name:          "Z",
			Parent:        "Y",
			Attributes:    []mapping.Attribute{{Name: "id"}, {Name: "name"}, {Name: "extra"}},
			Relationships: []mapping.Relationship{{Name: "owner", Target: "X"}},
		},
		{Name: "Y", Parent: "X", Attributes: []mapping.Attribute{{Name: "name"}}},
		{
			Name:          "X",
			Attributes:    []mapping.Attribute{{Name: "id"}},
			Relationships: []mapping.Relationship{{Name: "owner", Target: "X"}},
		},
	}

	opts := DefaultUMLOptions()
	opts.SkipInherited = true
	g, err := BuildUMLGraph(mappings, opts)
	require.NoError(t, err)

	l := g.Node("Z").Attrs.Label.Text
	assert.Contains(t, l, "+extra")
	assert.NotContains(t, l, "+id")
	assert.NotContains(t, l, "+name")
	assert.Empty(t, g.EdgesBetween("Z", "X"), "relationship declared on ancestor is drawn once")
	assert.Len(t, g.EdgesBetween("X", "X"), 1)
}

func TestUMLOperations(t *testing.T) {
	mappings := []mapping.Mapping{{
		Name: "Foo",
		Operations: []mapping.Operation{
			{Name: "save"},
			{Name: "rename", Params: []mapping.Param{{Name: "name"}, {Name: "force", Default: "False"}}},
		},
	}}

	g, err := BuildUMLGraph(mappings, DefaultUMLOptions())
	require.NoError(t, err)
	assert.Contains(t, g.Node("Foo").Attrs.Label.Text, `save()<BR ALIGN="LEFT"/>rename(name, force=False)`)

	opts := DefaultUMLOptions()
	opts.ShowOperations = false
	g, err = BuildUMLGraph(mappings, opts)
	require.NoError(t, err)
	assert.NotContains(t, g.Node("Foo").Attrs.Label.Text, "save()")
}

func TestUMLInputErrors(t *testing.T) {
	tests := []struct {
		name     string
		mappings []mapping.Mapping
	}{
		{"missing name", []mapping.Mapping{{}}},
		{"duplicate", []mapping.Mapping{{Name: "A"}, {Name: "A"}}},
		{"unknown parent", []mapping.Mapping{{Name: "A", Parent: "Missing"}}},
		{"unknown target", []mapping.Mapping{{Name: "A", Relationships: []mapping.Relationship{{Name: "b", Target: "B"}}}}},
		{"relationship without name", []mapping.Mapping{{Name: "A", Relationships: []mapping.Relationship{{Target: "A"}}}}},
		{"attribute without name", []mapping.Mapping{{Name: "A", Attributes: []mapping.Attribute{{Type: "Integer"}}}}},
		{"self parent", []mapping.Mapping{{Name: "A", Parent: "A"}}},
		{"cycle", []mapping.Mapping{{Name: "A", Parent: "B"}, {Name: "B", Parent: "A"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := BuildUMLGraph(tt.mappings, DefaultUMLOptions())
			assert.True(t, graph.IsInputError(err), "got %v", err)
			assert.Nil(t, g)
		})
	}

	_, err := BuildUMLGraph(nil, UMLOptions{LineWidth: -1})
	assert.True(t, graph.IsInputError(err))
}

func TestUMLReservedNames(t *testing.T) {
	mappings := []mapping.Mapping{
		{Name: "node", Relationships: []mapping.Relationship{{Name: "graph", Target: "graph"}}},
		{Name: "graph"},
	}
	g, err := BuildUMLGraph(mappings, DefaultUMLOptions())
	require.NoError(t, err)

	dot := g.DOT()
	assert.True(t, strings.HasPrefix(dot, `digraph "uml" {`))
	assert.Contains(t, dot, "\t\"node\" [")
	assert.Contains(t, dot, `"node" -> "graph"`)
}
