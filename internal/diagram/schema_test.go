package diagram

import (
	"strings"
	"testing"

	"schema-display/internal/adapter"
	"schema-display/internal/graph"
)

func fooBar() []adapter.Table {
	return []adapter.Table{
		{
			Name:    "foo",
			Columns: []adapter.Column{{Name: "id", DataType: "INTEGER", IsPrimaryKey: true}},
		},
		{
			Name:    "bar",
			Columns: []adapter.Column{{Name: "foo_id", DataType: "INTEGER"}},
			ForeignKeys: []adapter.ForeignKey{
				{Columns: []string{"foo_id"}, RefTable: "foo", RefColumns: []string{"id"}},
			},
		},
	}
}

func nodeIDs(g *graph.Graph) []string {
	var ids []string
	for _, n := range g.Nodes() {
		ids = append(ids, n.ID)
	}
	return ids
}

func label(t *testing.T, g *graph.Graph, id string) string {
	t.Helper()
	n := g.Node(id)
	if n == nil {
		t.Fatalf("node %q not found", id)
	}
	return n.Attrs.Label.Text
}

func TestEmptySchema(t *testing.T) {
	g, err := BuildSchemaGraph(nil, DefaultSchemaOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(g.Nodes()) != 0 || len(g.Edges()) != 0 {
		t.Errorf("expected empty graph")
	}
	if g.Prog != "dot" || g.Attrs.Mode != "ipsep" || g.Attrs.RankDir != graph.RankTB || !*g.Attrs.Concentrate {
		t.Errorf("unexpected graph attrs %+v", g.Attrs)
	}
}

func TestTableColumns(t *testing.T) {
	tests := []struct {
		name string
		opts func(*SchemaOptions)
		want []string
		not  []string
	}{
		{"default", func(o *SchemaOptions) {}, []string{"- id : INTEGER"}, []string{"(PK)"}},
		{"key suffix", func(o *SchemaOptions) { o.ShowColumnKeys = true }, []string{"- id(PK) : INTEGER"}, nil},
		{"no datatypes", func(o *SchemaOptions) { o.ShowDatatypes = false }, []string{"- id<"}, []string{"INTEGER"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultSchemaOptions()
			tt.opts(&opts)
			g, err := BuildSchemaGraph(fooBar()[:1], opts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			l := label(t, g, "foo")
			for _, w := range tt.want {
				if !strings.Contains(l, w) {
					t.Errorf("label %q should contain %q", l, w)
				}
			}
			for _, n := range tt.not {
				if strings.Contains(l, n) {
					t.Errorf("label %q should not contain %q", l, n)
				}
			}
		})
	}
}

func TestForeignKey(t *testing.T) {
	opts := DefaultSchemaOptions()
	opts.ShowColumnKeys = true
	g, err := BuildSchemaGraph(fooBar(), opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(nodeIDs(g), ",") != "foo,bar" {
		t.Errorf("unexpected nodes %v", nodeIDs(g))
	}
	if !strings.Contains(label(t, g, "bar"), "- foo_id(FK) : INTEGER") {
		t.Errorf("bar label missing FK suffix: %s", label(t, g, "bar"))
	}

	edges := g.EdgesBetween("bar", "foo")
	if len(edges) != 1 {
		t.Fatalf("expected 1 edge bar->foo, got %d", len(edges))
	}
	a := edges[0].Attrs
	if a.TailLabel != "+ foo_id" || a.HeadLabel != "+ id" {
		t.Errorf("unexpected labels %q / %q", a.TailLabel, a.HeadLabel)
	}
	if a.ArrowHead != graph.ArrowODot || a.ArrowTail != graph.ArrowCrow || a.Dir != graph.DirBoth {
		t.Errorf("unexpected arrows %+v", a)
	}
}

func TestForeignKeyArrowStyles(t *testing.T) {
	tables := []adapter.Table{
		{Name: "person", Columns: []adapter.Column{{Name: "id", IsPrimaryKey: true}}},
		{
			Name:    "employee",
			Columns: []adapter.Column{{Name: "id", IsPrimaryKey: true}, {Name: "badge_id", IsUnique: true}},
			ForeignKeys: []adapter.ForeignKey{
				{Columns: []string{"id"}, RefTable: "person", RefColumns: []string{"id"}},
				{Columns: []string{"badge_id"}, RefTable: "badge", RefColumns: []string{"id"}},
			},
		},
		{Name: "badge", Columns: []adapter.Column{{Name: "id", IsPrimaryKey: true}}},
	}
	g, err := BuildSchemaGraph(tables, DefaultSchemaOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	inherit := g.EdgesBetween("employee", "person")[0].Attrs
	if inherit.ArrowHead != graph.ArrowNone || inherit.ArrowTail != graph.ArrowEmpty {
		t.Errorf("pk to pk edge should be drawn as inheritance: %+v", inherit)
	}
	unique := g.EdgesBetween("employee", "badge")[0].Attrs
	if unique.ArrowHead != graph.ArrowODot || unique.ArrowTail != graph.ArrowEmpty {
		t.Errorf("unique fk should have empty tail: %+v", unique)
	}
}

func TestTableFiltering(t *testing.T) {
	tables := []adapter.Table{
		{Name: "A", Columns: []adapter.Column{{Name: "id"}}},
		{
			Name:        "B",
			Columns:     []adapter.Column{{Name: "c_id"}},
			ForeignKeys: []adapter.ForeignKey{{Columns: []string{"c_id"}, RefTable: "C", RefColumns: []string{"id"}}},
		},
		{Name: "C", Columns: []adapter.Column{{Name: "id"}}},
	}

	tests := []struct {
		name    string
		include []string
		exclude []string
		nodes   string
		edges   int
	}{
		{"all", nil, nil, "A,B,C", 1},
		{"allow list", []string{"a", "B"}, nil, "A,B", 0},
		{"deny list", nil, []string{"c"}, "A,B", 0},
		{"both", []string{"B", "C"}, []string{"B"}, "C", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := SchemaOptions{IncludeTables: tt.include, ExcludeTables: tt.exclude}
			g, err := BuildSchemaGraph(tables, opts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := strings.Join(nodeIDs(g), ","); got != tt.nodes {
				t.Errorf("expected nodes %s, got %s", tt.nodes, got)
			}
			if len(g.Edges()) != tt.edges {
				t.Errorf("expected %d edges, got %d", tt.edges, len(g.Edges()))
			}
		})
	}
}

func TestForeignKeyToUnknownTableDropped(t *testing.T) {
	tables := fooBar()[1:]
	g, err := BuildSchemaGraph(tables, SchemaOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(g.Edges()) != 0 {
		t.Errorf("edge to missing table should be dropped")
	}
}

func TestSchemaInputErrors(t *testing.T) {
	tests := []struct {
		name   string
		tables []adapter.Table
	}{
		{"missing name", []adapter.Table{{Columns: []adapter.Column{{Name: "id"}}}}},
		{"duplicate name", []adapter.Table{{Name: "foo"}, {Name: "FOO"}}},
		{"duplicate name in schema", []adapter.Table{{Schema: "sales", Name: "users"}, {Schema: "SALES", Name: "users"}}},
		{"fk column missing", []adapter.Table{
			{Name: "foo", Columns: []adapter.Column{{Name: "id"}}},
			{
				Name:        "bar",
				Columns:     []adapter.Column{{Name: "id"}},
				ForeignKeys: []adapter.ForeignKey{{Columns: []string{"foo_id"}, RefTable: "foo", RefColumns: []string{"id"}}},
			},
		}},
		{"fk without target", []adapter.Table{{
			Name:        "bar",
			Columns:     []adapter.Column{{Name: "foo_id"}},
			ForeignKeys: []adapter.ForeignKey{{Columns: []string{"foo_id"}}},
		}}},
		{"fk column count mismatch", []adapter.Table{{
			Name:        "bar",
			Columns:     []adapter.Column{{Name: "a"}, {Name: "b"}},
			ForeignKeys: []adapter.ForeignKey{{Columns: []string{"a", "b"}, RefTable: "foo", RefColumns: []string{"id"}}},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := BuildSchemaGraph(tt.tables, DefaultSchemaOptions())
			if !graph.IsInputError(err) {
				t.Fatalf("expected InputError, got %v", err)
			}
			if g != nil {
				t.Errorf("no graph should be returned on error")
			}
		})
	}
}

func TestSchemaNameAndFormatting(t *testing.T) {
	tables := []adapter.Table{{
		Schema:  "sch_foo",
		Name:    "foo",
		Columns: []adapter.Column{{Name: "id", DataType: "INTEGER"}},
	}}
	opts := DefaultSchemaOptions()
	opts.ShowSchemaName = true
	opts.SchemaNameFormat = &NameFormat{Color: "#888888", FontSize: 8}
	opts.TableNameFormat = &NameFormat{Bold: true, FontSize: 10}

	g, err := BuildSchemaGraph(tables, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `<FONT COLOR="#888888" POINT-SIZE="8">sch_foo</FONT>.<FONT POINT-SIZE="10"><B>foo</B></FONT>`
	if l := label(t, g, "foo"); !strings.Contains(l, want) {
		t.Errorf("label %q should contain %q", l, want)
	}
}

func TestSameTableNameInTwoSchemas(t *testing.T) {
	tables := []adapter.Table{
		{Schema: "dbo", Name: "users", Columns: []adapter.Column{{Name: "id", DataType: "INT", IsPrimaryKey: true}}},
		{
			Schema:  "sales",
			Name:    "users",
			Columns: []adapter.Column{{Name: "id", DataType: "INT", IsPrimaryKey: true}, {Name: "owner_id", DataType: "INT"}},
			ForeignKeys: []adapter.ForeignKey{
				{Columns: []string{"owner_id"}, RefSchema: "dbo", RefTable: "users", RefColumns: []string{"id"}},
			},
		},
		{
			Schema:  "sales",
			Name:    "orders",
			Columns: []adapter.Column{{Name: "user_id", DataType: "INT"}},
			ForeignKeys: []adapter.ForeignKey{
				{Columns: []string{"user_id"}, RefTable: "users", RefColumns: []string{"id"}},
			},
		},
	}
	opts := DefaultSchemaOptions()
	opts.ShowSchemaName = true

	g, err := BuildSchemaGraph(tables, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Join(nodeIDs(g), ","); got != "dbo.users,sales.users,orders" {
		t.Errorf("unexpected nodes %s", got)
	}
	if len(g.EdgesBetween("sales.users", "dbo.users")) != 1 {
		t.Error("qualified foreign key should point at dbo.users")
	}
	// 未写 schema 的外键落在源表所在的 schema
	if len(g.EdgesBetween("orders", "sales.users")) != 1 {
		t.Error("unqualified foreign key should resolve within sales")
	}
	if !strings.Contains(label(t, g, "dbo.users"), "dbo.users") {
		t.Error("header should carry the schema name")
	}

	opts.ExcludeTables = []string{"dbo.users"}
	g, err = BuildSchemaGraph(tables, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Join(nodeIDs(g), ","); got != "users,orders" {
		t.Errorf("qualified exclude: unexpected nodes %s", got)
	}
}

func TestInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts SchemaOptions
	}{
		{"rankdir", SchemaOptions{RankDir: "DIAGONAL"}},
		{"color", SchemaOptions{TableNameFormat: &NameFormat{Color: "red-ish"}}},
		{"fontsize", SchemaOptions{SchemaNameFormat: &NameFormat{FontSize: -1}}},
		{"dpi", SchemaOptions{DPI: -300}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := BuildSchemaGraph(fooBar(), tt.opts); !graph.IsInputError(err) {
				t.Errorf("expected InputError, got %v", err)
			}
		})
	}
}

func TestIndexRows(t *testing.T) {
	tables := []adapter.Table{{
		Name:    "bar",
		Columns: []adapter.Column{{Name: "id"}, {Name: "foo_id"}, {Name: "code"}},
		Indexes: []adapter.Index{
			{Name: "ix_foo", Columns: []string{"foo_id"}},
			{Name: "ux_code", Unique: true, Definition: "CREATE UNIQUE INDEX ux_code ON public.bar USING btree (code)"},
		},
	}}

	g, err := BuildSchemaGraph(tables, DefaultSchemaOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l := label(t, g, "bar")
	for _, want := range []string{"INDEX (foo_id)", "UNIQUE (code)"} {
		if !strings.Contains(l, want) {
			t.Errorf("label %q should contain %q", l, want)
		}
	}

	opts := DefaultSchemaOptions()
	opts.ShowIndexes = false
	g, _ = BuildSchemaGraph(tables, opts)
	if strings.Contains(label(t, g, "bar"), "INDEX") {
		t.Error("index rows should be hidden")
	}
}

func TestRelationOverridesAndInferredStyle(t *testing.T) {
	tables := fooBar()
	tables[1].ForeignKeys[0].Inferred = true
	opts := DefaultSchemaOptions()
	opts.Relation = graph.EdgeAttrs{Color: "#336699", FontSize: 9}

	g, err := BuildSchemaGraph(tables, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a := g.Edges()[0].Attrs
	if a.Color != "#336699" || a.FontSize != 9 || a.Style != "dashed" {
		t.Errorf("unexpected attrs %+v", a)
	}
}

func TestReservedWordTableNames(t *testing.T) {
	tables := []adapter.Table{
		{Name: "node", Columns: []adapter.Column{{Name: "id"}}},
		{Name: "edge", Columns: []adapter.Column{{Name: "node_id"}}, ForeignKeys: []adapter.ForeignKey{
			{Columns: []string{"node_id"}, RefTable: "node", RefColumns: []string{"id"}},
		}},
	}
	g, err := BuildSchemaGraph(tables, DefaultSchemaOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(g.DOT(), `"edge" -> "node"`) {
		t.Errorf("reserved words should be quoted:\n%s", g.DOT())
	}
}
