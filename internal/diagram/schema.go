package diagram

import (
	"html"
	"strings"

	"schema-display/internal/adapter"
	"schema-display/internal/graph"
)

// BuildSchemaGraph 把表结构转换为 ER 图：每个表一个节点，每个外键一条边。
// 目标表被过滤掉的外键直接丢弃，不会留下悬空的边。
func BuildSchemaGraph(tables []adapter.Table, opts SchemaOptions) (*graph.Graph, error) {
	if err := validateOptions(opts); err != nil {
		return nil, err
	}
	if err := validateTables(tables); err != nil {
		return nil, err
	}

	font := fontOrDefault(opts.Font)
	rankDir := opts.RankDir
	if rankDir == "" {
		rankDir = graph.RankTB
	}
	sep := opts.Sep
	if sep == "" {
		sep = "0.01"
	}

	g := graph.New("schema", "dot", graph.GraphAttrs{
		Mode:        "ipsep",
		Overlap:     "ipsep",
		Sep:         sep,
		Concentrate: graph.Bool(opts.Concentrate),
		RankDir:     rankDir,
		DPI:         opts.DPI,
	})

	included := filterTables(tables, opts.IncludeTables, opts.ExcludeTables)
	idx := newTableIndex(included)

	for _, t := range included {
		node := &graph.Node{
			ID: idx.nodeID(t),
			Attrs: graph.NodeAttrs{
				Shape:    graph.ShapePlaintext,
				Label:    graph.HTMLLabel(renderTableLabel(t, opts)),
				FontName: font,
				FontSize: 7,
			},
		}
		if err := g.AddNode(node); err != nil {
			return nil, err
		}
	}

	base := graph.EdgeAttrs{
		FontSize: 7,
		Dir:      graph.DirBoth,
	}.Merge(opts.Relation)
	base.FontName = font

	for _, t := range included {
		for _, fk := range t.ForeignKeys {
			target, ok := idx.resolve(t, fk)
			if !ok {
				continue
			}
			edge := &graph.Edge{
				From:  idx.nodeID(t),
				To:    idx.nodeID(target),
				Attrs: foreignKeyAttrs(t, target, fk, base),
			}
			if err := g.AddEdge(edge); err != nil {
				return nil, err
			}
		}
	}

	return g, nil
}

// validateTables 校验表描述；在生成任何节点之前完成
func validateTables(tables []adapter.Table) error {
	seen := make(map[string]bool, len(tables))
	for _, t := range tables {
		if strings.TrimSpace(t.Name) == "" {
			return graph.NewInputError("", "name", "table description lacks a name")
		}
		key := qualifiedKey(t.Schema, t.Name)
		if seen[key] {
			return graph.NewInputError(t.Name, "", "duplicate table name")
		}
		seen[key] = true

		for _, fk := range t.ForeignKeys {
			if len(fk.Columns) == 0 {
				return graph.NewInputError(t.Name, fk.Name, "foreign key has no columns")
			}
			if fk.RefTable == "" {
				return graph.NewInputError(t.Name, fk.Name, "foreign key has no target table")
			}
			if len(fk.RefColumns) > 0 && len(fk.RefColumns) != len(fk.Columns) {
				return graph.NewInputError(t.Name, fk.Name, "foreign key has %d columns but references %d", len(fk.Columns), len(fk.RefColumns))
			}
			for _, col := range fk.Columns {
				if _, ok := t.Column(col); !ok {
					return graph.NewInputError(t.Name, col, "foreign key references a column not present in the table")
				}
			}
		}
	}
	return nil
}

// qualifiedKey 不区分大小写的 schema.name
func qualifiedKey(schema, name string) string {
	return strings.ToLower(schema) + "." + strings.ToLower(name)
}

// tableIndex 按表名和限定名查找参与绘图的表
type tableIndex struct {
	byQualified map[string]*adapter.Table
	byName      map[string][]*adapter.Table
}

func newTableIndex(tables []*adapter.Table) *tableIndex {
	idx := &tableIndex{
		byQualified: make(map[string]*adapter.Table, len(tables)),
		byName:      make(map[string][]*adapter.Table, len(tables)),
	}
	for _, t := range tables {
		idx.byQualified[qualifiedKey(t.Schema, t.Name)] = t
		name := strings.ToLower(t.Name)
		idx.byName[name] = append(idx.byName[name], t)
	}
	return idx
}

// nodeID 表名唯一时用表名，多个 schema 下同名时加 schema 前缀
func (idx *tableIndex) nodeID(t *adapter.Table) string {
	if t.Schema != "" && len(idx.byName[strings.ToLower(t.Name)]) > 1 {
		return t.Schema + "." + t.Name
	}
	return t.Name
}

// resolve 查找外键目标表。未写 schema 的外键先在源表所在 schema 中查找，
// 找不到时再按表名查找，表名有歧义则放弃。
func (idx *tableIndex) resolve(src *adapter.Table, fk adapter.ForeignKey) (*adapter.Table, bool) {
	schema := fk.RefSchema
	if schema == "" {
		schema = src.Schema
	}
	if t, ok := idx.byQualified[qualifiedKey(schema, fk.RefTable)]; ok {
		return t, true
	}
	if candidates := idx.byName[strings.ToLower(fk.RefTable)]; len(candidates) == 1 {
		return candidates[0], true
	}
	return nil, false
}

// filterTables 计算参与绘图的表：先按允许列表，再按排除列表，均不区分大小写。
// 列表项可以是表名，也可以是 schema.name
func filterTables(tables []adapter.Table, include, exclude []string) []*adapter.Table {
	allow := lowerSet(include)
	deny := lowerSet(exclude)

	var out []*adapter.Table
	for i := range tables {
		name := strings.ToLower(tables[i].Name)
		qualified := qualifiedKey(tables[i].Schema, tables[i].Name)
		if len(allow) > 0 && !allow[name] && !allow[qualified] {
			continue
		}
		if deny[name] || deny[qualified] {
			continue
		}
		out = append(out, &tables[i])
	}
	return out
}

func lowerSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[strings.ToLower(strings.TrimSpace(n))] = true
	}
	return set
}

// renderTableLabel 表节点标签：表头、列行、可选的索引行
func renderTableLabel(t *adapter.Table, opts SchemaOptions) string {
	pkCols := make(map[string]bool)
	fkCols := make(map[string]bool)
	if opts.ShowColumnKeys {
		for _, c := range t.Columns {
			if c.IsPrimaryKey {
				pkCols[c.Name] = true
			}
		}
		for _, fk := range t.ForeignKeys {
			for _, c := range fk.Columns {
				fkCols[c] = true
			}
		}
	}

	header := formatName(t.Name, opts.TableNameFormat)
	if opts.ShowSchemaName && t.Schema != "" {
		header = formatName(t.Schema, opts.SchemaNameFormat) + "." + header
	}

	tbl := newHTMLTable(`BORDER="1" CELLBORDER="0" CELLSPACING="0"`)
	tbl.row(`ALIGN="CENTER"`, header)
	tbl.separator()

	for _, c := range t.Columns {
		// FK 后缀优先于 PK
		suffix := ""
		switch {
		case fkCols[c.Name]:
			suffix = "(FK)"
		case pkCols[c.Name]:
			suffix = "(PK)"
		}
		text := "- " + c.Name + suffix
		if opts.ShowDatatypes {
			text += " : " + c.DataType
		}
		tbl.row(`ALIGN="LEFT" PORT="`+html.EscapeString(c.Name)+`"`, html.EscapeString(text))
	}

	if opts.ShowIndexes && len(t.Indexes) > 0 {
		tbl.separator()
		for _, idx := range t.Indexes {
			tbl.row(`ALIGN="LEFT"`, html.EscapeString(indexLabel(idx)))
		}
	}

	return tbl.String()
}

// indexLabel 形如 "UNIQUE (a, b)" 或 "INDEX (a)"
func indexLabel(idx adapter.Index) string {
	prefix := "INDEX "
	if idx.Unique {
		prefix = "UNIQUE "
	}
	if i := strings.Index(idx.Definition, "("); i >= 0 {
		return prefix + idx.Definition[i:]
	}
	return prefix + "(" + strings.Join(idx.Columns, ", ") + ")"
}

// foreignKeyAttrs 外键边属性：两个主键之间的外键视为表继承，不画空心圆头
func foreignKeyAttrs(src, dst *adapter.Table, fk adapter.ForeignKey, base graph.EdgeAttrs) graph.EdgeAttrs {
	srcKey := allColumns(src, fk.Columns, func(c adapter.Column) bool { return c.IsPrimaryKey })
	srcUnique := len(fk.Columns) == 1 && allColumns(src, fk.Columns, func(c adapter.Column) bool { return c.IsUnique })
	dstKey := len(fk.RefColumns) > 0 && allColumns(dst, fk.RefColumns, func(c adapter.Column) bool { return c.IsPrimaryKey })

	attrs := base
	attrs.TailLabel = "+ " + strings.Join(fk.Columns, ", ")
	if len(fk.RefColumns) > 0 {
		attrs.HeadLabel = "+ " + strings.Join(fk.RefColumns, ", ")
	}

	attrs.ArrowHead = graph.ArrowODot
	if srcKey && dstKey {
		attrs.ArrowHead = graph.ArrowNone
	}
	attrs.ArrowTail = graph.ArrowCrow
	if srcKey || srcUnique {
		attrs.ArrowTail = graph.ArrowEmpty
	}

	if fk.Inferred && attrs.Style == "" {
		attrs.Style = "dashed"
	}

	return attrs
}

func allColumns(t *adapter.Table, names []string, pred func(adapter.Column) bool) bool {
	for _, n := range names {
		c, ok := t.Column(n)
		if !ok || !pred(c) {
			return false
		}
	}
	return true
}
