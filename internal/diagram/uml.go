package diagram

import (
	"html"
	"math"
	"strconv"
	"strings"

	"schema-display/internal/graph"
	"schema-display/internal/mapping"
)

// BuildUMLGraph 把映射类转换为 UML 类图：每个类一个节点，
// 继承画泛化边，关系属性画关联边。映射集合视为封闭，引用未知类直接报错。
func BuildUMLGraph(mappings []mapping.Mapping, opts UMLOptions) (*graph.Graph, error) {
	if err := validateOptions(opts); err != nil {
		return nil, err
	}
	byName, err := indexMappings(mappings)
	if err != nil {
		return nil, err
	}

	font := fontOrDefault(opts.Font)
	lineWidth := opts.LineWidth
	if lineWidth == 0 {
		lineWidth = 1.0
	}
	lineStyle := "setlinewidth(" + strconv.FormatFloat(lineWidth, 'f', -1, 64) + ")"

	g := graph.New("uml", "neato", graph.GraphAttrs{
		Mode:    "major",
		Overlap: "0",
		Sep:     "0.01",
		Dim:     3,
		Pack:    graph.Bool(true),
		Ratio:   ".75",
	})

	for i := range mappings {
		m := &mappings[i]
		var inherited map[string]bool
		if opts.SkipInherited {
			inherited = ancestorAttributes(m, byName)
		}
		node := &graph.Node{
			ID: m.Name,
			Attrs: graph.NodeAttrs{
				Shape:    graph.ShapePlaintext,
				Label:    graph.HTMLLabel(renderClassLabel(m, inherited, opts, lineWidth)),
				FontName: font,
				FontSize: 8,
			},
		}
		if err := g.AddNode(node); err != nil {
			return nil, err
		}
	}

	paired := make(map[string]bool)
	for i := range mappings {
		m := &mappings[i]
		if m.Parent != "" {
			err := g.AddEdge(&graph.Edge{
				From: m.Name,
				To:   m.Parent,
				Attrs: graph.EdgeAttrs{
					ArrowHead: graph.ArrowEmpty,
					ArrowTail: graph.ArrowNone,
					Style:     lineStyle,
					ArrowSize: lineWidth,
				},
			})
			if err != nil {
				return nil, err
			}
		}

		var inheritedRels map[string]bool
		if opts.SkipInherited {
			inheritedRels = ancestorRelationships(m, byName)
		}
		for _, rel := range m.Relationships {
			if inheritedRels[rel.Name] {
				continue
			}
			key := relKey(m.Name, rel.Name)
			if paired[key] {
				continue
			}
			attrs := graph.EdgeAttrs{
				HeadLabel: relLabel(rel, opts.ShowMultiplicityOne),
				ArrowHead: graph.ArrowVee,
				ArrowTail: graph.ArrowNone,
				Dir:       graph.DirBoth,
				Style:     lineStyle,
				ArrowSize: lineWidth,
				FontName:  font,
				FontSize:  7,
			}
			// 双向关系只画一条边：两端各标一个角色名，不画箭头，也不参与布局约束
			if rev, ok := reverseOf(rel, m.Name, byName); ok {
				paired[key] = true
				paired[relKey(rel.Target, rev.Name)] = true
				attrs.TailLabel = relLabel(rev, opts.ShowMultiplicityOne)
				attrs.ArrowHead = graph.ArrowNone
				attrs.Constraint = graph.Bool(false)
			}
			if err := g.AddEdge(&graph.Edge{From: m.Name, To: rel.Target, Attrs: attrs}); err != nil {
				return nil, err
			}
		}
	}

	return g, nil
}

// indexMappings 校验映射并按类名建立索引
func indexMappings(mappings []mapping.Mapping) (map[string]*mapping.Mapping, error) {
	byName := make(map[string]*mapping.Mapping, len(mappings))
	for i := range mappings {
		m := &mappings[i]
		if strings.TrimSpace(m.Name) == "" {
			return nil, graph.NewInputError("", "name", "class mapping lacks a name")
		}
		if _, exists := byName[m.Name]; exists {
			return nil, graph.NewInputError(m.Name, "", "duplicate class name")
		}
		byName[m.Name] = m
	}

	for i := range mappings {
		m := &mappings[i]
		for _, a := range m.Attributes {
			if a.Name == "" {
				return nil, graph.NewInputError(m.Name, "attributes", "attribute lacks a name")
			}
		}
		if m.Parent != "" {
			if _, ok := byName[m.Parent]; !ok {
				return nil, graph.NewInputError(m.Name, "parent", "parent class %q is not among the mappings", m.Parent)
			}
		}
		for _, rel := range m.Relationships {
			if rel.Name == "" {
				return nil, graph.NewInputError(m.Name, "relationships", "relationship lacks a name")
			}
			if _, ok := byName[rel.Target]; !ok {
				return nil, graph.NewInputError(m.Name, rel.Name, "target class %q is not among the mappings", rel.Target)
			}
		}
	}

	// 继承链不能成环
	for i := range mappings {
		seen := map[string]bool{mappings[i].Name: true}
		for p := mappings[i].Parent; p != ""; p = byName[p].Parent {
			if seen[p] {
				return nil, graph.NewInputError(mappings[i].Name, "parent", "inheritance cycle through %q", p)
			}
			seen[p] = true
		}
	}
	return byName, nil
}

// ancestorAttributes 沿父类链收集所有祖先声明的属性名
func ancestorAttributes(m *mapping.Mapping, byName map[string]*mapping.Mapping) map[string]bool {
	names := make(map[string]bool)
	for p := m.Parent; p != ""; p = byName[p].Parent {
		for _, a := range byName[p].Attributes {
			names[a.Name] = true
		}
	}
	return names
}

// ancestorRelationships 沿父类链收集所有祖先声明的关系名
func ancestorRelationships(m *mapping.Mapping, byName map[string]*mapping.Mapping) map[string]bool {
	names := make(map[string]bool)
	for p := m.Parent; p != ""; p = byName[p].Parent {
		for _, r := range byName[p].Relationships {
			names[r.Name] = true
		}
	}
	return names
}

func relKey(owner, name string) string {
	return owner + "." + name
}

func relLabel(rel mapping.Relationship, showOne bool) string {
	return "+" + rel.Name + multiplicityIndicator(rel.Multiplicity, showOne)
}

// reverseOf 查找目标类中指回 owner 的反向关系，任意一端声明 backref 即可配对
func reverseOf(rel mapping.Relationship, owner string, byName map[string]*mapping.Mapping) (mapping.Relationship, bool) {
	for _, r := range byName[rel.Target].Relationships {
		if r.Target != owner {
			continue
		}
		if rel.Target == owner && r.Name == rel.Name {
			continue
		}
		if (rel.Backref != "" && r.Name == rel.Backref) || (r.Backref != "" && r.Backref == rel.Name) {
			return r, true
		}
	}
	return mapping.Relationship{}, false
}

// multiplicityIndicator many 和 0..1 总是显示，1 仅在 showOne 时显示
func multiplicityIndicator(m mapping.Multiplicity, showOne bool) string {
	switch m {
	case mapping.Many:
		return " *"
	case mapping.ZeroOrOne:
		return " 0..1"
	}
	if showOne {
		return " 1"
	}
	return ""
}

// renderClassLabel 类节点标签：类名、属性区、可选的方法区
func renderClassLabel(m *mapping.Mapping, inherited map[string]bool, opts UMLOptions, lineWidth float64) string {
	border := int(math.Max(1, math.Round(lineWidth)))
	tbl := newHTMLTable(`CELLSPACING="0" CELLPADDING="1" BORDER="0" CELLBORDER="` + strconv.Itoa(border) + `" ALIGN="LEFT"`)
	tbl.row("", `<FONT POINT-SIZE="10">`+html.EscapeString(m.Name)+`</FONT>`)

	if opts.ShowAttributes {
		var lines []string
		for _, a := range m.Attributes {
			if inherited[a.Name] {
				continue
			}
			line := "+" + a.Name
			if opts.ShowDatatypes && a.Type != "" {
				line += " : " + a.Type
			}
			lines = append(lines, html.EscapeString(line))
		}
		tbl.row(`ALIGN="LEFT"`, leftLines(lines))
	}

	if opts.ShowOperations {
		var lines []string
		for _, op := range m.Operations {
			lines = append(lines, html.EscapeString(formatOperation(op)))
		}
		tbl.row(`ALIGN="LEFT"`, leftLines(lines))
	}

	return tbl.String()
}

func formatOperation(op mapping.Operation) string {
	params := make([]string, 0, len(op.Params))
	for _, p := range op.Params {
		if p.Default != "" {
			params = append(params, p.Name+"="+p.Default)
		} else {
			params = append(params, p.Name)
		}
	}
	return op.Name + "(" + strings.Join(params, ", ") + ")"
}
