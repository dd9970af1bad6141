package renderer

import (
	"fmt"
	"strings"

	"schema-display/internal/adapter"
)

// MermaidRenderer Mermaid ER 图渲染器
type MermaidRenderer struct{}

// NewMermaidRenderer 创建渲染器
func NewMermaidRenderer() *MermaidRenderer {
	return &MermaidRenderer{}
}

// Render 渲染为 Mermaid 格式，表和关系按输入顺序输出
func (m *MermaidRenderer) Render(tables []adapter.Table) string {
	var sb strings.Builder

	sb.WriteString("erDiagram\n")

	known := make(map[string]bool, len(tables))
	for _, t := range tables {
		known[strings.ToLower(t.Name)] = true
	}

	// 输出表定义
	for _, t := range tables {
		fkCols := make(map[string]bool)
		for _, fk := range t.ForeignKeys {
			for _, c := range fk.Columns {
				fkCols[c] = true
			}
		}

		sb.WriteString(fmt.Sprintf("    %s {\n", mermaidName(t.Name)))
		for _, col := range t.Columns {
			var keys []string
			if col.IsPrimaryKey {
				keys = append(keys, "PK")
			}
			if fkCols[col.Name] {
				keys = append(keys, "FK")
			}
			if col.IsUnique && !col.IsPrimaryKey {
				keys = append(keys, "UK")
			}
			key := ""
			if len(keys) > 0 {
				key = " " + strings.Join(keys, ",")
			}
			sb.WriteString(fmt.Sprintf("        %s %s%s\n", mermaidName(dataTypeOrUnknown(col.DataType)), mermaidName(col.Name), key))
		}
		sb.WriteString("    }\n")
	}

	sb.WriteString("\n")

	// 渲染关系
	for _, t := range tables {
		for _, fk := range t.ForeignKeys {
			if !known[strings.ToLower(fk.RefTable)] {
				continue
			}

			// 关系类型
			relType := "||--o{"
			if fk.Inferred {
				relType = "||..o{" // 虚线表示推断关系
			}

			label := fmt.Sprintf("%q", strings.Join(fk.Columns, ", "))
			sb.WriteString(fmt.Sprintf("    %s %s %s : %s\n",
				mermaidName(fk.RefTable), relType, mermaidName(t.Name), label))
		}
	}

	return sb.String()
}

// mermaidName Mermaid 标识符不允许空白和括号
func mermaidName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '(', ')', ',', '.':
			return '_'
		}
		return r
	}, s)
}

func dataTypeOrUnknown(t string) string {
	if t == "" {
		return "unknown"
	}
	return t
}
