package renderer

import (
	"fmt"
	"strings"

	"schema-display/internal/adapter"
)

// MarkdownRenderer Markdown 数据字典渲染器
type MarkdownRenderer struct{}

// NewMarkdownRenderer 创建渲染器
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// Render 渲染为 Markdown 格式
func (m *MarkdownRenderer) Render(tables []adapter.Table) string {
	var sb strings.Builder

	sb.WriteString("# 数据库结构文档\n\n")
	sb.WriteString("## 表结构\n\n")

	// 输出每个表
	for i := range tables {
		t := &tables[i]
		name := t.Name
		if t.Schema != "" {
			name = t.Schema + "." + t.Name
		}
		sb.WriteString(fmt.Sprintf("### %s\n\n", name))

		// 表头
		sb.WriteString("| 列名 | 类型 | 长度 | 可空 | 主键 | 唯一 |\n")
		sb.WriteString("|------|------|------|------|------|------|\n")

		// 列信息
		for _, col := range t.Columns {
			nullable := "否"
			if col.Nullable {
				nullable = "是"
			}
			pk := ""
			if col.IsPrimaryKey {
				pk = "✓"
			}
			unique := ""
			if col.IsUnique {
				unique = "✓"
			}
			length := ""
			if col.Length > 0 {
				length = fmt.Sprintf("%d", col.Length)
			}

			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s |\n",
				col.Name, col.DataType, length, nullable, pk, unique))
		}

		sb.WriteString("\n")

		m.renderIndexes(&sb, t)
		m.renderTableRelations(&sb, tables, t.Name)
	}

	return sb.String()
}

// renderIndexes 渲染索引
func (m *MarkdownRenderer) renderIndexes(sb *strings.Builder, t *adapter.Table) {
	if len(t.Indexes) == 0 {
		return
	}

	sb.WriteString("#### 索引\n\n")
	for _, idx := range t.Indexes {
		kind := "普通"
		if idx.Unique {
			kind = "唯一"
		}
		sb.WriteString(fmt.Sprintf("- `%s` (%s): %s\n", idx.Name, kind, strings.Join(idx.Columns, ", ")))
	}
	sb.WriteString("\n")
}

// renderTableRelations 渲染表关系，包括引用本表的外键
func (m *MarkdownRenderer) renderTableRelations(sb *strings.Builder, tables []adapter.Table, tableName string) {
	type relation struct {
		from string
		fk   adapter.ForeignKey
	}
	var relations []relation

	for _, t := range tables {
		for _, fk := range t.ForeignKeys {
			if strings.EqualFold(t.Name, tableName) || strings.EqualFold(fk.RefTable, tableName) {
				relations = append(relations, relation{from: t.Name, fk: fk})
			}
		}
	}

	if len(relations) == 0 {
		return
	}

	sb.WriteString("#### 关系\n\n")

	for _, rel := range relations {
		relType := "外键"
		if rel.fk.Inferred {
			relType = "推断外键"
		}

		sb.WriteString(fmt.Sprintf("- **%s** `%s(%s)` → `%s(%s)`\n",
			relType,
			rel.from, strings.Join(rel.fk.Columns, ", "),
			rel.fk.RefTable, strings.Join(rel.fk.RefColumns, ", ")))
	}

	sb.WriteString("\n")
}
