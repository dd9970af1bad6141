package adapter

import (
	"context"
	"fmt"
	"strings"
)

// DBAdapter 数据库适配器接口
type DBAdapter interface {
	// IntrospectSchema 获取元数据
	IntrospectSchema(ctx context.Context) (*SchemaMetadata, error)

	// Close 关闭连接
	Close() error
}

// SchemaMetadata 元数据
type SchemaMetadata struct {
	Tables []Table `json:"tables" yaml:"tables"`
}

// Table 表信息
type Table struct {
	Schema      string       `json:"schema,omitempty" yaml:"schema,omitempty"`
	Name        string       `json:"name" yaml:"name"`
	Columns     []Column     `json:"columns" yaml:"columns"`
	ForeignKeys []ForeignKey `json:"foreign_keys,omitempty" yaml:"foreign_keys,omitempty"`
	Indexes     []Index      `json:"indexes,omitempty" yaml:"indexes,omitempty"`
}

// Column 列信息
type Column struct {
	Name         string `json:"name" yaml:"name"`
	DataType     string `json:"type" yaml:"type"`
	Length       int    `json:"length,omitempty" yaml:"length,omitempty"`
	Nullable     bool   `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	IsPrimaryKey bool   `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`
	IsUnique     bool   `json:"unique,omitempty" yaml:"unique,omitempty"`
}

// Index 索引信息
type Index struct {
	Name       string   `json:"name" yaml:"name"`
	Columns    []string `json:"columns" yaml:"columns"`
	Unique     bool     `json:"unique,omitempty" yaml:"unique,omitempty"`
	Definition string   `json:"definition,omitempty" yaml:"definition,omitempty"` // 原始定义，如 pg_indexes.indexdef
}

// ForeignKey 外键约束，Columns 与 RefColumns 按位置一一对应
type ForeignKey struct {
	Name       string   `json:"name,omitempty" yaml:"name,omitempty"`
	Columns    []string `json:"columns" yaml:"columns"`
	RefSchema  string   `json:"ref_schema,omitempty" yaml:"ref_schema,omitempty"`
	RefTable   string   `json:"ref_table" yaml:"ref_table"`
	RefColumns []string `json:"ref_columns" yaml:"ref_columns"`
	Inferred   bool     `json:"inferred,omitempty" yaml:"inferred,omitempty"` // 推断外键
}

// Column 按名称查找列
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// PrimaryKeys 主键列名
func (t *Table) PrimaryKeys() []string {
	var keys []string
	for _, c := range t.Columns {
		if c.IsPrimaryKey {
			keys = append(keys, c.Name)
		}
	}
	return keys
}

// FindTable 按名称查找表（不区分大小写）
func (m *SchemaMetadata) FindTable(name string) *Table {
	for i := range m.Tables {
		if strings.EqualFold(m.Tables[i].Name, name) {
			return &m.Tables[i]
		}
	}
	return nil
}

// Open 根据数据库类型创建适配器
func Open(ctx context.Context, dbType, connStr, schema string) (DBAdapter, error) {
	switch dbType {
	case "sqlserver":
		if schema == "" {
			schema = "dbo"
		}
		return NewSQLServerAdapter(ctx, connStr, schema)
	case "mysql":
		if schema == "" {
			return nil, fmt.Errorf("MySQL 需要指定 schema")
		}
		return NewMySQLAdapter(ctx, connStr, schema)
	case "postgres":
		if schema == "" {
			schema = "public"
		}
		return NewPostgresAdapter(ctx, connStr, schema)
	case "file":
		return NewFileAdapter(connStr), nil
	default:
		return nil, fmt.Errorf("不支持的数据库类型: %s", dbType)
	}
}

// tableKey 表的限定名，不同 schema 下的同名表互不干扰
func tableKey(schema, name string) string {
	return schema + "." + name
}

// byKey 按限定名索引表
func byKey(tables []Table) map[string]*Table {
	m := make(map[string]*Table, len(tables))
	for i := range tables {
		m[tableKey(tables[i].Schema, tables[i].Name)] = &tables[i]
	}
	return m
}

// attachForeignKeys 把外键行按约束名分组后挂到对应表上
func attachForeignKeys(tables []Table, rows []fkRow) {
	byTable := byKey(tables)
	index := make(map[string]int)
	for _, r := range rows {
		t, ok := byTable[tableKey(r.schema, r.table)]
		if !ok {
			continue
		}
		key := tableKey(r.schema, r.table) + "." + r.constraint
		if i, exists := index[key]; exists {
			fk := &t.ForeignKeys[i]
			fk.Columns = append(fk.Columns, r.column)
			fk.RefColumns = append(fk.RefColumns, r.refColumn)
			continue
		}
		index[key] = len(t.ForeignKeys)
		t.ForeignKeys = append(t.ForeignKeys, ForeignKey{
			Name:       r.constraint,
			Columns:    []string{r.column},
			RefSchema:  r.refSchema,
			RefTable:   r.refTable,
			RefColumns: []string{r.refColumn},
		})
	}
}

// attachIndexes 把索引行按索引名分组后挂到对应表上
func attachIndexes(tables []Table, rows []indexRow) {
	byTable := byKey(tables)
	index := make(map[string]int)
	for _, r := range rows {
		t, ok := byTable[tableKey(r.schema, r.table)]
		if !ok {
			continue
		}
		key := tableKey(r.schema, r.table) + "." + r.name
		if i, exists := index[key]; exists {
			t.Indexes[i].Columns = append(t.Indexes[i].Columns, r.column)
			continue
		}
		index[key] = len(t.Indexes)
		t.Indexes = append(t.Indexes, Index{
			Name:    r.name,
			Columns: []string{r.column},
			Unique:  r.unique,
		})
	}
}

// markUnique 单列唯一索引对应的列标记为唯一
func markUnique(tables []Table) {
	for i := range tables {
		t := &tables[i]
		for _, idx := range t.Indexes {
			if !idx.Unique || len(idx.Columns) != 1 {
				continue
			}
			for j := range t.Columns {
				if t.Columns[j].Name == idx.Columns[0] {
					t.Columns[j].IsUnique = true
				}
			}
		}
	}
}

type fkRow struct {
	schema     string
	table      string
	constraint string
	column     string
	refSchema  string
	refTable   string
	refColumn  string
}

type indexRow struct {
	schema string
	table  string
	name   string
	column string
	unique bool
}
