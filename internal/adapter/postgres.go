package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresAdapter PostgreSQL 适配器
type PostgresAdapter struct {
	pool   *pgxpool.Pool
	schema string
}

// NewPostgresAdapter 创建 PostgreSQL 适配器
func NewPostgresAdapter(ctx context.Context, connStr, schema string) (*PostgresAdapter, error) {
	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}
	return &PostgresAdapter{pool: pool, schema: schema}, nil
}

// IntrospectSchema 获取元数据
func (a *PostgresAdapter) IntrospectSchema(ctx context.Context) (*SchemaMetadata, error) {
	tables, err := a.getTables(ctx)
	if err != nil {
		return nil, err
	}

	for i := range tables {
		columns, err := a.getColumns(ctx, tables[i].Name)
		if err != nil {
			return nil, fmt.Errorf("failed to get columns for %s: %w", tables[i].Name, err)
		}
		tables[i].Columns = columns
	}

	fks, err := a.getForeignKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get foreign keys: %w", err)
	}
	attachForeignKeys(tables, fks)

	// information_schema 不包含索引，从 pg_indexes 读取定义
	if err := a.attachIndexDefinitions(ctx, tables); err != nil {
		return nil, fmt.Errorf("failed to get indexes: %w", err)
	}
	markUnique(tables)

	return &SchemaMetadata{Tables: tables}, nil
}

func (a *PostgresAdapter) getTables(ctx context.Context) ([]Table, error) {
	query := `
		SELECT table_name::text
		FROM information_schema.tables 
		WHERE table_schema = $1 
		AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`
	rows, err := a.pool.Query(ctx, query, a.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		t := Table{Schema: a.schema}
		if err := rows.Scan(&t.Name); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (a *PostgresAdapter) getColumns(ctx context.Context, table string) ([]Column, error) {
	query := `
		SELECT
			c.column_name::text,
			c.data_type::text,
			COALESCE(c.character_maximum_length, 0)::int,
			c.is_nullable = 'YES',
			pk.column_name IS NOT NULL
		FROM information_schema.columns c
		LEFT JOIN (
			SELECT kcu.table_schema, kcu.table_name, kcu.column_name
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage kcu 
				ON tc.constraint_name = kcu.constraint_name
				AND tc.table_schema = kcu.table_schema
			WHERE tc.constraint_type = 'PRIMARY KEY'
		) pk ON c.table_schema = pk.table_schema
			AND c.table_name = pk.table_name
			AND c.column_name = pk.column_name
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position
	`
	rows, err := a.pool.Query(ctx, query, a.schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var c Column
		var length int32
		if err := rows.Scan(&c.Name, &c.DataType, &length, &c.Nullable, &c.IsPrimaryKey); err != nil {
			return nil, err
		}
		c.Length = int(length)
		columns = append(columns, c)
	}
	return columns, rows.Err()
}

// getForeignKeys 从 pg_constraint 读取外键，conkey/confkey 按位置配对
func (a *PostgresAdapter) getForeignKeys(ctx context.Context) ([]fkRow, error) {
	query := `
		SELECT
			cl.relname::text,
			con.conname::text,
			att.attname::text,
			rns.nspname::text,
			rcl.relname::text,
			ratt.attname::text
		FROM pg_constraint con
		JOIN pg_class cl ON cl.oid = con.conrelid
		JOIN pg_namespace ns ON ns.oid = cl.relnamespace
		JOIN pg_class rcl ON rcl.oid = con.confrelid
		JOIN pg_namespace rns ON rns.oid = rcl.relnamespace
		CROSS JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS k(attnum, refattnum, ord)
		JOIN pg_attribute att ON att.attrelid = con.conrelid AND att.attnum = k.attnum
		JOIN pg_attribute ratt ON ratt.attrelid = con.confrelid AND ratt.attnum = k.refattnum
		WHERE con.contype = 'f' AND ns.nspname = $1
		ORDER BY cl.relname, con.conname, k.ord
	`
	rows, err := a.pool.Query(ctx, query, a.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []fkRow
	for rows.Next() {
		r := fkRow{schema: a.schema}
		if err := rows.Scan(&r.table, &r.constraint, &r.column, &r.refSchema, &r.refTable, &r.refColumn); err != nil {
			return nil, err
		}
		fks = append(fks, r)
	}
	return fks, rows.Err()
}

func (a *PostgresAdapter) attachIndexDefinitions(ctx context.Context, tables []Table) error {
	query := `
		SELECT tablename::text, indexname::text, indexdef
		FROM pg_indexes
		WHERE schemaname = $1
		ORDER BY tablename, indexname
	`
	rows, err := a.pool.Query(ctx, query, a.schema)
	if err != nil {
		return err
	}
	defer rows.Close()

	byTable := byKey(tables)
	for rows.Next() {
		var table, name, def string
		if err := rows.Scan(&table, &name, &def); err != nil {
			return err
		}
		t, ok := byTable[tableKey(a.schema, table)]
		if !ok {
			continue
		}
		t.Indexes = append(t.Indexes, ParseIndexDefinition(name, def))
	}
	return rows.Err()
}

// ParseIndexDefinition 解析 "CREATE [UNIQUE] INDEX ... (a, b)" 形式的索引定义
func ParseIndexDefinition(name, def string) Index {
	idx := Index{
		Name:       name,
		Definition: def,
		Unique:     strings.Contains(strings.ToUpper(def), "UNIQUE"),
	}
	open := strings.Index(def, "(")
	end := strings.LastIndex(def, ")")
	if open < 0 || end <= open {
		return idx
	}
	for _, part := range strings.Split(def[open+1:end], ",") {
		if col := strings.Trim(strings.TrimSpace(part), `"`); col != "" {
			idx.Columns = append(idx.Columns, col)
		}
	}
	return idx
}

// Close 关闭连接
func (a *PostgresAdapter) Close() error {
	a.pool.Close()
	return nil
}
