// Package analyzer 在没有声明外键约束的库上推断表间关系。
package analyzer

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"

	"schema-display/internal/adapter"
)

// DefaultThreshold 默认置信度阈值
const DefaultThreshold = 0.5

// Evidence 推断依据
type Evidence struct {
	Type        string  `json:"type"`
	Score       float64 `json:"score"`
	Description string  `json:"description"`
	Details     string  `json:"details,omitempty"`
}

// Candidate 推断出的外键候选
type Candidate struct {
	Table      string     `json:"table"`
	Column     string     `json:"column"`
	RefTable   string     `json:"ref_table"`
	RefColumn  string     `json:"ref_column"`
	Confidence float64    `json:"confidence"`
	Evidence   []Evidence `json:"evidence"`
}

// RelationshipInferer 关系推断器
type RelationshipInferer struct {
	Threshold float64
	// Progress 每完成一批比较回调一次，可为 nil
	Progress func(done, total int)
}

// NewRelationshipInferer 创建推断器
func NewRelationshipInferer() *RelationshipInferer {
	return &RelationshipInferer{Threshold: DefaultThreshold}
}

// InferRelationships 推断表间关系，每个非主键列最多保留一个置信度最高的候选。
// 已被声明外键覆盖的列不参与推断。
func (r *RelationshipInferer) InferRelationships(tables []adapter.Table) []Candidate {
	threshold := r.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	// 只与单列主键比较
	type target struct {
		table *adapter.Table
		pk    adapter.Column
	}
	var targets []target
	for i := range tables {
		pks := tables[i].PrimaryKeys()
		if len(pks) != 1 {
			continue
		}
		col, _ := tables[i].Column(pks[0])
		targets = append(targets, target{table: &tables[i], pk: col})
	}

	total := 0
	for i := range tables {
		total += len(sourceColumns(&tables[i])) * len(targets)
	}

	var candidates []Candidate
	done := 0
	for i := range tables {
		from := &tables[i]
		for _, col := range sourceColumns(from) {
			var best *Candidate
			for _, to := range targets {
				done++
				if r.Progress != nil && (done%100 == 0 || done == total) {
					r.Progress(done, total)
				}
				if strings.EqualFold(from.Name, to.table.Name) {
					continue
				}
				c := r.calculateRelationship(from.Name, col, to.table.Name, to.pk)
				if c == nil || c.Confidence < threshold {
					continue
				}
				if best == nil || c.Confidence > best.Confidence {
					best = c
				}
			}
			if best != nil {
				candidates = append(candidates, *best)
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})
	return candidates
}

// Apply 推断并把候选作为 Inferred 外键追加到所属表上，返回追加的数量
func (r *RelationshipInferer) Apply(tables []adapter.Table) int {
	candidates := r.InferRelationships(tables)
	byName := make(map[string]*adapter.Table, len(tables))
	for i := range tables {
		byName[tables[i].Name] = &tables[i]
	}
	for _, c := range candidates {
		t := byName[c.Table]
		t.ForeignKeys = append(t.ForeignKeys, adapter.ForeignKey{
			Name:       fmt.Sprintf("inferred_%s_%s", c.Table, c.Column),
			Columns:    []string{c.Column},
			RefTable:   c.RefTable,
			RefColumns: []string{c.RefColumn},
			Inferred:   true,
		})
	}
	return len(candidates)
}

// sourceColumns 可能是外键的列：非主键且未被声明外键覆盖
func sourceColumns(t *adapter.Table) []adapter.Column {
	declared := make(map[string]bool)
	for _, fk := range t.ForeignKeys {
		for _, c := range fk.Columns {
			declared[c] = true
		}
	}
	var cols []adapter.Column
	for _, c := range t.Columns {
		if c.IsPrimaryKey || declared[c.Name] {
			continue
		}
		cols = append(cols, c)
	}
	return cols
}

// calculateRelationship 计算两列之间的关系
func (r *RelationshipInferer) calculateRelationship(
	fromTable string, fromCol adapter.Column,
	toTable string, toCol adapter.Column,
) *Candidate {
	var evidences []Evidence
	totalScore := 0.0

	// 1. 类型必须兼容 (权重 0.2)
	typeScore := r.calculateTypeMatch(fromCol, toCol)
	if typeScore == 0 {
		return nil
	}
	evidences = append(evidences, Evidence{
		Type:        "type_match",
		Score:       typeScore,
		Description: "数据类型匹配",
		Details:     fmt.Sprintf("%s(%d) ↔ %s(%d)", fromCol.DataType, fromCol.Length, toCol.DataType, toCol.Length),
	})
	totalScore += typeScore * 0.2

	// 2. 列名相似度 (权重 0.3)
	nameScore := r.calculateNameSimilarity(fromCol.Name, toCol.Name)
	if nameScore > 0.3 {
		evidences = append(evidences, Evidence{
			Type:        "naming_similarity",
			Score:       nameScore,
			Description: "列名相似度",
			Details:     fmt.Sprintf("%s ↔ %s (%.2f)", fromCol.Name, toCol.Name, nameScore),
		})
		totalScore += nameScore * 0.3
	}

	// 3. 列名指向目标表 (权重 0.5)，如 user_id -> users
	tableScore := r.calculateTableReference(fromCol.Name, toTable)
	if tableScore > 0 {
		evidences = append(evidences, Evidence{
			Type:        "table_reference",
			Score:       tableScore,
			Description: "列名引用目标表",
			Details:     fmt.Sprintf("%s → %s (%.2f)", fromCol.Name, toTable, tableScore),
		})
		totalScore += tableScore * 0.5
	}

	if len(evidences) < 2 {
		return nil
	}

	return &Candidate{
		Table:      fromTable,
		Column:     fromCol.Name,
		RefTable:   toTable,
		RefColumn:  toCol.Name,
		Confidence: totalScore,
		Evidence:   evidences,
	}
}

// calculateNameSimilarity 计算命名相似度
func (r *RelationshipInferer) calculateNameSimilarity(name1, name2 string) float64 {
	n1 := strings.ToLower(name1)
	n2 := strings.ToLower(name2)

	// 完全匹配
	if n1 == n2 {
		return 1.0
	}

	// 包含关系
	if strings.Contains(n1, n2) || strings.Contains(n2, n1) {
		return 0.8
	}

	return levenshteinSimilarity(n1, n2)
}

// calculateTableReference 去掉 _id 后缀的列名与表名（含单数形式）的相似度
func (r *RelationshipInferer) calculateTableReference(column, table string) float64 {
	stem := strings.ToLower(column)
	for _, suffix := range []string{"_id", "_fk", "id"} {
		if strings.HasSuffix(stem, suffix) && len(stem) > len(suffix) {
			stem = strings.TrimSuffix(stem, suffix)
			break
		}
	}
	stem = strings.TrimSuffix(stem, "_")
	if stem == "" || stem == strings.ToLower(column) {
		return 0
	}

	name := strings.ToLower(table)
	singular := strings.TrimSuffix(name, "s")
	if stem == name || stem == singular {
		return 1.0
	}
	return math.Max(levenshteinSimilarity(stem, name), levenshteinSimilarity(stem, singular))
}

func levenshteinSimilarity(n1, n2 string) float64 {
	maxLen := math.Max(float64(len(n1)), float64(len(n2)))
	if maxLen == 0 {
		return 0
	}

	distance := levenshtein.DistanceForStrings([]rune(n1), []rune(n2), levenshtein.DefaultOptions)
	similarity := 1.0 - float64(distance)/maxLen

	if similarity > 0.7 {
		return similarity
	}
	return 0
}

// calculateTypeMatch 计算类型匹配度
func (r *RelationshipInferer) calculateTypeMatch(col1, col2 adapter.Column) float64 {
	// 类型必须兼容
	if !r.isTypeCompatible(col1.DataType, col2.DataType) {
		return 0
	}

	// 长度匹配
	if col1.Length > 0 && col2.Length > 0 {
		if col1.Length == col2.Length {
			return 1.0
		}
		// 长度接近
		ratio := float64(min(col1.Length, col2.Length)) / float64(max(col1.Length, col2.Length))
		if ratio > 0.8 {
			return 0.8
		}
	}

	return 0.6 // 类型兼容但长度不确定
}

var typeGroups = map[string]string{
	"varchar": "string", "nvarchar": "string", "char": "string", "nchar": "string",
	"text": "string", "character varying": "string", "character": "string",
	"int": "integer", "integer": "integer", "bigint": "integer", "smallint": "integer",
	"tinyint": "integer", "mediumint": "integer", "int4": "integer", "int8": "integer",
	"serial": "integer", "bigserial": "integer",
	"uuid": "uuid", "uniqueidentifier": "uuid",
}

// isTypeCompatible 判断类型是否兼容，int(11) 之类的长度修饰被忽略
func (r *RelationshipInferer) isTypeCompatible(type1, type2 string) bool {
	t1 := baseType(type1)
	t2 := baseType(type2)

	// 完全匹配
	if t1 == t2 {
		return true
	}

	g1, ok1 := typeGroups[t1]
	g2, ok2 := typeGroups[t2]
	return ok1 && ok2 && g1 == g2
}

func baseType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	if i := strings.Index(t, "("); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	return strings.TrimSuffix(t, " unsigned")
}
