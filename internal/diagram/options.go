package diagram

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"schema-display/internal/graph"
)

// DefaultFont 默认字体
const DefaultFont = "Bitstream-Vera Sans"

var validate = validator.New()

// NameFormat 表名/Schema 名的字体格式
type NameFormat struct {
	Color    string  `json:"color,omitempty" yaml:"color,omitempty" validate:"omitempty,hexcolor"`
	FontSize float64 `json:"fontsize,omitempty" yaml:"fontsize,omitempty" validate:"gte=0"`
	Bold     bool    `json:"bold,omitempty" yaml:"bold,omitempty"`
	Italic   bool    `json:"italic,omitempty" yaml:"italic,omitempty"`
}

// SchemaOptions ER 图选项
type SchemaOptions struct {
	IncludeTables    []string        `json:"include_tables,omitempty"` // 为空表示全部
	ExcludeTables    []string        `json:"exclude_tables,omitempty"`
	ShowDatatypes    bool            `json:"show_datatypes"`
	ShowIndexes      bool            `json:"show_indexes"`
	ShowColumnKeys   bool            `json:"show_column_keys"` // 列名后加 (PK)/(FK)
	ShowSchemaName   bool            `json:"show_schema_name"`
	SchemaNameFormat *NameFormat     `json:"schema_name_format,omitempty"`
	TableNameFormat  *NameFormat     `json:"table_name_format,omitempty"`
	RankDir          graph.RankDir   `json:"rankdir,omitempty" validate:"omitempty,oneof=TB BT LR RL"`
	Concentrate      bool            `json:"concentrate"`
	Font             string          `json:"font,omitempty"`
	DPI              float64         `json:"dpi,omitempty" validate:"gte=0"`
	Sep              string          `json:"sep,omitempty"`
	Relation         graph.EdgeAttrs `json:"relation,omitempty"` // 覆盖外键边的默认样式
}

// DefaultSchemaOptions 默认 ER 图选项
func DefaultSchemaOptions() SchemaOptions {
	return SchemaOptions{
		ShowDatatypes: true,
		ShowIndexes:   true,
		RankDir:       graph.RankTB,
		Concentrate:   true,
		Font:          DefaultFont,
	}
}

// UMLOptions 类图选项
type UMLOptions struct {
	ShowOperations      bool    `json:"show_operations"`
	ShowAttributes      bool    `json:"show_attributes"`
	ShowDatatypes       bool    `json:"show_datatypes"`
	SkipInherited       bool    `json:"skip_inherited"` // 子类不重复显示父类已有的属性
	ShowMultiplicityOne bool    `json:"show_multiplicity_one"`
	LineWidth           float64 `json:"linewidth,omitempty" validate:"gte=0"`
	Font                string  `json:"font,omitempty"`
}

// DefaultUMLOptions 默认类图选项
func DefaultUMLOptions() UMLOptions {
	return UMLOptions{
		ShowOperations: true,
		ShowAttributes: true,
		ShowDatatypes:  true,
		LineWidth:      1.0,
		Font:           DefaultFont,
	}
}

// validateOptions 结构体校验失败时转换为 InputError
func validateOptions(opts interface{}) error {
	err := validate.Struct(opts)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return graph.NewInputError("options", fe.Namespace(), "failed %q validation (value %v)", fe.Tag(), fe.Value())
	}
	return fmt.Errorf("validate options: %w", err)
}

func fontOrDefault(font string) string {
	if font == "" {
		return DefaultFont
	}
	return font
}
