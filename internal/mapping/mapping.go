// Package mapping 描述对象关系映射中的类：属性、关系、继承和方法。
package mapping

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Multiplicity 关系的多重性
type Multiplicity string

const (
	One       Multiplicity = "one"
	ZeroOrOne Multiplicity = "zero_or_one"
	Many      Multiplicity = "many"
)

// ParseMultiplicity 解析多重性，空字符串视为 one
func ParseMultiplicity(s string) (Multiplicity, error) {
	switch Multiplicity(s) {
	case "", One:
		return One, nil
	case ZeroOrOne, Many:
		return Multiplicity(s), nil
	}
	return "", fmt.Errorf("unknown multiplicity %q", s)
}

// UnmarshalYAML 拒绝未知的多重性
func (m *Multiplicity) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseMultiplicity(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*m = parsed
	return nil
}

// UnmarshalJSON 拒绝未知的多重性
func (m *Multiplicity) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseMultiplicity(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Mapping 映射类
type Mapping struct {
	Name          string         `json:"name" yaml:"name"`
	Parent        string         `json:"parent,omitempty" yaml:"parent,omitempty"` // 父类（单继承）
	Attributes    []Attribute    `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Relationships []Relationship `json:"relationships,omitempty" yaml:"relationships,omitempty"`
	Operations    []Operation    `json:"operations,omitempty" yaml:"operations,omitempty"`
}

// Attribute 映射属性
type Attribute struct {
	Name       string `json:"name" yaml:"name"`
	Type       string `json:"type,omitempty" yaml:"type,omitempty"`
	PrimaryKey bool   `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`
}

// Relationship 关系属性
type Relationship struct {
	Name         string       `json:"name" yaml:"name"`
	Target       string       `json:"target" yaml:"target"`
	Multiplicity Multiplicity `json:"multiplicity,omitempty" yaml:"multiplicity,omitempty"`
	Backref      string       `json:"backref,omitempty" yaml:"backref,omitempty"` // 目标类上的反向关系名
}

// Operation 方法
type Operation struct {
	Name   string  `json:"name" yaml:"name"`
	Params []Param `json:"params,omitempty" yaml:"params,omitempty"`
}

// Param 方法参数，Default 为空表示没有默认值
type Param struct {
	Name    string `json:"name" yaml:"name"`
	Default string `json:"default,omitempty" yaml:"default,omitempty"`
}

// Document 映射描述文件
type Document struct {
	Mappings []Mapping `json:"mappings" yaml:"mappings"`
}

// Decode 解码映射描述（YAML 或 JSON）
func Decode(r io.Reader) ([]Mapping, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, err
	}
	return doc.Mappings, nil
}

// Load 读取映射描述文件
func Load(path string) ([]Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开映射文件失败: %w", err)
	}
	defer f.Close()

	mappings, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("解析映射文件 %s 失败: %w", path, err)
	}
	return mappings, nil
}
