package adapter

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// FileAdapter 从 YAML/JSON 声明文件读取结构（JSON 是 YAML 的子集）
type FileAdapter struct {
	path string
}

// NewFileAdapter 创建文件适配器
func NewFileAdapter(path string) *FileAdapter {
	return &FileAdapter{path: path}
}

// IntrospectSchema 读取并解析声明文件
func (a *FileAdapter) IntrospectSchema(ctx context.Context) (*SchemaMetadata, error) {
	f, err := os.Open(a.path)
	if err != nil {
		return nil, fmt.Errorf("打开结构文件失败: %w", err)
	}
	defer f.Close()

	meta, err := DecodeSchema(f)
	if err != nil {
		return nil, fmt.Errorf("解析结构文件 %s 失败: %w", a.path, err)
	}
	return meta, nil
}

// Close 无需释放资源
func (a *FileAdapter) Close() error {
	return nil
}

// DecodeSchema 解码结构声明
func DecodeSchema(r io.Reader) (*SchemaMetadata, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var meta SchemaMetadata
	if err := dec.Decode(&meta); err != nil {
		if err == io.EOF {
			return &meta, nil
		}
		return nil, err
	}
	return &meta, nil
}
