package renderer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"schema-display/internal/graph"
)

// GraphvizRenderer 调用 Graphviz 布局程序（dot、neato）生成图片
type GraphvizRenderer struct {
	// BinDir Graphviz 可执行文件所在目录，为空时从 PATH 查找
	BinDir string
}

// NewGraphvizRenderer 创建渲染器
func NewGraphvizRenderer(binDir string) *GraphvizRenderer {
	return &GraphvizRenderer{BinDir: binDir}
}

// command 布局程序路径，由图本身决定使用 dot 还是 neato
func (r *GraphvizRenderer) command(g *graph.Graph) string {
	prog := g.Prog
	if prog == "" {
		prog = "dot"
	}
	if r.BinDir != "" {
		return filepath.Join(r.BinDir, prog)
	}
	return prog
}

// Render 把图渲染为指定格式（png、svg、pdf 等），DOT 文本经标准输入传入
func (r *GraphvizRenderer) Render(ctx context.Context, g *graph.Graph, format string) ([]byte, error) {
	if format == "" {
		return nil, fmt.Errorf("未指定输出格式")
	}

	var in bytes.Buffer
	if err := g.WriteDOT(&in); err != nil {
		return nil, fmt.Errorf("生成 DOT 失败: %w", err)
	}

	var out, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.command(g), "-T"+format)
	cmd.Stdin = &in
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s -T%s: %w: %s", g.Prog, format, err, msg)
		}
		return nil, fmt.Errorf("%s -T%s: %w", g.Prog, format, err)
	}
	return out.Bytes(), nil
}

// RenderFile 渲染并写入文件，格式取自扩展名；.dot 直接写 DOT 文本
func (r *GraphvizRenderer) RenderFile(ctx context.Context, g *graph.Graph, path string) error {
	format := FormatFromPath(path)
	if format == "" {
		return fmt.Errorf("无法从文件名推断格式: %s", path)
	}

	var data []byte
	if format == "dot" || format == "gv" {
		data = []byte(g.DOT())
	} else {
		var err error
		data, err = r.Render(ctx, g, format)
		if err != nil {
			return err
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("写入文件失败: %w", err)
	}
	return nil
}

// FormatFromPath 根据扩展名得到 Graphviz 输出格式
func FormatFromPath(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}
