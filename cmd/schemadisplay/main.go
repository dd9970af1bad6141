package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"schema-display/internal/config"
	"schema-display/internal/graph"
	"schema-display/internal/renderer"
)

var (
	envFile   string
	outputDir string
	imagePath string
	font      string

	cfg *config.Config
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "schemadisplay",
		Short: "数据库结构与类映射可视化工具",
		Long:  "读取数据库表结构或类映射描述，生成 Graphviz ER 图和 UML 类图",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			var err error
			cfg, err = config.Load(envFile)
			if err != nil {
				log.Fatalf("加载配置失败: %v", err)
			}
			if !cmd.Flags().Changed("output") {
				outputDir = cfg.OutputDir
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "配置文件（默认读取 .env，可选）")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output", "./output", "输出目录（或环境变量 OUTPUT_DIR）")
	rootCmd.PersistentFlags().StringVar(&imagePath, "image", "", "同时调用 Graphviz 生成图片，格式取自扩展名，如 schema.png")
	rootCmd.PersistentFlags().StringVar(&font, "font", "", "字体（默认 Bitstream-Vera Sans）")

	rootCmd.AddCommand(newSchemaCmd(), newUMLCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

// signalContext Ctrl-C 时取消
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// writeOutput 写入文本文件并打印路径
func writeOutput(file string, content []byte) {
	path := filepath.Join(outputDir, file)
	if err := os.WriteFile(path, content, 0644); err != nil {
		log.Fatalf("写入 %s 失败: %v", path, err)
	}
	fmt.Printf("✓ %s\n", path)
}

// writeGraph 输出 DOT，配置了 --image 时再渲染图片
func writeGraph(ctx context.Context, g *graph.Graph, name string) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		log.Fatalf("创建输出目录失败: %v", err)
	}

	writeOutput(name+".dot", []byte(g.DOT()))

	if imagePath == "" {
		return
	}
	path := imagePath
	if !filepath.IsAbs(path) && filepath.Dir(path) == "." {
		path = filepath.Join(outputDir, path)
	}
	r := renderer.NewGraphvizRenderer(cfg.GraphvizPath)
	if err := r.RenderFile(ctx, g, path); err != nil {
		log.Fatalf("Graphviz 渲染失败: %v", err)
	}
	fmt.Printf("✓ %s\n", path)
}
