package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"schema-display/internal/diagram"
	"schema-display/internal/mapping"
)

var umlOpts = diagram.DefaultUMLOptions()

func newUMLCmd() *cobra.Command {
	var mappingFile, baseName string

	cmd := &cobra.Command{
		Use:     "uml",
		Short:   "读取类映射描述，生成 UML 类图",
		Example: `  schemadisplay uml --file models.yaml --skip-inherited --image uml.svg`,
		Run: func(cmd *cobra.Command, args []string) {
			runUML(mappingFile, baseName)
		},
	}

	f := cmd.Flags()
	f.StringVar(&mappingFile, "file", "", "类映射描述文件 (YAML/JSON)")
	f.StringVar(&baseName, "name", "uml", "输出文件名（不含扩展名）")
	f.BoolVar(&umlOpts.ShowOperations, "show-operations", true, "显示方法")
	f.BoolVar(&umlOpts.ShowAttributes, "show-attributes", true, "显示属性")
	f.BoolVar(&umlOpts.ShowDatatypes, "show-datatypes", true, "显示属性类型")
	f.BoolVar(&umlOpts.SkipInherited, "skip-inherited", false, "不重复显示父类的属性")
	f.BoolVar(&umlOpts.ShowMultiplicityOne, "show-multiplicity-one", false, "多重性为 1 时也标注")
	f.Float64Var(&umlOpts.LineWidth, "linewidth", 1.0, "线宽")
	cmd.MarkFlagRequired("file")
	return cmd
}

func runUML(mappingFile, baseName string) {
	ctx, cancel := signalContext()
	defer cancel()

	fmt.Println("🔍 读取类映射...")
	mappings, err := mapping.Load(mappingFile)
	if err != nil {
		log.Fatalf("读取类映射失败: %v", err)
	}
	fmt.Printf("✓ 发现 %d 个类\n", len(mappings))

	fmt.Println("\n🔨 构建 UML 类图...")
	if font != "" {
		umlOpts.Font = font
	}
	g, err := diagram.BuildUMLGraph(mappings, umlOpts)
	if err != nil {
		log.Fatalf("构建类图失败: %v", err)
	}
	fmt.Printf("✓ %d 个节点, %d 条边\n", len(g.Nodes()), len(g.Edges()))

	fmt.Println("\n📝 生成输出文件...")
	writeGraph(ctx, g, baseName)

	fmt.Println("\n✅ 完成！")
}
