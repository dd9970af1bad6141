package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"schema-display/internal/config"
	"schema-display/internal/server"
)

func main() {
	var envFile, port string

	rootCmd := &cobra.Command{
		Use:   "schemadisplay-server",
		Short: "schema-display Web 服务",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := config.Load(envFile)
			if err != nil {
				log.Fatalf("加载配置失败: %v", err)
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
				if err := cfg.Validate(); err != nil {
					log.Fatal(err)
				}
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Printf("🚀 Schema Display Web Server\n")
			fmt.Printf("📡 服务地址: http://localhost:%s\n", cfg.Port)
			fmt.Printf("📊 POST /api/schema-graph, /api/uml-graph, /api/analyze\n\n")

			if err := server.New(cfg).Run(ctx); err != nil {
				log.Fatal(err)
			}
		},
	}

	rootCmd.Flags().StringVar(&envFile, "env", "", "配置文件（默认读取 .env，可选）")
	rootCmd.Flags().StringVar(&port, "port", "", "监听端口（或环境变量 PORT）")

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
