// Package config 从环境变量和可选的 .env 文件读取运行配置。
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// DefaultEnvFile 默认配置文件
const DefaultEnvFile = ".env"

// Config 运行配置，命令行参数可以覆盖其中的值
type Config struct {
	DBType       string `validate:"omitempty,oneof=sqlserver mysql postgres file"`
	DBConn       string
	DBSchema     string
	OutputDir    string `validate:"required"`
	Port         string `validate:"required,numeric"`
	GraphvizPath string
	// TaskTTL 已结束的分析任务保留多久
	TaskTTL      time.Duration
}

var validate = validator.New()

// Load 读取配置文件后再读取环境变量；path 为空时尝试 .env，文件不存在不算错误。
// 已经存在的环境变量优先于文件中的值。
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("加载配置文件 %s 失败: %w", path, err)
		}
	}

	cfg := &Config{
		DBType:       strings.ToLower(getEnv("DB_TYPE", "")),
		DBConn:       getEnv("DB_CONN", ""),
		DBSchema:     getEnv("DB_SCHEMA", ""),
		OutputDir:    getEnv("OUTPUT_DIR", "./output"),
		Port:         getEnv("PORT", "8080"),
		GraphvizPath: getEnv("GRAPHVIZ_PATH", ""),
	}

	ttl, err := time.ParseDuration(getEnv("TASK_TTL", "1h"))
	if err != nil || ttl <= 0 {
		return nil, fmt.Errorf("配置无效: TASK_TTL 必须是正的时长: %q", os.Getenv("TASK_TTL"))
	}
	cfg.TaskTTL = ttl

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("配置无效: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
