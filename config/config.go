package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultPath 是 -config 的默认值；该路径不存在时使用内置默认配置。
const DefaultPath = "config/config.json"

// Config 是服务和命令行共用的配置。
type Config struct {
	ServerAddr    string       `json:"server_addr,omitempty"`
	StaticDir     string       `json:"static_dir,omitempty"`
	SaveDir       string       `json:"save_dir,omitempty"`
	FontPath      string       `json:"font_path,omitempty"`
	StylesPath    string       `json:"styles_path,omitempty"`
	CaptionPrefix *string      `json:"caption_prefix,omitempty"`
	Canvas        CanvasConfig `json:"canvas"`
	LLM           *LLMConfig   `json:"llm,omitempty"`
}

// CanvasConfig 描述输出画布。
type CanvasConfig struct {
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Scale  float64 `json:"scale,omitempty"`
}

// LLMConfig 是总结服务的模型配置。
type LLMConfig struct {
	Provider       string  `json:"provider,omitempty"`
	Model          string  `json:"model,omitempty"`
	APIKey         string  `json:"api_key,omitempty"`
	APIKeyEnv      string  `json:"api_key_env,omitempty"`
	BaseURL        string  `json:"base_url,omitempty"`
	Temperature    *float64 `json:"temperature,omitempty"`
	TimeoutSeconds int     `json:"timeout_seconds,omitempty"`
	SystemPrompt   string  `json:"system_prompt,omitempty"`
}

// Timeout 返回一次总结请求的上限。
func (l LLMConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}

// Default 返回内置默认配置。
func Default() Config {
	prefix := "Source: "
	return Config{
		ServerAddr:    ":3000",
		SaveDir:       "saved_images",
		CaptionPrefix: &prefix,
		Canvas:        CanvasConfig{Width: 800, Height: 400, Scale: 1},
	}
}

// Prefix 返回来源前缀；配置为空串时不加前缀。
func (c Config) Prefix() string {
	if c.CaptionPrefix == nil {
		return "Source: "
	}
	return *c.CaptionPrefix
}

// LoadConfig reads JSON config from disk, fills defaults and resolves api_key_env.
// .env 文件（若存在）会先被加载，已有的环境变量不会被覆盖。
func LoadConfig(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && path == DefaultPath:
		// 默认路径不存在时直接用默认值
	default:
		return Config{}, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.ServerAddr == "" {
		c.ServerAddr = d.ServerAddr
	}
	if c.SaveDir == "" {
		c.SaveDir = d.SaveDir
	}
	if c.CaptionPrefix == nil {
		c.CaptionPrefix = d.CaptionPrefix
	}
	if c.Canvas.Width == 0 {
		c.Canvas.Width = d.Canvas.Width
	}
	if c.Canvas.Height == 0 {
		c.Canvas.Height = d.Canvas.Height
	}
	if c.Canvas.Scale == 0 {
		c.Canvas.Scale = d.Canvas.Scale
	}
	if c.LLM != nil {
		// 只有未配置时才取默认值，0 是合法的温度
		if c.LLM.Temperature == nil {
			t := 0.6
			c.LLM.Temperature = &t
		}
		if c.LLM.TimeoutSeconds == 0 {
			c.LLM.TimeoutSeconds = 60
		}
		if c.LLM.APIKey == "" && c.LLM.APIKeyEnv != "" {
			c.LLM.APIKey = os.Getenv(c.LLM.APIKeyEnv)
		}
	}
}

// Validate 检查取值范围。
func (c Config) Validate() error {
	if c.Canvas.Width < 0 || c.Canvas.Height < 0 || c.Canvas.Scale < 0 {
		return errors.New("canvas width/height/scale must be positive")
	}
	if c.LLM != nil {
		if t := c.LLM.Temperature; t != nil && (*t < 0 || *t > 2) {
			return fmt.Errorf("llm temperature %.2f out of range [0,2]", *t)
		}
		if c.LLM.TimeoutSeconds < 0 {
			return errors.New("llm timeout_seconds must be positive")
		}
		if c.LLM.APIKeyEnv != "" && c.LLM.APIKey == "" && c.LLM.Provider != "mock" {
			return fmt.Errorf("llm api key env %s is empty", strings.TrimSpace(c.LLM.APIKeyEnv))
		}
	}
	return nil
}
