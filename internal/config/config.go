package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"

	"github.com/zhouzirui/interviewer/internal/model/interview"
)

// 支持的模型提供方。
const (
	ProviderOpenAI    = "openai"
	ProviderArk       = "ark"
	ProviderAnthropic = "anthropic"
)

// 支持的文档存储驱动。
const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
)

// Config 聚合整个程序的配置项。
type Config struct {
	AI    AIConfig
	Store StoreConfig
}

// Load 从环境变量加载配置。Load 只负责解析，凭证校验由 Validate 完成。
func Load() (*Config, error) {
	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	store, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}

	return &Config{AI: ai, Store: store}, nil
}

// Validate 在构建任何组件之前检查配置，缺失凭证时返回 ErrConfiguration。
func (c *Config) Validate() error {
	if err := c.AI.Validate(); err != nil {
		return err
	}
	return c.Store.Validate()
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider    string
	Temperature float64
	MaxTokens   *int

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	ArkAPIKey    string
	ArkAccessKey string
	ArkSecretKey string
	ArkModel     string
	ArkBaseURL   string
	ArkRegion    string

	AnthropicAPIKey string
	AnthropicModel  string
}

// Validate 检查所选提供方的凭证与模型是否齐全。
func (c AIConfig) Validate() error {
	switch c.Provider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY is not set", interview.ErrConfiguration)
		}
	case ProviderArk:
		if c.ArkModel == "" {
			return fmt.Errorf("%w: ARK_MODEL is not set", interview.ErrConfiguration)
		}
		if c.ArkAPIKey == "" && (c.ArkAccessKey == "" || c.ArkSecretKey == "") {
			return fmt.Errorf("%w: provide ARK_API_KEY or ARK_ACCESS_KEY + ARK_SECRET_KEY", interview.ErrConfiguration)
		}
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("%w: ANTHROPIC_API_KEY is not set", interview.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unsupported LLM_PROVIDER %q", interview.ErrConfiguration, c.Provider)
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: LLM_TEMPERATURE %v out of range [0, 2]", interview.ErrConfiguration, c.Temperature)
	}
	if c.MaxTokens != nil && *c.MaxTokens < 1 {
		return fmt.Errorf("%w: LLM_MAX_TOKENS must be positive", interview.ErrConfiguration)
	}
	return nil
}

// NewChatModel 使用配置创建一个 Ark 模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if c.ArkModel == "" || (c.ArkAPIKey == "" && (c.ArkAccessKey == "" || c.ArkSecretKey == "")) {
		return nil, fmt.Errorf("%w: Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + ARK_MODEL 或 AK/SK 组合", interview.ErrConfiguration)
	}

	temperature := float32(c.Temperature)

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.ArkBaseURL,
		Region:      c.ArkRegion,
		APIKey:      c.ArkAPIKey,
		AccessKey:   c.ArkAccessKey,
		SecretKey:   c.ArkSecretKey,
		Model:       c.ArkModel,
		MaxTokens:   maxTokens,
		Temperature: &temperature,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature := 0.4
	if override, err := parseOptionalFloatEnv("LLM_TEMPERATURE"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		temperature = *override
	}

	maxTokens, err := parseOptionalIntEnv("LLM_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		Provider:    strings.ToLower(getEnvOrDefault("LLM_PROVIDER", ProviderOpenAI)),
		Temperature: temperature,
		MaxTokens:   maxTokens,

		OpenAIAPIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:   getEnvOrDefault("OPENAI_MODEL", "gpt-4"),
		OpenAIBaseURL: strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),

		ArkAPIKey:    strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		ArkAccessKey: strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		ArkSecretKey: strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		ArkModel:     strings.TrimSpace(os.Getenv("ARK_MODEL")),
		ArkBaseURL:   getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		ArkRegion:    getEnvOrDefault("ARK_REGION", "cn-beijing"),

		AnthropicAPIKey: strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")),
		AnthropicModel:  getEnvOrDefault("ANTHROPIC_MODEL", "claude-3-5-sonnet-20241022"),
	}, nil
}

// StoreConfig 描述文档存储配置。
type StoreConfig struct {
	Driver            string
	MongoURI          string
	MongoDatabase     string
	SummaryCollection string
	LogCollection     string
	SQLitePath        string
	Timeout           time.Duration
}

// Validate 检查存储驱动是否受支持。
func (c StoreConfig) Validate() error {
	switch c.Driver {
	case DriverMongo:
		if c.MongoURI == "" || c.MongoDatabase == "" {
			return fmt.Errorf("%w: MONGO_URI and MONGO_DB are required", interview.ErrConfiguration)
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: SQLITE_PATH is required", interview.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unsupported STORE_DRIVER %q", interview.ErrConfiguration, c.Driver)
	}
	return nil
}

func loadStoreConfig() (StoreConfig, error) {
	timeout := 10 * time.Second
	if raw := strings.TrimSpace(os.Getenv("STORE_TIMEOUT")); raw != "" {
		val, err := time.ParseDuration(raw)
		if err != nil {
			return StoreConfig{}, fmt.Errorf("invalid STORE_TIMEOUT value %q: %w", raw, err)
		}
		timeout = val
	}

	return StoreConfig{
		Driver:            strings.ToLower(getEnvOrDefault("STORE_DRIVER", DriverMongo)),
		MongoURI:          getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017/"),
		MongoDatabase:     getEnvOrDefault("MONGO_DB", "test"),
		SummaryCollection: getEnvOrDefault("MONGO_SUMMARY_COLLECTION", "drive"),
		LogCollection:     getEnvOrDefault("MONGO_LOG_COLLECTION", "conversations"),
		SQLitePath:        getEnvOrDefault("SQLITE_PATH", "~/.interviewer/interviewer.db"),
		Timeout:           timeout,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
