package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golden_quote/quote"
)

// ErrRequestFailed 覆盖网络错误、非 2xx、响应格式错误、空结果和超时。
var ErrRequestFailed = errors.New("summarize request failed")

// DefaultTimeout 是一次总结的上限。
const DefaultTimeout = 60 * time.Second

// Result 是一次总结的结果。
type Result struct {
	Summary  string        `json:"summary"`
	Provider string        `json:"provider"`
	Latency  time.Duration `json:"latency"`
}

// Summarizer 把长文本交给大模型压缩成一句话。
type Summarizer struct {
	llm         LLMClient
	provider    string
	system      string
	temperature float64
	timeout     time.Duration
	verbose     bool
	logger      *log.Logger
}

// New 创建 Summarizer，settings 中为零的字段使用默认值。
func New(llm LLMClient, settings LLMSettings, verbose bool, logger *log.Logger) (*Summarizer, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	if logger == nil {
		logger = log.Default()
	}
	timeout := settings.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	temperature := 0.6
	if settings.Temperature != nil {
		temperature = *settings.Temperature
	}
	return &Summarizer{
		llm:         llm,
		provider:    settings.Provider,
		system:      settings.SystemPrompt,
		temperature: temperature,
		timeout:     timeout,
		verbose:     verbose,
		logger:      logger,
	}, nil
}

// NewClient 按 provider 构造客户端。
func NewClient(cfg LLMSettings) (LLMClient, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAILLMFromConfig(&cfg)
	case "deepseek", "ark":
		// DeepSeek/方舟提供 OpenAI 兼容接口，需填写 base_url。
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("llm provider %s requires base_url (OpenAI-compatible endpoint)", cfg.Provider)
		}
		return NewOpenAILLMFromConfig(&cfg)
	case "mock":
		return MockLLM{}, nil
	case "":
		return nil, errors.New("llm config missing; please set llm.provider/model/api_key_env in config")
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.Provider)
	}
}

// Summarize 调用模型并清洗结果。空白输入返回 quote.ErrEmptyInput，
// 其余失败都包装为 ErrRequestFailed。
func (s *Summarizer) Summarize(ctx context.Context, text string) (Result, error) {
	text = quote.Normalize(text)
	if text == "" {
		return Result{}, quote.ErrEmptyInput
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	s.infof("[summarizer] provider=%s chars=%d", s.provider, len([]rune(text)))
	raw, err := s.llm.Complete(ctx, BuildSummaryPrompt(s.system, text, s.temperature))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	summary, err := PostProcess(raw)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	res := Result{Summary: summary, Provider: s.provider, Latency: time.Since(start)}
	s.infof("[summarizer] done in %s", res.Latency)
	return res, nil
}

func (s *Summarizer) infof(format string, args ...any) {
	if s.verbose && s.logger != nil {
		s.logger.Printf("[INFO] "+format, args...)
	}
}
