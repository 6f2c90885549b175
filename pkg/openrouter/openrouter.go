package openrouter

import (
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type Config struct {
	BaseURL     string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey      string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model       string        `envconfig:"MODEL" split_words:"true" required:"true"`
	Temperature float64       `envconfig:"TEMPERATURE" split_words:"true" default:"0.3"`
	Timeout     time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL     string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName    string        `envconfig:"SITE_NAME" split_words:"true"`
}

// NewClient builds a chat-completion client pointed at OpenRouter. SiteURL
// and SiteName become the attribution headers OpenRouter reads.
func NewClient(cfg Config) openaisdk.Client {
	opts := []option.RequestOption{
		option.WithBaseURL(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")),
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	if site := strings.TrimSpace(cfg.SiteURL); site != "" {
		opts = append(opts, option.WithHeader("HTTP-Referer", site))
	}
	if name := strings.TrimSpace(cfg.SiteName); name != "" {
		opts = append(opts, option.WithHeader("X-Title", name))
	}
	return openaisdk.NewClient(opts...)
}
