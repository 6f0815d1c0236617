package analysis

import "time"

// Config describes the upstream analysis API.
type Config struct {
	BaseURL string        `env:"ANALYSIS_API_URL,required"`
	Timeout time.Duration `env:"ANALYSIS_API_TIMEOUT" envDefault:"60s"`
}
