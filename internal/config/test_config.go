package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:    ":memory:",
			Timeout: 1 * time.Second,
		},
		API: APIConfig{
			BaseURL:     "http://127.0.0.1",
			HTTPTimeout: 5 * time.Second,
			UserAgent:   "sankshep-test/1.0",
			RateLimit:   0, // unlimited
			Burst:       1,
		},
		Feed: FeedConfig{
			DoctorCategory:    "doctor",
			NonDoctorCategory: "nondoctor",
			SummaryWords:      60,
			Retries:           1,
			RetryDelay:        time.Millisecond,
		},
		Session: SessionConfig{
			SplashDelay: 0,
		},
		Log: LogConfig{
			Level: "off",
		},
		UI:   defaultConfig().UI,
		Keys: defaultConfig().Keys,
	}
}
