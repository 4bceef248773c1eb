package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Storage.IndexPath == "" {
		cfg.Storage.IndexPath = "./chroma-data"
	}
	if len(cfg.AI.GenerationModels) == 0 {
		// Highest-quota model first; older model kept as the availability fallback.
		cfg.AI.GenerationModels = []string{"gemini-2.5-flash", "gemini-1.5-flash"}
	}
	if cfg.AI.EmbeddingModel == "" {
		cfg.AI.EmbeddingModel = "text-embedding-004"
	}
	if cfg.AI.FallbackEmbeddingModel == "" {
		cfg.AI.FallbackEmbeddingModel = "embedding-001"
	}
	if cfg.AI.MaxAttempts == 0 {
		cfg.AI.MaxAttempts = 3
	}
	if cfg.AI.BackoffBaseSeconds == 0 {
		cfg.AI.BackoffBaseSeconds = 2
	}
	if cfg.AI.BackoffCapSeconds == 0 {
		cfg.AI.BackoffCapSeconds = 10
	}
	if cfg.AI.RequestTimeoutSeconds == 0 {
		cfg.AI.RequestTimeoutSeconds = 30
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 5
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Search.MaxContextProducts == 0 {
		cfg.Search.MaxContextProducts = 50
	}
}
