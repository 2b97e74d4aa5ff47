package classify

// Default returns the built-in configuration used when no configuration file
// is supplied or the supplied one cannot be used. Each call returns a fresh
// value.
func Default() *Config {
	cfg := newConfig()
	groups := []KeywordGroup{
		{Name: "kv_cache", Phrases: []string{"KV cache", "KV Cache", "kv cache", "KVCache"}},
		{Name: "llm_inference", Phrases: []string{"LLM inference", "llm inference", "large language model inference"}},
		{Name: "llm_training", Phrases: []string{"LLM training", "llm training", "large language model training"}},
		{Name: "llm_communication", Phrases: []string{
			"LLM communication",
			"llm communication",
			"communication optimization",
			"communication efficient",
			"allreduce",
			"all-gather",
			"collective communication",
			"gradient communication",
			"communication compression",
		}},
		{Name: "video_generation", Phrases: []string{"video generation", "video synthesis", "video generation model"}},
	}
	for _, g := range groups {
		cfg.Groups[g.Name] = g
		cfg.GroupOrder = append(cfg.GroupOrder, g.Name)
	}

	cfg.Qualifiers = []string{
		"system",
		"systems",
		"architecture",
		"framework",
		"platform",
		"infrastructure",
		"deployment",
		"serving",
		"serving system",
		"inference system",
		"training system",
		"runtime",
		"engine",
		"pipeline",
	}

	cfg.Rules = []CategoryRule{
		{Label: "KV Cache", KeywordGroup: "kv_cache"},
		{Label: "LLM Inference", KeywordGroup: "llm_inference"},
		{Label: "LLM Training (System)", KeywordGroup: "llm_training", RequiresQualifier: true},
		{Label: "LLM Communication", KeywordGroup: "llm_communication"},
		{Label: "Video Generation (System)", KeywordGroup: "video_generation", RequiresQualifier: true},
	}
	return cfg
}
