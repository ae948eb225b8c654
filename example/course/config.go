package main

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	// RedisAddr enables Redis-backed session storage when set; the default
	// is an in-process store.
	RedisAddr string `yaml:"redis_addr"`
}

func loadConfig(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var conf Config
	if err := yaml.Unmarshal(file, &conf); err != nil {
		return nil, err
	}
	if conf.APIKey == "" {
		conf.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return &conf, nil
}
