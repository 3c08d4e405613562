package config

import (
	"fmt"
	"os"

	"github.com/go-yaml/yaml"

	"github.com/golden-fork/bistro"
)

type Config struct {
	Site    Site    `yaml:"site"`
	Backend Backend `yaml:"backend"`
	Server  Server  `yaml:"server"`
}

type Site struct {
	Name         string `yaml:"name"`
	PublicOrigin string `yaml:"publicOrigin"`
}

type Backend struct {
	Endpoint       string `yaml:"endpoint"`
	InternalOrigin string `yaml:"internalOrigin"`
	// QueryTimeout is the bounded wait on each backend query, in
	// seconds. Zero keeps the client default.
	QueryTimeout int `yaml:"queryTimeout"`
}

type Server struct {
	Listen        string `yaml:"listen"`
	PostgresDsn   string `yaml:"postgresDsn"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	AdminToken    string `yaml:"adminToken"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, err
	}

	if config.Backend.Endpoint == "" {
		return Config{}, fmt.Errorf("backend.endpoint is required")
	}
	if config.Backend.InternalOrigin == "" {
		return Config{}, fmt.Errorf("backend.internalOrigin is required")
	}
	if config.Site.PublicOrigin == "" {
		return Config{}, fmt.Errorf("site.publicOrigin is required")
	}

	config.Site.PublicOrigin = bistro.NormalizeOrigin(config.Site.PublicOrigin)
	config.Backend.InternalOrigin = bistro.NormalizeOrigin(config.Backend.InternalOrigin)

	if config.Server.Listen == "" {
		config.Server.Listen = ":8080"
	}

	return config, nil
}
