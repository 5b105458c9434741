package config

import "github.com/caarlos0/env/v11"

func LoadBackendConfig() (BackendConfig, error) {
	return env.ParseAs[BackendConfig]()
}

func LoadExporterConfig() (ExporterConfig, error) {
	return env.ParseAs[ExporterConfig]()
}
