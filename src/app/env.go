package app

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	EnvDev  = "dev"
	EnvProd = "prod"
)

type envVars struct {
	Environment string `envconfig:"RELGRAPH_ENV" default:"dev"`

	SourceDialect string `envconfig:"RELGRAPH_SOURCE_DIALECT" default:"postgres"`
	SourceDSN     string `envconfig:"RELGRAPH_SOURCE_DSN"`
	SourceSchema  string `envconfig:"RELGRAPH_SOURCE_SCHEMA" default:"public"`

	KuzuPath   string `envconfig:"RELGRAPH_KUZU_PATH" default:"kuzudb_data"`
	Workers    int    `envconfig:"RELGRAPH_WORKERS" default:"1"`
	ReportPath string `envconfig:"RELGRAPH_REPORT_PATH"`
}

func mustLoadEnv() envVars {
	_ = godotenv.Load()

	var env envVars
	envconfig.MustProcess("", &env)

	return env
}
