package main

import (
	"flag"
	"os"
)

// ServerConfig holds the server configuration
type ServerConfig struct {
	Addr          string
	CatalogFile   string
	Store         string
	SnapshotDir   string
	LogLevel      string
	WebhookURL    string
	WebhookSecret string
}

// configResolver defines how to resolve a single configuration value
type configResolver struct {
	flagName    string
	envVarName  string
	defaultVal  string
	description string
	setter      func(*ServerConfig, string)
}

// loadServerConfig loads server configuration from CLI flags and environment
// variables. A flag wins over its environment variable, which wins over the
// default.
func loadServerConfig() ServerConfig {
	cfg := ServerConfig{}

	resolvers := []configResolver{
		{
			flagName:    "addr",
			envVarName:  "HATCHERY_ADDR",
			defaultVal:  ":8080",
			description: "HTTP listen address (e.g. :8080, 0.0.0.0:8080)",
			setter:      func(c *ServerConfig, v string) { c.Addr = v },
		},
		{
			flagName:    "catalog-file",
			envVarName:  "HATCHERY_CATALOG_FILE",
			defaultVal:  "catalog.yaml",
			description: "path to the YAML species catalog",
			setter:      func(c *ServerConfig, v string) { c.CatalogFile = v },
		},
		{
			flagName:    "store",
			envVarName:  "HATCHERY_STORE",
			defaultVal:  "memory",
			description: "collection store: memory or sqlite:<path>",
			setter:      func(c *ServerConfig, v string) { c.Store = v },
		},
		{
			flagName:    "snapshot-dir",
			envVarName:  "HATCHERY_SNAPSHOT_DIR",
			defaultVal:  "./data",
			description: "directory where collection snapshots are written",
			setter:      func(c *ServerConfig, v string) { c.SnapshotDir = v },
		},
		{
			flagName:    "log-level",
			envVarName:  "HATCHERY_LOG_LEVEL",
			defaultVal:  "info",
			description: "Log level: debug, info, warn, error",
			setter:      func(c *ServerConfig, v string) { c.LogLevel = v },
		},
		{
			flagName:    "webhook-url",
			envVarName:  "HATCHERY_WEBHOOK_URL",
			defaultVal:  "",
			description: "optional URL that receives discovery events as JSON",
			setter:      func(c *ServerConfig, v string) { c.WebhookURL = v },
		},
		{
			flagName:    "webhook-secret",
			envVarName:  "HATCHERY_WEBHOOK_SECRET",
			defaultVal:  "",
			description: "optional HMAC secret used to sign webhook deliveries",
			setter:      func(c *ServerConfig, v string) { c.WebhookSecret = v },
		},
	}

	flagVars := make(map[string]*string)
	for _, resolver := range resolvers {
		flagVars[resolver.flagName] = flag.String(resolver.flagName, "", resolver.description)
	}

	flag.Parse()

	for _, resolver := range resolvers {
		var value string
		if *flagVars[resolver.flagName] != "" {
			value = *flagVars[resolver.flagName]
		} else if envValue := os.Getenv(resolver.envVarName); envValue != "" {
			value = envValue
		} else {
			value = resolver.defaultVal
		}
		resolver.setter(&cfg, value)
	}

	return cfg
}
