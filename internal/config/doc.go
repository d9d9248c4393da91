// Package config provides configuration types and loading for gido.
//
// # Sources
//
// Configuration is assembled in this order, later sources winning:
//
//   - Built-in defaults (Default)
//   - /etc/gido/config.toml, or the file given with --config
//   - Environment variables, optionally seeded from a .env file (LoadDotEnv)
//   - Secret files below secrets_dir for values configured by file name
//
// # File Format
//
//	state_dir   = "/var/lib/gido"
//	secrets_dir = "/run/gido-secrets"
//
//	[proxy]
//	port         = 5000
//	api_key_file = "openrouter-api-key"
//	timeout      = "60s"
//
//	[monitor]
//	url      = "https://www.educationplannerbc.ca/"
//	interval = "60s"
//	marker   = "undergoing temporary system maintenance"
//
//	[smtp]
//	host          = "smtp.gmail.com"
//	port          = 465
//	username      = "alerts@example.com"
//	password_file = "smtp-password"
//	to            = ["me@example.com"]
//
// # Environment
//
//	OPENROUTER_API_KEY     upstream credential
//	PORT                   proxy listen port
//	GIDO_UPSTREAM_URL      upstream chat-completions endpoint
//	GIDO_MONITOR_URL       monitored page
//	GIDO_MONITOR_INTERVAL  poll interval ("90s" or seconds)
//	GIDO_SMTP_HOST, GIDO_SMTP_PORT, GIDO_SMTP_USERNAME,
//	GIDO_SMTP_PASSWORD, GIDO_SMTP_FROM, GIDO_SMTP_TO (comma separated)
//
// # Secrets
//
// Secret values use the Secret type, which prints, logs and marshals as
// "[redacted]". Call Reveal only where the raw value leaves the process
// (the upstream Authorization header, the SMTP AUTH exchange).
//
// # Validation
//
// Load validates after resolving all sources and reports problems as a
// ConfigError from internal/errors.
package config
