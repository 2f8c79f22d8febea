// Package config loads and validates the tap configuration.
//
// A config file is JSON (the Singer convention) or YAML:
//
//	{
//	  "domain": "mypurecloud.com",
//	  "client_id": "...",
//	  "client_secret": "${PURECLOUD_SECRET}",
//	  "start_date": "2024-01-01",
//	  "reliability": {"retry_interval": "30s"}
//	}
//
// ${VAR} references are expanded before parsing and any key can be
// overridden with a TAP_PURECLOUD_ prefixed environment variable, dots
// replaced by underscores. Missing and null required keys are reported
// separately.
package config
