// Package config loads the maybe configuration.
//
// Configuration is resolved in this order, later sources winning:
//
//  1. Built-in defaults (GetDefaultConfig)
//  2. ~/.config/maybe/config.yaml (or the directory passed to LoadConfig)
//  3. A .env file in the working directory, loaded into the environment
//  4. MAYBE_* environment variables
//
// Example config.yaml:
//
//	base_url: https://app.maybefinance.com
//	api_base_url: https://app.maybefinance.com/api/v1
//	oauth:
//	  client_id: 6a1c...
//	  scopes: [read_write]
//	  callback_timeout: 5m
//	http:
//	  timeout: 20s
//	storage:
//	  disable_keychain: false
//	logging:
//	  level: debug
//	  file: ~/.config/maybe/maybe.log
package config
