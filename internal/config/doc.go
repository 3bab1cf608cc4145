// Package config loads tonearm's configuration.
//
// Values are layered, later layers winning:
//
//  1. built-in defaults (DefaultConfig)
//  2. the YAML file, ~/.config/tonearm/config.yaml unless a path is given
//  3. a .env file in the working directory
//  4. TONEARM_* environment variables
//
// A missing YAML or .env file is not an error. Validation is per role:
// ValidateClient for the remote commands and ValidateHost for the host.
//
// Example config.yaml:
//
//	log_level: info
//	client:
//	  client_id: "1234567890"
//	  redirect_addr: 127.0.0.1:1887
//	  host_url: ws://music.example.com:8787/ws
//	provider:
//	  client_id: "1234567890"
//	  redirect_url: http://127.0.0.1:1887
//	host:
//	  listen: :8787
//	  bot_name: tonearm
//
// The provider client secret is best supplied as
// TONEARM_PROVIDER_CLIENT_SECRET rather than in the file.
package config
