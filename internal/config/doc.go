// Package config loads and validates the avatar-link YAML configuration.
//
// # File Format
//
// Configuration is YAML with ${VAR_NAME} environment variable expansion
// applied to the raw file before parsing. Duration fields are written as
// Go duration strings ("12s", "500ms"):
//
//	backend:
//	  base_url: https://tutor.example.com
//	  request_timeout: 30s
//
//	webrtc:
//	  stun_servers:
//	    - stun:stun.l.google.com:19302
//	  gather_timeout: 10s
//
//	lock:
//	  ttl: 12s
//	  heartbeat_interval: 5s
//
//	avatar:
//	  default: test_yongen
//	  cold_start_settle: 2s
//	  disconnect_settle: 500ms
//	  reconnect_settle: 1s
//
//	storage:
//	  path: ${HOME}/.avatar-link/state.db
//
//	media:
//	  dir: ${HOME}/.avatar-link/recordings
//
//	logging:
//	  level: info
//	  format: text
//
// # Required Fields
//
// backend.base_url and storage.path must be set. Every timing field may
// be omitted; the consuming packages fall back to the defaults above.
// heartbeat_interval must be shorter than ttl when both are given.
//
// # Secrets
//
// The auth token is not configured here. It lives in the shared store
// (written by the login command) so that every viewer process picks up
// the same credential.
package config
