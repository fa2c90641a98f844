// Package config loads httpreplay settings from YAML and the environment.
//
// A project keeps its settings in httpreplay.yaml (or .httpreplay.yaml) at
// the module root:
//
//	storage_path: testdata/http-replay
//	match_by: [method, url]
//	expire_after: 30
//	patterns:
//	  - pattern: api.github.com/graphql
//	    match_by: [method, url, body_field:operationName]
//	log:
//	  level: ${REPLAY_LOG_LEVEL:-warn}
//
// Values may reference environment variables as ${VAR} or ${VAR:-default}.
// REPLAY_FRESH and REPLAY_BAIL switch fresh and bail mode on for a single run
// without editing the file; ApplyEnv folds them in.
package config
