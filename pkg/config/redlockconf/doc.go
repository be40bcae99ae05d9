// Package redlockconf loads the fixed configuration redlockctl and any
// embedding service need to build a Coordinator: the backing server
// list, per-instance network timeout, and retry/drift defaults.
//
// It layers three sources, lowest precedence first: the package's
// built-in defaults and an optional YAML/JSON file (both through koanf),
// then the DEFAULT_REDIS_HOST/DEFAULT_REDIS_PORT environment variables,
// read with os.LookupEnv. The environment overrides only the first
// instance's host/port, and only when the file did not set its own
// servers list.
package redlockconf
