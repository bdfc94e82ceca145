package config

// embeddedDefault is compiled into the binary and used whenever Load is
// called with an empty path, e.g. a fresh deployment with no config file
// staged yet. Mirrors services/defaultconfigs.go's embedded-JSON-string
// pattern, generalized from one blob per device ID to the one process-
// wide document this server reads.
const embeddedDefault = `{
  "cycle_interval_us": 2000,
  "discovery_interval_ms": 100,
  "event_queue_len": 64,
  "serial": []
}`
