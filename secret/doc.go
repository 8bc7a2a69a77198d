// Package secret resolves credential values referenced from configuration.
//
// A configured value is first expanded against the environment (see
// ExpandEnvStrict) and then any secret references in it are resolved by a
// Provider:
//   - Full value:  secretref:env:TELEMETRY_TOKEN
//   - From a file: secretref:file:/var/run/secrets/telemetry/token
//   - Inline use:  Bearer secretref:env:TELEMETRY_TOKEN
//
// Resolved values are never logged.
package secret
