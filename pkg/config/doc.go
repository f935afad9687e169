// Package config holds the named Luigi's Box endpoint configurations (host,
// public/private key pair and timeouts) together with the currently active
// selection. Registries can be built from raw maps, typed values, HCL files or
// LUIGISBOX_* environment variables.
package config
