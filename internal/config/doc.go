// Package config manages user-level settings stored at ~/.tstack/config.yaml.
// It provides functions to load, read, and write configuration keys such as
// the preferred package manager and whether new projects install
// dependencies. Every key can be overridden with a TSTACK_* environment
// variable.
package config
