// Package cli defines the command-line surface: flags, the cobra root
// command, and viper configuration handling.
package cli
