// Package daemon hosts the long-running service: the cron schedule that
// fires pipeline runs three times a day, the HTTP trigger/status/health
// surface, the single-instance lock, and periodic artifact sweeps.
package daemon
