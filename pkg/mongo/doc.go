// Package mongo connects the official MongoDB v2 driver with retries and
// exposes a health check for the account store.
package mongo
