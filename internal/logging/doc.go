// Package logging provides concrete implementations of the dbretry.Logger interface.
package logging
