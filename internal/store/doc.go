// Package store implements core.Store over PostgreSQL and in memory.
package store
