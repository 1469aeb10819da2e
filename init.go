package main

import "github.com/jmoiron/sqlx"

func init() { // nolint:gochecknoinits
	// Column names are the exact Go field names, one greppable string across
	// source and schema beats any case-conversion scheme.
	sqlx.NameMapper = func(v string) string { return v }
}
