package db

import (
	_ "embed"
)

// portable between postgres (production) and sqlite (tests, CLI
// output); keep it free of engine-specific types
//
//go:embed schema.sql
var Schema string
