// Package migrations embeds the SQL schema for both databases
package migrations

import "embed"

// FS holds progress/*.sql (completion and claim store) and
// submissions/*.sql (challenge submission store).
//
//go:embed progress/*.sql submissions/*.sql
var FS embed.FS

const (
	ProgressDir    = "progress"
	SubmissionsDir = "submissions"
)
