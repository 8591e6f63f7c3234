package model

import "github.com/m-mizutani/goerr/v2"

// Error tags used by callers (HTTP layer, CLI) to map domain failures
// to a response class
var (
	ErrTagValidation = goerr.NewTag("validation")
	ErrTagConflict   = goerr.NewTag("conflict")
	ErrTagNotFound   = goerr.NewTag("not_found")
)

// Sentinel errors for domain operations
var (
	ErrUploadNotFound = goerr.New("upload not found", goerr.T(ErrTagNotFound))
	ErrResultNotFound = goerr.New("result set not found", goerr.T(ErrTagNotFound))

	// ErrWeekConflict means a live upload already exists for the target
	// week-ending date. The caller must replace it explicitly; the ledger
	// never overwrites or merges silently.
	ErrWeekConflict = goerr.New("upload already exists for week", goerr.T(ErrTagConflict))
)
