package models

import "errors"

// Common errors shared by services, stores and handlers
var (
	ErrValidation         = errors.New("validation error")
	ErrModuleNotFound     = errors.New("module not found")
	ErrChapterNotFound    = errors.New("chapter not found")
	ErrChallengeNotFound  = errors.New("challenge not found")
	ErrClaimNotFound      = errors.New("claim not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrVersionConflict    = errors.New("completion record was modified concurrently")
	ErrAlreadyReviewed    = errors.New("submission already reviewed")
)
