package domain

import "errors"

var (
	ErrNoFiles             = errors.New("at least one file is required")
	ErrUnsupportedFileType = errors.New("only CSV files are accepted")
	ErrUploadTooLarge      = errors.New("file exceeds the maximum upload size")
	ErrFileNotFound        = errors.New("file not found")
	ErrForbidden           = errors.New("forbidden resource")
)
