package stubs

import "errors"

var (
	ErrDocumentFillFailed       = errors.New("document fill failed")
	ErrDocumentConversionFailed = errors.New("document conversion failed")
	ErrArchiveFailed            = errors.New("archive failed")
)
