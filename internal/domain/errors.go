package domain

import "errors"

var (
	ErrConnectivity         = errors.New("inference service is not reachable")
	ErrDecryptionFailed     = errors.New("encrypted PDF could not be decrypted with any known password")
	ErrProcessingFailed     = errors.New("document processing failed")
	ErrInferenceFailed      = errors.New("inference failed")
	ErrMalformedReport      = errors.New("model returned a malformed report")
	ErrModelInstall         = errors.New("model installation failed")
	ErrNoDocumentsProcessed = errors.New("no documents could be processed")
	ErrFileNotFound         = errors.New("uploaded file not found")
	ErrUnsupportedFileType  = errors.New("unsupported file type")
	ErrFileTooLarge         = errors.New("file exceeds maximum allowed size")
	ErrTooManyFiles         = errors.New("too many files in one request")
	ErrNoFiles              = errors.New("no files provided")
	ErrArchiveFailed        = errors.New("report archive failed")
)
