package util

import "errors"

var (
	ErrModuleNotFound        = errors.New("module not found")
	ErrSectionNotFound       = errors.New("section not found")
	ErrResourceNotFound      = errors.New("resource not found")
	ErrProgressNotFound      = errors.New("progress not found")
	ErrPrerequisitesNotMet   = errors.New("module prerequisites not completed")
	ErrCertificateNotAllowed = errors.New("module not completed or not found")
	ErrCertificateNotFound   = errors.New("certificate not found")
	ErrCertificateInProgress = errors.New("certificate issuance already in progress")
	ErrAnnotationNotFound    = errors.New("bookmark or note not found")
)
