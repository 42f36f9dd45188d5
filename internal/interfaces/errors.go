package interfaces

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateArticle indicates an article with the same external ID
	// already exists in the buffer.
	ErrDuplicateArticle = errors.New("duplicate article")

	// ErrJobNotFound indicates an unknown scheduler job name.
	ErrJobNotFound = errors.New("job not found")
)
