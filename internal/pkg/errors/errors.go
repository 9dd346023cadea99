package errors

import "errors"

var (
	// ErrRead marks a file that could not be read or decoded. File-level:
	// skip the file, continue the batch.
	ErrRead = errors.New("read failed")
	// ErrEmptyContent marks a file whose extracted text is blank after
	// stripping. File-level: skip the file.
	ErrEmptyContent = errors.New("empty content")
	// ErrProvider marks an embedding call that exhausted its retries.
	// Chunk-level during ingestion, request-level during retrieval.
	ErrProvider = errors.New("embedding provider failed")
	// ErrSchema marks a vector dimension mismatch or malformed metadata.
	// Fatal for that insert only.
	ErrSchema = errors.New("schema mismatch")
	// ErrStoreUnavailable marks a lost backend connection. Fatal for the
	// whole batch or request; never retried silently.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrInvalid marks a configuration or argument error that terminates
	// the run.
	ErrInvalid = errors.New("invalid")
)

func IsRead(err error) bool {
	return errors.Is(err, ErrRead)
}

func IsEmptyContent(err error) bool {
	return errors.Is(err, ErrEmptyContent)
}

func IsProvider(err error) bool {
	return errors.Is(err, ErrProvider)
}

func IsSchema(err error) bool {
	return errors.Is(err, ErrSchema)
}

func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
