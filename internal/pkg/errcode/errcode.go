package errcode

const (
	ErrUnknown = 10000000 + iota
	ErrInvalid
	ErrProviderUnavailable
	ErrStoreUnavailable
	ErrInternal
)
