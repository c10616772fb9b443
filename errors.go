package nankill

import "errors"

var (
	ErrNilImage          = errors.New("nankill: nil image")
	ErrMaskSize          = errors.New("nankill: mask dimensions do not match image")
	ErrNonFiniteDefault  = errors.New("nankill: default value is not finite")
	ErrNonFiniteGrid     = errors.New("nankill: sampling grid entry is not finite")
	ErrInvalidGrid       = errors.New("nankill: sampling grid must have 9 entries")
	ErrInvalidHeader     = errors.New("nankill: invalid PFM header")
	ErrTruncatedData     = errors.New("nankill: truncated data")
	ErrUnsupportedFormat = errors.New("nankill: unsupported format")
	ErrImageTooLarge     = errors.New("nankill: image dimensions exceed limit")
)
