package specgram

import "errors"

var (
	// ErrInvalidConfig marks configuration errors found while building a Specgram
	ErrInvalidConfig = errors.New("invalid spectrogram configuration")

	ErrNotMono        = errors.New("audio must be mono")
	ErrSampleFormat   = errors.New("audio must be 16-bit PCM")
	ErrBufferSize     = errors.New("destination buffer size does not match width*height")
	ErrSignalTooShort = errors.New("signal shorter than one window")
	ErrTooManyWindows = errors.New("strided window count exceeds configured width")
	ErrTooManyRows    = errors.New("feature rows exceed configured height")
)
