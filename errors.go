package autohds

import "github.com/cockroachdb/errors"

var (
	// ErrInvalidConfig is returned when a Config fails validation. No file is
	// read or written when it is returned.
	ErrInvalidConfig = errors.New("autohds: invalid config")

	// ErrMalformedInput is returned for unparsable tokens, ragged rows and bad
	// class columns in text input.
	ErrMalformedInput = errors.New("autohds: malformed input")

	// ErrCorruptStore is returned when a binary distance or HDS file does not
	// have the size or header its contents imply.
	ErrCorruptStore = errors.New("autohds: corrupt store")

	// ErrNoHDSData is returned when a step needs saved HDS results that do not
	// exist yet.
	ErrNoHDSData = errors.New("autohds: no HDS data")
)

func invalidConfigf(format string, args ...any) error {
	return errors.Mark(errors.Newf("autohds: "+format, args...), ErrInvalidConfig)
}

func malformedf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrMalformedInput)
}

func corruptf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrCorruptStore)
}
