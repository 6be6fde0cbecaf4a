package transcode

import (
	"errors"
	"fmt"
)

var (
	ErrNoSupportedTargetFormat        = errors.New("no supported target format")
	ErrUnimplementedFormatCombination = errors.New("unimplemented format combination")
	ErrTranscodeFailed                = errors.New("transcode failed")
)

// LevelError reports the mip level whose transcode failed. It matches
// ErrTranscodeFailed as well as the underlying cause.
type LevelError struct {
	Level int
	Err   error
}

func (e *LevelError) Error() string {
	return fmt.Sprintf("transcode level %d: %v", e.Level, e.Err)
}

func (e *LevelError) Unwrap() []error {
	return []error{ErrTranscodeFailed, e.Err}
}
