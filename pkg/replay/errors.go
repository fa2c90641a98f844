package replay

import (
	"errors"
	"fmt"
	"path/filepath"
)

var (
	// ErrBail is matched by every *BailError.
	ErrBail = errors.New("bail mode is active")

	// ErrNoRecord is returned by LoadShared when the file does not exist or
	// does not decode.
	ErrNoRecord = errors.New("no stored record")
)

// BailError reports a recording that bail mode refused to write.
type BailError struct {
	Dir  string
	Name string
}

// Path returns the file that would have been written.
func (e *BailError) Path() string {
	return filepath.Join(e.Dir, e.Name)
}

func (e *BailError) Error() string {
	return fmt.Sprintf("httpreplay attempted to write [%s] but bail mode is active; run the tests locally to record new responses", e.Path())
}

func (e *BailError) Unwrap() error {
	return ErrBail
}
