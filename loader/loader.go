// Package loader reads script text from inline strings, byte slices and
// files on disk.
package loader

import (
	"fmt"
	"io"
	"net/url"
)

// Loader is an interface used by hosts to load scripts or binaries.
type Loader interface {
	GetReader() (io.ReadCloser, error)
	GetSourceURL() *url.URL
}

// ReadAll reads the full content of a loader and closes the reader.
func ReadAll(l Loader) (content []byte, err error) {
	if l == nil {
		return nil, ErrLoaderNil
	}
	reader, err := l.GetReader()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScriptNotAvailable, err)
	}
	defer func() {
		if closeErr := reader.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	content, err = io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: content is empty", ErrScriptNotAvailable)
	}
	return content, nil
}
