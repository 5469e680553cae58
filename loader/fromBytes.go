package loader

import (
	"bytes"
	"fmt"
	"io"
	"net/url"

	"github.com/robbyt/go-scriptbind/internal/helpers"
)

// FromBytes implements the Loader interface for content from a byte slice.
type FromBytes struct {
	content   []byte
	sourceURL *url.URL
}

// NewFromBytes creates a new Loader from a byte slice. Text content that is
// only whitespace is rejected; binary content is accepted as is.
func NewFromBytes(content []byte) (*FromBytes, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: content is empty", ErrScriptNotAvailable)
	}
	if !isBinary(content) && len(bytes.TrimSpace(content)) == 0 {
		return nil, fmt.Errorf("%w: content contains only whitespace", ErrScriptNotAvailable)
	}

	u, err := url.Parse("bytes://inline/" + helpers.SHA256Bytes(content)[:8])
	if err != nil {
		return nil, fmt.Errorf("failed to create source URL: %w", err)
	}

	return &FromBytes{
		content:   bytes.Clone(content),
		sourceURL: u,
	}, nil
}

func (l *FromBytes) String() string {
	return fmt.Sprintf("loader.FromBytes{Bytes: %d}", len(l.content))
}

// GetReader returns a new reader for the stored content.
func (l *FromBytes) GetReader() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(l.content)), nil
}

// GetSourceURL returns the source URL of the script.
func (l *FromBytes) GetSourceURL() *url.URL {
	return l.sourceURL
}

// isBinary reports null bytes or control characters other than common whitespace.
func isBinary(data []byte) bool {
	for _, b := range data {
		if b == 0 || (b < 32 && b != '\n' && b != '\r' && b != '\t' && b != '\f' && b != '\v') {
			return true
		}
	}
	return false
}
