package compile

import "errors"

var (
	ErrCompileFailed = errors.New("failed to compile wasm module")
	ErrContentNil    = errors.New("wasm content is empty")
	ErrInvalidBinary = errors.New("script is not base64 encoded wasm")
)
