package starlark

import "errors"

var (
	ErrCacheDirEmpty    = errors.New("cache directory is empty")
	ErrArtifactInvalid  = errors.New("compiled artifact is invalid")
	ErrArtifactWrite    = errors.New("failed to write compiled artifact")
	ErrNotFunc          = errors.New("shape is not a func type")
	ErrVariadicShape    = errors.New("variadic shapes are not supported")
	ErrUnsupportedParam = errors.New("unsupported parameter type")
	ErrUnsupportedOut   = errors.New("unsupported result signature")
	ErrArity            = errors.New("argument count does not match method parameters")
	ErrBinder           = errors.New("binder cannot be passed to script")
	ErrNotCallable      = errors.New("attribute is not callable")
)
