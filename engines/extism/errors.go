package extism

import "errors"

var (
	ErrEntryPointEmpty = errors.New("entry point is empty")
	ErrTypeNameEmpty   = errors.New("type name is empty")
	ErrCacheDirEmpty   = errors.New("cache directory is empty")
	ErrNotFunc         = errors.New("shape is not a func type")
	ErrVariadicShape   = errors.New("variadic shapes are not supported")
	ErrUnsupportedIn   = errors.New("unsupported parameter list")
	ErrUnsupportedOut  = errors.New("unsupported result signature")
	ErrBinder          = errors.New("binder must be an extism PluginInstanceConfig")
	ErrExitCode        = errors.New("function returned non-zero exit code")
)
