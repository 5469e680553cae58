package compiler

import "errors"

var ErrEngineNil = errors.New("compile engine is nil")

// Fixed failure messages written into the diagnostics record.
const (
	msgModuleFailed = "module generation failed"
	msgShapeNil     = "callable shape is nil"
)
