package domain

import "errors"

var (
	ErrDuplicateModule = errors.New("module already registered")
	ErrModuleNil       = errors.New("module is nil")
	ErrNameEmpty       = errors.New("domain name is empty")
)
