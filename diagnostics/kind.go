package diagnostics

// Kind classifies the most recent pipeline failure.
type Kind int

const (
	// None means the latest run did not fail.
	None Kind = iota
	// ModuleFailure means the compile engine produced no module.
	ModuleFailure
	// TypeFailure means the named type is absent from the module.
	TypeFailure
	// MethodFailure means the named method is absent from the type.
	MethodFailure
	// CallableFailure means the method could not be bound to the requested shape.
	CallableFailure
)

func (k Kind) String() string {
	switch k {
	case None:
		return "None"
	case ModuleFailure:
		return "ModuleFailure"
	case TypeFailure:
		return "TypeFailure"
	case MethodFailure:
		return "MethodFailure"
	case CallableFailure:
		return "CallableFailure"
	default:
		return "Unknown"
	}
}

// sentinel returns the package level error matching the kind, or nil for None.
func (k Kind) sentinel() error {
	switch k {
	case ModuleFailure:
		return ErrModuleFailure
	case TypeFailure:
		return ErrTypeFailure
	case MethodFailure:
		return ErrMethodFailure
	case CallableFailure:
		return ErrCallableFailure
	default:
		return nil
	}
}
