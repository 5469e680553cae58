package main

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	anyType   = reflect.TypeFor[any]()
	errorType = reflect.TypeFor[error]()
)

// callShape is func(any, ...) (any, error) with one parameter per argument.
func callShape(argc int) reflect.Type {
	in := make([]reflect.Type, argc)
	for i := range in {
		in[i] = anyType
	}
	return reflect.FuncOf(in, []reflect.Type{anyType, errorType}, false)
}

// parseArg turns a command line argument into an int, float, bool or string.
func parseArg(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil && (s == "true" || s == "false") {
		return b
	}
	return s
}

func newCallCmd(a *app) *cobra.Command {
	var typeName, methodName string

	cmd := &cobra.Command{
		Use:   "call <file> [args...]",
		Short: "Bind a method of a script type and call it with the given arguments",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := a.loadScript(args[0])
			if err != nil {
				return err
			}
			c, err := a.newCompiler(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			callArgs := args[1:]
			fn, err := c.BindCallable(script, typeName, methodName, callShape(len(callArgs)), nil)
			if err != nil {
				printFailure(cmd.ErrOrStderr(), c.Diagnostics())
				return errDiagnostics
			}

			in := make([]reflect.Value, len(callArgs))
			for i, arg := range callArgs {
				in[i] = reflect.ValueOf(parseArg(arg))
			}
			out := fn.Call(in)
			if callErr, _ := out[1].Interface().(error); callErr != nil {
				return fmt.Errorf("call failed: %w", callErr)
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatResult(out[0].Interface()))
			return nil
		},
	}

	cmd.Flags().StringVar(&typeName, "type", "", "type declared by the script")
	cmd.Flags().StringVar(&methodName, "method", "", "method to call; inferred from the script when empty")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}
