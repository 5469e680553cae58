package main

import (
	"github.com/robbyt/go-scriptbind/diagnostics"
	"github.com/spf13/cobra"
)

func newDiagCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "diag <file>",
		Short: "Compile a script and print its diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := a.loadScript(args[0])
			if err != nil {
				return err
			}
			c, err := a.newCompiler(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, compileErr := c.CompileModule(script)
			rec := c.Diagnostics()
			printEntries(out, rec.Entries)

			if compileErr != nil || diagnostics.HasErrors(rec.Entries) {
				return errDiagnostics
			}
			if len(rec.Entries) == 0 {
				okColor.Fprintln(out, "ok")
			}
			return nil
		},
	}
}
