package main

import (
	"fmt"

	"github.com/robbyt/go-scriptbind/artifact"
	"github.com/spf13/cobra"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "List the types and methods a script declares",
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
			mod, err := c.CompileModule(script)
			if err != nil {
				printFailure(cmd.ErrOrStderr(), c.Diagnostics())
				return errDiagnostics
			}
			printEntries(cmd.ErrOrStderr(), c.Diagnostics().Entries)

			fmt.Fprintf(out, "module %s\n", nameColor.Sprint(mod.Name()))
			for _, t := range mod.Types() {
				fmt.Fprintf(out, "  type %s\n", nameColor.Sprint(t.Name()))
				lister, ok := t.(artifact.MethodLister)
				if !ok {
					continue
				}
				for _, m := range lister.Methods() {
					fmt.Fprintf(out, "    %s\n", m)
				}
			}
			return nil
		},
	}
}
