package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/rmacdonaldsmith/railconsole/internal/loading"
	consolenav "github.com/rmacdonaldsmith/railconsole/internal/navigation"
	"github.com/rmacdonaldsmith/railconsole/pkg/navigation"
)

func newNavigateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "navigate <path>",
		Short: "Run a navigation attempt through the guard",
		Long: `Resolve a console route and run it through the navigation guard against the
logged-in flag in client storage. Prints where the attempt ends.`,
		Example: `  console-cli navigate /component-manage
  console-cli navigate /template-edit/42`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			guard, err := consolenav.NewGuard(consolenav.Config{
				Table:  routes,
				Logger: logger.With("component", "guard"),
			})
			if err != nil {
				return err
			}

			nav := consolenav.NewNavigator(guard, navigation.Env{
				Gate:     gate,
				Loader:   loading.New(terminal),
				Notifier: terminal,
			})
			decision, err := nav.Push(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			target := decision.Target
			fmt.Fprintf(out, "%s -> %s (%s)\n", decision.Requested, target.Path, decision.Outcome)
			fmt.Fprintf(out, "Route:     %s\n", target.Name)
			fmt.Fprintf(out, "Component: %s\n", target.Component)
			for k, v := range target.Params {
				fmt.Fprintf(out, "Param:     %s=%s\n", k, v)
			}
			trace := make([]string, 0, len(decision.Trace))
			for _, s := range decision.Trace {
				trace = append(trace, s.String())
			}
			fmt.Fprintf(out, "Trace:     %s\n", strings.Join(trace, " > "))
			return nil
		},
	}
}

func newRoutesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Show the console route table",
		RunE: func(cmd *cobra.Command, args []string) error {
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Path", "Name", "Component", "Login required"})
			for _, loc := range routes.Describe() {
				auth := ""
				if loc.Meta.RequiresAuth {
					auth = "yes"
				}
				t.AppendRow(table.Row{loc.Pattern, loc.Name, loc.Component, auth})
			}
			t.Render()
			fmt.Fprintf(cmd.OutOrStdout(), "Login page: %s\n", routes.LoginPath())
			return nil
		},
	}
}
