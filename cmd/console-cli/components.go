package main

import (
	"fmt"
	"net/url"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// component is a component template as returned by the backend
type component struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	Images      []string  `json:"images"`
	CreatedAt   time.Time `json:"createdAt"`
}

func newComponentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "components",
		Short: "Manage component templates",
	}

	cmd.AddCommand(newComponentsListCommand())
	cmd.AddCommand(newComponentsCreateCommand())
	cmd.AddCommand(newComponentsDeleteCommand())

	return cmd
}

func newComponentsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List component templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAuthentication(cmd.Context()); err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()

			var comps []component
			if err := client.GetJSON(ctx, "/components", nil, &comps); err != nil {
				return err
			}

			if len(comps) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No components found")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"ID", "Name", "Code", "Images", "Created"})
			for _, c := range comps {
				t.AppendRow(table.Row{c.ID, c.Name, c.Code, len(c.Images), c.CreatedAt.Format("2006-01-02 15:04:05")})
			}
			t.Render()
			return nil
		},
	}
}

func newComponentsCreateCommand() *cobra.Command {
	var name, code, description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a component template",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAuthentication(cmd.Context()); err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()

			in := map[string]string{"name": name, "code": code, "description": description}
			var created component
			if err := client.PostJSON(ctx, "/components", in, &created); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created component %s (%s)\n", created.ID, created.Code)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Component name")
	cmd.Flags().StringVar(&code, "code", "", "Component code")
	cmd.Flags().StringVar(&description, "description", "", "Component description")

	return cmd
}

func newComponentsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a component template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAuthentication(cmd.Context()); err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()

			if err := client.Delete(ctx, "/components/"+url.PathEscape(args[0]), nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted component %s\n", args[0])
			return nil
		},
	}
}
