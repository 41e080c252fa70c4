package main

import (
	"github.com/spf13/cobra"

	"fieldaccess/internal/permissions"
)

func newResolveCmd() *cobra.Command {
	var (
		files     []string
		field     string
		operation string
		parent    string
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve the access flags of one field.",
		Long: `Resolve prints the operation and read flags of a field together with the
permissions its sub-fields resolve against. Several --permissions files are
merged. Leave --field empty for an unnamed layout field.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			op, err := parseOperation(operation)
			if err != nil {
				return err
			}
			perms, err := loadPermissions(files)
			if err != nil {
				return err
			}

			var f permissions.Field = permissions.Unnamed{}
			if field != "" {
				f = permissions.Name(field)
			}
			return printJSON(cmd.OutOrStdout(), permissions.Resolve(f, op, parent, perms))
		},
	}

	cmd.Flags().StringArrayVarP(&files, "permissions", "p", nil, "permissions JSON file (repeatable)")
	cmd.Flags().StringVarP(&field, "field", "f", "", "field name")
	cmd.Flags().StringVarP(&operation, "operation", "o", string(permissions.OperationRead), "operation")
	cmd.Flags().StringVar(&parent, "parent", "", "name of the enclosing container")
	return cmd
}
