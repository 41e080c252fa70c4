package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"fieldaccess/internal/engine"
	"fieldaccess/internal/metadata"
	"fieldaccess/internal/permissions"
)

func newTreeCmd() *cobra.Command {
	var (
		entitiesFile string
		entityName   string
		files        []string
		userID       string
		roles        []string
		operation    string
	)

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Resolve every field of an entity.",
		Long: `Tree resolves all fields of an entity for one operation. Permissions come
from --permissions files, or are built from the entity's access expressions
for a user given by --user and --role.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			op, err := parseOperation(operation)
			if err != nil {
				return err
			}

			entities, err := metadata.LoadFile(entitiesFile)
			if err != nil {
				return err
			}
			reg := metadata.NewRegistry()
			reg.Load(entities)
			entity := reg.GetEntity(entityName)
			if entity == nil {
				return errors.Errorf("entity %q not found in %s", entityName, entitiesFile)
			}

			var perms permissions.Permissions
			if len(files) > 0 {
				perms, err = loadPermissions(files)
				if err != nil {
					return err
				}
			} else {
				user := &metadata.UserContext{ID: userID, Roles: roles}
				perms, err = engine.BuildPermissions(entity, user, engine.NewExprLangEvaluator())
				if err != nil {
					cmd.PrintErrln("warning:", err)
				}
			}

			return printJSON(cmd.OutOrStdout(), engine.ResolveTree(entity.Fields, op, "", perms))
		},
	}

	cmd.Flags().StringVarP(&entitiesFile, "entities", "e", "entities.yaml", "entity definitions file (YAML or JSON)")
	cmd.Flags().StringVar(&entityName, "entity", "", "entity name")
	cmd.Flags().StringArrayVarP(&files, "permissions", "p", nil, "permissions JSON file (repeatable)")
	cmd.Flags().StringVar(&userID, "user", "cli", "user id for access expressions")
	cmd.Flags().StringSliceVar(&roles, "role", nil, "user role (repeatable)")
	cmd.Flags().StringVarP(&operation, "operation", "o", string(permissions.OperationRead), "operation")
	_ = cmd.MarkFlagRequired("entity")
	return cmd
}
