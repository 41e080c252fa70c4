package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"fieldaccess/internal/metadata"
)

func newLintCmd() *cobra.Command {
	var (
		entitiesFile string
		strict       bool
	)

	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Report permission keys that mean more than one thing.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entities, err := metadata.LoadFile(entitiesFile)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			count := 0
			for _, e := range entities {
				for _, issue := range metadata.LintEntity(e) {
					path := issue.Path
					if path == "" {
						path = "(top)"
					}
					fmt.Fprintf(out, "%s %s: %s\n", issue.Entity, path, issue.Collision)
					count++
				}
			}

			if count == 0 {
				fmt.Fprintf(out, "%d entities, no ambiguous keys\n", len(entities))
				return nil
			}
			if strict {
				return errors.Errorf("%d ambiguous keys", count)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&entitiesFile, "entities", "e", "entities.yaml", "entity definitions file (YAML or JSON)")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when ambiguous keys are found")
	return cmd
}
