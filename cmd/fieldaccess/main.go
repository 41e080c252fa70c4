// Command fieldaccess resolves and inspects field permissions offline.
package main

import (
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"

	"fieldaccess/internal/permissions"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fieldaccess",
		Short:         "Resolve and inspect field-level permissions.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().String("config", "", "config file (default ./app.yaml)")

	root.AddCommand(
		newResolveCmd(),
		newTreeCmd(),
		newLintCmd(),
		newTokenCmd(),
	)
	return root
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	buf, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "marshal output")
	}
	_, err = w.Write(pretty.Pretty(buf))
	return err
}

// loadPermissions parses every file and merges the results. No files yield
// Absent.
func loadPermissions(paths []string) (permissions.Permissions, error) {
	trees := make([]permissions.Permissions, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return permissions.Absent, errors.Wrapf(err, "read permissions %s", path)
		}
		p, err := permissions.Parse(data)
		if err != nil {
			return permissions.Absent, errors.Wrapf(err, "parse permissions %s", path)
		}
		trees = append(trees, p)
	}
	return permissions.MergeAll(trees...), nil
}

func parseOperation(s string) (permissions.Operation, error) {
	for _, op := range permissions.Operations {
		if string(op) == s {
			return op, nil
		}
	}
	return "", errors.Errorf("unknown operation %q", s)
}
