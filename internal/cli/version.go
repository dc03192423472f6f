// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/UnderscoreTud/skript-server-wizard/internal/document"
)

// VersionInfo describes the build as a document.
func VersionInfo() document.Value {
	return document.Mapping(
		document.Pair("version", document.String(Version)),
		document.Pair("commit", document.String(GitCommit)),
		document.Pair("built", document.String(BuildDate)),
		document.Pair("go", document.String(runtime.Version())),
		document.Pair("platform", document.String(runtime.GOOS+"/"+runtime.GOARCH)),
	)
}

func newVersionCmd(s streams) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number of wizard",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON {
				_, err := fmt.Fprintln(s.out, document.Indent(VersionInfo(), "", "  "))
				return err
			}
			_, err := fmt.Fprintf(s.out, "wizard version %s (%s, built %s)\n", Version, GitCommit, BuildDate)
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print build information as JSON")
	return cmd
}
