// Copyright 2025 The restsvc Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newRoutesCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Print the routing table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := root.inspect(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "METHOD\tPATH\tSERVICE\tSTATUS\tSECURITY")
			for _, rt := range a.Server().Routes() {
				security := "-"
				if rt.Secured {
					security = rt.Authenticator
					if len(rt.Roles) > 0 {
						security += " [" + strings.Join(rt.Roles, ",") + "]"
					}
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", rt.Method, rt.Path, rt.Service, rt.Status, security)
			}

			return tw.Flush()
		},
	}
}
