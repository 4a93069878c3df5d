// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Command nbfdump is a small CLI around the nbfs decoder: it reads a .NET
// Remoting BinaryFormatter stream from a file or stdin and prints the
// decoded value tree, either as indented JSON or as an interactive tree.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

func main() {
	rootCmd := &cobra.Command{
		Use:   "nbfdump",
		Short: "Decode .NET Remoting BinaryFormatter streams",
		Long:  "nbfdump decodes the .NET Remoting BinaryFormatter wire format into a plain value tree.",
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose (debug-level) logging")

	rootCmd.AddCommand(newDecodeCmd())
	rootCmd.AddCommand(newTUICmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("nbfdump 0.1.0")
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
