// Command recordctl is the developer CLI of the record engine: it resolves
// paths against a route table, previews and runs entity queries, prints DDL
// for the schema file and applies migrations.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "recordctl:", err)
		os.Exit(1)
	}
}
