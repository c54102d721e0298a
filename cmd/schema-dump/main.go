// Command schema-dump renders the DDL for the registered models, either
// as raw SQL statements or as the JSON schema bundle the service archives.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"recordcore/internal/core"
	"recordcore/pkg/schema"
	"recordcore/plugins/blog"
)

var exitFunc = os.Exit

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "schema-dump:", err)
		exitFunc(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("schema-dump", flag.ContinueOnError)
	dialectFlag := fs.String("dialect", "sqlite", "target dialect: sqlite or postgres")
	formatFlag := fs.String("format", "sql", "output format: sql or json")
	if err := fs.Parse(args); err != nil {
		return err
	}

	dialect := schema.Dialect(*dialectFlag)
	svc := core.NewInMemoryService(schema.NewRegistry())
	if _, err := svc.InstallPlugin(blog.New()); err != nil {
		return err
	}

	switch *formatFlag {
	case "sql":
		stmts, err := svc.Registry().CreateStatements(dialect)
		if err != nil {
			return err
		}
		for _, stmt := range stmts {
			fmt.Fprintln(out, stmt)
		}
		return nil
	case "json":
		bundle, err := svc.BuildSchemaBundle(dialect)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(bundle)
	default:
		return fmt.Errorf("unknown format %q", *formatFlag)
	}
}
