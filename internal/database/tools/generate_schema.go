// Command generate_schema writes the schema produced by the embedded
// migrations to the file sqlc reads.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/aymenrakics/Secure-Messaging-System/internal/database"
	"github.com/aymenrakics/Secure-Messaging-System/internal/database/migrations"
)

func main() {
	out := flag.String("o", "internal/database/sqlc/schema.sql", "output file")
	flag.Parse()

	if err := run(*out); err != nil {
		fmt.Fprintf(os.Stderr, "generate_schema: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s\n", *out)
}

func run(out string) error {
	db, err := database.OpenConnection(":memory:")
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrations.MigrateUp(db); err != nil {
		return err
	}
	schema, err := migrations.Schema(db)
	if err != nil {
		return err
	}
	return os.WriteFile(out, []byte(schema), 0644)
}
