package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"recordcore/internal/blob"
	"recordcore/pkg/record"
	"recordcore/pkg/schema"
)

// SchemaBundle is the archived description of the registered schema:
// table metadata plus the generated DDL for one dialect.
type SchemaBundle struct {
	Dialect     schema.Dialect `json:"dialect"`
	GeneratedAt time.Time      `json:"generated_at"`
	Tables      []BundleTable  `json:"tables"`
	Statements  []string       `json:"statements"`
}

// BundleTable is the serializable slice of a registered table.
type BundleTable struct {
	Name         string               `json:"name"`
	Columns      []schema.Column      `json:"columns"`
	Associations []record.Association `json:"associations,omitempty"`
}

// BuildSchemaBundle renders the registry into an archivable bundle.
func (s *Service) BuildSchemaBundle(dialect schema.Dialect) (SchemaBundle, error) {
	stmts, err := s.registry.CreateStatements(dialect)
	if err != nil {
		return SchemaBundle{}, err
	}
	bundle := SchemaBundle{
		Dialect:     dialect,
		GeneratedAt: s.now(),
		Statements:  stmts,
	}
	for _, table := range s.registry.Tables() {
		bundle.Tables = append(bundle.Tables, BundleTable{
			Name:         table.Name,
			Columns:      table.Columns,
			Associations: table.Associations,
		})
	}
	return bundle, nil
}

// ArchiveSchema writes the schema bundle for dialect into the blob store
// under schema/<dialect>/<timestamp>.json and returns the stored info.
func (s *Service) ArchiveSchema(ctx context.Context, store blob.Store, dialect schema.Dialect) (blob.Info, error) {
	var info blob.Info
	err := s.observe(ctx, "archive_schema", func(ctx context.Context) error {
		bundle, err := s.BuildSchemaBundle(dialect)
		if err != nil {
			return err
		}
		body, err := json.MarshalIndent(bundle, "", "  ")
		if err != nil {
			return err
		}
		key := fmt.Sprintf("schema/%s/%s.json", dialect, bundle.GeneratedAt.Format("20060102T150405.000000000"))
		info, err = store.Put(ctx, key, bytes.NewReader(body), blob.PutOptions{
			ContentType: "application/json",
			Metadata:    map[string]string{"dialect": string(dialect)},
		})
		return err
	})
	return info, err
}
