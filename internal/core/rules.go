package core

import (
	"context"
	"fmt"

	"recordcore/pkg/record"
	"recordcore/pkg/schema"
)

// UniqueColumnsRule blocks creates and updates that would duplicate a
// value in a column marked unique. Comparison is on the JSON-rendered
// column value, so it matches what the envelope stores persist.
type UniqueColumnsRule struct {
	registry *schema.Registry
}

// NewUniqueColumnsRule builds the rule against the given schema registry.
func NewUniqueColumnsRule(registry *schema.Registry) *UniqueColumnsRule {
	return &UniqueColumnsRule{registry: registry}
}

func (r *UniqueColumnsRule) Name() string { return "unique_columns" }

func (r *UniqueColumnsRule) Evaluate(_ context.Context, view record.View, changes []record.Change) (record.Result, error) {
	var result record.Result
	for _, change := range changes {
		if change.Action == record.ActionDelete || change.After == nil {
			continue
		}
		table, ok := r.registry.Lookup(change.Table)
		if !ok {
			continue
		}
		for _, col := range table.UniqueColumns() {
			value, ok := payloadField(change.After.Payload, col.Name)
			if !ok || value == nil {
				continue
			}
			for _, other := range view.List(change.Table) {
				if other.ID == change.After.ID {
					continue
				}
				existing, ok := payloadField(other.Payload, col.Name)
				if !ok {
					continue
				}
				if fmt.Sprint(existing) == fmt.Sprint(value) {
					result.Violations = append(result.Violations, record.Violation{
						Rule:     r.Name(),
						Severity: record.SeverityBlock,
						Message:  fmt.Sprintf("%s.%s %v already taken by %s", change.Table, col.Name, value, other.ID),
						Table:    change.Table,
						RecordID: change.After.ID,
					})
					break
				}
			}
		}
	}
	return result, nil
}

// NewDefaultEngine returns a rules engine preloaded with the rules every
// deployment wants: currently column uniqueness.
func NewDefaultEngine(registry *schema.Registry) *record.RulesEngine {
	engine := record.NewRulesEngine()
	engine.Register(NewUniqueColumnsRule(registry))
	return engine
}
