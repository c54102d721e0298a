// Package core exposes the transactional record service: typed CRUD on
// top of the envelope stores, association loading, confirmation checks,
// and schema archival.
package core

import (
	"recordcore/pkg/record"
)

// Aliases re-exported so service callers depend on a single package.
type (
	Result          = record.Result
	Violation       = record.Violation
	Rule            = record.Rule
	RulesEngine     = record.RulesEngine
	Change          = record.Change
	Envelope        = record.Envelope
	View            = record.View
	Transaction     = record.Transaction
	PersistentStore = record.PersistentStore
)

var NewRulesEngine = record.NewRulesEngine
