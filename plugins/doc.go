// Package plugins hosts plugin implementation subpackages. It intentionally
// contains no production runtime code itself; this file exists to satisfy
// tooling (go vet, architectural guard tests) for the checks that live
// alongside it.
//
// Plugin packages bundle models and rules installed into a core.Service as
// a unit. They must stay decoupled from the storage backends: depend on the
// service and the pkg/record contracts, never on internal/infra packages.
package plugins
