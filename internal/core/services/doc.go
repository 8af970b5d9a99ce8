// Package services contains the application core: the index
// orchestrator, the search service and the change scheduler. Services
// depend only on domain types and ports; adapters are injected at
// construction time.
package services
