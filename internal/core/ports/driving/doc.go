// Package driving provides interfaces for inbound adapters (primary ports).
//
// Driving ports are implemented by core services and called by the CLI
// (or any other front end): IndexService controls the single indexing
// job, SearchService answers queries.
package driving
