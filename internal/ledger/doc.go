// Package ledger defines the domain types shared across the client:
// authoritative remote game records, provisional local submissions, and
// the derived enriched/stats views. It also implements the pure record
// transformations (role identification, enrichment, round filtering)
// that do not touch storage or the network.
package ledger
