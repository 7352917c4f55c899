// Package syncer drains the pending write queue against the remote
// ledger. Failures split two ways: retryable ones (network, timeout,
// 5xx, auth) keep the entry queued, anything else is assumed to mean
// the remote side already durably applied the write and the entry is
// dropped as synced. The asymmetry favors never re-submitting a
// duplicate over retrying a write that already landed.
package syncer
