// Package breaker wraps sony/gobreaker/v2 with a trip-policy abstraction
// and an async, panic-safe state-change callback.
//
// It exists so redlock's per-instance network calls can stop dialing a
// server that has been failing every call for a while, instead of paying
// the full per-call timeout on every acquisition attempt. A wedged
// instance behind an open breaker is skipped immediately and simply
// contributes 0 to the quorum count, exactly as a connection failure
// would per the protocol's error-handling rules.
package breaker
