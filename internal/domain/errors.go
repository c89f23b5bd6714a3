package domain

import "errors"

// Sentinel errors for the taxonomy in spec.md §7. Components wrap these
// with fmt.Errorf("...: %w", Err...) so callers can still errors.Is
// against the semantic category while keeping a descriptive message.
var (
	// ErrNotFound: ticker or reporting period absent. The caller drops
	// the ticker from the current rebalance and logs; it never
	// propagates unless the universe falls below viability.
	ErrNotFound = errors.New("not found")

	// ErrSourceUnavailable: transient network/remote-API failure.
	// Retried with backoff; surfaced only on exhaustion.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrStaleData: the consolidated cache entry's TTL has expired and a
	// refresh attempt failed. The caller chooses whether to accept it.
	ErrStaleData = errors.New("stale data")

	// ErrDataIntegrity: missing required fields, negative denominators,
	// non-monotonic price series. The affected factor input becomes NaN
	// (neutral z=0); fabricated substitutes are never used.
	ErrDataIntegrity = errors.New("data integrity violation")

	// ErrTemporalViolation: a datum with date >= as_of entered a
	// point-in-time computation. Fatal — aborts the rebalance.
	ErrTemporalViolation = errors.New("temporal violation: data at or after as_of")

	// ErrInfeasibleOptimization: the convex solver could not satisfy the
	// constraints (e.g. max_position_size too small for N < ceil(1/cap)).
	ErrInfeasibleOptimization = errors.New("infeasible optimization constraints")

	// ErrSingularCovariance: the covariance matrix is not positive
	// definite even after shrinkage intensity 1.0.
	ErrSingularCovariance = errors.New("singular covariance matrix")

	// ErrUniverseTooSparse: fewer than 50% of the requested tickers
	// could be resolved for a rebalance.
	ErrUniverseTooSparse = errors.New("universe too sparse: fewer than 50% of tickers resolved")

	// ErrConfigError: invalid configuration — weights that don't sum to
	// 1, negative caps, top_n larger than the universe. Fatal at
	// construction.
	ErrConfigError = errors.New("invalid configuration")
)
