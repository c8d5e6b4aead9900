// Package gosdt implements a parallel branch-and-bound solver for globally
// optimal sparse decision trees.
//
// The solver explores a DAG of subproblems keyed by "capture sets" (bitsets
// over training rows reachable by a sequence of feature splits). Worker
// goroutines pop prioritized messages from a shared queue, create or reload
// subproblem state, tighten objective bounds, and propagate the tightened
// bounds to other subproblems until the root's bounds converge or a
// termination condition fires.
//
// # Quick start
//
//	cfg := gosdt.NewConfiguration(
//		gosdt.WithRegularization(0.01),
//		gosdt.WithWorkerLimit(4),
//		gosdt.WithTimeLimit(60*time.Second),
//	)
//	ds, err := dataset.New(input, costMatrix, featureMap)
//	result, err := gosdt.Fit(ctx, cfg, ds, nil, nil)
//	fmt.Println(result.Model, result.Status)
//
// # Result status
//
// A finished fit reports one of CONVERGED, TIMEOUT, NON_CONVERGENCE, or
// FALSE_CONVERGENCE (see Status). Callers inspect Result.LowerBound and
// Result.UpperBound to judge how close an unconverged run came.
package gosdt
