package pfv

import "golang.org/x/sync/errgroup"

// Pool applies a pure function across a set of indexed inputs and collects
// the results in input order, the one operation the encoder/decoder's
// per-macroblock fan-out needs. A Pool is owned by the Encoder/Decoder
// that created it; workers never suspend on I/O, and the outer frame loop
// stays single-threaded and sequential across frames.
type Pool struct {
	workers int
}

// NewPool returns a pool that runs work across at most workers goroutines.
// workers <= 1 degrades to a serial, in-order call of fn for each input;
// no goroutines are spawned.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// Map applies fn to every element of in, in parallel up to p.workers at a
// time, and returns the results in the same order as in. If fn returns an
// error for any input, Map returns the first such error (errgroup
// semantics); the other in-flight calls are allowed to finish but their
// results are discarded.
func Map[T, R any](p *Pool, in []T, fn func(int, T) (R, error)) ([]R, error) {
	out := make([]R, len(in))

	if p.workers <= 1 {
		for i, v := range in {
			r, err := fn(i, v)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	}

	var g errgroup.Group
	g.SetLimit(p.workers)

	for i, v := range in {
		i, v := i, v
		g.Go(func() error {
			r, err := fn(i, v)
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
