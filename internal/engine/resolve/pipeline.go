package resolve

import (
	"context"
	"sync"
	"time"

	"classlink/internal/core/errors"
	"classlink/internal/engine/introspect"
	"classlink/internal/engine/registry"
	"classlink/internal/shared/observability"
)

// Pipeline drains a record store through the resolver. Records are
// independent, so they are fanned out over a fixed worker count; one
// record's failure never poisons another. The registry must be frozen
// (hierarchy-complete) before Resolve runs.
type Pipeline struct {
	resolver *Resolver
	reg      *registry.Registry
	workers  int
}

func NewPipeline(reg *registry.Registry, intro introspect.Introspector, workers int) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		resolver: NewResolver(reg, intro),
		reg:      reg,
		workers:  workers,
	}
}

// Resolve processes every registered record and returns the finished
// model. The only fatal error is an internal invariant violation (or a
// cancelled context); everything else degrades to warnings on the model.
func (p *Pipeline) Resolve(ctx context.Context, store *Store) (*Model, error) {
	start := time.Now()
	defer func() {
		observability.PhaseDuration.WithLabelValues("resolve").Observe(time.Since(start).Seconds())
	}()

	if !p.reg.Frozen() {
		return nil, errors.New(errors.CodeConflict, "registry must be frozen before resolution")
	}

	model := newModel(p.reg)
	records := store.All()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	var wg sync.WaitGroup

	var fatalMu sync.Mutex
	var fatal error
	setFatal := func(err error) {
		fatalMu.Lock()
		if fatal == nil {
			fatal = err
			cancel()
		}
		fatalMu.Unlock()
	}

	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				rec := records[idx]
				resolved, fallback, warn, err := p.resolver.ResolveRecord(ctx, rec)
				switch {
				case err != nil:
					setFatal(err)
					return
				case resolved == nil:
					model.drop(*warn)
				default:
					if warn != nil {
						model.warn(*warn)
					}
					model.add(rec.Caller, resolved, fallback)
				}
			}
		}()
	}

feed:
	for i := range records {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if fatal != nil {
		return nil, fatal
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return model, nil
}
