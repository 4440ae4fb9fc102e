package source

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
)

// convertAll runs fn for every index in [0, n) on an ants pool of workers
// goroutines. The first error returned by fn is reported once all
// submitted work has finished.
func convertAll(ctx context.Context, n, workers int, fn func(i int) error) error {
	if n == 0 {
		return nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	pool, err := ants.NewPoolWithFunc(workers, func(arg interface{}) {
		defer wg.Done()
		i := arg.(int)
		if err := fn(i); err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
		}
	})
	if err != nil {
		return errors.Wrap(err, "create conversion pool")
	}
	defer pool.Release()

	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		if err := pool.Invoke(i); err != nil {
			wg.Done()
			wg.Wait()
			return fmt.Errorf("convert item %d: %w", i, err)
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	return firstErr
}
