package acta

import "sync"

// fanOut runs fn for every id on a fixed number of workers and returns the
// results indexed by input position, so completion order never leaks into
// course ordering.
func fanOut[T any](workers int, ids []string, fn func(id string) T) []T {
	if workers > len(ids) {
		workers = len(ids)
	}
	results := make([]T, len(ids))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = fn(ids[i])
			}
		}()
	}
	for i := range ids {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}
