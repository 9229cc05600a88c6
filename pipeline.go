package impulse

import "sync"

// task runs fn on every item, split in contiguous chunks over the workers.
// fn must only touch its own item.
func task[T any](workers int, items []T, fn func(item T)) {
	if workers <= 1 || len(items) <= 1 {
		for _, item := range items {
			fn(item)
		}
		return
	}

	workers = min(workers, len(items))
	chunk := (len(items) + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < len(items); start += chunk {
		wg.Add(1)
		go func(part []T) {
			defer wg.Done()
			for _, item := range part {
				fn(item)
			}
		}(items[start:min(start+chunk, len(items))])
	}
	wg.Wait()
}
