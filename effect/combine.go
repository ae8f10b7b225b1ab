package effect

import (
	"context"
	"sync"
)

// Concat runs the given effects strictly one after another: each
// effect is started only once the previous one has completed. Values
// are forwarded as they arrive. A failure terminates the whole
// sequence with that error and the remaining effects never start.
// Concat of nothing completes immediately.
func Concat[T any](effs ...Effect[T]) Effect[T] {
	return New(func(ctx context.Context) <-chan Step[T] {
		out := make(chan Step[T])
		go func() {
			defer close(out)
			for _, e := range effs {
				src := e.Run(ctx)
				for st := range src {
					failed := st.Err != nil
					select {
					case out <- st:
					case <-ctx.Done():
						for range src {
						}
						return
					}
					if failed {
						for range src {
						}
						return
					}
				}
			}
		}()
		return out
	})
}

// Merge runs the given effects concurrently and interleaves their
// values in arrival order. The merged effect completes once every
// input has completed. The first failure is forwarded and terminates
// the merged stream immediately; the remaining inputs keep running
// but their output is discarded, and none of their producers is left
// blocked. Merge of nothing completes immediately.
func Merge[T any](effs ...Effect[T]) Effect[T] {
	return New(func(ctx context.Context) <-chan Step[T] {
		out := make(chan Step[T])
		go func() {
			defer close(out)
			if len(effs) == 0 {
				return
			}

			mid := make(chan Step[T])
			var wg sync.WaitGroup
			for _, e := range effs {
				wg.Add(1)
				go func(e Effect[T]) {
					defer wg.Done()
					src := e.Run(ctx)
					for st := range src {
						select {
						case mid <- st:
						case <-ctx.Done():
							for range src {
							}
							return
						}
					}
				}(e)
			}
			go func() {
				wg.Wait()
				close(mid)
			}()

			for st := range mid {
				select {
				case out <- st:
				case <-ctx.Done():
					go drainSteps(mid)
					return
				}
				if st.Err != nil {
					go drainSteps(mid)
					return
				}
			}
		}()
		return out
	})
}

func drainSteps[T any](ch <-chan Step[T]) {
	for range ch {
	}
}
