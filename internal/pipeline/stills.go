package pipeline

import (
	"context"
	"image"
	"runtime"
	"sync"
)

// StillResult is the outcome of one still image.
type StillResult struct {
	Index  int
	Result *FrameResult
	Err    error
}

// ProcessStills processes unrelated frames in parallel, each with a fresh
// tracking state. Results are returned in input order.
//
// workers <= 0 uses GOMAXPROCS. When ctx is cancelled no further frames are
// started; frames that were not processed report ctx.Err() and the returned
// error is ctx.Err().
func (p *Pipeline) ProcessStills(ctx context.Context, frames []image.Image, workers int) ([]StillResult, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(frames) {
		workers = len(frames)
	}

	results := make([]StillResult, len(frames))
	for i := range results {
		results[i].Index = i
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i].Result, results[i].Err = p.Process(p.NewState(), frames[i])
			}
		}()
	}

	next := 0
feed:
	for ; next < len(frames); next++ {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break feed
		case jobs <- next:
		}
	}
	close(jobs)
	wg.Wait()

	if next < len(frames) {
		for i := next; i < len(frames); i++ {
			results[i].Err = ctx.Err()
		}
		return results, ctx.Err()
	}
	return results, nil
}
