package imagedata

import (
	"runtime"
	"sync"

	"github.com/wippyai/rawpsd"
)

// Job is one channel decode unit. Channel decodes never depend on each
// other, so a batch of jobs can run concurrently.
type Job struct {
	Method    rawpsd.CompressionMethod
	ChannelID int16
	Payload   []byte
	Width     int
	Height    int
}

// DecodeAll decodes every job and returns the planes in job order. Jobs run
// on a bounded worker pool writing into pre-sized slots; no writes alias.
// On failure the first error in job order is returned, so results are
// deterministic regardless of scheduling.
func DecodeAll(jobs []Job) ([][]byte, error) {
	planes := make([][]byte, len(jobs))
	errs := make([]error, len(jobs))

	workers := runtime.NumCPU()
	if workers > len(jobs) {
		workers = len(jobs)
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	next := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range next {
				j := jobs[i]
				planes[i], errs[i] = Decode(j.Method, j.ChannelID, j.Payload, j.Width, j.Height)
			}
		}()
	}
	for i := range jobs {
		next <- i
	}
	close(next)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return planes, nil
}
