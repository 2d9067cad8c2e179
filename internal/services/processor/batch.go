package processor

import (
	"fmt"
	"sync"
)

type BatchResult struct {
	Index int
	Image *NormalizedImage
	Err   error
}

// NormalizeBatch normalizes sources concurrently. Results keep the order of
// sources and a failure only affects its own entry.
func (p *ImageProcessor) NormalizeBatch(sources []*SourceImage, opts Options, workers int) []BatchResult {
	results := make([]BatchResult, len(sources))
	if len(sources) == 0 {
		return results
	}

	numWorkers := workers
	if numWorkers <= 0 {
		numWorkers = DefaultWorkers
	}
	if len(sources) < numWorkers {
		numWorkers = len(sources)
	}

	jobs := make(chan int, len(sources))
	var wg sync.WaitGroup

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				p.processBatchJob(i, sources, opts, results)
			}
		}()
	}

	for i := range sources {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

func (p *ImageProcessor) processBatchJob(i int, sources []*SourceImage, opts Options, results []BatchResult) {
	img, err := p.Normalize(sources[i], opts)
	if err != nil {
		results[i] = BatchResult{Index: i, Err: fmt.Errorf("failed to process image %d: %w", i, err)}
		return
	}
	results[i] = BatchResult{Index: i, Image: img}
}
