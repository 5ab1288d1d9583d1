package convert

import "sync"

// parseChunks parses lines with fn, forking into workers chunks when the row
// count exceeds threshold. Chunk results are merged in input order, so the
// output is identical to a single-threaded parse. Any chunk error discards
// the whole result; no partial data escapes.
func parseChunks[T any](lines []string, workers, threshold int, fn func([]string) ([]T, error)) ([]T, error) {
	if workers < 2 || len(lines) <= threshold {
		return fn(lines)
	}

	chunks := splitEven(lines, workers)
	results := make([][]T, len(chunks))
	errs := make([]error, len(chunks))

	var wg sync.WaitGroup
	for i := range chunks {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = fn(chunks[i])
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	merged := make([]T, 0, len(lines))
	for _, part := range results {
		merged = append(merged, part...)
	}
	return merged, nil
}

// splitEven splits lines into at most n contiguous chunks of near-equal size.
func splitEven(lines []string, n int) [][]string {
	if n > len(lines) {
		n = len(lines)
	}
	chunks := make([][]string, 0, n)
	size := len(lines) / n
	rem := len(lines) % n

	start := 0
	for i := 0; i < n; i++ {
		end := start + size
		if i < rem {
			end++
		}
		chunks = append(chunks, lines[start:end])
		start = end
	}
	return chunks
}
