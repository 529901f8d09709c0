package ports

// ProgressFunc receives the number of completed traces and the requested
// total. It is called synchronously on the goroutine that called Generate and
// must return promptly.
type ProgressFunc func(done, total int)
