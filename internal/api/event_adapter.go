package api

import (
	"fiddler/ports"
)

// progressEvery is how often a run reports to its SSE listeners.
func progressEvery(n int) int {
	return max(1, n/50)
}

// broadcastProgress adapts the hub to the generator's progress callback.
func broadcastProgress(hub *SSEHub, key string) ports.ProgressFunc {
	return func(done, total int) {
		hub.Broadcast(ProgressEvent{Key: key, Done: done, Total: total})
	}
}

// finish tells listeners on key that the run is over.
func finish(hub *SSEHub, key string, total int, err error) {
	event := ProgressEvent{Key: key, Done: total, Total: total, Finished: true}
	if err != nil {
		event.Done = 0
		event.Error = err.Error()
	}
	hub.Broadcast(event)
}
