// Package metrics aggregates relay traffic: chat stream outcomes with their
// durations and time to first content, and image request outcomes with their
// latency. A nil *Collector records nothing.
package metrics

import (
	"sync"
	"time"
)

// Outcome classifies how a relayed request ended
type Outcome string

const (
	// OutcomeCompleted means the client received the full reply
	OutcomeCompleted Outcome = "completed"
	// OutcomeFailed means the collaborator failed and the client was told so
	OutcomeFailed Outcome = "failed"
	// OutcomeAborted means the client went away before the reply ended
	OutcomeAborted Outcome = "aborted"
)

// StreamSnapshot reports chat stream traffic
type StreamSnapshot struct {
	Total              int64   `json:"total"`
	Completed          int64   `json:"completed"`
	Failed             int64   `json:"failed"`
	Aborted            int64   `json:"aborted"`
	ContentFrames      int64   `json:"content_frames"`
	Duration           Latency `json:"duration"`
	TimeToFirstContent Latency `json:"time_to_first_content"`
}

// ImageSnapshot reports image request traffic
type ImageSnapshot struct {
	Total     int64   `json:"total"`
	Completed int64   `json:"completed"`
	Failed    int64   `json:"failed"`
	Aborted   int64   `json:"aborted"`
	Latency   Latency `json:"latency"`
}

// Snapshot is a point-in-time copy of a Collector
type Snapshot struct {
	Streams StreamSnapshot `json:"streams"`
	Images  ImageSnapshot  `json:"images"`
}

// Collector counts relayed chat streams and image requests
type Collector struct {
	mu            sync.Mutex
	streams       map[Outcome]int64
	contentFrames int64
	images        map[Outcome]int64

	streamDuration *Histogram
	firstContent   *Histogram
	imageLatency   *Histogram
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{
		streams:        make(map[Outcome]int64),
		images:         make(map[Outcome]int64),
		streamDuration: NewHistogram(defaultSampleSize),
		firstContent:   NewHistogram(defaultSampleSize),
		imageLatency:   NewHistogram(defaultSampleSize),
	}
}

// RecordStream records one finished chat stream. firstContent is zero when no
// content frame was sent and is then left out of the first-content histogram.
func (c *Collector) RecordStream(outcome Outcome, duration, firstContent time.Duration, contentFrames int) {
	if c == nil {
		return
	}

	c.mu.Lock()
	c.streams[outcome]++
	c.contentFrames += int64(contentFrames)
	c.mu.Unlock()

	c.streamDuration.Add(duration)
	if contentFrames > 0 {
		c.firstContent.Add(firstContent)
	}
}

// RecordImage records one finished image request
func (c *Collector) RecordImage(outcome Outcome, latency time.Duration) {
	if c == nil {
		return
	}

	c.mu.Lock()
	c.images[outcome]++
	c.mu.Unlock()

	c.imageLatency.Add(latency)
}

// Snapshot returns the current counters and latency summaries
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}

	c.mu.Lock()
	streams := StreamSnapshot{
		Completed:     c.streams[OutcomeCompleted],
		Failed:        c.streams[OutcomeFailed],
		Aborted:       c.streams[OutcomeAborted],
		ContentFrames: c.contentFrames,
	}
	images := ImageSnapshot{
		Completed: c.images[OutcomeCompleted],
		Failed:    c.images[OutcomeFailed],
		Aborted:   c.images[OutcomeAborted],
	}
	c.mu.Unlock()

	streams.Total = streams.Completed + streams.Failed + streams.Aborted
	streams.Duration = c.streamDuration.Summary()
	streams.TimeToFirstContent = c.firstContent.Summary()
	images.Total = images.Completed + images.Failed + images.Aborted
	images.Latency = c.imageLatency.Summary()

	return Snapshot{Streams: streams, Images: images}
}
