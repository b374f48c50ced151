package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/scene-sequencer/internal/sequencer"
)

// RecordCycle writes a cycle telemetry point.
//
// This implements the sequencer's metrics sink. The write is
// non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - key: Sequence key the cycle ran against
//   - target: Scene that was activated
//   - branch: Which cycle branch was taken (advance, skip-ahead, jump-to-last)
//   - duration: Wall-clock time the cycle took
func (c *Client) RecordCycle(key, target string, branch sequencer.Branch, duration time.Duration) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"sequencer_cycles",
		map[string]string{
			"key":    key,
			"branch": string(branch),
		},
		map[string]interface{}{
			"target":      target,
			"duration_ms": float64(duration.Microseconds()) / 1000.0,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// RecordStoreSize writes the current number of tracked sequences.
//
// Called after sweeps so retention behaviour is visible over time.
func (c *Client) RecordStoreSize(size, swept int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"sequencer_store",
		nil,
		map[string]interface{}{
			"size":  size,
			"swept": swept,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("system_stats",
//	    map[string]string{"host": "sequencer-01"},
//	    map[string]interface{}{"cpu_percent": 45.2, "memory_mb": 512})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
