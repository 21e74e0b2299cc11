package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// measurement is where published samples are stored.
const measurement = "waveform"

// RecordSample queues one published sample, timestamped now.
//
// The point is tagged with the MQTT topic and the source client and carries
// the counter and the unrounded sine value as fields.
func (r *Recorder) RecordSample(topic string, counter, value float64) {
	r.record(topic, counter, value, time.Now())
}

func (r *Recorder) record(topic string, counter, value float64, ts time.Time) {
	if r.isClosed() {
		return
	}

	r.writes.WritePoint(write.NewPoint(
		measurement,
		map[string]string{
			"topic":  topic,
			"source": r.source,
		},
		map[string]interface{}{
			"counter": counter,
			"value":   value,
		},
		ts,
	))
}
