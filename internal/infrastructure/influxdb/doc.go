// Package influxdb records published waveform samples in InfluxDB v2.
//
// Recording is optional (influxdb.enabled in the config file) and purely
// observational: the publish loop hands every successfully published sample
// to RecordSample, which queues it on the non-blocking, batched write API of
// github.com/influxdata/influxdb-client-go/v2.
//
// Points use measurement "waveform", tags topic and source, and fields
// counter and value.
//
// # Usage
//
//	recorder, err := influxdb.Open(ctx, cfg.InfluxDB, session.ClientID())
//	if err != nil {
//	    return err
//	}
//	defer recorder.Close()
//	recorder.SetOnError(func(err error) { logger.Error("InfluxDB write error", "error", err) })
package influxdb
