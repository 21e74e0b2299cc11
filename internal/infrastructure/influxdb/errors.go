package influxdb

import "errors"

var (
	// ErrDisabled is returned by Open when influxdb.enabled is false.
	ErrDisabled = errors.New("influxdb: recording disabled")

	// ErrConnectionFailed means the server did not answer the startup ping.
	ErrConnectionFailed = errors.New("influxdb: connection failed")
)
