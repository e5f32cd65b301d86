// Package influxdb provides time-series telemetry for rule dispatches.
//
// This package manages:
//   - Connection to an InfluxDB v2 server with token authentication
//   - Non-blocking batched writes of dispatch outcomes
//   - Health monitoring for the readiness probe
//
// Telemetry is optional. When disabled in config the engine simply does
// not construct a client; callers hold the automation.Telemetry interface
// and tolerate a nil implementation.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.RecordDispatch("rhasspy_ChangeLightState", "Change light state", "dispatched", 12*time.Millisecond)
package influxdb
