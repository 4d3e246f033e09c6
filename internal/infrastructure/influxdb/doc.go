// Package influxdb mirrors bin readings into InfluxDB for long-range
// charting.
//
// SQLite remains the system of record; the mirror is optional and lossy
// on failure. A connected Client is registered as a telemetry observer:
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//	client.SetOnError(func(err error) { log.Warn("influx write failed", "error", err) })
//	telemetrySvc.AddObserver(client)
//
// Each reading becomes one bin_fill point tagged with device_id and status
// and carrying the fill_percentage field. Writes are batched according to
// influxdb.batch_size and influxdb.flush_interval.
package influxdb
