// Package ingest connects bin sensors on MQTT to the telemetry service.
//
// Bridge subscribes to smartwaste/bin/+/fill and feeds every valid
// message through telemetry.Service.Ingest, the same path HTTP reports
// take. StatusPublisher is a telemetry observer that publishes each
// classified reading back to the broker, plus an overflow alert when a
// bin reads FULL.
//
//	bridge := ingest.NewBridge(mqttClient, telemetrySvc, mqttClient.QoS())
//	bridge.SetLogger(log)
//	if err := bridge.Start(ctx); err != nil {
//	    return err
//	}
//	defer bridge.Stop()
//
//	telemetrySvc.AddObserver(ingest.NewStatusPublisher(mqttClient, mqttClient.QoS()))
package ingest
