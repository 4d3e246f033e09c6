// Package mqtt provides MQTT connectivity for SmartWaste Core.
//
// Bins that cannot speak HTTP publish their fill level to
// smartwaste/bin/{deviceId}/fill. The core subscribes to those topics and
// publishes classified status and overflow alerts back under
// smartwaste/core/. Availability of the core itself is kept on the
// retained smartwaste/system/status topic, with a Last Will so an
// unclean exit is visible to subscribers.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllBinFill(), 1,
//	    func(topic string, payload []byte) error {
//	        deviceID, _ := mqtt.Topics{}.DeviceFromFillTopic(topic)
//	        ...
//	    })
//
// Connect, Publish and Subscribe block for at most a few seconds waiting
// on the broker. Tests that need a broker carry the integration build tag.
package mqtt
