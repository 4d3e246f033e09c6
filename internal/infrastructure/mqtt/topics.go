package mqtt

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Topic roots.
//
//	smartwaste/bin/{deviceId}/fill            sensor -> core
//	smartwaste/core/bin/{deviceId}/status     core -> subscribers (retained)
//	smartwaste/core/alert/{deviceId}          core -> subscribers
//	smartwaste/system/status                  core online/offline (retained, LWT)
const (
	TopicPrefix       = "smartwaste"
	TopicPrefixCore   = "smartwaste/core"
	TopicPrefixSystem = "smartwaste/system"
)

// Topics provides builders for SmartWaste MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.CoreBinStatus("Bin-7") // "smartwaste/core/bin/Bin-7/status"
//
// Builders taking a device id expect a valid topic level; check with
// ValidTopicLevel first.
type Topics struct{}

// AllBinFill matches fill reports from every sensor.
//
// Pattern: smartwaste/bin/+/fill
func (Topics) AllBinFill() string {
	return TopicPrefix + "/bin/+/fill"
}

// CoreBinStatus returns the retained status topic for a bin.
func (Topics) CoreBinStatus(deviceID string) string {
	return fmt.Sprintf("%s/bin/%s/status", TopicPrefixCore, deviceID)
}

// CoreAlert returns the overflow alert topic for a bin.
func (Topics) CoreAlert(deviceID string) string {
	return fmt.Sprintf("%s/alert/%s", TopicPrefixCore, deviceID)
}

// SystemStatus returns the core availability topic.
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// DeviceFromFillTopic extracts the device id from a topic matched by
// AllBinFill. ok is false for any other shape or an empty segment.
func (Topics) DeviceFromFillTopic(topic string) (deviceID string, ok bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != TopicPrefix || parts[1] != "bin" || parts[3] != "fill" {
		return "", false
	}
	if parts[2] == "" {
		return "", false
	}
	return parts[2], true
}

// ValidTopicLevel reports whether s can be used as a single topic level
// in a published topic: non-empty UTF-8 with no level separator, no
// wildcard and no NUL.
func ValidTopicLevel(s string) bool {
	if s == "" || !utf8.ValidString(s) {
		return false
	}
	return !strings.ContainsAny(s, "/+#\x00")
}
