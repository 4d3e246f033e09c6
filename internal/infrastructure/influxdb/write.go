package influxdb

import (
	"context"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/wastemanagement141-bit/garbage-overflow/internal/telemetry"
)

// Measurement and keys of the mirrored series.
const (
	MeasurementBinFill = "bin_fill"

	TagDeviceID = "device_id"
	TagStatus   = "status"

	FieldFillPercentage = "fill_percentage"
)

// ReadingRecorded mirrors r as a bin_fill point stamped with the reading's
// server time. It never blocks on the network.
func (c *Client) ReadingRecorded(_ context.Context, r telemetry.Reading) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(readingPoint(r))
}

func readingPoint(r telemetry.Reading) *write.Point {
	return write.NewPoint(
		MeasurementBinFill,
		map[string]string{
			TagDeviceID: r.DeviceID,
			TagStatus:   string(r.Status),
		},
		map[string]any{
			FieldFillPercentage: r.FillPercentage,
		},
		r.CreatedAt,
	)
}
