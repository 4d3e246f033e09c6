package ingest

import "errors"

var (
	// ErrInvalidTopic is returned for topics that are not a bin fill topic.
	ErrInvalidTopic = errors.New("ingest: not a bin fill topic")

	// ErrInvalidPayload is returned when the payload is not a JSON object
	// with a numeric fillPercentage.
	ErrInvalidPayload = errors.New("ingest: invalid payload")

	// ErrDeviceMismatch is returned when the payload names a different
	// device than the topic.
	ErrDeviceMismatch = errors.New("ingest: payload deviceId does not match topic")
)
