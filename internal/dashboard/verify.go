package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Values posted by the smoke test.
const (
	VerifyDeviceID = "ScriptDebug"
	VerifyFill     = 75.0
)

// Verify posts a simulated sensor reading and then reads the status back,
// reporting each step to w. Both steps always run; the returned error
// joins every failure.
func Verify(ctx context.Context, c *Client, w io.Writer) error {
	var errs []error

	fmt.Fprintf(w, "[TEST 1] Sending simulated hardware update (%s, %.0f%%)\n", VerifyDeviceID, VerifyFill)
	res, err := c.Update(ctx, VerifyDeviceID, VerifyFill)
	if err != nil {
		fmt.Fprintf(w, "  FAILED: %v\n", err)
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode >= 500 {
			fmt.Fprintln(w, "  The server could not store the reading; check the database path and logs.")
		}
		errs = append(errs, fmt.Errorf("update: %w", err))
	} else {
		fmt.Fprintf(w, "  OK: status=%s recorded_at=%s\n", res.Status, res.RecordedAt.Format(timeLayout))
	}

	fmt.Fprintln(w, "[TEST 2] Fetching status")
	st, err := c.Status(ctx, "")
	if err != nil {
		fmt.Fprintf(w, "  FAILED: %v\n", err)
		errs = append(errs, fmt.Errorf("status: %w", err))
	} else {
		fmt.Fprintf(w, "  OK: device=%s fill=%.1f%% status=%s\n", st.DeviceID, st.FillPercentage, st.Status)
	}

	return errors.Join(errs...)
}
