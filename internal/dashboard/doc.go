// Package dashboard is the terminal counterpart of the browser dashboard.
//
// Client talks to the HTTP API. Poller refreshes an immutable Snapshot
// every five seconds and hands it to a render function by value; a failed
// cycle is logged and the previous snapshot stays on screen. Render draws
// a snapshot as text tables, and Verify runs the two-step backend smoke
// test (post a simulated reading, read the status back).
package dashboard
