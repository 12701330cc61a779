// Package cli is the interactive client shell. It owns the application
// wiring: the local SQLite replica, the HTTP transport, the debounced sync
// trigger and the connectivity watcher. Commands operate on local data only;
// synchronization happens in the background or on explicit request.
package cli
