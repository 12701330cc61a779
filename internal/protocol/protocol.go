// Package protocol defines the wire contract between a Notico device and the
// authoritative server: entity representations, batched sync operations with
// per-operation outcomes, and the watermark-bounded pull.
//
// Entities are joined between replicas solely by ClientID; the server-assigned
// ServerID is opaque and never used as a merge key. Deletes are tombstones
// (Deleted=true) so they propagate like any other update.
package protocol

import (
	"encoding/json"
	"time"
)

// Action is a queued mutation kind.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Status is the per-operation outcome reported by the server. A batch never
// aborts on a failing operation; each operation gets exactly one Status.
type Status string

const (
	StatusCreated Status = "created"
	StatusUpdated Status = "updated"
	StatusDeleted Status = "deleted"
	// StatusExists means a create collided with an already-present ClientID.
	// It is a success: the operation is an idempotent no-op and the existing
	// entity is returned unmodified.
	StatusExists   Status = "exists"
	StatusNotFound Status = "not_found"
	StatusError    Status = "error"
)

// EntityFolder marks a result row as belonging to a folder operation.
// Item results leave the Entity field empty.
const EntityFolder = "folder"

// Item is a user note, bookmark or reminder.
type Item struct {
	ClientID          string     `json:"clientId"`
	ServerID          string     `json:"serverId,omitempty"`
	Type              string     `json:"type"`
	Title             string     `json:"title"`
	Content           string     `json:"content,omitempty"`
	URL               string     `json:"url,omitempty"`
	ReminderDate      *time.Time `json:"reminderDate,omitempty"`
	ReminderCompleted bool       `json:"reminderCompleted,omitempty"`
	Tags              []string   `json:"tags,omitempty"`
	Pinned            bool       `json:"pinned,omitempty"`
	Color             string     `json:"color,omitempty"`
	// FolderID is a weak reference to a Folder's ClientID, not an ownership
	// pointer. Deleting the folder tombstones every item referencing it.
	FolderID  string    `json:"folderId,omitempty"`
	Deleted   bool      `json:"deleted,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Folder groups items.
type Folder struct {
	ClientID  string    `json:"clientId"`
	ServerID  string    `json:"serverId,omitempty"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"`
	Deleted   bool      `json:"deleted,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Operation is one queued mutation. Data carries the full entity for creates
// and a partial field patch for updates; it is empty for deletes.
type Operation struct {
	Action   Action          `json:"action"`
	ClientID string          `json:"clientId"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// SyncRequest is the atomic batch a device transmits during one cycle.
// Folder operations are applied strictly before item operations so a folder
// delete's cascade is visible to the same exchange that reconciles its items.
type SyncRequest struct {
	Operations       []Operation `json:"operations"`
	FolderOperations []Operation `json:"folderOperations,omitempty"`
	LastSyncAt       *time.Time  `json:"lastSyncAt,omitempty"`
}

// OpResult is the outcome of a single operation within a batch.
type OpResult struct {
	ClientID string  `json:"clientId"`
	Entity   string  `json:"entity,omitempty"`
	Status   Status  `json:"status"`
	Item     *Item   `json:"item,omitempty"`
	Folder   *Folder `json:"folder,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// Failed reports whether the operation did not land on the server.
func (r OpResult) Failed() bool {
	return r.Status == StatusNotFound || r.Status == StatusError
}

// SyncResponse carries per-operation results plus a snapshot of every entity
// mutated since the request watermark, including mutations from other
// devices, and the new watermark.
type SyncResponse struct {
	Results       []OpResult `json:"results"`
	ServerItems   []Item     `json:"serverItems"`
	ServerFolders []Folder   `json:"serverFolders,omitempty"`
	SyncedAt      time.Time  `json:"syncedAt"`
}
