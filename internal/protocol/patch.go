package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// ItemPatch is a partial update. Nil fields are left untouched; the policy is
// whole-entity last-write-wins at sync boundaries, so patches exist only to
// describe a local edit compactly on the wire.
type ItemPatch struct {
	Type              *string    `json:"type,omitempty"`
	Title             *string    `json:"title,omitempty"`
	Content           *string    `json:"content,omitempty"`
	URL               *string    `json:"url,omitempty"`
	ReminderDate      *time.Time `json:"reminderDate,omitempty"`
	ReminderCompleted *bool      `json:"reminderCompleted,omitempty"`
	Tags              *[]string  `json:"tags,omitempty"`
	Pinned            *bool      `json:"pinned,omitempty"`
	Color             *string    `json:"color,omitempty"`
	FolderID          *string    `json:"folderId,omitempty"`
	Deleted           *bool      `json:"deleted,omitempty"`
	UpdatedAt         *time.Time `json:"updatedAt,omitempty"`
}

// FolderPatch is the folder counterpart of ItemPatch.
type FolderPatch struct {
	Name      *string    `json:"name,omitempty"`
	Color     *string    `json:"color,omitempty"`
	Deleted   *bool      `json:"deleted,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Apply copies the non-nil patch fields onto the item.
func (p ItemPatch) Apply(it *Item) {
	if p.Type != nil {
		it.Type = *p.Type
	}
	if p.Title != nil {
		it.Title = *p.Title
	}
	if p.Content != nil {
		it.Content = *p.Content
	}
	if p.URL != nil {
		it.URL = *p.URL
	}
	if p.ReminderDate != nil {
		it.ReminderDate = p.ReminderDate
	}
	if p.ReminderCompleted != nil {
		it.ReminderCompleted = *p.ReminderCompleted
	}
	if p.Tags != nil {
		it.Tags = *p.Tags
	}
	if p.Pinned != nil {
		it.Pinned = *p.Pinned
	}
	if p.Color != nil {
		it.Color = *p.Color
	}
	if p.FolderID != nil {
		it.FolderID = *p.FolderID
	}
	if p.Deleted != nil {
		it.Deleted = *p.Deleted
	}
	if p.UpdatedAt != nil {
		it.UpdatedAt = *p.UpdatedAt
	}
}

// Apply copies the non-nil patch fields onto the folder.
func (p FolderPatch) Apply(f *Folder) {
	if p.Name != nil {
		f.Name = *p.Name
	}
	if p.Color != nil {
		f.Color = *p.Color
	}
	if p.Deleted != nil {
		f.Deleted = *p.Deleted
	}
	if p.UpdatedAt != nil {
		f.UpdatedAt = *p.UpdatedAt
	}
}

// DecodeItemPatch parses the Data payload of an update operation.
func DecodeItemPatch(data json.RawMessage) (ItemPatch, error) {
	var p ItemPatch
	if err := json.Unmarshal(data, &p); err != nil {
		return ItemPatch{}, fmt.Errorf("decoding item patch: %w", err)
	}
	return p, nil
}

// DecodeFolderPatch parses the Data payload of a folder update operation.
func DecodeFolderPatch(data json.RawMessage) (FolderPatch, error) {
	var p FolderPatch
	if err := json.Unmarshal(data, &p); err != nil {
		return FolderPatch{}, fmt.Errorf("decoding folder patch: %w", err)
	}
	return p, nil
}
