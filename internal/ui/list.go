package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/ytmigrate/ytmigrate/internal/models"
)

var _ list.Item = pickItem{}

// pickItem wraps [models.Playlist] to implement [list.Item] with a checkbox
// reflecting whether the playlist is part of the current selection.
type pickItem struct {
	playlist models.Playlist
	selected bool
}

func (i pickItem) FilterValue() string { return i.playlist.Title }

func (i pickItem) Title() string {
	box := "[ ]"
	if i.selected {
		box = "[x]"
	}
	return fmt.Sprintf("%s %s", box, i.playlist.Title)
}

func (i pickItem) Description() string {
	desc := string(i.playlist.PrivacyStatus)
	if i.playlist.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.playlist.Description)
	}
	return desc
}
