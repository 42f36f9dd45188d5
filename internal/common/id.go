package common

import (
	"github.com/google/uuid"
)

// NewArticleID generates a unique buffer article ID with the "art_" prefix
// Format: art_<uuid>
func NewArticleID() string {
	return "art_" + uuid.New().String()
}

// NewIndexEntryID generates a unique search index entry ID with the "idx_" prefix
// Format: idx_<uuid>
func NewIndexEntryID() string {
	return "idx_" + uuid.New().String()
}
