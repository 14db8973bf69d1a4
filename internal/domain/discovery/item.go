// Package discovery defines the externally-facing projection of resolved
// catalog records used in search results.
package discovery

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// FormatType distinguishes payloads served as-is from plugin conversions.
type FormatType string

// Available format types.
const (
	FormatOriginal  FormatType = "ORIGINAL"
	FormatConverted FormatType = "CONVERTED"
)

// AvailableFormat describes one way a distribution's payload can be fetched.
type AvailableFormat struct {
	Label          string     `json:"label"`
	Format         string     `json:"format"`
	OriginalFormat string     `json:"originalFormat"`
	Href           string     `json:"href"`
	Type           FormatType `json:"type"`
	// InputFormat and PluginID are set for converted formats only.
	InputFormat string `json:"inputFormat,omitempty"`
	PluginID    string `json:"pluginId,omitempty"`
}

// Item is a search result entry: a distribution resolved against its
// dataproduct, web service, organizations and categories.
type Item struct {
	ID               string            `json:"id"`
	UID              string            `json:"uid,omitempty"`
	MetaID           string            `json:"metaId,omitempty"`
	Title            string            `json:"title,omitempty"`
	Description      string            `json:"description,omitempty"`
	SHA256ID         string            `json:"sha256id"`
	Href             string            `json:"href"`
	HrefExtended     string            `json:"hrefExtended"`
	AvailableFormats []AvailableFormat `json:"availableFormats,omitempty"`
	DataProviders    []string          `json:"dataProvider,omitempty"`
	ServiceProviders []string          `json:"serviceProvider,omitempty"`
	Categories       []string          `json:"categories,omitempty"`

	// Backoffice-only fields, populated for privileged callers requesting
	// versioned results.
	EditorID         string     `json:"editorId,omitempty"`
	EditorFullName   string     `json:"editorFullName,omitempty"`
	VersioningStatus string     `json:"versioningStatus,omitempty"`
	ChangeDate       *time.Time `json:"changeDate,omitempty"`
}

// CorrelationID returns the content-stable hash of a uid used as external
// correlation key. An empty uid hashes to the empty string.
func CorrelationID(uid string) string {
	if uid == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(uid))
	return hex.EncodeToString(sum[:])
}
