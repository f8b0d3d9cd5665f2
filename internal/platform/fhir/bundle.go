package fhir

import (
	"encoding/json"
	"fmt"
	"time"
)

// Bundle represents a FHIR Bundle resource.
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	ID           string        `json:"id,omitempty"`
	Type         string        `json:"type"`
	Total        *int          `json:"total,omitempty"`
	Link         []BundleLink  `json:"link,omitempty"`
	Entry        []BundleEntry `json:"entry,omitempty"`
	Timestamp    *time.Time    `json:"timestamp,omitempty"`
}

type BundleLink struct {
	Relation string `json:"relation"`
	URL      string `json:"url"`
}

type BundleEntry struct {
	FullURL  string          `json:"fullUrl,omitempty"`
	Resource json.RawMessage `json:"resource,omitempty"`
	Search   *BundleSearch   `json:"search,omitempty"`
	Request  *BundleRequest  `json:"request,omitempty"`
	Response *BundleResponse `json:"response,omitempty"`
}

type BundleSearch struct {
	Mode  string   `json:"mode,omitempty"`
	Score *float64 `json:"score,omitempty"`
}

type BundleRequest struct {
	Method string `json:"method"`
	URL    string `json:"url"`
}

type BundleResponse struct {
	Status       string     `json:"status"`
	Location     string     `json:"location,omitempty"`
	LastModified *time.Time `json:"lastModified,omitempty"`
}

// SearchEntry pairs a match with its addressable URL for searchset bundles.
type SearchEntry struct {
	FullURL  string
	Resource interface{}
}

// NewSearchBundle builds a searchset Bundle. total is the full match count,
// which may exceed len(entries) when the caller paginates.
func NewSearchBundle(entries []SearchEntry, total int) *Bundle {
	now := time.Now().UTC()
	bundleEntries := make([]BundleEntry, len(entries))
	for i, e := range entries {
		raw, _ := json.Marshal(e.Resource)
		bundleEntries[i] = BundleEntry{
			FullURL:  e.FullURL,
			Resource: raw,
			Search:   &BundleSearch{Mode: "match"},
		}
	}
	return &Bundle{
		ResourceType: "Bundle",
		Type:         "searchset",
		Total:        &total,
		Timestamp:    &now,
		Entry:        bundleEntries,
	}
}

// HistoryEntry is one revision rendered into a history Bundle.
type HistoryEntry struct {
	ResourceType string
	LogicalID    int64
	VersionID    int
	Resource     interface{}
	LastUpdated  time.Time
}

// NewHistoryBundle builds a history Bundle, newest revision first. Version 1
// is rendered as the original POST, later versions as PUTs.
func NewHistoryBundle(entries []HistoryEntry, baseURL string) *Bundle {
	now := time.Now().UTC()
	total := len(entries)
	bundleEntries := make([]BundleEntry, len(entries))

	for i, e := range entries {
		raw, _ := json.Marshal(e.Resource)
		method, status := "PUT", "200 OK"
		if e.VersionID == 1 {
			method, status = "POST", "201 Created"
		}
		lastUpdated := e.LastUpdated
		bundleEntries[i] = BundleEntry{
			FullURL:  fmt.Sprintf("%s/%s/%d/_history/%d", baseURL, e.ResourceType, e.LogicalID, e.VersionID),
			Resource: raw,
			Request: &BundleRequest{
				Method: method,
				URL:    fmt.Sprintf("%s/%d", e.ResourceType, e.LogicalID),
			},
			Response: &BundleResponse{
				Status:       status,
				LastModified: &lastUpdated,
			},
		}
	}

	return &Bundle{
		ResourceType: "Bundle",
		Type:         "history",
		Total:        &total,
		Timestamp:    &now,
		Entry:        bundleEntries,
	}
}

// FormatETag creates a weak ETag from a version id.
func FormatETag(versionID int) string {
	return fmt.Sprintf(`W/"%d"`, versionID)
}
