package fhir

import (
	"strings"
	"testing"
	"time"
)

func TestNewSearchBundle(t *testing.T) {
	entries := []SearchEntry{
		{FullURL: "http://localhost/fhir/Patient/1", Resource: map[string]interface{}{"resourceType": "Patient", "id": "1"}},
	}
	b := NewSearchBundle(entries, 1)

	if b.Type != "searchset" {
		t.Errorf("expected searchset, got %s", b.Type)
	}
	if b.Total == nil || *b.Total != 1 {
		t.Error("expected total 1")
	}
	if len(b.Entry) != 1 || b.Entry[0].Search.Mode != "match" {
		t.Error("expected one match entry")
	}
	if !strings.Contains(string(b.Entry[0].Resource), `"id":"1"`) {
		t.Error("entry resource should be the encoded match")
	}
}

func TestNewSearchBundle_TotalMayExceedEntries(t *testing.T) {
	b := NewSearchBundle(nil, 7)
	if b.Total == nil || *b.Total != 7 {
		t.Error("total must be independent of the page size")
	}
}

func TestNewHistoryBundle(t *testing.T) {
	now := time.Now().UTC()
	entries := []HistoryEntry{
		{ResourceType: "Patient", LogicalID: 5, VersionID: 2, Resource: map[string]interface{}{"id": "5"}, LastUpdated: now},
		{ResourceType: "Patient", LogicalID: 5, VersionID: 1, Resource: map[string]interface{}{"id": "5"}, LastUpdated: now.Add(-time.Hour)},
	}
	b := NewHistoryBundle(entries, "http://localhost/fhir")

	if b.Type != "history" {
		t.Errorf("expected history, got %s", b.Type)
	}
	if b.Total == nil || *b.Total != 2 {
		t.Error("expected total 2")
	}
	if b.Entry[0].Request.Method != "PUT" {
		t.Errorf("later versions render as PUT, got %s", b.Entry[0].Request.Method)
	}
	if b.Entry[1].Request.Method != "POST" || b.Entry[1].Response.Status != "201 Created" {
		t.Error("version 1 renders as the original POST")
	}
	if b.Entry[0].FullURL != "http://localhost/fhir/Patient/5/_history/2" {
		t.Errorf("unexpected fullUrl %s", b.Entry[0].FullURL)
	}
}

func TestFormatETag(t *testing.T) {
	if got := FormatETag(3); got != `W/"3"` {
		t.Errorf("expected W/\"3\", got %s", got)
	}
}
