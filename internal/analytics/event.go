package analytics

import (
	"strings"
	"time"
)

// Event names as they appear in the analytics project.
const (
	EventPageView          = "Page View"
	EventSearch            = "Search"
	EventRequestSubmitted  = "Request Submitted"
	EventRequestFormOpened = "Request Form Opened"
	EventTabChanged        = "Tab Changed"
)

// Event is a named occurrence with a flat property map.
type Event struct {
	Name       string
	Properties map[string]any
	Time       time.Time
	InsertID   string
	DistinctID string
}

// RequestKind is what a visitor asked the directory to add.
type RequestKind string

const (
	RequestProvider RequestKind = "provider"
	RequestEndpoint RequestKind = "endpoint"
	RequestModel    RequestKind = "model"
)

func (k RequestKind) Valid() bool {
	switch k {
	case RequestProvider, RequestEndpoint, RequestModel:
		return true
	}
	return false
}

// Tab identifies a top-level view of the directory UI.
type Tab string

const (
	TabModels    Tab = "models"
	TabProviders Tab = "providers"
)

func (t Tab) Valid() bool {
	return t == TabModels || t == TabProviders
}

// EmailDomain returns the part of email after the first "@", or "unknown"
// when there is none.
func EmailDomain(email string) string {
	_, domain, found := strings.Cut(email, "@")
	if !found || domain == "" {
		return "unknown"
	}
	return domain
}
