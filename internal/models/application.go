package models

import (
	"strings"
	"time"
)

// ApplicationStatus values reported by the dashboard.
const (
	ApplicationInProgress = "in_progress"
	ApplicationCompleted  = "completed"
)

// Activity is one past or running application.
type Activity struct {
	ID        int64     `json:"id"`
	FormType  string    `json:"form_type"`
	Status    string    `json:"status"`
	CreatedAt Timestamp `json:"created_at"`
}

// StoredField is one entry of the user's saved profile.
type StoredField struct {
	EntityKey   string    `json:"entity_key"`
	Value       string    `json:"value"`
	Source      string    `json:"source"`
	LastUpdated Timestamp `json:"last_updated"`
}

// DashboardStats is returned by GET /dashboard/stats.
type DashboardStats struct {
	SavedFieldsCount        int           `json:"saved_fields_count"`
	ActiveApplicationsCount int           `json:"active_applications_count"`
	RecentActivities        []Activity    `json:"recent_activities"`
	StoredData              []StoredField `json:"stored_data"`
}

// ProfileFieldResponse is returned by PUT /dashboard/profile/{key}.
type ProfileFieldResponse struct {
	Message string `json:"message"`
	Key     string `json:"key"`
	Value   string `json:"value"`
}

// Timestamp accepts RFC 3339 as well as the zone-less ISO form the backend
// emits for naive datetimes, which are read as UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed
			return nil
		}
		lastErr = err
	}
	return lastErr
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.UTC().Format(time.RFC3339) + `"`), nil
}
