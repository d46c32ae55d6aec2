package honeycomb

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Dataset is one dataset listing entry. LastWrittenAt is nil for datasets
// that have never received events.
type Dataset struct {
	Slug          string     `json:"slug"`
	LastWrittenAt *time.Time `json:"last_written_at"`
}

// Column is one column of a dataset.
type Column struct {
	ID          string    `json:"id"`
	KeyName     string    `json:"key_name"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Hidden      bool      `json:"hidden"`
	LastWritten time.Time `json:"last_written"`
}

// NameAndSlug names an environment or team.
type NameAndSlug struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Authorizations describes what the configured API key may do.
type Authorizations struct {
	APIKeyAccess map[string]bool `json:"api_key_access"`
	Environment  NameAndSlug     `json:"environment"`
	Team         NameAndSlug     `json:"team"`
}

// HasRequiredAccess reports whether every named access type is granted.
func (a *Authorizations) HasRequiredAccess(accessTypes []string) bool {
	for _, accessType := range accessTypes {
		if !a.APIKeyAccess[accessType] {
			return false
		}
	}
	return true
}

// String renders the authorizations for log and error output.
func (a *Authorizations) String() string {
	keys := make([]string, 0, len(a.APIKeyAccess))
	for key := range a.APIKeyAccess {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("api_key_access:\n")
	for _, key := range keys {
		fmt.Fprintf(&b, "%s: %t\n", key, a.APIKeyAccess[key])
	}
	fmt.Fprintf(&b, "\nenvironment: %s\nteam: %s", a.Environment.Name, a.Team.Name)
	return b.String()
}

// Query identifies a query definition created on the server.
type Query struct {
	ID string `json:"id"`
}

// QueryResultRef identifies an asynchronous query-result computation.
type QueryResultRef struct {
	ID string `json:"id"`
}

// QuerySpec is the subset of the query language the derived queries use.
type QuerySpec struct {
	Breakdowns   []string      `json:"breakdowns,omitempty"`
	Calculations []Calculation `json:"calculations"`
	Filters      []Filter      `json:"filters,omitempty"`
	TimeRange    int           `json:"time_range"`
}

// Calculation is one aggregation in a query.
type Calculation struct {
	Op     string `json:"op"`
	Column string `json:"column,omitempty"`
}

// Filter restricts which events a query covers.
type Filter struct {
	Column string `json:"column"`
	Op     string `json:"op"`
}
