// Package filters encodes job-search and application-list filters to and from
// URL query parameters.
package filters

import (
	"net/url"
	"strings"
	"time"
)

const (
	paramQuery    = "q"
	paramLocation = "location"
	paramType     = "type"
	paramPosted   = "posted"
	paramRemote   = "remote"
)

// Posted windows accepted by the "posted" parameter.
const (
	Posted24h = "24h"
	Posted7d  = "7d"
	Posted30d = "30d"
)

var postedWindows = map[string]time.Duration{
	Posted24h: 24 * time.Hour,
	Posted7d:  7 * 24 * time.Hour,
	Posted30d: 30 * 24 * time.Hour,
}

// JobFilters is the search state of the job listing page. List fields travel
// comma-joined; a comma or backslash inside an item is backslash-escaped.
type JobFilters struct {
	Query     string   `json:"q,omitempty"`
	Locations []string `json:"locations,omitempty"`
	Types     []string `json:"types,omitempty"`
	Posted    string   `json:"posted,omitempty"`
	Remote    bool     `json:"remote,omitempty"`
}

func (f JobFilters) IsZero() bool {
	return f.Query == "" && len(f.Locations) == 0 && len(f.Types) == 0 && f.Posted == "" && !f.Remote
}

// Since returns the lower bound on created_at implied by Posted, if any.
func (f JobFilters) Since(now time.Time) (time.Time, bool) {
	d, ok := postedWindows[f.Posted]
	if !ok {
		return time.Time{}, false
	}
	return now.Add(-d), true
}

// Encode turns f into query parameters. Empty fields produce no parameter.
func Encode(f JobFilters) url.Values {
	v := url.Values{}
	if q := strings.TrimSpace(f.Query); q != "" {
		v.Set(paramQuery, q)
	}
	if s := joinList(f.Locations); s != "" {
		v.Set(paramLocation, s)
	}
	if s := joinList(f.Types); s != "" {
		v.Set(paramType, s)
	}
	if _, ok := postedWindows[f.Posted]; ok {
		v.Set(paramPosted, f.Posted)
	}
	if f.Remote {
		v.Set(paramRemote, "true")
	}
	return v
}

// Decode is the inverse of Encode.
func Decode(v url.Values) JobFilters {
	f := JobFilters{
		Query:     strings.TrimSpace(v.Get(paramQuery)),
		Locations: splitList(v.Get(paramLocation)),
		Types:     splitList(v.Get(paramType)),
	}
	if p := v.Get(paramPosted); p != "" {
		if _, ok := postedWindows[p]; ok {
			f.Posted = p
		}
	}
	f.Remote = v.Get(paramRemote) == "true"
	return f
}

// QueryString is Encode(f).Encode() with a leading "?" when non-empty.
func QueryString(f JobFilters) string {
	s := Encode(f).Encode()
	if s == "" {
		return ""
	}
	return "?" + s
}

// EscapeItem escapes one list item for a comma-joined parameter. Form fields
// that submit list items directly (checkbox groups) must use it.
func EscapeItem(s string) string {
	if !strings.ContainsAny(s, `\,`) {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if r == '\\' || r == ',' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func joinList(items []string) string {
	kept := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it != "" {
			kept = append(kept, EscapeItem(it))
		}
	}
	return strings.Join(kept, ",")
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var (
		out []string
		cur strings.Builder
	)
	flush := func() {
		if it := strings.TrimSpace(cur.String()); it != "" {
			out = append(out, it)
		}
		cur.Reset()
	}
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == ',':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	if escaped {
		cur.WriteByte('\\')
	}
	flush()
	return out
}
