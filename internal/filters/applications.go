package filters

import (
	"net/url"

	"github.com/yoockh/jobboard/internal/models"
)

type Sort string

const (
	SortNewest Sort = "newest"
	SortOldest Sort = "oldest"
	SortStatus Sort = "status"
)

// ApplicationQuery is the state of the applications-management view.
type ApplicationQuery struct {
	Status models.ApplicationStatus `json:"status,omitempty"`
	Sort   Sort                     `json:"sort"`
}

// ParseApplicationQuery reads ?status&sort, dropping unknown values.
func ParseApplicationQuery(v url.Values) ApplicationQuery {
	q := ApplicationQuery{Sort: SortNewest}
	if s := models.ApplicationStatus(v.Get("status")); s.Valid() {
		q.Status = s
	}
	switch Sort(v.Get("sort")) {
	case SortOldest:
		q.Sort = SortOldest
	case SortStatus:
		q.Sort = SortStatus
	}
	return q
}

func (q ApplicationQuery) Values() url.Values {
	v := url.Values{}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	if q.Sort != "" && q.Sort != SortNewest {
		v.Set("sort", string(q.Sort))
	}
	return v
}
