package services

import (
	"context"
	"encoding/json"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/jobboard/internal/filters"
	"github.com/yoockh/jobboard/internal/models"
	"github.com/yoockh/jobboard/internal/realtime"
	pgrepo "github.com/yoockh/jobboard/internal/repositories/postgres"
	"github.com/yoockh/jobboard/internal/utils"
	"gorm.io/gorm"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

var (
	employer  = &models.User{ID: "11111111-1111-1111-1111-111111111111", Role: models.RoleEmployer}
	employer2 = &models.User{ID: "22222222-2222-2222-2222-222222222222", Role: models.RoleEmployer}
	seeker    = &models.User{ID: "33333333-3333-3333-3333-333333333333", Role: models.RoleJobSeeker}
)

type fakeJobRepo struct {
	mu   sync.Mutex
	jobs     map[string]*models.Job
	writeErr error
}

func newFakeJobRepo(jobs ...*models.Job) *fakeJobRepo {
	r := &fakeJobRepo{jobs: map[string]*models.Job{}}
	for _, j := range jobs {
		r.jobs[j.ID] = j
	}
	return r
}

func (r *fakeJobRepo) Create(_ context.Context, j *models.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *j
	r.jobs[j.ID] = &cp
	return nil
}

func (r *fakeJobRepo) Update(_ context.Context, j *models.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.jobs[j.ID]
	if !ok || cur.DeletedAt.Valid || cur.UserID != j.UserID {
		return utils.ErrNotFound
	}
	cp := *j
	r.jobs[j.ID] = &cp
	return nil
}

func (r *fakeJobRepo) SoftDelete(_ context.Context, id, ownerID string) error {
	if r.writeErr != nil {
		return r.writeErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok || j.UserID != ownerID || j.DeletedAt.Valid {
		return utils.ErrNotFound
	}
	j.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	return nil
}

func (r *fakeJobRepo) Restore(_ context.Context, id, ownerID string) error {
	if r.writeErr != nil {
		return r.writeErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok || j.UserID != ownerID || !j.DeletedAt.Valid {
		return utils.ErrNotFound
	}
	j.DeletedAt = gorm.DeletedAt{}
	return nil
}

func (r *fakeJobRepo) GetByID(ctx context.Context, id string) (*models.Job, error) {
	j, err := r.GetByIDUnscoped(ctx, id)
	if err != nil {
		return nil, err
	}
	if j.DeletedAt.Valid {
		return nil, utils.ErrNotFound
	}
	return j, nil
}

func (r *fakeJobRepo) GetByIDUnscoped(_ context.Context, id string) (*models.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (r *fakeJobRepo) List(_ context.Context, q pgrepo.JobQuery) ([]models.Job, error) {
	return r.filter(func(j *models.Job) bool {
		if j.DeletedAt.Valid {
			return false
		}
		if q.Filters.Query != "" && !strings.Contains(strings.ToLower(j.Title), strings.ToLower(q.Filters.Query)) {
			return false
		}
		return q.Since.IsZero() || !j.CreatedAt.Before(q.Since)
	}), nil
}

func (r *fakeJobRepo) ListByUser(_ context.Context, userID string, limit int) ([]models.Job, error) {
	rows := r.filter(func(j *models.Job) bool { return !j.DeletedAt.Valid && j.UserID == userID })
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (r *fakeJobRepo) ListDeletedByUser(_ context.Context, userID string) ([]models.Job, error) {
	return r.filter(func(j *models.Job) bool { return j.DeletedAt.Valid && j.UserID == userID }), nil
}

func (r *fakeJobRepo) UniqueLocations(context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, j := range r.filter(func(j *models.Job) bool { return !j.DeletedAt.Valid }) {
		if j.Location != "" && !seen[j.Location] {
			seen[j.Location] = true
			out = append(out, j.Location)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *fakeJobRepo) AllIDs(context.Context) ([]string, error) {
	var out []string
	for _, j := range r.filter(func(j *models.Job) bool { return !j.DeletedAt.Valid }) {
		out = append(out, j.ID)
	}
	return out, nil
}

func (r *fakeJobRepo) CountByUser(ctx context.Context, userID string) (int64, int64, error) {
	active, _ := r.ListByUser(ctx, userID, 0)
	archived, _ := r.ListDeletedByUser(ctx, userID)
	return int64(len(active)), int64(len(archived)), nil
}

func (r *fakeJobRepo) filter(keep func(*models.Job) bool) []models.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Job{}
	for _, j := range r.jobs {
		if keep(j) {
			out = append(out, *j)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out
}

type fakeAppRepo struct {
	mu         sync.Mutex
	apps       map[string]*models.Application
	skipExists bool // simulates the check-then-insert race
	getPanic   bool
	getErr     error
	updateErr  error
	updates    int
}

func newFakeAppRepo(apps ...*models.Application) *fakeAppRepo {
	r := &fakeAppRepo{apps: map[string]*models.Application{}}
	for _, a := range apps {
		r.apps[a.ID] = a
	}
	return r
}

func (r *fakeAppRepo) Create(_ context.Context, a *models.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cur := range r.apps {
		if cur.JobID == a.JobID && cur.ApplicantID == a.ApplicantID {
			return utils.ErrDuplicate
		}
	}
	cp := *a
	r.apps[a.ID] = &cp
	return nil
}

func (r *fakeAppRepo) Exists(_ context.Context, jobID, applicantID string) (bool, error) {
	if r.skipExists {
		return false, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.apps {
		if a.JobID == jobID && a.ApplicantID == applicantID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeAppRepo) GetByID(_ context.Context, id string) (*models.Application, error) {
	if r.getPanic {
		panic("boom")
	}
	if r.getErr != nil {
		return nil, r.getErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.apps[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAppRepo) ListByApplicant(_ context.Context, applicantID string, limit int) ([]models.Application, error) {
	return r.filter(func(a *models.Application) bool { return a.ApplicantID == applicantID }, limit), nil
}

func (r *fakeAppRepo) ListByJob(_ context.Context, jobID string, q filters.ApplicationQuery) ([]models.Application, error) {
	return r.filter(func(a *models.Application) bool {
		return a.JobID == jobID && (q.Status == "" || a.Status == q.Status)
	}, 0), nil
}

func (r *fakeAppRepo) UpdateStatus(_ context.Context, id string, from, to models.ApplicationStatus, at time.Time) (bool, error) {
	if r.updateErr != nil {
		return false, r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.apps[id]
	if !ok || a.Status != from {
		return false, nil
	}
	a.Status = to
	a.UpdatedAt = at
	r.updates++
	return true, nil
}

func (r *fakeAppRepo) CountByJobOwner(context.Context, string, models.ApplicationStatus) (int64, error) {
	return 0, nil
}

func (r *fakeAppRepo) CountByJobs(_ context.Context, ids []string) (map[string]int64, error) {
	out := map[string]int64{}
	for _, id := range ids {
		out[id] = int64(len(r.filter(func(a *models.Application) bool { return a.JobID == id }, 0)))
	}
	return out, nil
}

func (r *fakeAppRepo) StatusCountsByApplicant(_ context.Context, applicantID string) (map[models.ApplicationStatus]int64, error) {
	out := map[models.ApplicationStatus]int64{}
	for _, a := range r.filter(func(a *models.Application) bool { return a.ApplicantID == applicantID }, 0) {
		out[a.Status]++
	}
	return out, nil
}

func (r *fakeAppRepo) status(id string) models.ApplicationStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.apps[id].Status
}

func (r *fakeAppRepo) filter(keep func(*models.Application) bool, limit int) []models.Application {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Application{}
	for _, a := range r.apps {
		if keep(a) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events []models.ApplicationEvent
}

func (r *fakeEventRepo) Append(_ context.Context, e *models.ApplicationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *e)
	return nil
}

func (r *fakeEventRepo) ListByApplication(_ context.Context, id string, _ int64) ([]models.ApplicationEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ApplicationEvent
	for _, e := range r.events {
		if e.ApplicationID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deleted []string
}

func newFakeCache() *fakeCache { return &fakeCache{data: map[string][]byte{}} }

func (c *fakeCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) SetJSON(_ context.Context, key string, val any, _ time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = b
	return nil
}

func (c *fakeCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	c.deleted = append(c.deleted, keys...)
	return nil
}

type published struct {
	channel string
	event   realtime.Event
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []published
}

func (p *fakePublisher) Publish(_ context.Context, channel string, e realtime.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, published{channel: channel, event: e})
	return nil
}

func (p *fakePublisher) channels() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, s := range p.sent {
		out = append(out, s.channel)
	}
	return out
}

type fakeStore struct {
	uploaded map[string][]byte
}

func (s *fakeStore) Upload(_ context.Context, objectName, _ string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if s.uploaded == nil {
		s.uploaded = map[string][]byte{}
	}
	s.uploaded[objectName] = b
	return objectName, nil
}

func (s *fakeStore) SignedGetURL(_ context.Context, objectName string, _ time.Duration) (string, error) {
	return "https://storage.example/" + objectName + "?sig=1", nil
}

type fakeResumeRepo struct {
	rows []models.ResumeFile
}

func (r *fakeResumeRepo) Insert(_ context.Context, f *models.ResumeFile) error {
	r.rows = append(r.rows, *f)
	return nil
}

func (r *fakeResumeRepo) LatestByUser(_ context.Context, userID string) (*models.ResumeFile, error) {
	for i := len(r.rows) - 1; i >= 0; i-- {
		if r.rows[i].UserID == userID {
			f := r.rows[i]
			return &f, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (r *fakeResumeRepo) GetByPath(_ context.Context, path string) (*models.ResumeFile, error) {
	for _, f := range r.rows {
		if f.FilePath == path {
			return &f, nil
		}
	}
	return nil, utils.ErrNotFound
}
