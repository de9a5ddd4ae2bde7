package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cuongbtq/weather-report/internal/domain"
	"github.com/cuongbtq/weather-report/internal/metric"
	"github.com/cuongbtq/weather-report/internal/report"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockReadingStore struct {
	mock.Mock
}

func (m *mockReadingStore) FetchReadings(ctx context.Context, deviceID string, start, end time.Time, fields []string) ([]domain.Reading, error) {
	args := m.Called(ctx, deviceID, start, end, fields)
	readings, _ := args.Get(0).([]domain.Reading)
	return readings, args.Error(1)
}

func (m *mockReadingStore) LatestReading(ctx context.Context, deviceID string) (*domain.Reading, error) {
	args := m.Called(ctx, deviceID)
	reading, _ := args.Get(0).(*domain.Reading)
	return reading, args.Error(1)
}

func (m *mockReadingStore) InsertReadings(ctx context.Context, readings []domain.Reading) error {
	return m.Called(ctx, readings).Error(0)
}

// memoryJobStore applies the same transition rules as the SQL store
type memoryJobStore struct {
	mu        sync.Mutex
	jobs      map[string]*domain.Job
	createErr error
	updateErr error
	now       time.Time
}

func newMemoryJobStore() *memoryJobStore {
	return &memoryJobStore{
		jobs: make(map[string]*domain.Job),
		now:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *memoryJobStore) Create(_ context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.now = s.now.Add(time.Second)
	job.CreatedAt, job.UpdatedAt = s.now, s.now
	stored := *job
	s.jobs[job.JobID] = &stored
	return nil
}

func (s *memoryJobStore) UpdateStatus(_ context.Context, jobID string, status domain.JobStatus, update domain.JobUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil && status == domain.JobStatusInProgress {
		return s.updateErr
	}
	job, ok := s.jobs[jobID]
	if !ok {
		return domain.ErrJobNotFound
	}
	if !domain.CanTransition(job.Status, status) {
		return domain.ErrStaleTransition
	}
	job.Status = status
	if update.Note != nil {
		job.Note = update.Note
	}
	if update.Result != nil {
		job.Result = update.Result
	}
	return nil
}

func (s *memoryJobStore) GetByID(_ context.Context, jobID string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	cp := *job
	return &cp, nil
}

func (s *memoryJobStore) List(_ context.Context, filter domain.JobFilter) ([]domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Job
	for _, j := range s.jobs {
		if filter.UserID != "" && j.UserID != filter.UserID {
			continue
		}
		if filter.DeviceID != "" && j.DeviceID != filter.DeviceID {
			continue
		}
		if filter.Status != "" && j.Status != filter.Status {
			continue
		}
		if filter.Cursor != nil && !j.CreatedAt.Before(filter.Cursor.CreatedAt) {
			continue
		}
		cp := *j
		cp.Result = nil
		out = append(out, cp)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	if len(out) > filter.PageSize+1 {
		out = out[:filter.PageSize+1]
	}
	return out, nil
}

func (s *memoryJobStore) put(job domain.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.JobID] = &job
}

// schedulerFunc adapts a function to Scheduler
type schedulerFunc func(ctx context.Context, req report.Request) error

func (f schedulerFunc) Schedule(ctx context.Context, req report.Request) error {
	return f(ctx, req)
}

var errBoom = errors.New("boom")

func newTestDeps(readings ReadingStore, jobs JobStore, scheduler Scheduler) *Dependencies {
	return &Dependencies{
		Logger:    slog.New(slog.DiscardHandler),
		Registry:  metric.Default(),
		Readings:  readings,
		Jobs:      jobs,
		Scheduler: scheduler,
		Location:  time.UTC,
	}
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
