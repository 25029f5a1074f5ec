package docstore

import (
	"sync"
	"time"

	"docvault/internal/domain/models"
)

// JobRegistry is the in-memory relay of ingestion job state, keyed by
// document id. The registry is a cache over the documents table, not a
// queue: entries can vanish on restart and callers fall back to the
// row's status. Terminal entries are evicted after a TTL so the map
// stays bounded.
type JobRegistry struct {
	mu   sync.RWMutex
	jobs map[int64]*models.Job
	ttl  time.Duration
	now  func() time.Time
}

func NewJobRegistry(ttl time.Duration) *JobRegistry {
	return &JobRegistry{
		jobs: make(map[int64]*models.Job),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Track registers (or refreshes) the job entry for a document.
func (r *JobRegistry) Track(doc *models.Document) {
	filePath := ""
	if doc.FilePath != nil {
		filePath = *doc.FilePath
	}
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictLocked(now)
	if existing, ok := r.jobs[doc.ID]; ok {
		existing.Status = doc.Status
		existing.UpdatedAt = now
		return
	}
	r.jobs[doc.ID] = &models.Job{
		DocumentID:  doc.ID,
		OrgID:       doc.OrgID,
		Name:        doc.Name,
		FilePath:    filePath,
		Status:      doc.Status,
		SubmittedAt: now,
		UpdatedAt:   now,
	}
}

// SetStatus updates the tracked state of a document if it is present.
func (r *JobRegistry) SetStatus(documentID int64, status models.DocumentStatus, errorMessage *string) {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictLocked(now)
	job, ok := r.jobs[documentID]
	if !ok {
		return
	}
	job.Status = status
	job.ErrorMessage = errorMessage
	job.UpdatedAt = now
}

// Get returns a copy of the tracked job for a document, if any.
func (r *JobRegistry) Get(documentID int64) (*models.Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[documentID]
	if !ok || r.expired(job, r.now()) {
		return nil, false
	}
	out := *job
	return &out, true
}

// All returns copies of every live tracked job.
func (r *JobRegistry) All() []*models.Job {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictLocked(now)
	out := make([]*models.Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		j := *job
		out = append(out, &j)
	}
	return out
}

// Drop removes the entry for a document (deletion, rollback).
func (r *JobRegistry) Drop(documentID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, documentID)
}

// expired reports whether a terminal job has outlived the TTL. Jobs
// still in flight are never evicted on age alone.
func (r *JobRegistry) expired(job *models.Job, now time.Time) bool {
	if job.Status != models.DocumentStatusCompleted && job.Status != models.DocumentStatusFailed {
		return false
	}
	return now.Sub(job.UpdatedAt) > r.ttl
}

func (r *JobRegistry) evictLocked(now time.Time) {
	for id, job := range r.jobs {
		if r.expired(job, now) {
			delete(r.jobs, id)
		}
	}
}
