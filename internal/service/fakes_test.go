package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"cliniscribe/internal/domain"
	"cliniscribe/internal/port"
)

// In-memory fakes. The job repo reproduces the store's compare-and-set
// acquire semantics under a mutex so concurrency tests are meaningful.

type memJobRepo struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]domain.ExtractionJob
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{jobs: make(map[uuid.UUID]domain.ExtractionJob)}
}

func (r *memJobRepo) Create(_ context.Context, job *domain.ExtractionJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = *job
	return nil
}

func (r *memJobRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.ExtractionJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &job, nil
}

func (r *memJobRepo) GetByDocumentID(_ context.Context, documentID uuid.UUID) (*domain.ExtractionJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, job := range r.jobs {
		if job.DocumentID == documentID {
			j := job
			return &j, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memJobRepo) Acquire(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if job.Status != domain.ExtractionStatusPending && job.Status != domain.ExtractionStatusFailed {
		return false, nil
	}
	job.Status = domain.ExtractionStatusProcessing
	job.Attempts++
	r.jobs[id] = job
	return true, nil
}

func (r *memJobRepo) ClaimPending(_ context.Context, limit int) ([]domain.ExtractionJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var claimed []domain.ExtractionJob
	for id, job := range r.jobs {
		if len(claimed) >= limit {
			break
		}
		if job.Status != domain.ExtractionStatusPending {
			continue
		}
		job.Status = domain.ExtractionStatusProcessing
		job.Attempts++
		r.jobs[id] = job
		claimed = append(claimed, job)
	}
	return claimed, nil
}

func (r *memJobRepo) Update(_ context.Context, job *domain.ExtractionJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ID]; !ok {
		return domain.ErrNotFound
	}
	r.jobs[job.ID] = *job
	return nil
}

type memDocRepo struct {
	mu   sync.Mutex
	docs map[uuid.UUID]domain.SourceDocument
}

func newMemDocRepo() *memDocRepo {
	return &memDocRepo{docs: make(map[uuid.UUID]domain.SourceDocument)}
}

func (r *memDocRepo) Create(_ context.Context, doc *domain.SourceDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = *doc
	return nil
}

func (r *memDocRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.SourceDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

func (r *memDocRepo) List(_ context.Context, _, _ int) ([]domain.SourceDocument, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.SourceDocument
	for _, d := range r.docs {
		out = append(out, d)
	}
	return out, len(out), nil
}

func (r *memDocRepo) Update(_ context.Context, doc *domain.SourceDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[doc.ID]; !ok {
		return domain.ErrNotFound
	}
	r.docs[doc.ID] = *doc
	return nil
}

type memLetterRepo struct {
	mu      sync.Mutex
	letters map[uuid.UUID]domain.Letter
}

func newMemLetterRepo() *memLetterRepo {
	return &memLetterRepo{letters: make(map[uuid.UUID]domain.Letter)}
}

func (r *memLetterRepo) Create(_ context.Context, letter *domain.Letter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.letters[letter.ID] = *letter
	return nil
}

func (r *memLetterRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Letter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.letters[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &l, nil
}

func (r *memLetterRepo) List(_ context.Context, _, _ int) ([]domain.Letter, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Letter
	for _, l := range r.letters {
		out = append(out, l)
	}
	return out, len(out), nil
}

func (r *memLetterRepo) Update(_ context.Context, letter *domain.Letter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.letters[letter.ID]; !ok {
		return domain.ErrNotFound
	}
	r.letters[letter.ID] = *letter
	return nil
}

type memProvRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]domain.ProvenanceRecord // keyed by letter ID
}

func newMemProvRepo() *memProvRepo {
	return &memProvRepo{records: make(map[uuid.UUID]domain.ProvenanceRecord)}
}

func (r *memProvRepo) Create(_ context.Context, rec *domain.ProvenanceRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.LetterID] = *rec
	return nil
}

func (r *memProvRepo) GetByLetterID(_ context.Context, letterID uuid.UUID) (*domain.ProvenanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[letterID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

type memAuditRepo struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (r *memAuditRepo) Record(_ context.Context, entry *domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *memAuditRepo) actions() []domain.AuditAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AuditAction, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

// fakeModel returns canned responses and counts calls.
type fakeModel struct {
	mu       sync.Mutex
	calls    int
	response string
	err      error
}

func (m *fakeModel) GenerateText(_ context.Context, _ port.GenerateInput) (*port.GenerateOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &port.GenerateOutput{Content: m.response, InputTokens: 100, OutputTokens: 50}, nil
}

func (m *fakeModel) GenerateVision(ctx context.Context, input port.VisionInput) (*port.GenerateOutput, error) {
	return m.GenerateText(ctx, port.GenerateInput{Prompt: input.Prompt})
}

func (m *fakeModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// fakeStorage records uploads.
type fakeStorage struct {
	mu      sync.Mutex
	uploads []port.UploadInput
}

func (s *fakeStorage) Upload(_ context.Context, input port.UploadInput) (*port.UploadOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads = append(s.uploads, input)
	return &port.UploadOutput{Location: "s3://" + input.Bucket + "/" + input.Key}, nil
}

func (s *fakeStorage) Download(_ context.Context, _, _ string) ([]byte, error) {
	return nil, domain.ErrNotFound
}

func (s *fakeStorage) GetPresignedURL(_ context.Context, bucket, key string, _ int64) (string, error) {
	return "https://example.test/" + bucket + "/" + key, nil
}
