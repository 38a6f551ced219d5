package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mikey/form-spam-filter/internal/core"
	"go.uber.org/zap"
)

// MemoryStore is an in-memory implementation of core.Store. Forms and
// submissions are deep-copied on the way in and out, schema and data
// maps included.
type MemoryStore struct {
	mu          sync.RWMutex
	forms       map[string]*core.Form
	submissions map[string][]*core.Submission
	logger      *zap.Logger
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		forms:       make(map[string]*core.Form),
		submissions: make(map[string][]*core.Submission),
		logger:      logger,
	}
}

// CreateForm stores a form
func (s *MemoryStore) CreateForm(ctx context.Context, form *core.Form) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.forms[form.ID]; exists {
		return fmt.Errorf("form %s already exists", form.ID)
	}
	s.forms[form.ID] = cloneForm(form)
	return nil
}

// GetForm retrieves a form by ID
func (s *MemoryStore) GetForm(ctx context.Context, id string) (*core.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.forms[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrFormNotFound, id)
	}
	return cloneForm(f), nil
}

// ListForms returns an owner's forms, newest first. An empty owner lists all forms.
func (s *MemoryStore) ListForms(ctx context.Context, ownerID string) ([]*core.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	forms := make([]*core.Form, 0)
	for _, f := range s.forms {
		if ownerID != "" && f.OwnerID != ownerID {
			continue
		}
		forms = append(forms, cloneForm(f))
	}
	sort.Slice(forms, func(i, j int) bool {
		return forms[i].CreatedAt.After(forms[j].CreatedAt)
	})
	return forms, nil
}

// DeleteForm removes a form and its submissions
func (s *MemoryStore) DeleteForm(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.forms[id]; !ok {
		return fmt.Errorf("%w: %s", core.ErrFormNotFound, id)
	}
	delete(s.forms, id)
	delete(s.submissions, id)
	return nil
}

// SaveSubmission stores an accepted submission
func (s *MemoryStore) SaveSubmission(ctx context.Context, sub *core.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.forms[sub.FormID]; !ok {
		return fmt.Errorf("%w: %s", core.ErrFormNotFound, sub.FormID)
	}
	s.submissions[sub.FormID] = append(s.submissions[sub.FormID], cloneSubmission(sub))
	return nil
}

// ListSubmissions returns a page of a form's submissions, newest first
func (s *MemoryStore) ListSubmissions(ctx context.Context, formID string, limit, offset int) ([]*core.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.submissions[formID]
	out := make([]*core.Submission, 0, limit)
	for i := len(all) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, cloneSubmission(all[i]))
	}
	return out, nil
}

// Close is a no-op for the memory store
func (s *MemoryStore) Close() error {
	return nil
}

func cloneForm(f *core.Form) *core.Form {
	out := *f
	if f.Schema != nil {
		out.Schema = cloneMap(f.Schema)
	}
	return &out
}

func cloneSubmission(sub *core.Submission) *core.Submission {
	out := *sub
	if sub.Data != nil {
		out.Data = core.Payload(cloneMap(sub.Data))
	}
	return &out
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case core.Payload:
		return core.Payload(cloneMap(t))
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	}
	return v
}
