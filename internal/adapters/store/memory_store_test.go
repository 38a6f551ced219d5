package store

import (
	"context"
	"testing"
	"time"

	"github.com/mikey/form-spam-filter/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newForm(id, owner string, created time.Time) *core.Form {
	return &core.Form{
		ID:            id,
		OwnerID:       owner,
		Name:          "Contact " + id,
		HoneypotField: "_gotcha",
		CreatedAt:     created,
		UpdatedAt:     created,
	}
}

func TestMemoryStore_FormLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(zap.NewNop())
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.CreateForm(ctx, newForm("a", "owner-1", base)))
	require.NoError(t, s.CreateForm(ctx, newForm("b", "owner-1", base.Add(time.Hour))))
	require.NoError(t, s.CreateForm(ctx, newForm("c", "owner-2", base.Add(2*time.Hour))))

	assert.Error(t, s.CreateForm(ctx, newForm("a", "owner-1", base)), "duplicate IDs are rejected")

	got, err := s.GetForm(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "Contact b", got.Name)

	forms, err := s.ListForms(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, forms, 2)
	assert.Equal(t, "b", forms[0].ID)
	assert.Equal(t, "a", forms[1].ID)

	all, err := s.ListForms(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, s.DeleteForm(ctx, "a"))
	_, err = s.GetForm(ctx, "a")
	assert.ErrorIs(t, err, core.ErrFormNotFound)
	assert.ErrorIs(t, s.DeleteForm(ctx, "a"), core.ErrFormNotFound)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(zap.NewNop())
	require.NoError(t, s.CreateForm(ctx, newForm("a", "owner", time.Now())))

	got, err := s.GetForm(ctx, "a")
	require.NoError(t, err)
	got.Name = "mutated"

	again, err := s.GetForm(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Contact a", again.Name)
}

func TestMemoryStore_MapsAreNotShared(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(zap.NewNop())

	form := newForm("a", "owner", time.Now())
	form.Schema = map[string]any{
		"type":     "object",
		"required": []any{"email"},
	}
	require.NoError(t, s.CreateForm(ctx, form))
	form.Schema["type"] = "array"

	got, err := s.GetForm(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "object", got.Schema["type"])
	got.Schema["required"].([]any)[0] = "name"

	again, err := s.GetForm(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []any{"email"}, again.Schema["required"])

	sub := &core.Submission{
		ID:     "s1",
		FormID: "a",
		Data:   core.Payload{"email": "ann@example.com", "address": map[string]any{"city": "Oslo"}},
	}
	require.NoError(t, s.SaveSubmission(ctx, sub))
	sub.Data["email"] = "changed@example.com"

	page, err := s.ListSubmissions(ctx, "a", 10, 0)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "ann@example.com", page[0].Data["email"])
	page[0].Data["address"].(map[string]any)["city"] = "Bergen"

	page, err = s.ListSubmissions(ctx, "a", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"city": "Oslo"}, page[0].Data["address"])
}

func TestMemoryStore_Submissions(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(zap.NewNop())
	require.NoError(t, s.CreateForm(ctx, newForm("f", "owner", time.Now())))

	for _, id := range []string{"s1", "s2", "s3"} {
		require.NoError(t, s.SaveSubmission(ctx, &core.Submission{
			ID:     id,
			FormID: "f",
			Data:   core.Payload{"id": id},
		}))
	}

	page, err := s.ListSubmissions(ctx, "f", 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "s3", page[0].ID)
	assert.Equal(t, "s2", page[1].ID)

	page, err = s.ListSubmissions(ctx, "f", 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "s1", page[0].ID)

	page, err = s.ListSubmissions(ctx, "f", 10, 5)
	require.NoError(t, err)
	assert.Empty(t, page)

	err = s.SaveSubmission(ctx, &core.Submission{ID: "x", FormID: "missing"})
	assert.ErrorIs(t, err, core.ErrFormNotFound)

	require.NoError(t, s.DeleteForm(ctx, "f"))
	page, err = s.ListSubmissions(ctx, "f", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, page)
}
