package disposable

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoad_Defaults(t *testing.T) {
	set, err := Load(Options{}, zap.NewNop())

	require.NoError(t, err)
	assert.True(t, set.Contains("mailinator.com"))
	assert.True(t, set.Contains("yopmail.com"))
	assert.False(t, set.Contains("gmail.com"))
	assert.False(t, set.Contains("# default disposable email domains."))
	assert.Greater(t, set.Len(), 50)
}

func TestLoad_FileExtraAndAllowed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "domains.txt")
	require.NoError(t, os.WriteFile(path, []byte("# local additions\n  Spam.Example  \n\nthrowaway.test\n"), 0o644))

	set, err := Load(Options{
		File:    path,
		Extra:   []string{"EXTRA.example", " "},
		Allowed: []string{"Mailinator.com", "throwaway.test"},
	}, nil)

	require.NoError(t, err)
	assert.True(t, set.Contains("spam.example"))
	assert.True(t, set.Contains("extra.example"))
	assert.False(t, set.Contains("throwaway.test"))
	assert.False(t, set.Contains("mailinator.com"))
	assert.False(t, set.Contains(""))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(Options{File: filepath.Join(t.TempDir(), "nope.txt")}, nil)

	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	set := New("A.com", "b.com", "")

	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Contains("a.com"))
	assert.False(t, set.Contains("A.com"))
}

func TestSet_ConcurrentReads(t *testing.T) {
	set := New("mailinator.com")

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.True(t, set.Contains("mailinator.com"))
			}
		}()
	}
	wg.Wait()
}
