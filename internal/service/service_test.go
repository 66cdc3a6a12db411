package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msto63/structlint/internal/store"
	"github.com/msto63/structlint/internal/validator"
	mdwerrors "github.com/msto63/structlint/pkg/core/errors"
)

const broken = "A : struct.begin\n  x = 1\n"

const unformatted = "A : struct.begin\nx = 1\n  B : struct.begin\n  y = 2\n  struct.end\nstruct.end"

func newTestService(t *testing.T) (*Service, *store.SQLiteRunStore) {
	t.Helper()
	st, err := store.New(store.Config{Path: filepath.Join(t.TempDir(), "runs.db")})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewService(Config{Options: validator.DefaultOptions(), Store: st}), st
}

func TestLint(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	res, err := svc.Lint(ctx, Document{URI: "a.cfg", Version: 3, Text: broken})
	require.NoError(t, err)
	assert.Len(t, res.RunID, 36)
	assert.Equal(t, "a.cfg", res.URI)
	assert.Equal(t, 3, res.Version)
	assert.Equal(t, 1, res.Errors)
	assert.Equal(t, 0, res.Warnings)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, validator.RuleUnclosed, res.Diagnostics[0].Rule)

	runs, err := st.ListRuns(ctx, store.RunFilter{URI: "a.cfg"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, res.RunID, runs[0].ID)
	assert.Equal(t, store.KindLint, runs[0].Kind)
	assert.Equal(t, 1, runs[0].Errors)
}

func TestLint_Clean(t *testing.T) {
	svc := NewService(Config{Options: validator.DefaultOptions()})
	res, err := svc.Lint(context.Background(), Document{URI: "b.cfg", Text: "A : struct.begin\n  x = 1\nstruct.end"})
	require.NoError(t, err)
	assert.Empty(t, res.Diagnostics)
	assert.Zero(t, res.Errors)
}

func TestFormat(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	res, err := svc.Format(ctx, Document{URI: "a.cfg", Text: unformatted})
	require.NoError(t, err)
	assert.False(t, res.Blocked)
	assert.True(t, res.Changed())
	assert.Equal(t, "A : struct.begin\n  x = 1\n  B : struct.begin\n    y = 2\n  struct.end\nstruct.end", res.Formatted)

	blocked, err := svc.Format(ctx, Document{URI: "b.cfg", Text: broken})
	require.NoError(t, err)
	assert.True(t, blocked.Blocked)
	assert.False(t, blocked.Changed())
	assert.Equal(t, broken, blocked.Formatted)
	assert.NotEmpty(t, blocked.Diagnostics)

	runs, err := st.ListRuns(ctx, store.RunFilter{Kind: store.KindFormat})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, 2, runs[1].Edits)
}

func TestOutline(t *testing.T) {
	svc := NewService(Config{Options: validator.DefaultOptions()})
	text := "A : struct.begin\n" +
		"  B : struct.begin\n" +
		"    x = 1\n" +
		"  struct.end\n" +
		"  C : struct.begin\n" +
		"    y = 2\n" +
		"struct.end\n" +
		"top = 1"

	nodes, err := svc.Outline(context.Background(), Document{Text: text})
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	a := nodes[0]
	assert.Equal(t, "A", a.Name)
	assert.Equal(t, 0, a.Depth)
	require.Len(t, a.Children, 2)

	b := a.Children[0]
	assert.Equal(t, OutlineNode{Name: "B", StartLine: 1, EndLine: 3, Depth: 1, Closed: true}, *b)

	c := a.Children[1]
	assert.Equal(t, "C", c.Name)
	assert.Equal(t, 1, c.Depth)
	assert.Equal(t, 4, c.StartLine)
}

func TestCanceledContext(t *testing.T) {
	svc := NewService(Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Lint(ctx, Document{Text: "x = 1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))

	_, err = svc.Format(ctx, Document{Text: "x = 1"})
	assert.Error(t, err)
	_, err = svc.Outline(ctx, Document{Text: "x = 1"})
	assert.Error(t, err)
}

// failingStore rejects every run
type failingStore struct {
	store.RunStore
	calls int
}

func (f *failingStore) RecordRun(context.Context, *store.Run) error {
	f.calls++
	return mdwerrors.New("disk full").WithCode(mdwerrors.CodeStoreError)
}

func TestStoreFailureDoesNotFailRun(t *testing.T) {
	fs := &failingStore{}
	svc := NewService(Config{Options: validator.DefaultOptions(), Store: fs})

	res, err := svc.Lint(context.Background(), Document{URI: "a.cfg", Text: "x = 1"})
	require.NoError(t, err)
	assert.NotNil(t, res)
	assert.Equal(t, 1, fs.calls)
	assert.Less(t, res.Duration, time.Minute)
}
