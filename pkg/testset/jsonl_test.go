package testset_test

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragline/ragline/pkg/testset"
)

func dataset() []testset.Sample {
	created := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)

	return []testset.Sample{
		{ID: "s1", Question: "What moves through ports?", ReferenceAnswer: "Values.", SourceDocID: "d1", CreatedAt: created},
		{ID: "s2", Question: "Where do bindings point?", SourceDocID: "d2", CreatedAt: created.Add(time.Minute)},
	}
}

func TestJSONLRoundTrip(t *testing.T) {
	t.Parallel()

	samples := dataset()

	var buf bytes.Buffer
	require.NoError(t, testset.WriteJSONL(&buf, samples))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 2)

	got, err := testset.ReadJSONL(&buf)
	require.NoError(t, err)
	assert.Equal(t, samples, got)
}

func TestReadJSONLEmpty(t *testing.T) {
	t.Parallel()

	got, err := testset.ReadJSONL(strings.NewReader(""))

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadJSONLMalformed(t *testing.T) {
	t.Parallel()

	_, err := testset.ReadJSONL(strings.NewReader("{broken"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to decode sample")
}

func TestSaveLoadFile(t *testing.T) {
	t.Parallel()

	samples := dataset()
	path := filepath.Join(t.TempDir(), "dataset.jsonl")

	require.NoError(t, testset.SaveFile(path, samples))

	got, err := testset.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, samples, got)
}

func TestLoadFileMissing(t *testing.T) {
	t.Parallel()

	_, err := testset.LoadFile(filepath.Join(t.TempDir(), "absent.jsonl"))

	require.Error(t, err)
}
