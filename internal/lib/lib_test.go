package lib

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet(t *testing.T) {
	s := NewSet[int]()
	s.Add(3, 1, 3)
	assert.Equal(t, 2, s.Size())
	assert.True(t, s.Contains(1))
	assert.False(t, s.Contains(2))

	got := s.AsSlice()
	sort.Ints(got)
	assert.Equal(t, []int{1, 3}, got)

	s.Remove(3)
	assert.False(t, s.Contains(3))
	s.Clear()
	assert.Equal(t, 0, s.Size())
}

func TestStack(t *testing.T) {
	var s Stack[string]
	_, ok := s.Pop()
	assert.False(t, ok)
	assert.Nil(t, s.Peek())

	s.Push("a")
	s.Push("b")
	assert.Equal(t, 2, s.Len())

	top := s.Peek()
	require.NotNil(t, top)
	*top = "c"

	v, ok := s.Pop()
	assert.True(t, ok)
	assert.Equal(t, "c", v, "Peek returns a pointer into the stack")
	v, _ = s.Pop()
	assert.Equal(t, "a", v)
	assert.Equal(t, 0, s.Len())
}

func TestDurationJSON(t *testing.T) {
	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`"1m30s"`), &d))
	assert.Equal(t, 90*time.Second, d.Duration)

	require.NoError(t, json.Unmarshal([]byte(`5000000`), &d))
	assert.Equal(t, 5*time.Millisecond, d.Duration)

	assert.Error(t, json.Unmarshal([]byte(`"soon"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`[]`), &d))

	raw, err := json.Marshal(DurationFrom(2 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, `"2s"`, string(raw))
}

func TestNiceLogger(t *testing.T) {
	level, err := ParseSLogLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = ParseSLogLevel("loud")
	assert.Error(t, err)

	var buf bytes.Buffer
	NiceLogger(&buf, slog.LevelInfo, "json").Info("hello", "n", 1)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	source, ok := line["source"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "lib_test.go", source["file"])

	buf.Reset()
	NiceLogger(&buf, slog.LevelInfo, "text").Debug("hidden")
	assert.Empty(t, buf.String())
}
