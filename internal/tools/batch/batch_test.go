package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStringOrArray(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    []string
		wantErr bool
	}{
		{name: "single string", input: "test123", want: []string{"test123"}},
		{name: "array of strings", input: []any{"id1", "id2", "id3"}, want: []string{"id1", "id2", "id3"}},
		{name: "nil input", input: nil, wantErr: true},
		{name: "empty string", input: "", wantErr: true},
		{name: "empty array", input: []any{}, wantErr: true},
		{name: "array with non-string", input: []any{"id1", 123, "id3"}, wantErr: true},
		{name: "array with empty string", input: []any{"id1", "", "id3"}, wantErr: true},
		{name: "invalid type", input: 123, wantErr: true},
		{name: "JSON string array", input: `["id1", "id2"]`, want: []string{"id1", "id2"}},
		{name: "JSON string empty array", input: `[]`, wantErr: true},
		{name: "invalid JSON string", input: `[invalid json`, want: []string{`[invalid json`}},
		{name: "string starting with bracket", input: `[draft] notes`, want: []string{`[draft] notes`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStringOrArray(tt.input, "file_ids")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatResults(t *testing.T) {
	results := []Result{
		NewSuccessResult("id1", "Moved to trash"),
		{ID: "id2", Status: StatusSuccess, Data: map[string]string{"name": "a.txt"}},
		NewErrorResult("id3", errors.New("not found")),
	}

	var br BatchResult
	require.NoError(t, json.Unmarshal([]byte(FormatResults(results)), &br))

	assert.Equal(t, 3, br.Total)
	assert.Equal(t, 2, br.Successful)
	assert.Equal(t, 1, br.Failed)
	require.Len(t, br.Results, 3)
	assert.Equal(t, "Moved to trash", br.Results[0].Result)
	assert.Equal(t, map[string]any{"name": "a.txt"}, br.Results[1].Data)
	assert.Equal(t, "not found", br.Results[2].Error)
}

func TestProcessBatch(t *testing.T) {
	ids := []string{"id1", "id2", "id3", "id4"}

	results := ProcessBatch(context.Background(), ids, 2, func(ctx context.Context, id string) (any, error) {
		switch id {
		case "id2":
			return nil, errors.New("failed to process id2")
		case "id3":
			return map[string]string{"id": id}, nil
		case "id4":
			return nil, nil
		}
		return "processed " + id, nil
	})

	require.Len(t, results, 4)
	assert.Equal(t, NewSuccessResult("id1", "processed id1"), results[0])
	assert.Equal(t, NewErrorResult("id2", errors.New("failed to process id2")), results[1])
	assert.Equal(t, Result{ID: "id3", Status: StatusSuccess, Data: map[string]string{"id": "id3"}}, results[2])
	assert.Equal(t, Result{ID: "id4", Status: StatusSuccess}, results[3])
}

func TestProcessBatch_BoundsConcurrency(t *testing.T) {
	ids := make([]string, 12)
	for i := range ids {
		ids[i] = fmt.Sprintf("id%d", i)
	}

	var running, peak atomic.Int32
	results := ProcessBatch(context.Background(), ids, 3, func(ctx context.Context, id string) (any, error) {
		n := running.Add(1)
		defer running.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		return id, nil
	})

	assert.LessOrEqual(t, peak.Load(), int32(3))
	for i, r := range results {
		assert.Equal(t, ids[i], r.ID)
		assert.Equal(t, StatusSuccess, r.Status)
	}
}

func TestProcessBatch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	results := ProcessBatch(ctx, []string{"a", "b"}, 0, func(ctx context.Context, id string) (any, error) {
		calls.Add(1)
		return "ok", nil
	})

	assert.Zero(t, calls.Load())
	for _, r := range results {
		assert.Equal(t, StatusError, r.Status)
	}
}
