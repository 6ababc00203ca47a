package tasks

import (
	"context"
	"errors"
	"testing"

	"servicehub/services/ranking"

	"github.com/goccy/go-json"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubRunner struct {
	calls int
	err   error
}

func (s *stubRunner) Run(ctx context.Context) (*ranking.RunResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &ranking.RunResult{RunID: "run", Manifest: &ranking.Manifest{Version: "run"}}, nil
}

func TestNewRetrainTask(t *testing.T) {
	task, opts, err := NewRetrainTask("manual")
	require.NoError(t, err)
	assert.Equal(t, TypeRetrainRanker, task.Type())
	assert.Len(t, opts, 4)

	var p RetrainPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	assert.Equal(t, "manual", p.Reason)
	require.NotNil(t, p.RequestedAt)
	assert.False(t, p.RequestedAt.IsZero())
}

func TestNewScheduledRetrainTask(t *testing.T) {
	task, opts, err := NewScheduledRetrainTask()
	require.NoError(t, err)
	assert.Equal(t, TypeRetrainRanker, task.Type())
	assert.Len(t, opts, 4)
	assert.NotContains(t, string(task.Payload()), "requested_at")

	var p RetrainPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	assert.Equal(t, "schedule", p.Reason)
	assert.Nil(t, p.RequestedAt)
}

func TestRetrainHandler(t *testing.T) {
	task, _, err := NewRetrainTask("manual")
	require.NoError(t, err)
	scheduled, _, err := NewScheduledRetrainTask()
	require.NoError(t, err)

	tests := []struct {
		name      string
		runErr    error
		payload   []byte
		wantErr   bool
		skipRetry bool
		wantCalls int
	}{
		{name: "success", wantCalls: 1},
		{name: "scheduled", payload: scheduled.Payload(), wantCalls: 1},
		{name: "no data", runErr: ranking.ErrNoTrainingData, wantErr: true, skipRetry: true, wantCalls: 1},
		{name: "store failure", runErr: errors.New("connection refused"), wantErr: true, wantCalls: 1},
		{name: "bad payload", payload: []byte("{"), wantErr: true, skipRetry: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &stubRunner{err: tt.runErr}
			handler := NewRetrainHandler(runner, zaptest.NewLogger(t))

			tk := task
			if tt.payload != nil {
				tk = asynq.NewTask(TypeRetrainRanker, tt.payload)
			}
			err := handler(context.Background(), tk)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.skipRetry, errors.Is(err, asynq.SkipRetry))
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, runner.calls)
		})
	}
}
