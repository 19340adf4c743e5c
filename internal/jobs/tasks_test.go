package jobs_test

import (
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pos/internal/jobs"
)

func TestImportTaskRoundTrip(t *testing.T) {
	in := jobs.ImportPayload{ID: "imp-1", OwnerID: "owner-1", Kind: "items", LockToken: "tok", CSV: "name,code\nA,B\n"}
	task, err := jobs.NewImportTask(in)
	require.NoError(t, err)
	require.Equal(t, jobs.TaskImportCSV, task.Type())

	out, err := jobs.DecodeImport(task)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestDecodeImportSkipsRetryOnBadPayload(t *testing.T) {
	_, err := jobs.DecodeImport(asynq.NewTask(jobs.TaskImportCSV, []byte("{")))
	require.True(t, errors.Is(err, asynq.SkipRetry))

	_, err = jobs.DecodeImport(asynq.NewTask(jobs.TaskImportCSV, []byte(`{"id":"x"}`)))
	require.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestNewWorkerRequiresRedis(t *testing.T) {
	_, err := jobs.NewWorker(jobs.WorkerConfig{})
	require.Error(t, err)

	w, err := jobs.NewWorker(jobs.WorkerConfig{RedisOpts: asynq.RedisClientOpt{Addr: "127.0.0.1:0"}})
	require.NoError(t, err)
	require.NotNil(t, w)
}
