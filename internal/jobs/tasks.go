package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the queue import tasks are placed on.
	QueueDefault = "default"
	// TaskImportCSV runs one bulk CSV import.
	TaskImportCSV = "import:csv"
)

// ImportPayload carries everything a worker needs to run an import. LockToken is
// the owner's import lock, released by whoever finishes the run.
type ImportPayload struct {
	ID        string `json:"id"`
	OwnerID   string `json:"ownerId"`
	Kind      string `json:"kind"`
	LockToken string `json:"lockToken"`
	CSV       string `json:"csv"`
}

// NewImportTask constructs an asynq task for p.
func NewImportTask(p ImportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskImportCSV, data), nil
}

// DecodeImport reads an ImportPayload. Malformed payloads wrap asynq.SkipRetry.
func DecodeImport(t *asynq.Task) (ImportPayload, error) {
	var p ImportPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("decode import payload: %v: %w", err, asynq.SkipRetry)
	}
	if p.ID == "" || p.OwnerID == "" || p.Kind == "" {
		return p, fmt.Errorf("import payload missing fields: %w", asynq.SkipRetry)
	}
	return p, nil
}
