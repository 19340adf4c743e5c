package imports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// State is the lifecycle stage of an import.
type State string

const (
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Status is the progress report of one import.
type Status struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	State     State     `json:"state"`
	Current   int       `json:"current"`
	Total     int       `json:"total"`
	Success   int       `json:"success"`
	Failed    int       `json:"failed"`
	Errors    []string  `json:"errors"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type record struct {
	OwnerID string `json:"ownerId"`
	Status
}

var errStatusNotFound = errors.New("import status not found")

// StatusStore keeps import statuses in Redis.
type StatusStore struct {
	R   *redis.Client
	TTL time.Duration
}

func statusKey(id string) string {
	return "import:status:" + id
}

func (s StatusStore) ttl() time.Duration {
	if s.TTL <= 0 {
		return 24 * time.Hour
	}
	return s.TTL
}

// Save writes st for ownerID, resetting its TTL.
func (s StatusStore) Save(ctx context.Context, ownerID string, st Status) error {
	if st.Errors == nil {
		st.Errors = []string{}
	}
	data, err := json.Marshal(record{OwnerID: ownerID, Status: st})
	if err != nil {
		return err
	}
	if err := s.R.Set(ctx, statusKey(st.ID), data, s.ttl()).Err(); err != nil {
		return fmt.Errorf("save import status: %w", err)
	}
	return nil
}

// Load returns the status of id if it belongs to ownerID.
func (s StatusStore) Load(ctx context.Context, ownerID, id string) (Status, error) {
	data, err := s.R.Get(ctx, statusKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Status{}, errStatusNotFound
	}
	if err != nil {
		return Status{}, fmt.Errorf("load import status: %w", err)
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Status{}, fmt.Errorf("decode import status: %w", err)
	}
	if rec.OwnerID != ownerID {
		return Status{}, errStatusNotFound
	}
	return rec.Status, nil
}
