package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"studioz/models"
)

const TypeIntentSweep = "intent:sweep"

// NewIntentSweepTask builds the periodic task that settles intents pending longer than maxAge.
func NewIntentSweepTask(maxAge time.Duration) (*asynq.Task, error) {
	b, err := json.Marshal(models.IntentSweepPayload{MaxAgeSeconds: int(maxAge / time.Second)})
	if err != nil {
		return nil, err
	}
	// A sweep that overruns the next tick is dropped rather than queued twice.
	return asynq.NewTask(TypeIntentSweep, b, asynq.MaxRetry(0), asynq.Unique(time.Minute)), nil
}
