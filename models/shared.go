package models

import (
	"encoding/json"
	"time"
)

// ClientStateEntry is a persisted value formerly held in browser local storage.
type ClientStateEntry struct {
	Key       string          `json:"key"`
	Version   int             `json:"v"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// ClientErrorReport is what the front end posts when a render fails.
type ClientErrorReport struct {
	Name    string `json:"name"`
	Message string `json:"message" binding:"required"`
	Stack   string `json:"stack,omitempty"`
	URL     string `json:"url,omitempty"`
	Release string `json:"release,omitempty"`
}

// IntentSweepPayload is the asynq payload for the stale intent sweep.
// Intents pending for longer than MaxAgeSeconds are settled.
type IntentSweepPayload struct {
	MaxAgeSeconds int `json:"maxAgeSeconds"`
}

// Owner identifies whose cart and client state a request touches.
type Owner struct {
	ID        string `json:"id"`
	Anonymous bool   `json:"anonymous"`
}

// Key namespaces the owner so user and session ids never collide.
func (o Owner) Key() string {
	if o.Anonymous {
		return "session:" + o.ID
	}
	return "user:" + o.ID
}
