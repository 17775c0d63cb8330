package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypePendingDigest = "keyrequest:pending:digest"
)

type PendingDigestPayload struct{}

func NewPendingDigestTask(opts ...asynq.Option) (*asynq.Task, error) {
	payload := PendingDigestPayload{}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	uniqueOpt := asynq.Unique(1 * time.Hour)
	allOpts := append(opts, uniqueOpt)

	return asynq.NewTask(TypePendingDigest, payloadBytes, allOpts...), nil
}
