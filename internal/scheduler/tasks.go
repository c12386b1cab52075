package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TaskDamageReview carries an external approve/refuse decision for a damage.
const TaskDamageReview = "damages.review"

type DamageReviewPayload struct {
	DamageID       string  `json:"damageId"`
	Status         string  `json:"status"`
	Reviewer       string  `json:"reviewer"`
	RefusalReason  *string `json:"refusalReason,omitempty"`
	RefusalComment *string `json:"refusalComment,omitempty"`
}

func NewDamageReviewTask(payload DamageReviewPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDamageReview, data), nil
}

func ParseDamageReviewPayload(task *asynq.Task) (DamageReviewPayload, error) {
	var payload DamageReviewPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return DamageReviewPayload{}, err
	}
	return payload, nil
}
