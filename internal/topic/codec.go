package topic

import (
	"encoding/json"
	"errors"
	"fmt"

	"obstarget/internal/model"
)

var ErrInvalidRecord = errors.New("invalid target record")

// DecodeTargetTopic parses one published target record
func DecodeTargetTopic(payload []byte) (model.TargetTopic, error) {
	var raw struct {
		model.TargetTopic
		TargetID *int `json:"targetId"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return model.TargetTopic{}, fmt.Errorf("decode payload: %w", err)
	}

	record := raw.TargetTopic
	if raw.TargetID == nil || record.Filter == "" {
		return model.TargetTopic{}, fmt.Errorf("%w: missing targetId or filter", ErrInvalidRecord)
	}
	record.TargetID = *raw.TargetID
	return record, nil
}

// EncodeTargetTopic serializes a target record for publishing
func EncodeTargetTopic(record model.TargetTopic) ([]byte, error) {
	if record.ExposureTimes == nil {
		record.ExposureTimes = []float64{}
	}
	return json.Marshal(record)
}
