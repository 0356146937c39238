package model

// TargetTopic is the target record published on the scheduler topic.
// Angles are in degrees.
type TargetTopic struct {
	TargetID      int       `json:"targetId"`
	Filter        string    `json:"filter"`
	RA            float64   `json:"ra"`
	Decl          float64   `json:"decl"`
	SkyAngle      float64   `json:"skyAngle"`
	NumExposures  int       `json:"numExposures"`
	ExposureTimes []float64 `json:"exposureTimes"`
}

// FromTopic builds a target from a topic record. The result has no
// associated field (FieldID is NoField).
func FromTopic(topic TargetTopic) *Target {
	return NewTarget(topic.TargetID, NoField, topic.Filter,
		radians(topic.RA), radians(topic.Decl), radians(topic.SkyAngle),
		topic.NumExposures, topic.ExposureTimes)
}

// Topic converts the target back into a topic record
func (t *Target) Topic() TargetTopic {
	return TargetTopic{
		TargetID:      t.TargetID,
		Filter:        t.Filter,
		RA:            t.RA(),
		Decl:          t.Dec(),
		SkyAngle:      t.Ang(),
		NumExposures:  t.NumExp,
		ExposureTimes: copyFloats(t.ExpTimes),
	}
}
