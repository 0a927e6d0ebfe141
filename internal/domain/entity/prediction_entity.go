package entity

import "time"

type PredictionKind string

const (
	PredictionCrop       PredictionKind = "crop"
	PredictionFertilizer PredictionKind = "fertilizer"
	PredictionDisease    PredictionKind = "disease"
)

// Prediction is one request made to the ML service on behalf of a user.
type Prediction struct {
	ID         string
	UserID     string
	UserName   string // filled on reads that join users
	Kind       PredictionKind
	Label      string
	Confidence float64
	Success    bool
	Error      string
	CreatedAt  time.Time
}

// LabelCount is an aggregate of successful predictions per label.
type LabelCount struct {
	Label string
	Count int
}
