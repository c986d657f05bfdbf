package classify

import (
	"context"
	"errors"
)

// Label is the binary verdict class.
type Label = int

const (
	// LabelReject marks proposals that fail screening.
	LabelReject Label = 0
	// LabelPass marks proposals that clear screening.
	LabelPass Label = 1
)

// Verdict messages shown to applicants. Fixed strings, Indonesian.
const (
	MsgEmptyInput = "Proposal kosong atau tidak valid"
	MsgPass       = "PASS - Proposal memenuhi kriteria administrasi dan substansi"
	MsgReject     = "REJECT - Proposal tidak memenuhi kriteria atau deskripsi kurang lengkap"
)

// ErrModelNotLoaded signals that the inference backend could not be
// initialized. Callers must surface it; it never degrades into a reject.
var ErrModelNotLoaded = errors.New("classifier model is not loaded")

// Result is the outcome of one classification call.
type Result struct {
	Prediction string  `json:"prediction"`
	Confidence float64 `json:"confidence"`
	Label      Label   `json:"label"`
	Message    string  `json:"message"`
}

// Score is a raw backend verdict: the argmax class and its probability.
type Score struct {
	Label      Label
	Confidence float64
}

// backend scores text into a two-class verdict. Implementations truncate
// input at their own tokenization boundary; callers never pre-trim.
type backend interface {
	Name() string
	Score(ctx context.Context, text string) (Score, error)
}

// numClasses is fixed: the screening model is strictly binary.
const numClasses = 2
