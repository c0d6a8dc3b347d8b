package agent

import (
	"context"
	"errors"
)

// ErrMaxIterations is returned when the model keeps calling tools past the
// iteration cap without producing a final answer.
var ErrMaxIterations = errors.New("agent stopped after reaching the iteration limit")

// DefaultMaxIterations caps model calls per run.
const DefaultMaxIterations = 10

// Agent answers a question by choosing and invoking tools. Each run is
// independent; no history is kept between runs.
type Agent interface {
	Run(ctx context.Context, input string, tools []Tool) (string, error)
}
