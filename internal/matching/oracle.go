package matching

import (
	"context"
	"fmt"
	"math"
	"time"

	"storyvideo/internal/services"
)

// Candidate is one image offered to the oracle.
type Candidate struct {
	Filename string
	Keywords []string
}

// Request asks the oracle to pick the candidate that best illustrates SegmentText.
type Request struct {
	SegmentText string
	Candidates  []Candidate
}

// Response is the oracle's pick. Index is 1-based into Request.Candidates.
type Response struct {
	Index      int
	Confidence float64
}

// Oracle is the semantic matching capability.
type Oracle interface {
	Select(ctx context.Context, req Request) (Response, error)
}

// OracleFunc adapts a function to Oracle.
type OracleFunc func(ctx context.Context, req Request) (Response, error)

// Select calls f.
func (f OracleFunc) Select(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

type oracleOutcome struct {
	resp Response
	err  error
}

// consult runs the oracle on its own goroutine and waits for it, bounded by
// timeout. Every failure mode is reported as ErrOracleUnavailable.
func consult(ctx context.Context, oracle Oracle, req Request, timeout time.Duration) (Response, error) {
	if oracle == nil {
		return Response{}, services.Wrap(services.ErrOracleUnavailable, "matching", "oracle", "no oracle configured", nil)
	}
	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	done := make(chan oracleOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- oracleOutcome{err: fmt.Errorf("oracle panic: %v", r)}
			}
		}()
		resp, err := oracle.Select(callCtx, req)
		done <- oracleOutcome{resp: resp, err: err}
	}()

	var outcome oracleOutcome
	select {
	case outcome = <-done:
	case <-callCtx.Done():
		outcome.err = callCtx.Err()
	}
	if outcome.err != nil {
		return Response{}, services.Wrap(services.ErrOracleUnavailable, "matching", "oracle", "call failed", outcome.err)
	}
	if err := validateResponse(outcome.resp, len(req.Candidates)); err != nil {
		return Response{}, services.Wrap(services.ErrOracleUnavailable, "matching", "oracle", "invalid response", err)
	}
	return outcome.resp, nil
}

func validateResponse(resp Response, candidates int) error {
	if resp.Index < 1 || resp.Index > candidates {
		return fmt.Errorf("index %d outside [1,%d]", resp.Index, candidates)
	}
	if math.IsNaN(resp.Confidence) || resp.Confidence < 0 || resp.Confidence > 1 {
		return fmt.Errorf("confidence %v outside [0,1]", resp.Confidence)
	}
	return nil
}
