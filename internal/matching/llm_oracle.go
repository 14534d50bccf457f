package matching

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"storyvideo/internal/services/llm"
)

const oracleSystemPrompt = `You help assemble a video that is synchronized with a spoken narration.
Given a narration excerpt and a numbered list of images (file name plus keywords),
choose the single image that best illustrates the excerpt.
Respond with JSON only: {"index": <image number>, "confidence": <0.0-1.0>}.
If no image is relevant, pick the most generic one and use a low confidence (0.1-0.3).`

// pipeReply matches the "number|score" free-text form some local models fall back to.
var pipeReply = regexp.MustCompile(`(\d+)\s*\|\s*([\d.]+)`)

// Completer is the subset of the chat client used by LLMOracle.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// LLMOracle implements Oracle on top of a chat-completions model.
type LLMOracle struct {
	client Completer
}

// NewLLMOracle wraps client.
func NewLLMOracle(client Completer) *LLMOracle {
	return &LLMOracle{client: client}
}

// Select prompts the model and parses its pick.
func (o *LLMOracle) Select(ctx context.Context, req Request) (Response, error) {
	if len(req.Candidates) == 0 {
		return Response{}, fmt.Errorf("llm oracle: no candidates")
	}
	content, err := o.client.CompleteJSON(ctx, oracleSystemPrompt, buildOraclePrompt(req))
	if err != nil {
		return Response{}, err
	}
	return parseOracleReply(content)
}

func buildOraclePrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Narration: %q\n\nImages:\n", req.SegmentText)
	for i, c := range req.Candidates {
		fmt.Fprintf(&b, "%d. %s (keywords: %s)\n", i+1, c.Filename, strings.Join(c.Keywords, ", "))
	}
	fmt.Fprintf(&b, "\nAnswer with the image number between 1 and %d and your confidence.", len(req.Candidates))
	return b.String()
}

type oracleReply struct {
	Index      *int     `json:"index"`
	Confidence *float64 `json:"confidence"`
}

// parseOracleReply accepts {"index":n,"confidence":c} or the "n|c" form.
func parseOracleReply(content string) (Response, error) {
	var reply oracleReply
	if err := llm.DecodeLLMJSON(content, &reply); err == nil && reply.Index != nil && reply.Confidence != nil {
		return Response{Index: *reply.Index, Confidence: *reply.Confidence}, nil
	}
	match := pipeReply.FindStringSubmatch(content)
	if match == nil {
		return Response{}, fmt.Errorf("llm oracle: unparsable reply %q", truncate(strings.TrimSpace(content), 80))
	}
	index, err := strconv.Atoi(match[1])
	if err != nil {
		return Response{}, fmt.Errorf("llm oracle: parse index: %w", err)
	}
	confidence, err := strconv.ParseFloat(match[2], 64)
	if err != nil {
		return Response{}, fmt.Errorf("llm oracle: parse confidence: %w", err)
	}
	return Response{Index: index, Confidence: confidence}, nil
}
