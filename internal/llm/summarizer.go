// Package llm provides an optional narrative summarizer for analysis
// results. Summaries are advisory text for report output only: they never
// feed back into classification, mismatch evaluation or flagging.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/civicaudit/groundtruth/internal/model"
)

// Summarizer turns an analysis result into a short prose summary
type Summarizer interface {
	// Name returns the provider name
	Name() string

	// Summarize generates a summary of an analysis result
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)
}

// SummarizeRequest contains the input for summarization
type SummarizeRequest struct {
	// Project is the audited project record
	Project *model.ProjectRef

	// Result is the verification outcome to summarize
	Result *model.AnalysisResult

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// SummarizeResponse contains the summarizer output
type SummarizeResponse struct {
	// Summary is the generated summary text
	Summary string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// BuildPrompt constructs the default summarization prompt. The model is
// constrained to the numbers in the result: it must describe what the
// imagery shows, never assert wrongdoing.
func BuildPrompt(project *model.ProjectRef, result *model.AnalysisResult) string {
	var b strings.Builder

	b.WriteString(`You are summarizing a satellite-imagery audit of a public infrastructure project.

CRITICAL RULES:
1. Use ONLY the figures below. Do not invent measurements, dates or places.
2. Describe what the imagery shows - never assert fraud, corruption or intent.
3. If the analysis is inconclusive, say so explicitly.
4. Prefer phrases like "imagery indicates", "observed change suggests".

Project:
`)
	fmt.Fprintf(&b, "- Name: %s\n", project.Name)
	fmt.Fprintf(&b, "- Claimed status: %s\n", project.Status)

	if result.Change == nil {
		b.WriteString("\nAnalysis outcome: inconclusive, no usable imagery for one or both periods.\n")
	} else {
		fmt.Fprintf(&b, "\nObserved change:\n")
		fmt.Fprintf(&b, "- Built-up index before: %.4f\n", result.Change.Before)
		fmt.Fprintf(&b, "- Built-up index after: %.4f\n", result.Change.After)
		fmt.Fprintf(&b, "- Relative change: %.1f%%\n", result.Change.PctDelta)
		fmt.Fprintf(&b, "- Months since declared start: %.1f\n", result.Change.DurationMonths)
	}

	if result.DetectedStatus != nil {
		fmt.Fprintf(&b, "- Detected status: %s (confidence %.2f)\n", *result.DetectedStatus, result.Confidence)
	}
	fmt.Fprintf(&b, "- Claim mismatch: %t", result.Mismatch)
	if result.Mismatch {
		fmt.Fprintf(&b, " (severity %s)", result.Severity)
	}
	b.WriteString("\n")

	if len(result.Recommendations) > 0 {
		b.WriteString("\nRecommendations already issued:\n")
		for _, rec := range result.Recommendations {
			fmt.Fprintf(&b, "- %s\n", rec)
		}
	}

	b.WriteString("\nProvide a 3-4 sentence summary of what the imagery shows and how it relates to the claimed status.")
	return b.String()
}
