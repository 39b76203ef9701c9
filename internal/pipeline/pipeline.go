// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/speedsheet/speedsheet/internal/capture"
	"github.com/speedsheet/speedsheet/internal/pacing"
	"github.com/speedsheet/speedsheet/internal/validate"
)

// Capturer takes a screenshot of a single URL
type Capturer interface {
	Capture(ctx context.Context, url string) ([]byte, error)
}

// Shot is one successfully captured screenshot
type Shot struct {
	URL   string
	Image []byte
}

// BatchResult collects the outcome of a batch. Shots holds successes in
// capture order; Errors holds capture failure messages (attempt order)
// followed by invalid-URL notices (input order).
type BatchResult struct {
	Shots  []Shot
	Errors []string
}

// Pipeline validates a batch of submitted URLs and captures them one at a
// time. A single browser lifecycle runs at any moment; per-URL failures are
// recorded and the batch continues.
type Pipeline struct {
	capturer Capturer
	pacer    pacing.Pacer

	// Progress, if set, is called after each capture attempt with the URL
	// and whether it succeeded. Used by the CLI progress bar.
	Progress func(url string, ok bool)
}

// New creates a Pipeline. The pacer may be nil, in which case captures start
// back to back.
func New(capturer Capturer, pacer pacing.Pacer) *Pipeline {
	return &Pipeline{capturer: capturer, pacer: pacer}
}

// Process validates urls, captures each valid one sequentially, and returns
// the batch outcome. Batch-fatal conditions return a *BatchError; a batch
// with at least one successful capture returns a result even if other URLs
// failed.
func (p *Pipeline) Process(ctx context.Context, urls []string) (*BatchResult, error) {
	if len(urls) == 0 {
		return nil, &BatchError{Code: FailNoURLs, Detail: "No URLs provided"}
	}

	// Blank-only input passes the empty check and falls through here: the
	// blanks are discarded during partitioning, leaving zero valid URLs.
	valid, invalid := validate.Partition(urls)
	if len(valid) == 0 {
		return nil, &BatchError{Code: FailNoValidURLs, Detail: "No valid speedtest.net URLs found"}
	}

	log.Info().
		Int("valid", len(valid)).
		Int("invalid", len(invalid)).
		Msg("Starting capture batch")

	result := &BatchResult{}

	for _, url := range valid {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("batch aborted: %w", err)
		}

		if p.pacer != nil {
			if err := p.pacer.Wait(ctx, url); err != nil {
				return nil, fmt.Errorf("batch aborted: %w", err)
			}
		}

		img, err := p.capturer.Capture(ctx, url)
		if err != nil {
			log.Warn().Str("url", url).Err(err).Msg("Capture failed")
			result.Errors = append(result.Errors, fmt.Sprintf("Failed to capture %s: %s", url, failureReason(err)))
			if p.Progress != nil {
				p.Progress(url, false)
			}
			continue
		}

		result.Shots = append(result.Shots, Shot{URL: url, Image: img})
		if p.Progress != nil {
			p.Progress(url, true)
		}
	}

	for _, url := range invalid {
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid URL: %s", url))
	}

	if len(result.Shots) == 0 {
		return nil, &BatchError{Code: FailNoCaptures, Detail: "Failed to capture any screenshots"}
	}

	log.Info().
		Int("captured", len(result.Shots)).
		Int("errors", len(result.Errors)).
		Msg("Capture batch finished")

	return result, nil
}

// failureReason extracts the short human-readable reason from a capture error
func failureReason(err error) string {
	var ce *capture.CaptureError
	if errors.As(err, &ce) {
		return ce.Reason()
	}
	return strings.TrimSpace(err.Error())
}
