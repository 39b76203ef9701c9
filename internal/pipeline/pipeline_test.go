// internal/pipeline/pipeline_test.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/speedsheet/speedsheet/internal/capture"
)

// stubCapturer fails every URL in failures and returns a tiny payload for the
// rest, recording attempt order.
type stubCapturer struct {
	failures map[string]error
	attempts []string
}

func (s *stubCapturer) Capture(ctx context.Context, url string) ([]byte, error) {
	s.attempts = append(s.attempts, url)
	if err, ok := s.failures[url]; ok {
		return nil, err
	}
	return []byte("png:" + url), nil
}

func resultURL(n int) string {
	return fmt.Sprintf("https://www.speedtest.net/my-result/a/%d", n)
}

func TestProcess_EmptyInput(t *testing.T) {
	p := New(&stubCapturer{}, nil)

	for _, urls := range [][]string{nil, {}} {
		_, err := p.Process(context.Background(), urls)
		var be *BatchError
		if !errors.As(err, &be) {
			t.Fatalf("Process(%v): expected *BatchError, got %v", urls, err)
		}
		if be.Code != FailNoURLs {
			t.Errorf("Process(%v): code = %s, want %s", urls, be.Code, FailNoURLs)
		}
		if be.Error() != "No URLs provided" {
			t.Errorf("Process(%v): detail = %q", urls, be.Error())
		}
		if !be.Validation() {
			t.Errorf("Process(%v): expected validation failure", urls)
		}
	}
}

func TestProcess_BlankOnlyInput(t *testing.T) {
	// Blank entries survive the empty-input check but are discarded during
	// partitioning, so a blank-only batch reports no valid URLs rather than
	// no URLs at all.
	p := New(&stubCapturer{}, nil)

	for _, urls := range [][]string{{"   ", "\t"}, {""}} {
		_, err := p.Process(context.Background(), urls)
		var be *BatchError
		if !errors.As(err, &be) {
			t.Fatalf("Process(%v): expected *BatchError, got %v", urls, err)
		}
		if be.Code != FailNoValidURLs {
			t.Errorf("Process(%v): code = %s, want %s", urls, be.Code, FailNoValidURLs)
		}
		if be.Error() != "No valid speedtest.net URLs found" {
			t.Errorf("Process(%v): detail = %q", urls, be.Error())
		}
	}
}

func TestProcess_NoValidURLs(t *testing.T) {
	p := New(&stubCapturer{}, nil)

	_, err := p.Process(context.Background(), []string{"https://google.com", "junk"})
	var be *BatchError
	if !errors.As(err, &be) {
		t.Fatalf("expected *BatchError, got %v", err)
	}
	if be.Code != FailNoValidURLs {
		t.Errorf("code = %s, want %s", be.Code, FailNoValidURLs)
	}
	if be.Error() != "No valid speedtest.net URLs found" {
		t.Errorf("detail = %q", be.Error())
	}
}

func TestProcess_PartialFailure(t *testing.T) {
	failing := resultURL(2)
	stub := &stubCapturer{failures: map[string]error{
		failing: capture.NewCaptureError(capture.ErrCodeNavTimeout, "navigation timeout", nil),
	}}
	p := New(stub, nil)

	urls := []string{resultURL(1), failing, "bogus-entry", resultURL(3)}

	result, err := p.Process(context.Background(), urls)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if len(result.Shots) != 2 {
		t.Fatalf("expected 2 shots, got %d", len(result.Shots))
	}
	if result.Shots[0].URL != resultURL(1) || result.Shots[1].URL != resultURL(3) {
		t.Errorf("shots out of order: %v, %v", result.Shots[0].URL, result.Shots[1].URL)
	}

	wantErrors := []string{
		"Failed to capture " + failing + ": navigation timeout",
		"Invalid URL: bogus-entry",
	}
	if !reflect.DeepEqual(result.Errors, wantErrors) {
		t.Errorf("errors = %v, want %v", result.Errors, wantErrors)
	}

	// Successes plus capture failures must account for every valid URL.
	if len(result.Shots)+1 != 3 {
		t.Errorf("shot/failure accounting is off")
	}
}

func TestProcess_ErrorOrdering(t *testing.T) {
	// Capture failures come first in attempt order, then invalid notices in
	// input order, regardless of how they interleave in the input.
	failA, failB := resultURL(10), resultURL(20)
	stub := &stubCapturer{failures: map[string]error{
		failA: errors.New("render hung"),
		failB: errors.New("tab crashed"),
	}}
	p := New(stub, nil)

	urls := []string{"zzz-invalid", failA, resultURL(30), "another-bad-one", failB}

	result, err := p.Process(context.Background(), urls)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	want := []string{
		"Failed to capture " + failA + ": render hung",
		"Failed to capture " + failB + ": tab crashed",
		"Invalid URL: zzz-invalid",
		"Invalid URL: another-bad-one",
	}
	if !reflect.DeepEqual(result.Errors, want) {
		t.Errorf("errors = %v, want %v", result.Errors, want)
	}
}

func TestProcess_Exhaustion(t *testing.T) {
	stub := &stubCapturer{failures: map[string]error{
		resultURL(1): errors.New("boom"),
		resultURL(2): errors.New("boom"),
	}}
	p := New(stub, nil)

	_, err := p.Process(context.Background(), []string{resultURL(1), resultURL(2)})
	var be *BatchError
	if !errors.As(err, &be) {
		t.Fatalf("expected *BatchError, got %v", err)
	}
	if be.Code != FailNoCaptures {
		t.Errorf("code = %s, want %s", be.Code, FailNoCaptures)
	}
	if be.Error() != "Failed to capture any screenshots" {
		t.Errorf("detail = %q", be.Error())
	}
	if be.Validation() {
		t.Error("exhaustion is not a validation failure")
	}
}

func TestProcess_SequentialAttemptOrder(t *testing.T) {
	stub := &stubCapturer{}
	p := New(stub, nil)

	urls := []string{resultURL(3), resultURL(1), resultURL(2)}
	if _, err := p.Process(context.Background(), urls); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if !reflect.DeepEqual(stub.attempts, urls) {
		t.Errorf("attempts = %v, want %v", stub.attempts, urls)
	}
}

func TestProcess_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(&stubCapturer{}, nil)
	_, err := p.Process(ctx, []string{resultURL(1)})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestProcess_ProgressCallback(t *testing.T) {
	failing := resultURL(2)
	stub := &stubCapturer{failures: map[string]error{failing: errors.New("boom")}}
	p := New(stub, nil)

	var seen []string
	p.Progress = func(url string, ok bool) {
		seen = append(seen, fmt.Sprintf("%s=%t", url, ok))
	}

	if _, err := p.Process(context.Background(), []string{resultURL(1), failing}); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	want := []string{resultURL(1) + "=true", failing + "=false"}
	if !reflect.DeepEqual(seen, want) {
		t.Errorf("progress = %v, want %v", seen, want)
	}
}
