package intent

import (
	"context"
	"log/slog"

	"github.com/tbxark/collectagent/types"
)

// FailbackClassifier tries each classifier in order and returns the first
// successful result; when every classifier fails it falls back to treating
// the message as a value for the current field.
type FailbackClassifier struct {
	classifiers []Classifier
}

func NewFailbackClassifier(classifiers ...Classifier) *FailbackClassifier {
	return &FailbackClassifier{classifiers: classifiers}
}

func (c *FailbackClassifier) Classify(ctx context.Context, req *types.TurnRequest) (*Result, error) {
	var lastErr error
	for _, classifier := range c.classifiers {
		result, err := classifier.Classify(ctx, req)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	slog.Debug("all intent classifiers failed", "error", lastErr)
	return Fallback(req.MessagePair.Answer), nil
}

// FailbackRejectionDetector tries each detector in order; when all fail it
// reports no rejection so the turn can proceed.
type FailbackRejectionDetector struct {
	detectors []RejectionDetector
}

func NewFailbackRejectionDetector(detectors ...RejectionDetector) *FailbackRejectionDetector {
	return &FailbackRejectionDetector{detectors: detectors}
}

func (d *FailbackRejectionDetector) DetectRejection(ctx context.Context, message string) (bool, error) {
	var lastErr error
	for _, detector := range d.detectors {
		rejection, err := detector.DetectRejection(ctx, message)
		if err == nil {
			return rejection, nil
		}
		lastErr = err
	}
	slog.Debug("all rejection detectors failed", "error", lastErr)
	return false, nil
}

type FailbackCompletionDetector struct {
	detectors []CompletionDetector
}

func NewFailbackCompletionDetector(detectors ...CompletionDetector) *FailbackCompletionDetector {
	return &FailbackCompletionDetector{detectors: detectors}
}

func (d *FailbackCompletionDetector) DetectCompletion(ctx context.Context, message string) (bool, error) {
	var lastErr error
	for _, detector := range d.detectors {
		done, err := detector.DetectCompletion(ctx, message)
		if err == nil {
			return done, nil
		}
		lastErr = err
	}
	slog.Debug("all completion detectors failed", "error", lastErr)
	return false, nil
}

type FailbackTargetDetector struct {
	detectors []TargetDetector
}

func NewFailbackTargetDetector(detectors ...TargetDetector) *FailbackTargetDetector {
	return &FailbackTargetDetector{detectors: detectors}
}

func (d *FailbackTargetDetector) DetectTarget(ctx context.Context, req *types.TurnRequest) (string, error) {
	var lastErr error
	for _, detector := range d.detectors {
		target, err := detector.DetectTarget(ctx, req)
		if err == nil && target != "" {
			return target, nil
		}
		if err != nil {
			lastErr = err
		}
	}
	slog.Debug("no target detector identified a field", "error", lastErr)
	return "", nil
}
