package intent

import (
	"context"
	"strings"

	"github.com/tbxark/collectagent/types"
)

// LocalClassifier is a keyword-based classifier used when no chat model is
// configured and as the last link of a failback chain. It never errors.
type LocalClassifier struct{}

func NewLocalClassifier() *LocalClassifier {
	return &LocalClassifier{}
}

var (
	questionPrefixes = []string{"what", "why", "how", "when", "where", "which", "who", "can i", "could you", "do i", "is it", "should i"}
	suggestKeywords  = []string{"suggest", "recommend", "idea", "ideas", "options", "give me some", "help me choose", "what are my choices"}
	skipPhrases      = []string{"skip", "pass", "no preference", "doesn't matter", "next question"}
)

func (c *LocalClassifier) Classify(ctx context.Context, req *types.TurnRequest) (*Result, error) {
	msg := strings.TrimSpace(req.MessagePair.Answer)
	normalized := strings.ToLower(msg)

	for _, p := range skipPhrases {
		if normalized == p {
			return &Result{Intent: Skip, Confidence: 0.9}, nil
		}
	}
	for _, k := range suggestKeywords {
		if strings.Contains(normalized, k) {
			return &Result{Intent: Suggest, Confidence: 0.7}, nil
		}
	}
	if strings.HasSuffix(normalized, "?") {
		return &Result{Intent: Question, Confidence: 0.8}, nil
	}
	for _, p := range questionPrefixes {
		if strings.HasPrefix(normalized, p+" ") {
			return &Result{Intent: Question, Confidence: 0.6}, nil
		}
	}
	return Fallback(msg), nil
}

var rejectionKeywords = []string{
	"change", "modify", "update", "correct", "fix", "revise", "instead",
	"that's wrong", "that is wrong", "not right", "i meant",
}

// LocalRejectionDetector matches modification keywords. It never errors.
type LocalRejectionDetector struct{}

func NewLocalRejectionDetector() *LocalRejectionDetector {
	return &LocalRejectionDetector{}
}

func (d *LocalRejectionDetector) DetectRejection(ctx context.Context, message string) (bool, error) {
	normalized := strings.ToLower(strings.TrimSpace(message))
	for _, k := range rejectionKeywords {
		if strings.Contains(normalized, k) {
			return true, nil
		}
	}
	return false, nil
}

var completionPhrases = []string{
	"done", "i'm done", "im done", "that's all", "that is all", "finished",
	"all set", "nothing else", "no more changes", "looks good", "looks good now",
}

// LocalCompletionDetector matches "I'm done" phrases. It never errors.
type LocalCompletionDetector struct{}

func NewLocalCompletionDetector() *LocalCompletionDetector {
	return &LocalCompletionDetector{}
}

func (d *LocalCompletionDetector) DetectCompletion(ctx context.Context, message string) (bool, error) {
	normalized := strings.ToLower(strings.TrimSpace(message))
	normalized = strings.TrimRight(normalized, ".!")
	for _, p := range completionPhrases {
		if normalized == p {
			return true, nil
		}
	}
	return false, nil
}

// LocalTargetDetector matches field names and description words against
// the message. It never errors; an empty result means no match.
type LocalTargetDetector struct{}

func NewLocalTargetDetector() *LocalTargetDetector {
	return &LocalTargetDetector{}
}

func (d *LocalTargetDetector) DetectTarget(ctx context.Context, req *types.TurnRequest) (string, error) {
	normalized := strings.ToLower(req.MessagePair.Answer)
	for i := range req.Config.Fields {
		f := &req.Config.Fields[i]
		if strings.Contains(normalized, strings.ToLower(f.Name)) {
			return f.Name, nil
		}
		if strings.Contains(normalized, strings.ToLower(strings.ReplaceAll(f.Name, "_", " "))) {
			return f.Name, nil
		}
	}
	for i := range req.Config.Fields {
		f := &req.Config.Fields[i]
		for _, word := range strings.Fields(strings.ToLower(f.Description)) {
			if len(word) >= 4 && strings.Contains(normalized, word) {
				return f.Name, nil
			}
		}
	}
	return "", nil
}

var (
	affirmativePhrases = []string{"yes", "y", "yeah", "yep", "sure", "confirm", "correct", "ok", "okay", "looks good", "that's right", "go ahead", "submit"}
	negativePhrases    = []string{"no", "n", "nope", "not quite", "incorrect", "wrong", "not really"}
)

// IsAffirmative reports a plain yes/confirm reply.
func IsAffirmative(message string) bool {
	normalized := strings.ToLower(strings.TrimSpace(message))
	normalized = strings.TrimRight(normalized, ".!")
	for _, p := range affirmativePhrases {
		if normalized == p {
			return true
		}
	}
	return false
}

// IsNegative reports a plain no reply.
func IsNegative(message string) bool {
	normalized := strings.ToLower(strings.TrimSpace(message))
	normalized = strings.TrimRight(normalized, ".!")
	for _, p := range negativePhrases {
		if normalized == p {
			return true
		}
	}
	return false
}
