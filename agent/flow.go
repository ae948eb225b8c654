// Package agent drives multi-turn conversational collection sessions: it
// owns all status transitions and every mutation of a session's collected
// data. Collaborators (intent classification, dialogue composition, output
// generation) are fallible; the collector degrades to deterministic
// fallbacks rather than aborting a turn.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/google/uuid"

	"github.com/tbxark/collectagent/dialogue"
	"github.com/tbxark/collectagent/intent"
	"github.com/tbxark/collectagent/locale"
	"github.com/tbxark/collectagent/output"
	"github.com/tbxark/collectagent/patch"
	"github.com/tbxark/collectagent/types"
	"github.com/tbxark/collectagent/validate"
)

// CompletionFunc is invoked once per successful completion with the
// collected data and the generated output (nil when no output schema is
// configured or generation failed). Its result is passed back to the
// caller and not otherwise interpreted.
type CompletionFunc func(ctx context.Context, data map[string]any, generated map[string]any) (any, error)

// Response is the structured result of one turn.
type Response struct {
	Success          bool                               `json:"success"`
	SessionID        string                             `json:"session_id"`
	Status           types.Status                       `json:"status"`
	Message          string                             `json:"message"`
	CurrentField     string                             `json:"current_field,omitempty"`
	CollectedFields  []string                           `json:"collected_fields"`
	RemainingFields  []string                           `json:"remaining_fields"`
	ValidationErrors map[string][]types.ValidationError `json:"validation_errors,omitempty"`
	Output           map[string]any                     `json:"output,omitempty"`
	Result           any                                `json:"result,omitempty"`
}

// Collector is the orchestrator: one instance serves many sessions and
// many configs. State is sharded by session id; the collector holds no
// per-session state of its own.
type Collector struct {
	classifier intent.Classifier
	rejection  intent.RejectionDetector
	completion intent.CompletionDetector
	target     intent.TargetDetector
	dialogue   dialogue.Generator
	output     output.Generator
	onComplete CompletionFunc

	sessions Store[SessionState]
	configs  Store[types.CollectionConfig]
	registry *configRegistry
	resolver ConfigResolver
	trimmer  Trimmer
}

type collectorOptions struct {
	cache      Cache
	ttl        time.Duration
	chatModel  model.ToolCallingChatModel
	classifier intent.Classifier
	rejection  intent.RejectionDetector
	completion intent.CompletionDetector
	target     intent.TargetDetector
	dialogue   dialogue.Generator
	output     output.Generator
	onComplete CompletionFunc
	resolver   ConfigResolver
	trimmer    Trimmer
}

type Option func(*collectorOptions)

// WithCache sets the durable record backend; defaults to an in-process
// MemoryCache.
func WithCache(cache Cache) Option {
	return func(o *collectorOptions) { o.cache = cache }
}

// WithTTL sets the sliding expiry of session and config records.
func WithTTL(ttl time.Duration) Option {
	return func(o *collectorOptions) { o.ttl = ttl }
}

// WithChatModel wires every model-backed collaborator, each failing back
// to its deterministic local counterpart. Without it the collector runs on
// the local collaborators alone.
func WithChatModel(chatModel model.ToolCallingChatModel) Option {
	return func(o *collectorOptions) { o.chatModel = chatModel }
}

// WithCompletionFunc sets the caller-supplied completion callback.
func WithCompletionFunc(fn CompletionFunc) Option {
	return func(o *collectorOptions) { o.onComplete = fn }
}

// WithConfigResolver sets the discovery collaborator consulted when a
// config name is not in the registry.
func WithConfigResolver(r ConfigResolver) Option {
	return func(o *collectorOptions) { o.resolver = r }
}

// WithClassifier overrides the intent classifier.
func WithClassifier(c intent.Classifier) Option {
	return func(o *collectorOptions) { o.classifier = c }
}

// WithDialogueGenerator overrides the dialogue generator.
func WithDialogueGenerator(g dialogue.Generator) Option {
	return func(o *collectorOptions) { o.dialogue = g }
}

// WithOutputGenerator overrides the structured output generator.
func WithOutputGenerator(g output.Generator) Option {
	return func(o *collectorOptions) { o.output = g }
}

const defaultTTL = 24 * time.Hour

// New builds a Collector. Collaborators left unset fall back to the
// deterministic local implementations, so a collector with no chat model
// is fully functional.
func New(opts ...Option) (*Collector, error) {
	o := collectorOptions{ttl: defaultTTL}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.cache == nil {
		o.cache = NewMemoryCache()
	}

	if o.chatModel != nil {
		toolClassifier, err := intent.NewToolBasedClassifier(o.chatModel)
		if err != nil {
			return nil, fmt.Errorf("create intent classifier: %w", err)
		}
		toolRejection, err := intent.NewToolBasedRejectionDetector(o.chatModel)
		if err != nil {
			return nil, fmt.Errorf("create rejection detector: %w", err)
		}
		toolCompletion, err := intent.NewToolBasedCompletionDetector(o.chatModel)
		if err != nil {
			return nil, fmt.Errorf("create completion detector: %w", err)
		}
		toolTarget, err := intent.NewToolBasedTargetDetector(o.chatModel)
		if err != nil {
			return nil, fmt.Errorf("create target detector: %w", err)
		}
		if o.classifier == nil {
			o.classifier = intent.NewFailbackClassifier(toolClassifier, intent.NewLocalClassifier())
		}
		if o.rejection == nil {
			o.rejection = intent.NewFailbackRejectionDetector(toolRejection, intent.NewLocalRejectionDetector())
		}
		if o.completion == nil {
			o.completion = intent.NewFailbackCompletionDetector(toolCompletion, intent.NewLocalCompletionDetector())
		}
		if o.target == nil {
			o.target = intent.NewFailbackTargetDetector(toolTarget, intent.NewLocalTargetDetector())
		}
		if o.dialogue == nil {
			o.dialogue = dialogue.NewFailbackGenerator(
				dialogue.NewToolBasedGenerator(o.chatModel),
				dialogue.NewLocalGenerator(),
			)
		}
		if o.output == nil {
			o.output = output.NewModelGenerator(o.chatModel)
		}
	}
	if o.classifier == nil {
		o.classifier = intent.NewLocalClassifier()
	}
	if o.rejection == nil {
		o.rejection = intent.NewLocalRejectionDetector()
	}
	if o.completion == nil {
		o.completion = intent.NewLocalCompletionDetector()
	}
	if o.target == nil {
		o.target = intent.NewLocalTargetDetector()
	}
	if o.dialogue == nil {
		o.dialogue = dialogue.NewLocalGenerator()
	}

	return &Collector{
		classifier: o.classifier,
		rejection:  o.rejection,
		completion: o.completion,
		target:     o.target,
		dialogue:   o.dialogue,
		output:     o.output,
		onComplete: o.onComplete,
		sessions:   NewStore[SessionState](o.cache, "collect:session", o.ttl),
		configs:    NewStore[types.CollectionConfig](o.cache, "collect:config", o.ttl),
		registry:   newConfigRegistry(),
		resolver:   o.resolver,
		trimmer:    o.trimmer,
	}, nil
}

// NewToolBased is a shorthand for a collector with every collaborator
// backed by the given chat model.
func NewToolBased(chatModel model.ToolCallingChatModel, opts ...Option) (*Collector, error) {
	return New(append([]Option{WithChatModel(chatModel)}, opts...)...)
}

// StartOptions configures a new session.
type StartOptions struct {
	// SessionID is generated when empty.
	SessionID  string
	ConfigName string
	// InitialData is merged over the config's own initial data.
	InitialData map[string]any
	// Locale pins the session language, overriding detection.
	Locale string
}

// StartSession creates a session in the collecting status, pre-seeds
// initial data, and returns the opening prompt.
func (c *Collector) StartSession(ctx context.Context, opts StartOptions) (*Response, error) {
	cfg, err := c.resolveConfig(ctx, opts.ConfigName, nil)
	if err != nil {
		return nil, err
	}
	id := opts.SessionID
	if id == "" {
		id = uuid.NewString()
	}
	if exists, err := c.sessions.Exists(ctx, id); err != nil {
		return nil, fmt.Errorf("check session: %w", err)
	} else if exists {
		return nil, fmt.Errorf("%w: %s", ErrSessionExists, id)
	}

	now := time.Now().UTC()
	state := &SessionState{
		ID:             id,
		ConfigName:     cfg.Name,
		Status:         types.StatusCollecting,
		CollectedData:  map[string]any{},
		EmbeddedConfig: cfg,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if opts.Locale != "" {
		state.DetectedLocale = opts.Locale
	} else if cfg.Locale != "" {
		state.DetectedLocale = cfg.Locale
	}

	seed := map[string]any{}
	for k, v := range cfg.InitialData {
		seed[k] = v
	}
	for k, v := range opts.InitialData {
		seed[k] = v
	}
	if len(seed) > 0 {
		data, err := patch.Apply(state.CollectedData, patch.SeedOps(cfg, seed))
		if err != nil {
			return nil, fmt.Errorf("seed initial data: %w", err)
		}
		// Seeded values still go through field validation; invalid seeds
		// are dropped so the field gets asked normally.
		for name, v := range data {
			field := cfg.Field(name)
			if field == nil {
				continue
			}
			if errs := validate.Validate(field, v); len(errs) > 0 {
				slog.Warn("dropping invalid initial value", "config", cfg.Name, "field", name)
				delete(data, name)
			}
		}
		state.CollectedData = data
	}
	state.CurrentField = state.nextField(cfg)

	var resp *Response
	if state.CurrentField == "" {
		// Everything was pre-seeded.
		if cfg.ConfirmBeforeComplete {
			state.Status = types.StatusConfirming
			resp = c.respond(cfg, state, c.confirmationText(ctx, cfg, state, ""))
		} else {
			resp, err = c.complete(ctx, cfg, state)
			if err != nil {
				return nil, err
			}
		}
	} else {
		req := c.turnRequest(cfg, state, "")
		resp = c.respond(cfg, state, c.compose(ctx, req, dialogue.PurposePrompt))
	}

	state.AppendTurn(types.RoleAssistant, resp.Message)
	if err := c.sessions.Set(ctx, state.ID, state); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	return resp, nil
}

// cancelPhrases are matched exactly or as a prefix; a match pre-empts all
// other processing of the turn.
var cancelPhrases = []string{
	"cancel", "stop", "quit", "exit", "abort", "never mind", "nevermind", "forget it",
}

func matchesCancellation(message string) bool {
	normalized := strings.ToLower(strings.TrimSpace(message))
	normalized = strings.TrimRight(normalized, ".!")
	for _, phrase := range cancelPhrases {
		if normalized == phrase || strings.HasPrefix(normalized, phrase+" ") {
			return true
		}
	}
	return false
}

const defaultCancelMessage = "Okay, I've cancelled this. Nothing was saved."

// ProcessMessage evaluates one turn for the session. Session and config
// resolution failures and persistence failures are returned as errors;
// collaborator failures degrade to deterministic fallbacks and the turn
// always yields a textual response.
func (c *Collector) ProcessMessage(ctx context.Context, sessionID, message string) (*Response, error) {
	state, ok, err := c.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSession, sessionID)
	}
	cfg, err := c.resolveConfig(ctx, state.ConfigName, state)
	if err != nil {
		return nil, err
	}

	if state.Status.Terminal() {
		resp := c.respond(cfg, state, c.terminalText(cfg, state))
		return resp, nil
	}

	if matchesCancellation(message) {
		state.AppendTurn(types.RoleUser, message)
		return c.cancel(ctx, cfg, state)
	}

	c.refreshLocale(cfg, state, message)
	state.AppendTurn(types.RoleUser, message)

	var resp *Response
	switch state.Status {
	case types.StatusCollecting:
		resp, err = c.handleCollecting(ctx, cfg, state, message)
	case types.StatusConfirming:
		resp, err = c.handleConfirming(ctx, cfg, state, message)
	case types.StatusEnhancing:
		resp, err = c.handleEnhancing(ctx, cfg, state, message)
	default:
		err = fmt.Errorf("unexpected session status %q", state.Status)
	}
	if err != nil {
		return nil, err
	}

	state.UpdatedAt = time.Now().UTC()
	state.AppendTurn(types.RoleAssistant, resp.Message)
	if c.trimmer != nil {
		state.History = c.trimmer.Trim(state.History)
	}
	if err := c.sessions.Set(ctx, state.ID, state); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	return resp, nil
}

// SessionStatus returns a snapshot of the session without consuming a turn.
func (c *Collector) SessionStatus(ctx context.Context, sessionID string) (*Response, error) {
	state, ok, err := c.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSession, sessionID)
	}
	cfg, err := c.resolveConfig(ctx, state.ConfigName, state)
	if err != nil {
		return nil, err
	}
	return c.respond(cfg, state, ""), nil
}

// AbandonSession deletes the session record.
func (c *Collector) AbandonSession(ctx context.Context, sessionID string) error {
	return c.sessions.Del(ctx, sessionID)
}

func (c *Collector) cancel(ctx context.Context, cfg *types.CollectionConfig, state *SessionState) (*Response, error) {
	state.Status = types.StatusCancelled
	state.UpdatedAt = time.Now().UTC()
	message := cfg.CancelMessage
	if message == "" {
		message = defaultCancelMessage
	}
	state.AppendTurn(types.RoleAssistant, message)
	if err := c.sessions.Set(ctx, state.ID, state); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	return c.respond(cfg, state, message), nil
}

func (c *Collector) refreshLocale(cfg *types.CollectionConfig, state *SessionState, message string) {
	if cfg.Locale != "" {
		state.DetectedLocale = cfg.Locale
		return
	}
	// Sticky once set; redetection is opt-in per config.
	if state.DetectedLocale != "" && !cfg.RedetectLocale {
		return
	}
	if detected := locale.Detect(message); detected != locale.Default {
		state.DetectedLocale = detected.String()
	} else if cfg.RedetectLocale {
		state.DetectedLocale = locale.Default.String()
	}
}

func (c *Collector) turnRequest(cfg *types.CollectionConfig, state *SessionState, message string) *types.TurnRequest {
	var current *types.Field
	if state.CurrentField != "" {
		current = cfg.Field(state.CurrentField)
	}
	return &types.TurnRequest{
		Config:        cfg,
		Status:        state.Status,
		Locale:        state.DetectedLocale,
		CurrentField:  current,
		CollectedData: state.CollectedData,
		MessagePair: types.MessagePair{
			Question: state.lastAssistantTurn(),
			Answer:   message,
		},
		MissingFields: state.missingRequired(cfg),
		Errors:        state.flatErrors(),
		History:       state.History,
	}
}

func (s *SessionState) lastAssistantTurn() string {
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Role == types.RoleAssistant {
			return s.History[i].Content
		}
	}
	return ""
}

// compose renders text for the turn, degrading to the deterministic local
// generator when the configured generator fails.
func (c *Collector) compose(ctx context.Context, req *types.TurnRequest, purpose dialogue.Purpose) string {
	text, err := c.dialogue.Generate(ctx, &dialogue.Request{TurnRequest: req, Purpose: purpose})
	if err != nil || text == "" {
		slog.Debug("dialogue generation failed, using local generator", "purpose", purpose, "error", err)
		text, _ = dialogue.NewLocalGenerator().Generate(ctx, &dialogue.Request{TurnRequest: req, Purpose: purpose})
	}
	return text
}

func (c *Collector) respond(cfg *types.CollectionConfig, state *SessionState, message string) *Response {
	resp := &Response{
		Success:         true,
		SessionID:       state.ID,
		Status:          state.Status,
		Message:         message,
		CurrentField:    state.CurrentField,
		CollectedFields: state.CollectedFields(cfg),
		RemainingFields: state.RemainingFields(cfg),
	}
	if len(state.ValidationErrors) > 0 {
		resp.ValidationErrors = state.ValidationErrors
	}
	return resp
}

func (c *Collector) terminalText(cfg *types.CollectionConfig, state *SessionState) string {
	if state.Status == types.StatusCancelled {
		if cfg.CancelMessage != "" {
			return cfg.CancelMessage
		}
		return "This session was cancelled."
	}
	return "This session has already been completed."
}
