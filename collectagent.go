// Package collectagent collects structured data through multi-turn
// conversation: each session walks a configured field list, validates and
// stores answers, confirms the result, and optionally generates a
// structured output document from it.
//
// The root package re-exports the common surface; the subpackages hold the
// implementation (agent for orchestration, types for the schema model,
// intent, extract, dialogue, validate, patch, locale, output).
package collectagent

import (
	"github.com/tbxark/collectagent/agent"
	"github.com/tbxark/collectagent/types"
)

type (
	Collector        = agent.Collector
	Option           = agent.Option
	Response         = agent.Response
	StartOptions     = agent.StartOptions
	SessionState     = agent.SessionState
	CompletionFunc   = agent.CompletionFunc
	Cache            = agent.Cache
	ConfigResolver   = agent.ConfigResolver
	CollectionConfig = types.CollectionConfig
	Field            = types.Field
	OutputSchema     = types.OutputSchema
	Status           = types.Status
	ValidationError  = types.ValidationError
)

const (
	StatusCollecting = types.StatusCollecting
	StatusConfirming = types.StatusConfirming
	StatusEnhancing  = types.StatusEnhancing
	StatusCompleted  = types.StatusCompleted
	StatusCancelled  = types.StatusCancelled
)

var (
	New            = agent.New
	NewToolBased   = agent.NewToolBased
	NewMemoryCache = agent.NewMemoryCache
	NewRedisCache  = agent.NewRedisCache
	LoadConfigFile = agent.LoadConfigFile

	WithCache          = agent.WithCache
	WithTTL            = agent.WithTTL
	WithChatModel      = agent.WithChatModel
	WithCompletionFunc = agent.WithCompletionFunc
	WithConfigResolver = agent.WithConfigResolver
	WithHistoryTrimmer = agent.WithHistoryTrimmer

	ErrNoSession      = agent.ErrNoSession
	ErrConfigNotFound = agent.ErrConfigNotFound
	ErrSessionExists  = agent.ErrSessionExists
)
