package agent

import (
	"context"
	"os"
	"testing"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/stretchr/testify/require"

	"github.com/tbxark/collectagent/types"
)

// initLiveChatModel returns a real chat model, or skips the test unless
// COLLECTAGENT_RUN_LIVE_TESTS=1 and OPENAI_API_KEY are set.
func initLiveChatModel(t *testing.T) model.ToolCallingChatModel {
	t.Helper()
	if os.Getenv("COLLECTAGENT_RUN_LIVE_TESTS") != "1" {
		t.Skip("set COLLECTAGENT_RUN_LIVE_TESTS=1 to run live LLM tests")
	}
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("OPENAI_API_KEY is empty")
	}
	modelName := os.Getenv("COLLECTAGENT_TEST_MODEL")
	if modelName == "" {
		modelName = "gpt-4o-mini"
	}
	cm, err := openai.NewChatModel(context.Background(), &openai.ChatModelConfig{
		APIKey:  apiKey,
		Model:   modelName,
		BaseURL: os.Getenv("OPENAI_BASE_URL"),
	})
	require.NoError(t, err)
	return cm
}

func TestLiveCollectionFlow(t *testing.T) {
	cm := initLiveChatModel(t)
	ctx := context.Background()

	c, err := NewToolBased(cm)
	require.NoError(t, err)
	require.NoError(t, c.RegisterConfig(ctx, flowConfig()))

	resp, err := c.StartSession(ctx, StartOptions{ConfigName: "course_creation"})
	require.NoError(t, err)
	id := resp.SessionID
	t.Logf("assistant: %s", resp.Message)

	for _, msg := range []string{
		"I'd like to call it Sourdough Basics",
		"make it for beginners",
		"let's do 12 lessons",
	} {
		resp, err = c.ProcessMessage(ctx, id, msg)
		require.NoError(t, err)
		t.Logf("user: %s\nassistant: %s", msg, resp.Message)
	}

	state := mustState(t, c, id)
	require.Equal(t, "beginner", state.CollectedData["level"])
	require.EqualValues(t, 12, state.CollectedData["lessons_count"])

	resp, err = c.ProcessMessage(ctx, id, "yes")
	require.NoError(t, err)
	require.Equal(t, types.StatusCompleted, resp.Status)
}
