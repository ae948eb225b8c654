// Command course is an interactive demo: it collects a course outline
// through conversation and prints the generated course structure on
// completion.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/tbxark/collectagent/agent"
)

func main() {
	var (
		configPath     string
		collectionPath string
	)
	cmd := &cobra.Command{
		Use:          "course",
		Short:        "Collect a course outline through conversation",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return run(cmd.Context(), config, collectionPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "config.yaml", "path to the app config file")
	cmd.Flags().StringVar(&collectionPath, "collection", "course.yaml", "path to the collection config file")
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, config *Config, collectionPath string) error {
	slog.SetLogLoggerLevel(slog.LevelInfo)

	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  config.APIKey,
		Model:   config.Model,
		BaseURL: config.BaseURL,
	})
	if err != nil {
		return err
	}

	opts := []agent.Option{
		agent.WithChatModel(cm),
		agent.WithCompletionFunc(func(ctx context.Context, data map[string]any, generated map[string]any) (any, error) {
			fmt.Printf("\n[completed] collected: %v\n", data)
			return "saved", nil
		}),
	}
	if config.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: config.RedisAddr})
		opts = append(opts, agent.WithCache(agent.NewRedisCache(client)))
	}
	collector, err := agent.New(opts...)
	if err != nil {
		return err
	}

	cfg, err := agent.LoadConfigFile(collectionPath)
	if err != nil {
		return fmt.Errorf("load collection config: %w", err)
	}
	if err := collector.RegisterConfig(ctx, cfg); err != nil {
		return fmt.Errorf("register config: %w", err)
	}

	resp, err := collector.StartSession(ctx, agent.StartOptions{ConfigName: cfg.Name})
	if err != nil {
		return err
	}
	fmt.Printf("Assistant: %s\n", resp.Message)

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("You: ")
		input, rErr := reader.ReadString('\n')
		if rErr != nil {
			fmt.Println("input closed, exiting")
			return nil
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		resp, err = collector.ProcessMessage(ctx, resp.SessionID, input)
		if err != nil {
			return err
		}
		fmt.Printf("\nAssistant: %s\n======\n", resp.Message)
		if resp.Status.Terminal() {
			if resp.Output != nil {
				fmt.Printf("Generated output: %v\n", resp.Output)
			}
			return nil
		}
	}
}
