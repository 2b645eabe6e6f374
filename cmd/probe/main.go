package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"chat-relay-be/internal/config"
	"chat-relay-be/internal/pkg/logger"
	"chat-relay-be/pkg/events"
	"chat-relay-be/pkg/llm"
	"chat-relay-be/pkg/llm/factory"
	pktNats "chat-relay-be/pkg/nats"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

// Smoke test against a running instance: send prompts, then dump the history.
func main() {
	baseURL := flag.String("url", "http://localhost:8080", "server base url")
	chatId := flag.String("chat", "", "chat id (random when empty)")
	natsURL := flag.String("nats", "", "tail relayed events from this NATS server")
	timeout := flag.Duration("timeout", 90*time.Second, "per request timeout")
	direct := flag.Bool("direct", false, "call the provider from the server configuration, bypassing the relay")
	modelName := flag.String("model", "", "model override for -direct")
	flag.Parse()

	prompts := flag.Args()
	if len(prompts) == 0 {
		prompts = []string{"Hello! Who are you?", "What did I just ask you?"}
	}
	if *chatId == "" {
		*chatId = uuid.NewString()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *direct {
		if err := probeProvider(ctx, prompts, *modelName, *timeout); err != nil {
			color.Red("Failed: %v", err)
			os.Exit(1)
		}
		return
	}

	if *natsURL != "" {
		if err := tailEvents(ctx, *natsURL); err != nil {
			color.Red("NATS: %v", err)
		}
	}

	client := &http.Client{Timeout: *timeout}
	color.Cyan("Chat %s on %s\n", *chatId, *baseURL)

	for i, prompt := range prompts {
		color.Yellow("\n[%d] > %s", i+1, prompt)
		body, _ := json.Marshal(map[string]string{"prompt": prompt, "chatId": *chatId})

		status, reply, err := do(client, http.MethodPost, *baseURL+"/api/chat", body)
		if err != nil {
			color.Red("Failed: %v", err)
			os.Exit(1)
		}
		if status != http.StatusOK {
			color.Red("Status %d: %s", status, reply)
			os.Exit(1)
		}
		color.Green("%s", reply)
	}

	color.Yellow("\nHistory")
	status, raw, err := do(client, http.MethodGet, *baseURL+"/api/chat/"+*chatId, nil)
	if err != nil || status != http.StatusOK {
		color.Red("Failed: status %d: %v %s", status, err, raw)
		os.Exit(1)
	}

	var history []map[string]interface{}
	if err := json.Unmarshal(raw, &history); err != nil {
		color.Red("Invalid history: %v", err)
		os.Exit(1)
	}
	for _, turn := range history {
		fmt.Printf("  #%v %-9v %v\n", turn["id"], turn["role"], turn["content"])
	}

	if *natsURL != "" {
		// Give the relay a moment to deliver the last events.
		time.Sleep(time.Second)
	}
}

// probeProvider replays the prompts as one conversation against the configured provider.
func probeProvider(ctx context.Context, prompts []string, modelName string, timeout time.Duration) error {
	cfg := config.Load()
	provider, err := factory.NewLLMProvider(cfg.Provider, logger.NewNopLogger())
	if err != nil {
		return err
	}

	var opts []llm.Option
	if modelName != "" {
		opts = append(opts, llm.WithModel(modelName))
	}
	color.Cyan("Provider %s at %s\n", cfg.Provider.Name, cfg.Provider.BaseURL)

	var history []llm.Message
	for i, prompt := range prompts {
		color.Yellow("\n[%d] > %s", i+1, prompt)
		history = append(history, llm.Message{Role: "user", Content: prompt})

		callCtx, cancel := context.WithTimeout(ctx, timeout)
		completion, err := provider.Complete(callCtx, history, opts...)
		cancel()
		if err != nil {
			return err
		}

		color.Green("%s", completion.Content)
		color.HiBlack("  model %s usage %v", completion.Model, completion.Usage)
		history = append(history, llm.Message{Role: "assistant", Content: completion.Content})
	}
	return nil
}

func do(client *http.Client, method, url string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp.StatusCode, respBody, err
}

func tailEvents(ctx context.Context, url string) error {
	sub, err := pktNats.NewSubscriber(url)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		sub.Close()
	}()

	return sub.Subscribe(ctx, pktNats.Subject(">"), "", func(ctx context.Context, event events.BaseEvent) error {
		color.Magenta("  event %s %v", event.Type, event.Data)
		return nil
	})
}
