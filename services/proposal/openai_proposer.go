// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package proposal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const proposalSystemPrompt = `You are a dashboard configuration assistant.
You translate a user's request into a JSON patch against the current dashboard document.

Respond with a single JSON object and nothing else:
{
  "operations": [{"op": "...", "path": "...", "value": ..., "from": "..."}],
  "summary": "one sentence describing the change",
  "confidence": 0.0
}

Rules:
- Allowed ops: add, remove, replace, move, copy, test.
- Paths are slash-separated document paths, e.g. /kpis/- to append a KPI.
- Only reference metric fields from the provided available_fields list.
- Never touch data source, credential, tenant, or version fields.
- If the request cannot be satisfied, return an empty operations array.`

// OpenAIProposer generates patch proposals through the chat completions
// API.
type OpenAIProposer struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// NewOpenAIProposer reads OPENAI_API_KEY from the environment, falling
// back to the container secret mount, and OPENAI_MODEL for the model.
func NewOpenAIProposer(logger *slog.Logger) (*OpenAIProposer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		secretPath := "/run/secrets/openai_api_key"
		apiKeyBytes, err := os.ReadFile(secretPath)
		if err != nil {
			logger.Error("OPENAI_API_KEY environment variable not set and secret not found", "path", secretPath)
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
		apiKey = strings.TrimSpace(string(apiKeyBytes))
		logger.Info("Read the OpenAI API Key from Podman Secrets")
	}

	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
		logger.Warn("OPENAI_MODEL not set, defaulting to gpt-4o-mini")
	}

	logger.Info("Initializing OpenAI proposer", "model", model)
	return &OpenAIProposer{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: logger,
	}, nil
}

// Propose sends the document context and user request to the model and
// parses the structured reply. Parse failures wrap ErrParse.
func (o *OpenAIProposer) Propose(ctx context.Context, req Request) (*Proposal, error) {
	userPayload, err := json.Marshal(map[string]any{
		"current_document": req.CurrentDocument,
		"available_fields": req.AvailableFields,
		"request":          req.UserRequest,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding proposal context: %w", err)
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: 0.2,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: proposalSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: string(userPayload)},
		},
	})
	if err != nil {
		o.logger.Error("OpenAI API call failed", "error", err)
		return nil, fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: OpenAI returned no choices", ErrParse)
	}

	o.logger.Debug("Received proposal from OpenAI",
		"finish_reason", resp.Choices[0].FinishReason)
	return ParseProposal(resp.Choices[0].Message.Content)
}
