// Package openai provides a narration collaborator backed by the OpenAI API.
package openai

import (
	"context"
	"encoding/json"
	"fmt"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/fableroom/fableroom/internal/narration"
	"github.com/fableroom/fableroom/internal/platform/errors"
)

const systemPrompt = `You are the dungeon master of a collaborative text adventure.
Given the scene, the party roster, and the actions players took this turn,
respond with a JSON object with these fields:
  narration         (string, required): what happens next, addressed to the party
  location_updates  (object of string to string, optional)
  item_updates      (array of {player_id, item, op}, op is "add" or "remove", optional)
  attribute_updates (array of {player_id, name, delta}, optional; name "health" damages or heals)
  need_dice_roll    (bool): whether the next player turn requires a d20 check
  difficulty        (number, required when need_dice_roll is true)
  action_desc       (string, optional): what the dice check is for
  next_turn_info    ({turn_type, active_players}, turn_type "DM" or "PLAYER", optional)
  match_result      ("CONTINUE", "WON" or "LOST", optional)
Respond with the JSON object only.`

// Collaborator implements narration.Collaborator using chat completions.
type Collaborator struct {
	client oai.Client
	model  string
}

// Option configures the collaborator.
type Option func(*settings)

type settings struct {
	baseURL string
}

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(s *settings) { s.baseURL = url }
}

// New constructs an OpenAI-backed collaborator.
func New(apiKey, model string, opts ...Option) (*Collaborator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("openai: model must not be empty")
	}

	var s settings
	for _, o := range opts {
		o(&s)
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if s.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(s.baseURL))
	}

	return &Collaborator{client: oai.NewClient(reqOpts...), model: model}, nil
}

// Narrate implements narration.Collaborator.
func (c *Collaborator) Narrate(ctx context.Context, req narration.Request) (narration.Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return narration.Response{}, fmt.Errorf("openai: marshal request: %w", err)
	}

	params := oai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(systemPrompt),
			oai.UserMessage(string(payload)),
		},
		ResponseFormat: oai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return narration.Response{}, fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return narration.Response{}, errors.New(errors.CodeNarrationProtocol, "empty choices in completion response")
	}

	var out narration.Response
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &out); err != nil {
		return narration.Response{}, errors.Wrap(errors.CodeNarrationProtocol, "decode narration response", err)
	}
	if out.Narration == "" {
		return narration.Response{}, errors.New(errors.CodeNarrationProtocol, "narration response missing narration text")
	}
	if out.NeedDiceRoll && out.Difficulty <= 0 {
		return narration.Response{}, errors.New(errors.CodeNarrationProtocol, "dice roll requested without difficulty")
	}
	return out, nil
}
