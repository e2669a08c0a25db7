package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
)

// defaultMaxTokens caps responses when the caller does not set a limit.
const defaultMaxTokens = 8192

// Anthropic is the Claude-backed provider.
type Anthropic struct {
	inner   anthropic.Client
	model   anthropic.Model
	tracker *TokenTracker
}

// NewAnthropic creates an Anthropic provider from config. The API key comes
// from cfg or the ANTHROPIC_API_KEY environment variable; when Bedrock is
// enabled, AWS credentials are resolved through the default chain instead.
func NewAnthropic(cfg Config) (*Anthropic, error) {
	var opts []option.RequestOption

	if cfg.UseAWSBedrock {
		ctx := context.Background()

		var loadOpts []func(*awsconfig.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.AWSProfile))
		}

		opts = append(opts, bedrock.WithLoadDefaultConfig(ctx, loadOpts...))
	} else {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("%w: ANTHROPIC_API_KEY is not set", ErrConfiguration)
		}
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	model := anthropic.Model(cfg.Model)
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_20250514
	}
	if cfg.UseAWSBedrock {
		model = translateModelForBedrock(model)
	}

	return &Anthropic{
		inner:   anthropic.NewClient(opts...),
		model:   model,
		tracker: NewTokenTracker(),
	}, nil
}

// translateModelForBedrock converts standard Anthropic model names to Bedrock
// cross-region inference profile format: us.anthropic.{model}-v1:0.
func translateModelForBedrock(model anthropic.Model) anthropic.Model {
	bedrockModels := map[anthropic.Model]string{
		anthropic.ModelClaudeSonnet4_20250514:   "us.anthropic.claude-sonnet-4-20250514-v1:0",
		anthropic.ModelClaudeSonnet4_5_20250929: "us.anthropic.claude-sonnet-4-5-20250929-v1:0",
		anthropic.ModelClaudeHaiku4_5_20251001:  "us.anthropic.claude-haiku-4-5-20251001-v1:0",
		anthropic.ModelClaudeOpus4_1_20250805:   "us.anthropic.claude-opus-4-1-20250805-v1:0",
		anthropic.ModelClaude3_5Haiku20241022:   "us.anthropic.claude-3-5-haiku-20241022-v1:0",
	}
	if bedrockModel, ok := bedrockModels[model]; ok {
		return anthropic.Model(bedrockModel)
	}
	return model
}

// Chat implements Client.
func (a *Anthropic) Chat(ctx context.Context, messages []Message, opts Options) (*Response, error) {
	var system []anthropic.TextBlockParam
	var turns []anthropic.MessageParam

	for _, m := range messages {
		switch m.Role {
		case "system":
			system = append(system, anthropic.TextBlockParam{Text: m.Content})
		case "assistant":
			turns = append(turns, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			turns = append(turns, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	// The Messages API has no JSON response format; express it as an
	// instruction instead.
	if opts.JSON {
		system = append(system, anthropic.TextBlockParam{
			Text: "Respond with a single JSON document and no other text.",
		})
	}

	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  turns,
	}
	if opts.Temperature > 0 {
		params.Temperature = anthropic.Float(opts.Temperature)
	}

	resp, err := a.inner.Messages.New(ctx, params)
	if err != nil {
		return nil, &TransportError{Provider: "anthropic", Err: err}
	}

	a.tracker.Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	var text string
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			text += variant.Text
		}
	}
	if text == "" {
		return nil, &TransportError{Provider: "anthropic", Err: fmt.Errorf("response contained no text blocks")}
	}

	return &Response{
		Content:  text,
		Model:    string(a.model),
		Provider: "anthropic",
		Usage: &Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		},
	}, nil
}

// Tracker returns the token tracker for this provider.
func (a *Anthropic) Tracker() *TokenTracker {
	return a.tracker
}

var _ Client = (*Anthropic)(nil)
