package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

type OpenAIConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	EmbeddingModel string
	Dimension      int
	Timeout        time.Duration
}

type OpenAI struct {
	client         openai.Client
	model          string
	embeddingModel string
	dimension      int
	cache          *rewriteCache
}

type severityReply struct {
	Severity string `json:"severity" jsonschema:"enum=low,enum=medium,enum=high" jsonschema_description:"Urgency of the complaint"`
}

type categoryReply struct {
	Category string `json:"category" jsonschema_description:"Exactly one of the listed category names"`
}

func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.Timeout),
		option.WithMaxRetries(1),
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAI{
		client:         openai.NewClient(opts...),
		model:          cfg.Model,
		embeddingModel: cfg.EmbeddingModel,
		dimension:      cfg.Dimension,
		cache:          newRewriteCache(5*time.Minute, 512),
	}, nil
}

func (o *OpenAI) Name() string {
	return "openai:" + o.model
}

func (o *OpenAI) Rewrite(ctx context.Context, text string) (string, error) {
	if v, ok := o.cache.get(text); ok {
		return v, nil
	}
	out, err := o.chat(ctx, rewriteInstruction, text, 0.2, nil)
	if err != nil {
		return "", err
	}
	o.cache.set(text, out)
	return out, nil
}

func (o *OpenAI) ClassifyCategory(ctx context.Context, text string, categories []string) (string, error) {
	schema, err := replySchema(&categoryReply{})
	if err != nil {
		return "", err
	}
	out, err := o.chat(ctx, categoryInstruction(categories), text, 0, &openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:   "complaint_category",
		Schema: schema,
		Strict: openai.Bool(true),
	})
	if err != nil {
		return "", err
	}
	var reply categoryReply
	if err := json.Unmarshal([]byte(out), &reply); err != nil {
		return out, nil
	}
	return reply.Category, nil
}

// ClassifySeverity asks for a JSON object; ParseSeverityReply handles it.
func (o *OpenAI) ClassifySeverity(ctx context.Context, text string) (string, error) {
	schema, err := replySchema(&severityReply{})
	if err != nil {
		return "", err
	}
	return o.chat(ctx, severityInstruction, text, 0, &openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "complaint_severity",
		Description: openai.String("Severity label for a campus complaint"),
		Schema:      schema,
		Strict:      openai.Bool(true),
	})
}

func (o *OpenAI) Embed(ctx context.Context, text string) ([]float64, error) {
	params := openai.EmbeddingNewParams{
		Input:          openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model:          openai.EmbeddingModel(o.embeddingModel),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	}
	if o.dimension > 0 {
		params.Dimensions = openai.Int(int64(o.dimension))
	}
	res, err := o.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, o.wrap("embed", err)
	}
	if len(res.Data) == 0 {
		return nil, errors.New("openai: no embeddings returned")
	}
	return res.Data[0].Embedding, nil
}

func (o *OpenAI) chat(ctx context.Context, instruction, text string, temperature float64, format *openai.ResponseFormatJSONSchemaJSONSchemaParam) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(instruction),
			openai.UserMessage(text),
		},
		Model:       openai.ChatModel(o.model),
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(1024),
	}
	if format != nil {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: *format},
		}
	}
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", o.wrap("chat", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", errors.New("openai: empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (o *OpenAI) wrap(op string, err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		var after time.Duration
		if apiErr.Response != nil {
			after = retryAfterHeader(apiErr.Response.Header.Get("Retry-After"), time.Now())
		}
		return RateLimitError{Provider: "openai", RetryAfter: after}
	}
	return fmt.Errorf("openai %s: %w", op, err)
}

func replySchema(v any) (any, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schemaObj := reflector.Reflect(v)
	if schemaObj.Type == "" {
		schemaObj.Type = "object"
	}
	b, err := json.Marshal(schemaObj)
	if err != nil {
		return nil, fmt.Errorf("marshal reply schema: %w", err)
	}
	var schema any
	if err := json.Unmarshal(b, &schema); err != nil {
		return nil, fmt.Errorf("unmarshal reply schema: %w", err)
	}
	return schema, nil
}
