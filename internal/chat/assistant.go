package chat

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/hitoshi/gymdesk/internal/metrics"
	"github.com/hitoshi/gymdesk/internal/security"
)

const promptTemplate = `You are a helpful fitness assistant for a gym management system. You help clients with:
- Workout advice and exercise form tips
- Nutrition and diet recommendations
- General fitness guidance
- Motivation and goal setting
- Answering questions about gym equipment and exercises

Keep your responses helpful, encouraging, and focused on fitness and health. If asked about medical advice, recommend consulting a healthcare professional.

Format your responses using markdown when appropriate (use **bold** for emphasis, *italics* for tips, bullet points with -, and numbered lists). Keep responses concise but informative.

User question: %s`

// Generator はプロンプトからテキストを生成する。
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Configured() bool
}

// Reply はアシスタントの応答。
type Reply struct {
	Text string // Markdown
	HTML string // サニタイズ済みHTML
}

// Assistant はフィットネスアシスタントのプロンプトを組み立て、応答をHTMLに変換する。
type Assistant struct {
	generator Generator
	sanitizer security.ContentSanitizer
	markdown  goldmark.Markdown
	collector metrics.MetricsCollector
}

// NewAssistant はAssistantを生成する。collectorがnilの場合はメトリクスを記録しない。
func NewAssistant(generator Generator, sanitizer security.ContentSanitizer, collector metrics.MetricsCollector) *Assistant {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Assistant{
		generator: generator,
		sanitizer: sanitizer,
		markdown:  goldmark.New(),
		collector: collector,
	}
}

// Configured は生成APIが利用可能かを返す。
func (a *Assistant) Configured() bool {
	return a.generator.Configured()
}

// Ask はユーザーの質問に回答する。messageは空でないこと（呼び出し元で検証する）。
func (a *Assistant) Ask(ctx context.Context, message string) (*Reply, error) {
	start := time.Now()
	text, err := a.generator.Generate(ctx, BuildPrompt(message))
	a.collector.RecordChatLatency(time.Since(start))
	if err != nil {
		a.collector.RecordChatFailure()
		return nil, err
	}

	var buf bytes.Buffer
	if err := a.markdown.Convert([]byte(text), &buf); err != nil {
		return nil, fmt.Errorf("failed to render markdown: %w", err)
	}

	return &Reply{
		Text: text,
		HTML: strings.TrimSpace(a.sanitizer.SanitizeHTML(buf.String())),
	}, nil
}

// BuildPrompt は固定のシステム指示にユーザーの質問を埋め込む。
func BuildPrompt(message string) string {
	return fmt.Sprintf(promptTemplate, message)
}
