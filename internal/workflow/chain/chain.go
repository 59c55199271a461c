// Package chain 把提示词模板与 ChatModel 组装成 Eino compose 链
package chain

import (
	"context"
	"fmt"
	"strings"
	"sync"

	openaiopts "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"yt-ebook-api/internal/domain/service"
	wfnode "yt-ebook-api/internal/workflow/node"
	workflowport "yt-ebook-api/internal/workflow/port"
	workflowprompt "yt-ebook-api/internal/workflow/prompt"
	"yt-ebook-api/pkg/logger"
)

var defaultPromptRegistry = workflowprompt.NewRegistry()

// callOptions 单次调用的模型选择
type callOptions struct {
	Provider string
	Model    string
}

// chainState 在链节点之间传递
type chainState[In any] struct {
	In       In
	Opts     callOptions
	Messages []*schema.Message
	OutMsg   *schema.Message
}

// promptChain 模板 → LLM → 输出消息 的通用链；jsonMode 时先请求 json_object 格式，
// 提供商不支持时退回仅靠提示词约束
type promptChain[In any] struct {
	factory   workflowport.ChatModelFactory
	operation string
	promptID  workflowprompt.PromptID
	jsonMode  bool
	vars      func(In) map[string]any
	options   func(In) callOptions

	once     sync.Once
	runnable compose.Runnable[In, *schema.Message]
	buildErr error
}

func (c *promptChain[In]) Invoke(ctx context.Context, in In) (*schema.Message, error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	c.once.Do(func() {
		c.runnable, c.buildErr = c.build(context.Background())
	})
	if c.buildErr != nil {
		return nil, c.buildErr
	}
	return c.runnable.Invoke(ctx, in)
}

func (c *promptChain[In]) build(ctx context.Context) (compose.Runnable[In, *schema.Message], error) {
	ch := compose.NewChain[In, *schema.Message]()

	ch.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, in In) (*chainState[In], error) {
			return &chainState[In]{In: in, Opts: c.options(in)}, nil
		}),
		compose.WithNodeName(c.operation+".init"),
	)

	ch.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *chainState[In]) (*chainState[In], error) {
			tpl, err := defaultPromptRegistry.ChatTemplate(c.promptID)
			if err != nil {
				return nil, err
			}
			msgs, err := tpl.Format(ctx, c.vars(st.In))
			if err != nil {
				return nil, err
			}
			st.Messages = msgs
			return st, nil
		}),
		compose.WithNodeName(c.operation+".template"),
	)

	ch.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *chainState[In]) (*chainState[In], error) {
			provider := strings.TrimSpace(st.Opts.Provider)
			if provider == "" {
				provider = c.factory.DefaultName()
			}
			ctx = service.WithOperationProvider(ctx, c.operation, provider)
			chatModel, err := c.factory.Get(ctx, provider)
			if err != nil {
				return nil, err
			}

			outMsg, err := chatModel.Generate(ctx, st.Messages, c.modelOptions(st.Opts, c.jsonMode)...)
			if err != nil && c.jsonMode && wfnode.IsResponseFormatUnsupportedError(err) {
				logger.Warn(ctx, "llm json response format not supported, fallback to prompt-only",
					"operation", c.operation,
					"provider", provider,
					"error", err.Error(),
				)
				outMsg, err = chatModel.Generate(ctx, st.Messages, c.modelOptions(st.Opts, false)...)
			}
			if err != nil {
				return nil, err
			}
			if outMsg == nil || strings.TrimSpace(outMsg.Content) == "" {
				return nil, fmt.Errorf("empty llm response")
			}
			st.OutMsg = outMsg
			return st, nil
		}),
		compose.WithNodeName(c.operation+".llm"),
	)

	ch.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *chainState[In]) (*schema.Message, error) {
			return st.OutMsg, nil
		}),
		compose.WithNodeName(c.operation+".finalize"),
	)

	return ch.Compile(ctx)
}

func (c *promptChain[In]) modelOptions(opts callOptions, jsonMode bool) []model.Option {
	out := make([]model.Option, 0, 2)
	if m := strings.TrimSpace(opts.Model); m != "" {
		out = append(out, model.WithModel(m))
	}
	if jsonMode {
		out = append(out, openaiopts.WithExtraFields(map[string]any{
			"response_format": map[string]any{"type": "json_object"},
		}))
	}
	return out
}
