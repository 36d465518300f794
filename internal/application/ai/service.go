// Package ai provides the application layer for AI operations: image
// extraction and inventory-conditioned recipe recommendation.
package ai

import (
	"context"
	"strings"
	"time"

	"github.com/rasoiops/rasoiops/internal/ports/outbound"
	apperrors "github.com/rasoiops/rasoiops/pkg/errors"
	"github.com/rasoiops/rasoiops/pkg/retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/rasoiops/rasoiops/internal/application/ai"

// Operation names used in logs, spans and metrics
const (
	OperationExtract   = "extract"
	OperationRecommend = "recommend"
)

// Metrics receives AI call telemetry
type Metrics interface {
	AIRequest(provider, operation, status string, duration time.Duration)
	AIRetry(provider, operation string)
	AIParseFailure(provider, operation string)
	AITokens(provider string, prompt, completion int)
	RecommendationSuperseded()
}

type nopMetrics struct{}

func (nopMetrics) AIRequest(string, string, string, time.Duration) {}
func (nopMetrics) AIRetry(string, string)                          {}
func (nopMetrics) AIParseFailure(string, string)                   {}
func (nopMetrics) AITokens(string, int, int)                       {}
func (nopMetrics) RecommendationSuperseded()                       {}

// Options configures both AI services
type Options struct {
	// RetryPolicy is consulted on every call so reloaded settings apply immediately
	RetryPolicy   func() retry.Policy
	Temperature   float64
	MaxImageBytes int64
	Metrics       Metrics
	// RetryOptions are passed to every retry.Do call
	RetryOptions []retry.Option
}

func (o Options) withDefaults() Options {
	if o.RetryPolicy == nil {
		o.RetryPolicy = retry.DefaultPolicy
	}
	if o.MaxImageBytes <= 0 {
		o.MaxImageBytes = DefaultMaxImageBytes
	}
	if o.Metrics == nil {
		o.Metrics = nopMetrics{}
	}
	return o
}

// caller runs provider requests under the retry policy with tracing, logging and metrics
type caller struct {
	provider outbound.ModelProvider
	opts     Options
	tracer   trace.Tracer
	logger   *zap.Logger
}

func newCaller(provider outbound.ModelProvider, opts Options, logger *zap.Logger) caller {
	return caller{
		provider: provider,
		opts:     opts,
		tracer:   otel.Tracer(tracerName),
		logger:   logger,
	}
}

// generate returns the raw model text. Rate-limit failures are retried per the
// current policy; everything else is returned unchanged.
func (c caller) generate(ctx context.Context, operation string, req outbound.ModelRequest) (*outbound.ModelResponse, error) {
	name := c.provider.Name()
	ctx, span := c.tracer.Start(ctx, "ai."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("ai.provider", name),
			attribute.String("ai.operation", operation),
			attribute.Int("ai.images", len(req.Images)),
		))
	defer span.End()

	notify := retry.WithNotify(func(attempt int, delay time.Duration, err error) {
		c.logger.Warn("Rate limit hit, retrying",
			zap.String("provider", name),
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
		c.opts.Metrics.AIRetry(name, operation)
		span.AddEvent("retry", trace.WithAttributes(
			attribute.Int("attempt", attempt),
			attribute.String("delay", delay.String())))
	})

	start := time.Now()
	opts := append([]retry.Option{notify}, c.opts.RetryOptions...)
	resp, err := retry.Do(ctx, c.opts.RetryPolicy(), func(ctx context.Context) (*outbound.ModelResponse, error) {
		return c.provider.Generate(ctx, req)
	}, opts...)
	duration := time.Since(start)

	if err != nil {
		code := apperrors.GetCode(err)
		c.opts.Metrics.AIRequest(name, operation, strings.ToLower(string(code)), duration)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Error("Model request failed",
			zap.String("provider", name),
			zap.String("operation", operation),
			zap.String("code", string(code)),
			zap.Duration("duration", duration),
			zap.Error(err))
		return nil, err
	}

	c.opts.Metrics.AIRequest(name, operation, "success", duration)
	c.opts.Metrics.AITokens(name, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	span.SetAttributes(
		attribute.String("ai.model", resp.Model),
		attribute.Int("ai.total_tokens", resp.Usage.TotalTokens))

	c.logger.Info("Model request completed",
		zap.String("provider", name),
		zap.String("model", resp.Model),
		zap.String("operation", operation),
		zap.Duration("duration", duration),
		zap.Int("total_tokens", resp.Usage.TotalTokens))

	return resp, nil
}
