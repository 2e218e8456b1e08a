package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "inkwell/internal/shared/events"
	maxLoggedPayload    = 512
)

// Outcome classifies what happened to one delivery.
type Outcome string

const (
	OutcomeApplied     Outcome = "applied"
	OutcomeDuplicate   Outcome = "duplicate"
	OutcomeUnknownType Outcome = "unknown_type"
	OutcomeUnhandled   Outcome = "unhandled"
	OutcomeMalformed   Outcome = "malformed"
	OutcomeDropped     Outcome = "dropped"
	OutcomeFailed      Outcome = "failed"
)

// Event is what a typed handler receives.
type Event[T any] struct {
	Envelope Envelope
	Delivery Delivery
	Payload  T
}

type handlerFunc func(ctx context.Context, envelope Envelope, delivery Delivery, payload any) error

// Router dispatches deliveries of one topic to exactly one handler per
// event type. It never returns an error for bad input; errors it returns
// are retryable handler or storage failures.
type Router struct {
	topic          string
	registry       *Registry
	guard          *Guard
	handlers       map[string]handlerFunc
	logger         *slog.Logger
	module         string
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	tracer         trace.Tracer
	outcomes       metric.Int64Counter
}

type Option func(*Router)

// WithGuard runs every handler through guard.
func WithGuard(guard *Guard) Option {
	return func(r *Router) { r.guard = guard }
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithModule sets the module attribute written on every log line.
func WithModule(module string) Option {
	return func(r *Router) { r.module = module }
}

func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(r *Router) { r.meterProvider = provider }
}

func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(r *Router) { r.tracerProvider = provider }
}

func NewRouter(topic string, registry *Registry, opts ...Option) *Router {
	r := &Router{
		topic:          topic,
		registry:       registry,
		handlers:       make(map[string]handlerFunc),
		logger:         slog.Default(),
		module:         "internal/shared/events",
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.tracer = r.tracerProvider.Tracer(instrumentationName)
	counter, err := r.meterProvider.Meter(instrumentationName).Int64Counter(
		"events.dispatched",
		metric.WithDescription("Deliveries processed by the dispatch router, by outcome."),
	)
	if err != nil {
		r.logger.Warn("dispatch counter unavailable",
			"event", "events_router_metric_init_failed",
			"module", r.module,
			"layer", "worker",
			"error", err.Error(),
		)
		counter = noop.Int64Counter{}
	}
	r.outcomes = counter
	return r
}

// On registers the handler for eventType. The type must be in the registry
// for the router's topic and may only be registered once.
func On[T any](r *Router, eventType string, fn func(ctx context.Context, event Event[T]) error) {
	if _, ok := r.registry.Lookup(r.topic, eventType); !ok {
		panic(fmt.Sprintf("events: %s is not registered on topic %s", eventType, r.topic))
	}
	if _, exists := r.handlers[eventType]; exists {
		panic(fmt.Sprintf("events: duplicate handler for %s on topic %s", eventType, r.topic))
	}
	r.handlers[eventType] = func(ctx context.Context, envelope Envelope, delivery Delivery, payload any) error {
		typed, ok := payload.(T)
		if !ok {
			return Permanent(fmt.Errorf("%w: %s decoded to %T", ErrMalformedPayload, eventType, payload))
		}
		return fn(ctx, Event[T]{Envelope: envelope, Delivery: delivery, Payload: typed})
	}
}

func (r *Router) Topic() string {
	return r.topic
}

// Dispatch satisfies DeliveryHandler.
func (r *Router) Dispatch(ctx context.Context, delivery Delivery) error {
	_, err := r.dispatch(ctx, delivery)
	return err
}

func (r *Router) dispatch(ctx context.Context, delivery Delivery) (outcome Outcome, err error) {
	ctx, span := r.tracer.Start(ctx, "events.dispatch "+r.topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.destination.name", delivery.Topic),
			attribute.Int("messaging.partition", delivery.Partition),
			attribute.Int64("messaging.offset", delivery.Offset),
		),
	)
	defer func() {
		span.SetAttributes(attribute.String("events.outcome", string(outcome)))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		r.outcomes.Add(ctx, 1, metric.WithAttributes(
			attribute.String("topic", r.topic),
			attribute.String("outcome", string(outcome)),
		))
	}()

	envelope, err := Decode(delivery.Value)
	switch {
	case errors.Is(err, ErrMissingEnvelope), errors.Is(err, ErrMissingEventType):
		r.logDelivery(slog.LevelWarn, "event envelope dropped", "events_envelope_dropped", delivery, envelope, err)
		return OutcomeDropped, nil
	case err != nil:
		r.logDelivery(slog.LevelError, "event envelope malformed", "events_envelope_malformed", delivery, envelope, err)
		return OutcomeMalformed, nil
	}
	span.SetAttributes(
		attribute.String("events.event_id", envelope.EventID),
		attribute.String("events.event_type", envelope.EventType),
	)

	decoder, ok := r.registry.Lookup(r.topic, envelope.EventType)
	if !ok {
		r.logDelivery(slog.LevelInfo, "unknown event type ignored", "events_unknown_type", delivery, envelope, ErrUnknownEventType)
		return OutcomeUnknownType, nil
	}
	handler, ok := r.handlers[envelope.EventType]
	if !ok {
		r.logger.Debug("event type not handled by this consumer",
			"event", "events_unhandled_type",
			"module", r.module,
			"layer", "worker",
			"topic", delivery.Topic,
			"event_id", envelope.EventID,
			"event_type", envelope.EventType,
		)
		return OutcomeUnhandled, nil
	}

	payload, err := decoder(envelope.Data)
	if err != nil {
		r.logDelivery(slog.LevelError, "event payload malformed", "events_payload_malformed", delivery, envelope, err)
		return OutcomeMalformed, nil
	}

	run := func(ctx context.Context) error {
		return r.invoke(ctx, handler, envelope, delivery, payload)
	}
	var duplicate bool
	if r.guard != nil {
		duplicate, err = r.guard.Run(ctx, envelope, run)
	} else {
		err = run(ctx)
	}
	switch {
	case errors.Is(err, ErrIdempotencyKeyConflict):
		r.logDelivery(slog.LevelError, "event id reused with different data", "events_dedup_conflict", delivery, envelope, err)
		return OutcomeDropped, nil
	case IsPermanent(err):
		r.logDelivery(slog.LevelError, "event handler rejected delivery", "events_handler_rejected", delivery, envelope, err)
		return OutcomeDropped, nil
	case err != nil:
		r.logDelivery(slog.LevelWarn, "event handler failed", "events_handler_failed", delivery, envelope, err)
		return OutcomeFailed, err
	case duplicate:
		r.logger.Debug("event already processed",
			"event", "events_duplicate_skipped",
			"module", r.module,
			"layer", "worker",
			"topic", delivery.Topic,
			"event_id", envelope.EventID,
			"event_type", envelope.EventType,
		)
		return OutcomeDuplicate, nil
	}

	r.logger.Debug("event applied",
		"event", "events_applied",
		"module", r.module,
		"layer", "worker",
		"topic", delivery.Topic,
		"partition", delivery.Partition,
		"offset", delivery.Offset,
		"event_id", envelope.EventID,
		"event_type", envelope.EventType,
	)
	return OutcomeApplied, nil
}

func (r *Router) invoke(
	ctx context.Context,
	handler handlerFunc,
	envelope Envelope,
	delivery Delivery,
	payload any,
) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = Permanent(fmt.Errorf("handler panic: %v", recovered))
		}
	}()
	return handler(ctx, envelope, delivery, payload)
}

func (r *Router) logDelivery(
	level slog.Level,
	msg string,
	event string,
	delivery Delivery,
	envelope Envelope,
	err error,
) {
	raw := delivery.Value
	if len(raw) > maxLoggedPayload {
		raw = raw[:maxLoggedPayload]
	}
	r.logger.Log(context.Background(), level, msg,
		"event", event,
		"module", r.module,
		"layer", "worker",
		"topic", delivery.Topic,
		"partition", delivery.Partition,
		"offset", delivery.Offset,
		"key", delivery.Key,
		"event_id", envelope.EventID,
		"event_type", envelope.EventType,
		"raw", string(raw),
		"error", err.Error(),
	)
}
