package schemas

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// NoDeadline is the zero time.Time, meaning "no deadline of its own"; the
// effective deadline may still come from the parent.
var NoDeadline time.Time

// Executor is the small dispatch interface injected into a GatewayContext
// so a composed operation (a tool implementation invoking chat on its own
// behalf, say) can run a full pipeline call without reaching back through
// the facade by name.
type Executor interface {
	Execute(ctx *GatewayContext, operation Operation, req interface{}) (interface{}, error)
}

// Streamer is Executor's streaming counterpart.
type Streamer interface {
	StreamOperation(ctx *GatewayContext, operation Operation, req interface{}) (<-chan interface{}, error)
}

// UsageEstimator is the token/cost estimation closure injected into a
// GatewayContext.
type UsageEstimator interface {
	EstimateUsage(req interface{}) (Usage, error)
}

// GatewayContext is a context.Context implementation that also carries the
// gateway's own runtime envelope: the fully resolved Metadata for this
// request (with ctx.metadata.model populated once selection has run) and
// the Executor/Streamer/UsageEstimator closures composed operations use.
// It is immutable once MarkBuilt is called; callers must not mutate
// Metadata fields directly after that point.
type GatewayContext struct {
	requestID string

	parent      context.Context
	deadline    time.Time
	hasDeadline bool
	done        chan struct{}
	doneOnce    sync.Once
	err         error
	errMu       sync.RWMutex

	values   map[any]any
	valuesMu sync.RWMutex

	metadataMu sync.RWMutex
	metadata   Metadata
	built      bool

	execute       Executor
	stream        Streamer
	estimateUsage UsageEstimator
}

// NewGatewayContext creates a GatewayContext deriving its cancellation and
// deadline from parent. If deadline is the zero value, this context
// contributes no deadline of its own (the parent's, if any, still applies).
func NewGatewayContext(parent context.Context, deadline time.Time) *GatewayContext {
	if parent == nil {
		parent = context.Background()
	}
	c := &GatewayContext{
		requestID:   uuid.NewString(),
		parent:      parent,
		deadline:    deadline,
		hasDeadline: !deadline.IsZero(),
		done:        make(chan struct{}),
		values:      make(map[any]any),
	}
	if c.hasDeadline || parent.Done() != nil {
		go c.watchCancellation()
	}
	return c
}

// RequestID returns the identifier stamped on this context at creation,
// stable for the lifetime of the request it represents.
func (c *GatewayContext) RequestID() string { return c.requestID }

// WithExecutor attaches the composed-operation dispatch closures. Facades
// call this once, at context-build time.
func (c *GatewayContext) WithExecutor(execute Executor, stream Streamer, estimate UsageEstimator) *GatewayContext {
	c.execute = execute
	c.stream = stream
	c.estimateUsage = estimate
	return c
}

func (c *GatewayContext) watchCancellation() {
	var timer <-chan time.Time
	if effective, ok := c.Deadline(); ok {
		d := time.Until(effective)
		if d <= 0 {
			c.cancel(context.DeadlineExceeded)
			return
		}
		t := time.NewTimer(d)
		defer t.Stop()
		timer = t.C
	}
	select {
	case <-c.parent.Done():
		c.cancel(c.parent.Err())
	case <-timer:
		c.cancel(context.DeadlineExceeded)
	case <-c.done:
	}
}

func (c *GatewayContext) cancel(err error) {
	c.doneOnce.Do(func() {
		c.errMu.Lock()
		c.err = err
		c.errMu.Unlock()
		close(c.done)
	})
}

// Cancel cancels the context immediately, delivering kind `cancelled` per
// §5's cancellation policy.
func (c *GatewayContext) Cancel() { c.cancel(context.Canceled) }

// Deadline implements context.Context, returning the earlier of this
// context's own deadline and the parent's.
func (c *GatewayContext) Deadline() (time.Time, bool) {
	parentDeadline, parentHas := c.parent.Deadline()
	switch {
	case !c.hasDeadline && !parentHas:
		return time.Time{}, false
	case !c.hasDeadline:
		return parentDeadline, true
	case !parentHas:
		return c.deadline, true
	case c.deadline.Before(parentDeadline):
		return c.deadline, true
	default:
		return parentDeadline, true
	}
}

// Done implements context.Context.
func (c *GatewayContext) Done() <-chan struct{} { return c.done }

// Err implements context.Context.
func (c *GatewayContext) Err() error {
	c.errMu.RLock()
	defer c.errMu.RUnlock()
	return c.err
}

// Value implements context.Context, checking this context's own values
// before delegating to the parent.
func (c *GatewayContext) Value(key any) any {
	c.valuesMu.RLock()
	if v, ok := c.values[key]; ok {
		c.valuesMu.RUnlock()
		return v
	}
	c.valuesMu.RUnlock()
	return c.parent.Value(key)
}

// SetValue sets a value in this context's own value map.
func (c *GatewayContext) SetValue(key, value any) {
	c.valuesMu.Lock()
	defer c.valuesMu.Unlock()
	c.values[key] = value
}

// Metadata returns the context's fully resolved metadata. Safe for
// concurrent use; returns the metadata by value, a shallow copy whose sets
// and maps still share storage with the stored value.
func (c *GatewayContext) Metadata() Metadata {
	c.metadataMu.RLock()
	defer c.metadataMu.RUnlock()
	return c.metadata
}

// setMetadata installs the assembled metadata. The pipeline calls it after
// metadata assembly and again for step 5's model injection; calls made
// after MarkBuilt are ignored.
func (c *GatewayContext) setMetadata(m Metadata) {
	c.metadataMu.Lock()
	defer c.metadataMu.Unlock()
	if c.built {
		return
	}
	c.metadata = m
}

// SetMetadata installs or replaces the context's metadata. Exported so the
// pipeline can inject the selected model id back into ctx.metadata.model
// (§4.8 step 5) without a package cycle back through the assembler.
func (c *GatewayContext) SetMetadata(m Metadata) { c.setMetadata(m) }

// MarkBuilt freezes the context: from this point on Metadata() returns the
// final value for the lifetime of the request.
func (c *GatewayContext) MarkBuilt() {
	c.metadataMu.Lock()
	c.built = true
	c.metadataMu.Unlock()
}

// Execute invokes the injected composed-operation executor, if any.
func (c *GatewayContext) Execute(operation Operation, req interface{}) (interface{}, error) {
	if c.execute == nil {
		return nil, NewGatewayError(ErrorKindDispatchUnsupported, string(operation), "no executor injected into context", nil)
	}
	return c.execute.Execute(c, operation, req)
}

// Stream invokes the injected composed-operation streamer, if any.
func (c *GatewayContext) Stream(operation Operation, req interface{}) (<-chan interface{}, error) {
	if c.stream == nil {
		return nil, NewGatewayError(ErrorKindDispatchUnsupported, string(operation), "no streamer injected into context", nil)
	}
	return c.stream.StreamOperation(c, operation, req)
}

// EstimateUsage invokes the injected token estimator, if any.
func (c *GatewayContext) EstimateUsage(req interface{}) (Usage, error) {
	if c.estimateUsage == nil {
		return Usage{}, NewGatewayError(ErrorKindValidationFailed, "", "no usage estimator injected into context", nil)
	}
	return c.estimateUsage.EstimateUsage(req)
}
