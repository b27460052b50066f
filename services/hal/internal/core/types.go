package core

import (
	"context"

	"dshot-go/drivers/dshot/engine"
	"dshot-go/errcode"
	"dshot-go/types"
)

// ---- Capability & device model ----

// CapAddr identifies one capability on the bus.
type CapAddr struct {
	Domain string
	Kind   string
	Name   string
}

type CapabilitySpec struct {
	Domain    string // empty => defaultDomainFor(kind)
	Kind      types.Kind
	Name      string // empty => device ID
	Info      types.Info
	RefreshMs uint32 // >0 => HAL calls Refresh at this period
}

// EnqueueResult is a device's verdict on a control request.
type EnqueueResult struct {
	OK    bool
	Error errcode.Code
}

// Device is owned by the HAL goroutine. Control and Refresh are never
// called concurrently and must not block.
type Device interface {
	ID() string
	Capabilities() []CapabilitySpec
	Init(ctx context.Context) error
	Control(addr CapAddr, verb string, payload any) (EnqueueResult, error)
	Close() error
}

// Refresher is implemented by devices that must be serviced periodically,
// e.g. to keep an ESC armed.
type Refresher interface {
	Refresh(addr CapAddr, nowMs int64)
}

// ---- Device → HAL telemetry ----
// An Event is a value update published retained on .../value, unless IsEvent
// is set (then .../event, not retained). A non-empty Err publishes only
// .../status=degraded.

type Event struct {
	Addr     CapAddr
	Payload  any
	TSms     int64
	Err      string
	IsEvent  bool
	EventTag string
}

type EventEmitter interface {
	// Emit must not block; false means the event was dropped.
	Emit(ev Event) bool
}

// ---- HAL-injected resources ----

type Resources struct {
	Engines *engine.Manager
	Pub     EventEmitter // set by HAL
}

type BuilderInput struct {
	ID, Type string
	Params   any
	Res      Resources
}

type Builder interface {
	Build(ctx context.Context, in BuilderInput) (Device, error)
}
