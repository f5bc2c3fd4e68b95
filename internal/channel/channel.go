// Package channel implements named method channels: a method call is
// encoded by a codec, carried as bytes by a BinaryMessenger, dispatched to
// a handler and answered with a success, error or not-implemented envelope.
package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNoHandler         = errors.New("no handler registered for channel")
	ErrNotImplemented    = errors.New("method not implemented")
	ErrMalformedCall     = errors.New("malformed method call")
	ErrMalformedEnvelope = errors.New("malformed reply envelope")
)

// CodeMalformedCall is reported when an incoming call cannot be decoded.
const CodeMalformedCall = "MALFORMED_CALL"

// MethodCall is a decoded method invocation.
type MethodCall struct {
	Method    string
	Arguments json.RawMessage
}

// Result answers exactly one method call. Calls after the first are ignored.
type Result interface {
	Success(result interface{})
	Error(code, message string, details interface{})
	NotImplemented()
}

// MethodCallHandler handles calls arriving on a MethodChannel.
type MethodCallHandler interface {
	OnMethodCall(ctx context.Context, call MethodCall, result Result)
}

// MethodCallHandlerFunc adapts a function to MethodCallHandler.
type MethodCallHandlerFunc func(ctx context.Context, call MethodCall, result Result)

func (f MethodCallHandlerFunc) OnMethodCall(ctx context.Context, call MethodCall, result Result) {
	f(ctx, call, result)
}

// BinaryReply delivers an encoded reply. A nil reply means not implemented.
type BinaryReply func(reply []byte)

// BinaryMessageHandler receives encoded messages for one channel.
type BinaryMessageHandler func(ctx context.Context, message []byte, reply BinaryReply)

// BinaryMessenger carries encoded messages between the caller and channel handlers.
type BinaryMessenger interface {
	// Send delivers message to the handler of channel and waits for its reply.
	Send(ctx context.Context, channel string, message []byte) ([]byte, error)

	// SetMessageHandler registers handler for channel; a nil handler unregisters it.
	SetMessageHandler(channel string, handler BinaryMessageHandler)
}

// PlatformError is an error envelope returned by a channel handler.
type PlatformError struct {
	Code    string
	Message string
	Details json.RawMessage
}

func (e *PlatformError) Error() string {
	if len(e.Details) == 0 || string(e.Details) == "null" {
		return fmt.Sprintf("PlatformError(%s, %s)", e.Code, e.Message)
	}
	return fmt.Sprintf("PlatformError(%s, %s, %s)", e.Code, e.Message, e.Details)
}
