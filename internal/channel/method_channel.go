package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MethodChannel binds a channel name, a codec and a messenger.
type MethodChannel struct {
	name      string
	messenger BinaryMessenger
	codec     MethodCodec
}

// NewMethodChannel creates a MethodChannel. A nil codec selects JSONMethodCodec.
func NewMethodChannel(messenger BinaryMessenger, name string, codec MethodCodec) *MethodChannel {
	if codec == nil {
		codec = JSONMethodCodec{}
	}
	return &MethodChannel{
		name:      name,
		messenger: messenger,
		codec:     codec,
	}
}

func (c *MethodChannel) Name() string {
	return c.name
}

func (c *MethodChannel) Codec() MethodCodec {
	return c.codec
}

// SetMethodCallHandler registers handler for incoming calls. A nil handler unregisters the channel.
func (c *MethodChannel) SetMethodCallHandler(handler MethodCallHandler) {
	if handler == nil {
		c.messenger.SetMessageHandler(c.name, nil)
		return
	}

	c.messenger.SetMessageHandler(c.name, func(ctx context.Context, message []byte, reply BinaryReply) {
		res := &envelopeResult{codec: c.codec, reply: reply}

		call, err := c.codec.DecodeMethodCall(message)
		if err != nil {
			res.Error(CodeMalformedCall, "Failed to decode method call", err.Error())
			return
		}

		handler.OnMethodCall(ctx, call, res)
	})
}

// InvokeMethod calls method on the channel and decodes the reply envelope.
// A handler error is returned as *PlatformError; an unhandled method as ErrNotImplemented.
func (c *MethodChannel) InvokeMethod(ctx context.Context, method string, args interface{}) (json.RawMessage, error) {
	var rawArgs json.RawMessage
	if args != nil {
		b, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("encode arguments: %w", err)
		}
		rawArgs = b
	}

	msg, err := c.codec.EncodeMethodCall(MethodCall{Method: method, Arguments: rawArgs})
	if err != nil {
		return nil, fmt.Errorf("encode method call: %w", err)
	}

	reply, err := c.messenger.Send(ctx, c.name, msg)
	if err != nil {
		return nil, err
	}

	return c.codec.DecodeEnvelope(reply)
}

// envelopeResult encodes a handler's answer and replies once.
type envelopeResult struct {
	codec MethodCodec
	reply BinaryReply
	once  sync.Once
}

func (r *envelopeResult) Success(result interface{}) {
	r.once.Do(func() {
		data, err := r.codec.EncodeSuccessEnvelope(result)
		if err != nil {
			data, _ = r.codec.EncodeErrorEnvelope("ENCODE_FAILED", "Failed to encode result", err.Error())
		}
		r.reply(data)
	})
}

func (r *envelopeResult) Error(code, message string, details interface{}) {
	r.once.Do(func() {
		data, err := r.codec.EncodeErrorEnvelope(code, message, details)
		if err != nil {
			data, _ = r.codec.EncodeErrorEnvelope(code, message, nil)
		}
		r.reply(data)
	})
}

func (r *envelopeResult) NotImplemented() {
	r.once.Do(func() {
		r.reply(nil)
	})
}
