// Package plugin answers the android_id method channel: it reads the
// device identifier and runs the emulator heuristic on request.
package plugin

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fluttercommunity/android-id/internal/channel"
	"github.com/fluttercommunity/android-id/internal/identity"
	"github.com/fluttercommunity/android-id/internal/logger"
	"github.com/rs/zerolog"
)

const (
	ChannelName = "android_id"

	MethodGetID      = "getId"
	MethodIsEmulator = "isEmulator"

	ErrorCodeGettingID = "ERROR_GETTING_ID"

	msgGetIDFailed      = "Failed to get Android ID"
	msgIsEmulatorFailed = "Failed to get isEmulator"
	msgMethodFailed     = "Failed to handle method call"
)

// EmulatorDetector reports whether the device is an emulator.
type EmulatorDetector interface {
	IsEmulator(ctx context.Context) (bool, error)
}

// Binding is what the hosting engine hands the plugin on attach.
type Binding struct {
	Messenger channel.BinaryMessenger
	Codec     channel.MethodCodec
}

type Plugin struct {
	ids      identity.IDReader
	detector EmulatorDetector
	log      *zerolog.Logger

	mu      sync.Mutex
	channel *channel.MethodChannel
}

func New(ids identity.IDReader, detector EmulatorDetector, log *zerolog.Logger) *Plugin {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Plugin{
		ids:      ids,
		detector: detector,
		log:      log,
	}
}

// OnAttachedToEngine registers the plugin on the binding's messenger.
// Attaching again first detaches from the previous binding.
func (p *Plugin) OnAttachedToEngine(binding Binding) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		p.channel.SetMethodCallHandler(nil)
	}
	p.channel = channel.NewMethodChannel(binding.Messenger, ChannelName, binding.Codec)
	p.channel.SetMethodCallHandler(p)

	p.log.Debug().Str("channel", ChannelName).Msg("Plugin attached to engine")
	logger.AuditChannel(true, ChannelName)
}

// OnDetachedFromEngine unregisters the handler. It is a no-op when not attached.
func (p *Plugin) OnDetachedFromEngine() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel == nil {
		return
	}
	p.channel.SetMethodCallHandler(nil)
	p.channel = nil

	p.log.Debug().Str("channel", ChannelName).Msg("Plugin detached from engine")
	logger.AuditChannel(false, ChannelName)
}

// Attached reports whether the plugin currently has a channel registered.
func (p *Plugin) Attached() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channel != nil
}

func (p *Plugin) OnMethodCall(ctx context.Context, call channel.MethodCall, result channel.Result) {
	start := time.Now()
	outcome := outcomeSuccess
	defer func() {
		if r := recover(); r != nil {
			outcome = outcomeError
			p.log.Error().Str("method", call.Method).Interface("panic", r).Msg("Method call panicked")
			result.Error(ErrorCodeGettingID, panicMessage(call.Method), fmt.Sprint(r))
		}
		observeCall(call.Method, outcome, time.Since(start))
	}()

	switch call.Method {
	case MethodGetID:
		outcome = p.getID(ctx, result)
	case MethodIsEmulator:
		outcome = p.isEmulator(ctx, result)
	default:
		outcome = outcomeNotImplemented
		p.log.Debug().Str("method", call.Method).Msg("Method not implemented")
		result.NotImplemented()
	}
}

func (p *Plugin) getID(ctx context.Context, result channel.Result) string {
	sourceIP := logger.SourceIPFromContext(ctx)

	id, err := p.ids.GetID(ctx)
	if err != nil {
		p.log.Warn().Err(err).Msg("Failed to read Android ID")
		logger.AuditIDReadFailed(ChannelName, sourceIP, err)
		result.Error(ErrorCodeGettingID, msgGetIDFailed, err.Error())
		return outcomeError
	}

	logger.AuditIDRead(ChannelName, sourceIP, id != "")
	if id == "" {
		result.Success(nil)
		return outcomeSuccess
	}
	result.Success(id)
	return outcomeSuccess
}

func (p *Plugin) isEmulator(ctx context.Context, result channel.Result) string {
	emulator, err := p.detector.IsEmulator(ctx)
	if err != nil {
		p.log.Warn().Err(err).Msg("Failed to run emulator check")
		result.Error(ErrorCodeGettingID, msgIsEmulatorFailed, err.Error())
		return outcomeError
	}

	logger.AuditEmulatorCheck(ChannelName, logger.SourceIPFromContext(ctx), emulator)
	result.Success(emulator)
	return outcomeSuccess
}

func panicMessage(method string) string {
	switch method {
	case MethodGetID:
		return msgGetIDFailed
	case MethodIsEmulator:
		return msgIsEmulatorFailed
	default:
		return msgMethodFailed
	}
}
