package channel

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MethodCodec encodes method calls and their reply envelopes.
type MethodCodec interface {
	EncodeMethodCall(call MethodCall) ([]byte, error)
	DecodeMethodCall(data []byte) (MethodCall, error)
	EncodeSuccessEnvelope(result interface{}) ([]byte, error)
	EncodeErrorEnvelope(code, message string, details interface{}) ([]byte, error)
	// DecodeEnvelope returns the success payload, a *PlatformError,
	// or ErrNotImplemented for an empty reply.
	DecodeEnvelope(data []byte) (json.RawMessage, error)
}

// JSONMethodCodec is the JSON method codec:
// calls are {"method": m, "args": a}, success replies are [result]
// and error replies are [code, message, details].
type JSONMethodCodec struct{}

type jsonMethodCall struct {
	Method string          `json:"method"`
	Args   json.RawMessage `json:"args"`
}

func (JSONMethodCodec) EncodeMethodCall(call MethodCall) ([]byte, error) {
	args := call.Arguments
	if len(args) == 0 {
		args = json.RawMessage("null")
	}
	return json.Marshal(jsonMethodCall{Method: call.Method, Args: args})
}

// DecodeMethodCall requires a string "method". An empty name is still a
// method name and is left for the handler to answer.
func (JSONMethodCodec) DecodeMethodCall(data []byte) (MethodCall, error) {
	var raw struct {
		Method *string         `json:"method"`
		Args   json.RawMessage `json:"args"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return MethodCall{}, fmt.Errorf("%w: %w", ErrMalformedCall, err)
	}
	if raw.Method == nil {
		return MethodCall{}, fmt.Errorf("%w: missing method", ErrMalformedCall)
	}
	return MethodCall{Method: *raw.Method, Arguments: raw.Args}, nil
}

func (JSONMethodCodec) EncodeSuccessEnvelope(result interface{}) ([]byte, error) {
	return json.Marshal([]interface{}{result})
}

func (JSONMethodCodec) EncodeErrorEnvelope(code, message string, details interface{}) ([]byte, error) {
	return json.Marshal([]interface{}{code, message, details})
}

func (JSONMethodCodec) DecodeEnvelope(data []byte) (json.RawMessage, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrNotImplemented
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEnvelope, err)
	}

	switch len(parts) {
	case 1:
		return parts[0], nil
	case 3:
		perr := &PlatformError{Details: parts[2]}
		if err := json.Unmarshal(parts[0], &perr.Code); err != nil {
			return nil, fmt.Errorf("%w: error code: %w", ErrMalformedEnvelope, err)
		}
		var msg *string
		if err := json.Unmarshal(parts[1], &msg); err != nil {
			return nil, fmt.Errorf("%w: error message: %w", ErrMalformedEnvelope, err)
		}
		if msg != nil {
			perr.Message = *msg
		}
		return nil, perr
	default:
		return nil, fmt.Errorf("%w: %d elements", ErrMalformedEnvelope, len(parts))
	}
}
