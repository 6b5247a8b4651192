package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrNotProtocol reports a frame without the protocol prefix.
	ErrNotProtocol = errors.New("not a protocol message")
	// ErrMalformed reports a prefixed frame that does not decode to a message.
	ErrMalformed = errors.New("malformed protocol message")
)

// Message is one decoded protocol frame. WindowID is zero for connection level
// messages such as pongs, and RuntimeID is empty when the frame carried null.
type Message struct {
	WindowID  int
	RuntimeID string
	Method    Method
	Payload   json.RawMessage
}

// Encode frames a message for the wire. A zero windowID and an empty
// runtimeID are sent as null.
func Encode(windowID int, runtimeID string, method Method, payload any) (string, error) {
	frame := make([]any, 4)
	if windowID != 0 {
		frame[0] = windowID
	}
	if runtimeID != "" {
		frame[1] = runtimeID
	}
	frame[2] = int(method)
	frame[3] = payload

	data, err := json.Marshal(frame)
	if err != nil {
		return "", fmt.Errorf("encode %s message: %w", method, err)
	}
	return MessagePrefix + string(data), nil
}

// Decode parses a raw frame. Frames without the prefix yield ErrNotProtocol;
// prefixed frames that are not arrays, or that lack an integer window id
// (pongs excepted), yield ErrMalformed.
func Decode(raw string) (Message, error) {
	if !strings.HasPrefix(raw, MessagePrefix) {
		return Message{}, ErrNotProtocol
	}

	var parts []json.RawMessage
	if err := json.Unmarshal([]byte(raw[len(MessagePrefix):]), &parts); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(parts) < 3 {
		return Message{}, fmt.Errorf("%w: expected at least 3 fields, got %d", ErrMalformed, len(parts))
	}

	var msg Message
	var method int
	if err := json.Unmarshal(parts[2], &method); err != nil {
		return Message{}, fmt.Errorf("%w: method: %v", ErrMalformed, err)
	}
	msg.Method = Method(method)

	if msg.Method != MethodPong {
		if err := json.Unmarshal(parts[0], &msg.WindowID); err != nil || isNull(parts[0]) {
			return Message{}, fmt.Errorf("%w: window id %s is not an integer", ErrMalformed, string(parts[0]))
		}
	}

	if !isNull(parts[1]) {
		id, err := NodeIDFrom(parts[1])
		if err != nil {
			return Message{}, fmt.Errorf("%w: view runtime id: %v", ErrMalformed, err)
		}
		msg.RuntimeID = id
	}

	if len(parts) > 3 && !isNull(parts[3]) {
		msg.Payload = parts[3]
	}
	return msg, nil
}

// NodeIDFrom normalises a JSON string or number into an opaque id string.
func NodeIDFrom(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("id %s is neither a string nor a number", string(raw))
}

// Stringify renders a decoded JSON scalar the way it appears in an attribute.
func Stringify(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case bool:
		return strconv.FormatBool(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case json.Number:
		return value.String()
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprint(value)
		}
		return string(data)
	}
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
