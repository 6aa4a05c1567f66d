// Package protocol defines the JSON frames exchanged over a screening call
// connection: the client hello handshake, caller events in, and prompts,
// outcome, and errors out.
package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

const ProtocolVersion1 = "1"

type DecodeError struct {
	Code    string
	Message string
	Param   string
}

func (e *DecodeError) Error() string {
	if e == nil {
		return ""
	}
	if strings.TrimSpace(e.Param) == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Param)
}

func badRequest(message, param string) *DecodeError {
	return &DecodeError{Code: "bad_request", Message: message, Param: param}
}

// ClientHello opens a call. A client-chosen session id makes reconnect
// attempts detectable as duplicates; an empty id asks the server to mint one.
type ClientHello struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	SessionID       string `json:"session_id,omitempty"`
	// CallerNumber is the ANI from the telephony bridge, when available.
	CallerNumber string `json:"caller_number,omitempty"`
}

// ClientUtterance carries one finalized caller transcript.
type ClientUtterance struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ClientBargeIn signals the caller started talking over an active prompt.
type ClientBargeIn struct {
	Type string `json:"type"`
}

// ClientBye ends the call from the client side.
type ClientBye struct {
	Type string `json:"type"`
}

// ServerHelloAck confirms the session.
type ServerHelloAck struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	SessionID       string `json:"session_id"`
}

// ServerPrompt asks the bridge to speak to the caller.
type ServerPrompt struct {
	Type     string `json:"type"`
	PromptID string `json:"prompt_id"`
	Node     string `json:"node"`
	Text     string `json:"text"`
	Reprompt bool   `json:"reprompt,omitempty"`
}

// ServerPromptCancel stops an in-flight prompt after a barge-in.
type ServerPromptCancel struct {
	Type     string `json:"type"`
	PromptID string `json:"prompt_id"`
}

// ServerOutcome reports how the screening ended, just before close.
type ServerOutcome struct {
	Type                 string   `json:"type"`
	SessionID            string   `json:"session_id"`
	Disposition          string   `json:"disposition"`
	Reason               string   `json:"reason,omitempty"`
	AlternativeProviders []string `json:"alternative_providers,omitempty"`
}

// ServerError reports a protocol or server failure.
type ServerError struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Param   string `json:"param,omitempty"`
}

// ServerWarning is a non-fatal notice, e.g. an imminent drain.
type ServerWarning struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DecodeClientMessage parses one inbound frame into its concrete type.
func DecodeClientMessage(data []byte) (any, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, badRequest("invalid json frame", "")
	}
	typ := strings.TrimSpace(envelope.Type)
	if typ == "" {
		return nil, badRequest("missing type", "type")
	}

	switch typ {
	case "hello":
		var msg ClientHello
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid hello frame", "")
		}
		if err := ValidateHello(msg); err != nil {
			return nil, err
		}
		return msg, nil
	case "utterance":
		var msg ClientUtterance
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid utterance frame", "")
		}
		if strings.TrimSpace(msg.Text) == "" {
			return nil, badRequest("utterance.text is required", "text")
		}
		return msg, nil
	case "barge_in":
		var msg ClientBargeIn
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid barge_in frame", "")
		}
		return msg, nil
	case "bye":
		var msg ClientBye
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid bye frame", "")
		}
		return msg, nil
	default:
		return nil, badRequest("unsupported message type", "type")
	}
}

// ValidateHello checks the handshake frame.
func ValidateHello(msg ClientHello) error {
	if strings.TrimSpace(msg.ProtocolVersion) == "" {
		return badRequest("hello.protocol_version is required", "protocol_version")
	}
	if msg.ProtocolVersion != ProtocolVersion1 {
		return badRequest("unsupported protocol version", "protocol_version")
	}
	return nil
}
