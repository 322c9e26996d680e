package hlws

import (
	"strings"

	json "github.com/goccy/go-json"
)

// subscribeFrame mirrors the venue's wire protocol:
// {"method":"subscribe","subscription":{...}}, with "unsubscribe" using
// the same shape.
type subscribeFrame struct {
	Method       string       `json:"method"`
	Subscription Subscription `json:"subscription"`
}

type pingFrame struct {
	Method string `json:"method"`
}

func encodeSubscribe(sub Subscription) ([]byte, error) {
	return json.Marshal(subscribeFrame{Method: "subscribe", Subscription: sub})
}

func encodeUnsubscribe(sub Subscription) ([]byte, error) {
	return json.Marshal(subscribeFrame{Method: "unsubscribe", Subscription: sub})
}

func encodePing() ([]byte, error) {
	return json.Marshal(pingFrame{Method: "ping"})
}

// inboundEnvelope is the minimal shape the supervisor needs to decide
// whether a frame is a control message (ping/pong/subscription ack) or
// application data worth forwarding verbatim. The manager does not
// interpret the payload beyond the channel field.
type inboundEnvelope struct {
	Channel string `json:"channel"`
}

// isControlFrame reports whether raw looks like a non-data control
// frame the supervisor should swallow rather than hand to the
// application callback (empty arrays, bodies with no channel field).
func isControlFrame(raw []byte) bool {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "[]" || trimmed == "{}" {
		return true
	}
	var env inboundEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return false
	}
	return env.Channel == ""
}

// normalizeEndpoint rewrites http(s):// URLs to their ws(s)://
// equivalents so callers may hand in either form.
func normalizeEndpoint(endpoint string) string {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return "wss://" + strings.TrimPrefix(endpoint, "https://")
	case strings.HasPrefix(endpoint, "http://"):
		return "ws://" + strings.TrimPrefix(endpoint, "http://")
	default:
		return endpoint
	}
}
