package display

import (
	"bytes"
	"encoding/json"
)

const PlayerStateEnded = 0

// PlayerMessage is what we could make out of a message from the embedded
// player. Either field may be missing.
type PlayerMessage struct {
	VideoID  string
	State    int
	HasState bool
}

// ParsePlayerMessage accepts the handful of shapes the embedded player is
// known to send. Anything else is reported as not ok.
func ParsePlayerMessage(raw []byte) (PlayerMessage, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return PlayerMessage{}, false
		}
		raw = bytes.TrimSpace([]byte(inner))
	}

	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return PlayerMessage{}, false
	}

	msg := PlayerMessage{}
	event, _ := body["event"].(string)

	switch info := body["info"].(type) {
	case map[string]any:
		if data, ok := info["videoData"].(map[string]any); ok {
			msg.VideoID = stringField(data, "video_id")
		}
		if msg.VideoID == "" {
			msg.VideoID = stringField(info, "videoId")
		}
		if state, ok := info["playerState"].(float64); ok {
			msg.State, msg.HasState = int(state), true
		}
	case float64:
		if event == "onStateChange" {
			msg.State, msg.HasState = int(info), true
		}
	}

	if msg.VideoID == "" {
		msg.VideoID = stringField(body, "videoId")
	}
	if !msg.HasState {
		if state, ok := body["playerState"].(float64); ok {
			msg.State, msg.HasState = int(state), true
		}
	}

	return msg, msg.VideoID != "" || msg.HasState
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
