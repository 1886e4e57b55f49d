package renderer

import (
	"encoding/json"
	"fmt"

	"github.com/petervdpas/callbridge/internal/bridge"
)

// BuildScript serializes a structured command into the script text executed
// inside the document. Both the event name and the payload go through JSON
// marshaling, so quote and backslash characters in payload strings can
// never escape the generated literal.
func BuildScript(cmd bridge.Command) (string, error) {
	event, err := json.Marshal(string(cmd.Event))
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	payload := cmd.Payload
	if payload == nil {
		payload = bridge.Payload{}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	return fmt.Sprintf("globalThis.hostBridge.send(%s, %s);", event, body), nil
}
