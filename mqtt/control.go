package mqtt

import (
	"encoding/json"
	"fmt"

	"servoap/servo"
)

// Topics is the topic set of one node:
//
//	servoap/control/<id>/rotate  {"direction":"cw","turns":3}
//	servoap/control/<id>/duty    {"duty":700}
//	servoap/control/<id>/stop    any payload
//	servoap/status/<id>/duty     {"duty":614} after every commit
//	servoap/status/<id>/ping     keepalive
//	servoap/status/<id>/state    retained "online" or "offline"
type Topics struct {
	Rotate string
	Duty   string
	Stop   string

	DutyStatus string
	Ping       string
	State      string
}

// NewTopics builds the topic set for clientID.
func NewTopics(clientID string) Topics {
	control := func(name string) string { return fmt.Sprintf("servoap/control/%s/%s", clientID, name) }
	status := func(name string) string { return fmt.Sprintf("servoap/status/%s/%s", clientID, name) }
	return Topics{
		Rotate:     control("rotate"),
		Duty:       control("duty"),
		Stop:       control("stop"),
		DutyStatus: status("duty"),
		Ping:       status("ping"),
		State:      status("state"),
	}
}

// control returns the subscription filters for the command topics.
func (t Topics) control() map[string]byte {
	return map[string]byte{t.Rotate: 1, t.Duty: 1, t.Stop: 1}
}

// RotateRequest is the payload of the rotate topic. Both fields are required.
type RotateRequest struct {
	Direction *string `json:"direction"`
	Turns     *int    `json:"turns"`
}

// DutyRequest is the payload of the duty topic. json rejects values outside
// the uint32 range, negative ones included.
type DutyRequest struct {
	Duty *uint32 `json:"duty"`
}

type dutyStatus struct {
	Duty servo.Duty `json:"duty"`
}

func decodeRotate(payload []byte) (servo.Direction, int, error) {
	var req RotateRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return servo.Unknown, 0, fmt.Errorf("decode rotate request: %w", err)
	}
	if req.Direction == nil || req.Turns == nil {
		return servo.Unknown, 0, fmt.Errorf("rotate request needs direction and turns")
	}
	return servo.ParseDirection(*req.Direction), *req.Turns, nil
}

func decodeDuty(payload []byte) (servo.Duty, error) {
	var req DutyRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return 0, fmt.Errorf("decode duty request: %w", err)
	}
	if req.Duty == nil {
		return 0, fmt.Errorf("duty request needs duty")
	}
	return servo.Duty(*req.Duty), nil
}

func encodeDutyStatus(duty servo.Duty) ([]byte, error) {
	return json.Marshal(dutyStatus{Duty: duty})
}

// dispatch decodes a control message and hands it to the matching handler.
// Messages on other topics are ignored.
func (c *Client) dispatch(topic string, payload []byte) error {
	switch topic {
	case c.topics.Rotate:
		dir, turns, err := decodeRotate(payload)
		if err != nil {
			return err
		}
		c.logger.Infof("Remote rotate %s x%d", dir, turns)
		if c.handlers.OnRotate != nil {
			c.handlers.OnRotate(dir, turns)
		}

	case c.topics.Duty:
		duty, err := decodeDuty(payload)
		if err != nil {
			return err
		}
		c.logger.Infof("Remote duty %d", duty)
		if c.handlers.OnDuty != nil {
			c.handlers.OnDuty(duty)
		}

	case c.topics.Stop:
		c.logger.Info("Remote stop")
		if c.handlers.OnStop != nil {
			c.handlers.OnStop()
		}
	}
	return nil
}
