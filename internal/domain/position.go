package domain

import "fmt"

// PositionMode selects how a position update moves a row.
type PositionMode string

const (
	PositionUp       PositionMode = "up"
	PositionDown     PositionMode = "down"
	PositionAbsolute PositionMode = "absolute"
)

// ParsePositionMode validates a position mode string.
func ParsePositionMode(s string) (PositionMode, error) {
	switch m := PositionMode(s); m {
	case PositionUp, PositionDown, PositionAbsolute:
		return m, nil
	}
	return "", NewError(CodeInvalidPositionMode, fmt.Sprintf("invalid position mode %q", s))
}

// PositionUpdate moves ObjectID within its ordering scope. Position is only
// read in absolute mode and must be at least 1.
type PositionUpdate struct {
	ObjectID int64        `json:"objectId"`
	Mode     PositionMode `json:"mode"`
	Position int          `json:"position,omitempty"`
}

// Validate checks the mode and, for absolute moves, the target position.
func (u PositionUpdate) Validate() error {
	if _, err := ParsePositionMode(string(u.Mode)); err != nil {
		return err
	}
	if u.Mode == PositionAbsolute && u.Position < 1 {
		return NewError(CodeInvalidPosition, fmt.Sprintf("position must be >= 1, got %d", u.Position))
	}
	return nil
}
