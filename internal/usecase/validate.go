// File: internal/usecase/validate.go
package usecase

import (
	"fmt"
	"regexp"
	"strings"

	"somaai-backend/internal/domain"
)

const (
	maxMessageLength = 2000
	maxTopicLength   = 200
)

var (
	scriptPattern       = regexp.MustCompile(`(?i)<script|javascript:|onerror=|onload=`)
	sqlInjectionPattern = regexp.MustCompile(`('|(\\')|(--)|(;)|(\*)|(%))`)
	uuidPattern         = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

// ValidateMessage trims and checks a user message, returning the cleaned
// string. Injection-looking content is rejected outright rather than
// sanitized.
func ValidateMessage(message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("%w: message must be a non-empty string", domain.ErrInvalidInput)
	}
	if len(message) > maxMessageLength {
		return "", fmt.Errorf("%w: message exceeds maximum length of %d characters", domain.ErrInvalidInput, maxMessageLength)
	}
	if scriptPattern.MatchString(message) || sqlInjectionPattern.MatchString(message) {
		return "", fmt.Errorf("%w: invalid characters detected in message", domain.ErrInvalidInput)
	}
	return message, nil
}

func ValidateTopic(topic string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", fmt.Errorf("%w: topic must be a non-empty string", domain.ErrInvalidInput)
	}
	if len(topic) > maxTopicLength {
		return "", fmt.Errorf("%w: topic exceeds maximum length of %d characters", domain.ErrInvalidInput, maxTopicLength)
	}
	return topic, nil
}

func ValidateSessionID(id string) error {
	if !uuidPattern.MatchString(id) {
		return fmt.Errorf("%w: invalid session ID format", domain.ErrInvalidInput)
	}
	return nil
}
