package mqtt

import (
	"fmt"
	"strings"
)

// Wildcard characters defined by MQTT 3.1.1 section 4.7.
const (
	wildcardSingle = "+"
	wildcardMulti  = "#"
	topicSeparator = "/"
)

// maxTopicLength is the MQTT limit for a UTF-8 encoded topic.
const maxTopicLength = 65535

// ValidatePublishTopic checks a topic name used for publishing.
// Publish topics must be non-empty and must not contain wildcards.
func ValidatePublishTopic(topic string) error {
	if err := validateCommon(topic); err != nil {
		return err
	}
	if strings.ContainsAny(topic, wildcardSingle+wildcardMulti) {
		return fmt.Errorf("%w: publish topic %q contains a wildcard", ErrInvalidTopic, topic)
	}
	return nil
}

// ValidateSubscribeTopic checks a topic filter used for subscribing.
//
// Wildcards are allowed where MQTT allows them: "+" must occupy a whole
// level and "#" must be the whole last level.
func ValidateSubscribeTopic(filter string) error {
	if err := validateCommon(filter); err != nil {
		return err
	}

	levels := strings.Split(filter, topicSeparator)
	for i, level := range levels {
		if strings.Contains(level, wildcardMulti) && (level != wildcardMulti || i != len(levels)-1) {
			return fmt.Errorf("%w: %q must be the whole last level in %q", ErrInvalidTopic, wildcardMulti, filter)
		}
		if strings.Contains(level, wildcardSingle) && level != wildcardSingle {
			return fmt.Errorf("%w: %q must occupy a whole level in %q", ErrInvalidTopic, wildcardSingle, filter)
		}
	}
	return nil
}

func validateCommon(topic string) error {
	if topic == "" {
		return fmt.Errorf("%w: topic cannot be empty", ErrInvalidTopic)
	}
	if len(topic) > maxTopicLength {
		return fmt.Errorf("%w: topic longer than %d bytes", ErrInvalidTopic, maxTopicLength)
	}
	if strings.ContainsRune(topic, 0) {
		return fmt.Errorf("%w: topic contains a null character", ErrInvalidTopic)
	}
	return nil
}
