package metamodel

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// ValidateNode checks a node's declared type and property map against the
// registry. props is nil when the node carries no properties.
func (r *Registry) ValidateNode(id, typeID string, props map[string]any) error {
	if typeID == "" {
		return fmt.Errorf("node %q missing type: %w", id, ErrValidation)
	}
	descriptor, ok := r.types[typeID]
	if !ok {
		return fmt.Errorf("node %q references unknown type %q: %w", id, typeID, ErrValidation)
	}

	if props != nil {
		context := func(name, reason string) string {
			return fmt.Sprintf("node %q attribute %q: %s", id, name, reason)
		}
		return validateAttributes(descriptor.Attributes, props, r.document.Validation, context)
	}
	if anyRequired(descriptor.Attributes) {
		return fmt.Errorf("node %q missing required attributes for type %q: %w", id, typeID, ErrValidation)
	}
	return nil
}

// ValidateEdge checks an edge's declared relationship type, endpoint types,
// self-link policy, and property map against the registry.
func (r *Registry) ValidateEdge(from, to, relType, fromType, toType string, props map[string]any) error {
	if relType == "" {
		return fmt.Errorf("edge %q->%q missing relationship type: %w", from, to, ErrValidation)
	}
	descriptor, ok := r.relationships[relType]
	if !ok {
		return fmt.Errorf("edge uses unknown relationship %q: %w", relType, ErrValidation)
	}
	if !descriptor.From[fromType] {
		return fmt.Errorf("edge type %q cannot originate from %q: %w", relType, fromType, ErrValidation)
	}
	if !descriptor.To[toType] {
		return fmt.Errorf("edge type %q cannot target %q: %w", relType, toType, ErrValidation)
	}
	if !descriptor.AllowSelf && from == to {
		return fmt.Errorf("relationship %q forbids self-links: %w", relType, ErrValidation)
	}

	if props != nil {
		context := func(name, reason string) string {
			return fmt.Sprintf("edge %q->%q attribute %q: %s", from, to, name, reason)
		}
		return validateAttributes(descriptor.Attributes, props, r.document.Validation, context)
	}
	if anyRequired(descriptor.Attributes) {
		return fmt.Errorf("edge type %q missing required attributes: %w", relType, ErrValidation)
	}
	return nil
}

func anyRequired(attrs map[string]AttributeDoc) bool {
	for _, a := range attrs {
		if a.Required {
			return true
		}
	}
	return false
}

func validateAttributes(expected map[string]AttributeDoc, provided map[string]any, rules ValidationDoc, context func(name, reason string) string) error {
	for _, attr := range expected {
		value, present := provided[attr.Name]
		if !present {
			if attr.Required {
				return fmt.Errorf("%s: %w", context(attr.Name, "is required"), ErrValidation)
			}
			continue
		}
		if value == nil {
			return fmt.Errorf("%s: %w", context(attr.Name, "cannot be null"), ErrValidation)
		}
		if err := attributeValueOK(attr, value, rules); err != nil {
			return fmt.Errorf("%s: %w", context(attr.Name, err.Error()), ErrValidation)
		}
	}
	return nil
}

func attributeValueOK(attr AttributeDoc, value any, rules ValidationDoc) error {
	switch attr.Kind {
	case KindString, KindText:
		return validateText(attr, value, rules)
	case KindNumber:
		return validateNumber(value)
	case KindBoolean:
		return validateBoolean(value)
	case KindEnum:
		return validateEnum(attr, value, rules)
	case KindDatetime:
		return validateDatetime(value)
	case KindBlob:
		return validateBlob(value)
	default:
		return fmt.Errorf("unknown attribute kind %q", attr.Kind)
	}
}

func validateText(attr AttributeDoc, value any, rules ValidationDoc) error {
	text, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string")
	}
	limit := rules.MaxStringLength
	if attr.Kind == KindText {
		limit = rules.MaxTextLength
	}
	if limit > 0 {
		if n := utf8.RuneCountInString(text); n > limit {
			return fmt.Errorf("exceeds max length %d (%d chars)", limit, n)
		}
	}
	return nil
}

func validateNumber(value any) error {
	switch value.(type) {
	case float64, float32, int, int32, int64:
		return nil
	default:
		return fmt.Errorf("expected number")
	}
}

func validateBoolean(value any) error {
	if _, ok := value.(bool); ok {
		return nil
	}
	return fmt.Errorf("expected boolean")
}

func validateEnum(attr AttributeDoc, value any, rules ValidationDoc) error {
	text, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string value for enum")
	}
	for _, variant := range attr.Enum {
		if rules.EnumCaseSensitive {
			if variant == text {
				return nil
			}
		} else if equalFoldASCII(variant, text) {
			return nil
		}
	}
	return fmt.Errorf("value %q not in %v", text, attr.Enum)
}

func validateDatetime(value any) error {
	text, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected ISO-8601 string")
	}
	if _, err := time.Parse(time.RFC3339, text); err != nil {
		return fmt.Errorf("invalid RFC3339 timestamp")
	}
	return nil
}

func validateBlob(value any) error {
	switch value.(type) {
	case string, map[string]any, []any:
		return nil
	default:
		return fmt.Errorf("expected string/structured blob")
	}
}

func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
