package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

type KindTag string

const (
	KindHTTP KindTag = "HTTP"
	KindTCP  KindTag = "TCP"
)

type HTTPTarget struct {
	URL        string            `json:"url"`
	Method     string            `json:"method,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       *string           `json:"body,omitempty"`
	Timeout    int               `json:"timeout,omitempty"`
	MaxRetries int               `json:"max_retries,omitempty"`
}

type TCPTarget struct {
	Host       string `json:"host"`
	Port       int    `json:"port"`
	Timeout    int    `json:"timeout,omitempty"`
	MaxRetries int    `json:"max_retries,omitempty"`
}

// ServiceKind is a tagged union: exactly one of HTTP or TCP is set and it
// matches Tag. On the wire it is the externally tagged form
// {"HTTP": {...}} or {"TCP": {...}}; a bare "HTTP"/"TCP" string is accepted too.
type ServiceKind struct {
	Tag  KindTag
	HTTP *HTTPTarget
	TCP  *TCPTarget
}

var ErrUnknownKind = errors.New("unknown service kind")

func HTTPKind(t HTTPTarget) ServiceKind { return ServiceKind{Tag: KindHTTP, HTTP: &t} }

func TCPKind(t TCPTarget) ServiceKind { return ServiceKind{Tag: KindTCP, TCP: &t} }

func (k ServiceKind) String() string {
	return string(k.Tag)
}

func (k ServiceKind) MarshalJSON() ([]byte, error) {
	switch k.Tag {
	case KindHTTP:
		target := HTTPTarget{}
		if k.HTTP != nil {
			target = *k.HTTP
		}
		return json.Marshal(map[KindTag]HTTPTarget{KindHTTP: target})
	case KindTCP:
		target := TCPTarget{}
		if k.TCP != nil {
			target = *k.TCP
		}
		return json.Marshal(map[KindTag]TCPTarget{KindTCP: target})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, k.Tag)
	}
}

func (k *ServiceKind) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err == nil {
		switch KindTag(tag) {
		case KindHTTP:
			*k = HTTPKind(HTTPTarget{})
		case KindTCP:
			*k = TCPKind(TCPTarget{})
		default:
			return fmt.Errorf("%w: %q", ErrUnknownKind, tag)
		}
		return nil
	}

	var variants map[KindTag]json.RawMessage
	if err := json.Unmarshal(data, &variants); err != nil {
		return fmt.Errorf("invalid service kind: %w", err)
	}
	if len(variants) != 1 {
		return fmt.Errorf("%w: expected exactly one variant, got %d", ErrUnknownKind, len(variants))
	}

	for tag, raw := range variants {
		switch tag {
		case KindHTTP:
			var t HTTPTarget
			if err := decodeVariant(raw, &t); err != nil {
				return fmt.Errorf("HTTP kind: %w", err)
			}
			*k = HTTPKind(t)
		case KindTCP:
			var t TCPTarget
			if err := decodeVariant(raw, &t); err != nil {
				return fmt.Errorf("TCP kind: %w", err)
			}
			*k = TCPKind(t)
		default:
			return fmt.Errorf("%w: %q", ErrUnknownKind, tag)
		}
	}
	return nil
}

func decodeVariant(raw json.RawMessage, out any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, out)
}
