package browser

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const locatorScheme = "gemstone"

var ErrNoLocator = errors.New("node has no content locator")

// Locator addresses the content of a leaf node:
//
//	gemstone://<session>/<kind>/<dict>/<class>[/<side>/<category>/<selector>]?dict=<index>&env=<n>
//
// Globals use the class segment for the global name.
func (n Node) Locator() (string, error) {
	var segments []string
	switch n.Kind {
	case KindDefinition, KindComment:
		segments = []string{n.DictName, n.ClassName}
	case KindMethod:
		segments = []string{n.DictName, n.ClassName, sideName(n.IsMeta), n.Category, n.Selector}
	case KindGlobal:
		segments = []string{n.DictName, n.GlobalName}
	default:
		return "", ErrNoLocator
	}
	var b strings.Builder
	b.WriteString(locatorScheme)
	b.WriteString("://")
	b.WriteString(strconv.Itoa(n.SessionID))
	b.WriteString("/")
	b.WriteString(n.Kind.String())
	for _, segment := range segments {
		b.WriteString("/")
		b.WriteString(url.PathEscape(segment))
	}
	query := url.Values{}
	query.Set("dict", strconv.Itoa(n.DictIndex))
	query.Set("env", strconv.Itoa(n.Environment))
	b.WriteString("?")
	b.WriteString(query.Encode())
	return b.String(), nil
}

// ParseLocator rebuilds the leaf node a locator was produced from.
func ParseLocator(raw string) (Node, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Node{}, fmt.Errorf("invalid locator: %w", err)
	}
	if u.Scheme != locatorScheme {
		return Node{}, fmt.Errorf("invalid locator: scheme %q", u.Scheme)
	}
	sessionID, err := strconv.Atoi(u.Host)
	if err != nil {
		return Node{}, fmt.Errorf("invalid locator: session %q", u.Host)
	}
	segments, err := pathSegments(u.EscapedPath())
	if err != nil {
		return Node{}, fmt.Errorf("invalid locator: %w", err)
	}
	if len(segments) == 0 {
		return Node{}, errors.New("invalid locator: missing kind")
	}
	kind, ok := parseKind(segments[0])
	if !ok {
		return Node{}, fmt.Errorf("invalid locator: unknown kind %q", segments[0])
	}
	node := Node{Kind: kind, SessionID: sessionID}
	if node.DictIndex, err = intParam(u.Query(), "dict"); err != nil {
		return Node{}, err
	}
	if node.Environment, err = intParam(u.Query(), "env"); err != nil {
		return Node{}, err
	}

	rest := segments[1:]
	switch kind {
	case KindDefinition, KindComment:
		if len(rest) != 2 {
			return Node{}, fmt.Errorf("invalid locator: %s expects 2 segments", kind)
		}
		node.DictName, node.ClassName = rest[0], rest[1]
	case KindGlobal:
		if len(rest) != 2 {
			return Node{}, fmt.Errorf("invalid locator: %s expects 2 segments", kind)
		}
		node.DictName, node.GlobalName = rest[0], rest[1]
	case KindMethod:
		if len(rest) != 5 {
			return Node{}, fmt.Errorf("invalid locator: %s expects 5 segments", kind)
		}
		node.DictName, node.ClassName = rest[0], rest[1]
		switch rest[2] {
		case "instance":
		case "class":
			node.IsMeta = true
		default:
			return Node{}, fmt.Errorf("invalid locator: side %q", rest[2])
		}
		node.Category, node.Selector = rest[3], rest[4]
	default:
		return Node{}, fmt.Errorf("invalid locator: %s has no content", kind)
	}
	if node.DictIndex < 1 {
		return Node{}, errors.New("invalid locator: dict index must be positive")
	}
	return node, nil
}

func pathSegments(escaped string) ([]string, error) {
	escaped = strings.TrimPrefix(escaped, "/")
	if escaped == "" {
		return nil, nil
	}
	parts := strings.Split(escaped, "/")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		value, err := url.PathUnescape(part)
		if err != nil {
			return nil, err
		}
		out = append(out, value)
	}
	return out, nil
}

func intParam(values url.Values, key string) (int, error) {
	raw := values.Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid locator: %s=%q", key, raw)
	}
	return n, nil
}
