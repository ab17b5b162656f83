package bulletin

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Parser turns raw YAML text into a generic value tree made of
// map[string]any, []any, string and nil.
type Parser interface {
	Parse(text []byte, source string) (any, error)
}

// maxNodes bounds the size of the converted tree, so a document that
// expands aliases exponentially is rejected instead of exhausting memory.
const maxNodes = 100_000

// FailsafeParser is the restricted YAML reader used for untrusted data.
// Every scalar stays a string: no numbers, booleans, timestamps or custom
// types are ever constructed from the input.
type FailsafeParser struct{}

// Parse decodes a single YAML document. Empty input yields nil.
func (FailsafeParser) Parse(text []byte, source string) (any, error) {
	dec := yaml.NewDecoder(bytes.NewReader(text))

	var doc yaml.Node
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, &YamlParseError{Source: source, Err: err}
	}

	var extra yaml.Node
	if err := dec.Decode(&extra); err == nil {
		return nil, &YamlParseError{Source: source, Line: extra.Line, Err: errors.New("expected a single document in the stream, but found more")}
	} else if !errors.Is(err, io.EOF) {
		return nil, &YamlParseError{Source: source, Err: err}
	}

	c := converter{source: source, active: map[*yaml.Node]bool{}}
	return c.convert(&doc)
}

type converter struct {
	source string
	nodes  int
	active map[*yaml.Node]bool
}

func (c *converter) fail(n *yaml.Node, format string, args ...any) error {
	return &YamlParseError{Source: c.source, Line: n.Line, Err: fmt.Errorf(format, args...)}
}

func (c *converter) convert(n *yaml.Node) (any, error) {
	c.nodes++
	if c.nodes > maxNodes {
		return nil, c.fail(n, "document too large (more than %d nodes after alias expansion)", maxNodes)
	}

	if n.Style&yaml.TaggedStyle != 0 {
		switch n.Tag {
		case "!!str", "!!seq", "!!map", "!!null":
		default:
			return nil, c.fail(n, "unsupported tag %s", n.Tag)
		}
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return c.convert(n.Content[0])

	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, c.fail(n, "unknown anchor %q", n.Value)
		}
		if c.active[n.Alias] {
			return nil, c.fail(n, "anchor %q references itself", n.Value)
		}
		c.active[n.Alias] = true
		v, err := c.convert(n.Alias)
		delete(c.active, n.Alias)
		return v, err

	case yaml.ScalarNode:
		if n.Tag == "!!null" && (n.Style == 0 || n.Style&yaml.TaggedStyle != 0) {
			return nil, nil
		}
		return n.Value, nil

	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, child := range n.Content {
			v, err := c.convert(child)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil

	case yaml.MappingNode:
		out := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode, valueNode := n.Content[i], n.Content[i+1]
			if keyNode.Kind == yaml.AliasNode && keyNode.Alias != nil {
				keyNode = keyNode.Alias
			}
			if keyNode.Kind != yaml.ScalarNode {
				return nil, c.fail(keyNode, "mapping keys must be scalars")
			}
			key := keyNode.Value
			if _, dup := out[key]; dup {
				return nil, c.fail(keyNode, "duplicated mapping key %q", key)
			}
			v, err := c.convert(valueNode)
			if err != nil {
				return nil, err
			}
			out[key] = v
		}
		return out, nil
	}

	return nil, c.fail(n, "unexpected node kind %d", n.Kind)
}
