// Package config загружает CSP-политики из YAML-файла.
//
// Формат:
//
//	enforce:
//	  default-src: [SELF]
//	  script-src: [SELF, NONCE, "https://cdn.jsdelivr.net"]
//	  upgrade-insecure-requests: []
//	report_only:
//	  img-src: [SELF, "data:"]
//
// Порядок директив сохраняется. Незакавыченные имена (SELF, NONE,
// UNSAFE_INLINE, NONCE, ...) — ссылки на ключевые слова, всё остальное
// и любые строки в кавычках — литералы.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"cspguard/internal/csp"
)

// LoadPolicyFile читает и разбирает файл политики.
func LoadPolicyFile(path string) (csp.Policies, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return csp.Policies{}, fmt.Errorf("config: read policy file: %w", err)
	}
	ps, err := ParsePolicies(data)
	if err != nil {
		return csp.Policies{}, fmt.Errorf("%s: %w", path, err)
	}
	return ps, nil
}

// ParsePolicies разбирает YAML-документ политики.
func ParsePolicies(data []byte) (csp.Policies, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return csp.Policies{}, fmt.Errorf("config: parse policy: %w", err)
	}
	var ps csp.Policies
	// пустой файл — ни одной политики
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return ps, nil
	}
	root := doc.Content[0]
	if isNull(root) {
		return ps, nil
	}
	if root.Kind != yaml.MappingNode {
		return ps, nodeErr(root, "top level must be a mapping")
	}

	seen := map[csp.Mode]bool{}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		var mode csp.Mode
		switch key.Value {
		case "enforce":
			mode = csp.Enforce
		case "report_only", "report-only":
			mode = csp.ReportOnly
		default:
			return ps, nodeErr(key, "unknown policy %q (want enforce or report_only)", key.Value)
		}
		if seen[mode] {
			return ps, nodeErr(key, "%s policy defined twice", mode)
		}
		seen[mode] = true

		p, err := parsePolicy(mode, val)
		if err != nil {
			return ps, err
		}
		if mode == csp.ReportOnly {
			ps.ReportOnly = p
		} else {
			ps.Enforce = p
		}
	}
	return ps, nil
}

func parsePolicy(mode csp.Mode, n *yaml.Node) (*csp.Policy, error) {
	// "enforce:" без значения — политика не задана
	if isNull(n) {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, nodeErr(n, "%s policy must be a mapping of directives", mode)
	}

	directives := make([]csp.PolicyDirective, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		name, val := n.Content[i], n.Content[i+1]
		if name.Kind != yaml.ScalarNode {
			return nil, nodeErr(name, "directive name must be a string")
		}
		values, err := parseSources(val)
		if err != nil {
			return nil, err
		}
		directives = append(directives, csp.Directive(name.Value, values...))
	}
	p, err := csp.NewPolicy(mode, directives...)
	if err != nil {
		return nil, nodeErr(n, "%w", err)
	}
	return p, nil
}

func parseSources(n *yaml.Node) ([]csp.Source, error) {
	switch {
	case isNull(n):
		return nil, nil
	case n.Kind == yaml.ScalarNode:
		return []csp.Source{parseScalar(n)}, nil
	case n.Kind == yaml.SequenceNode:
		out := make([]csp.Source, 0, len(n.Content))
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, nodeErr(item, "source must be a string")
			}
			out = append(out, parseScalar(item))
		}
		return out, nil
	}
	return nil, nodeErr(n, "sources must be a list")
}

func parseScalar(n *yaml.Node) csp.Source {
	if n.Style&(yaml.SingleQuotedStyle|yaml.DoubleQuotedStyle) != 0 {
		return csp.Literal(n.Value)
	}
	return csp.ParseSource(n.Value)
}

func isNull(n *yaml.Node) bool {
	return n == nil || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}

func nodeErr(n *yaml.Node, format string, args ...any) error {
	return fmt.Errorf("config: line %d: "+format, append([]any{n.Line}, args...)...)
}
