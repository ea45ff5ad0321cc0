package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/noml-lang/noml-go/value"
)

// flatten renders v's resolved tree as dotted "path = text" lines in
// table declaration order, the same order spec invariant 3 requires
// Tables to preserve.
func flatten(v *value.Value, prefix string, out *strings.Builder) {
	switch v.Kind() {
	case value.Table:
		tbl, _ := v.Table()
		for _, k := range tbl.Keys() {
			child, _ := tbl.Get(k)
			path := k
			if prefix != "" {
				path = prefix + "." + k
			}
			flatten(child, path, out)
		}
	case value.Array:
		arr, _ := v.Array()
		for i, el := range arr {
			flatten(el, fmt.Sprintf("%s[%d]", prefix, i), out)
		}
	default:
		text, ok := v.Text()
		if !ok {
			text = v.String()
		}
		out.WriteString(prefix)
		out.WriteString(" = ")
		out.WriteString(text)
		out.WriteByte('\n')
	}
}

// yamlNode builds a yaml.v3 node tree for v, using explicit mapping
// nodes so a Table's key order survives into the rendered document
// instead of being alphabetized the way a plain Go map would be.
func yamlNode(v *value.Value) *yaml.Node {
	switch v.Kind() {
	case value.Null:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case value.Bool:
		b, _ := v.Bool()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(b)}
	case value.Integer:
		i, _ := v.Int()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(i, 10)}
	case value.Float:
		f, _ := v.Float()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(f, 'g', -1, 64)}
	case value.String:
		s, _ := v.Str()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
	case value.DateTime:
		text, _ := v.Text()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!timestamp", Value: text}
	case value.Native:
		n, _ := v.Native()
		return yamlNode(n.Payload)
	case value.Array:
		arr, _ := v.Array()
		node := &yaml.Node{Kind: yaml.SequenceNode}
		for _, el := range arr {
			node.Content = append(node.Content, yamlNode(el))
		}
		return node
	case value.Table:
		tbl, _ := v.Table()
		node := &yaml.Node{Kind: yaml.MappingNode}
		for _, k := range tbl.Keys() {
			child, _ := tbl.Get(k)
			node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, yamlNode(child))
		}
		return node
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.String()}
	}
}
