package graph

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"
)

type attr struct {
	key   string
	value string
	html  bool
}

func appendString(out []attr, key, value string) []attr {
	if value == "" {
		return out
	}
	return append(out, attr{key: key, value: value})
}

func appendFloat(out []attr, key string, value float64) []attr {
	if value == 0 {
		return out
	}
	return append(out, attr{key: key, value: strconv.FormatFloat(value, 'f', -1, 64)})
}

func appendBool(out []attr, key string, value *bool) []attr {
	if value == nil {
		return out
	}
	return append(out, attr{key: key, value: strconv.FormatBool(*value)})
}

// Bool 返回 b 的指针，用于可选布尔属性
func Bool(b bool) *bool {
	return &b
}

var quoteReplacer = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

// Quote 把标识符放进双引号，防止与 DOT 保留字（node、edge、graph 等）冲突
func Quote(id string) string {
	return `"` + quoteReplacer.Replace(id) + `"`
}

func writeAttrs(w *bufio.Writer, attrs []attr) {
	if len(attrs) == 0 {
		return
	}
	w.WriteString(" [")
	for i, a := range attrs {
		if i > 0 {
			w.WriteString(", ")
		}
		w.WriteString(a.key)
		w.WriteByte('=')
		if a.html {
			w.WriteByte('<')
			w.WriteString(a.value)
			w.WriteByte('>')
		} else {
			w.WriteString(Quote(a.value))
		}
	}
	w.WriteByte(']')
}

// WriteDOT 输出 Graphviz DOT 文本，相同的图总是得到相同的输出
func (g *Graph) WriteDOT(out io.Writer) error {
	w := bufio.NewWriter(out)
	name := g.Name
	if name == "" {
		name = "G"
	}
	w.WriteString("digraph ")
	w.WriteString(Quote(name))
	w.WriteString(" {\n")

	if ga := g.Attrs.pairs(); len(ga) > 0 {
		w.WriteString("\tgraph")
		writeAttrs(w, ga)
		w.WriteString(";\n")
	}
	for _, id := range g.order {
		w.WriteByte('\t')
		w.WriteString(Quote(id))
		writeAttrs(w, g.nodes[id].Attrs.pairs())
		w.WriteString(";\n")
	}
	for _, e := range g.edges {
		w.WriteByte('\t')
		w.WriteString(Quote(e.From))
		w.WriteString(" -> ")
		w.WriteString(Quote(e.To))
		writeAttrs(w, e.Attrs.pairs())
		w.WriteString(";\n")
	}
	w.WriteString("}\n")
	return w.Flush()
}

// DOT 返回 DOT 文本
func (g *Graph) DOT() string {
	var buf bytes.Buffer
	g.WriteDOT(&buf)
	return buf.String()
}
