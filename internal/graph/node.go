package graph

// Shape 节点形状
type Shape string

const (
	ShapePlaintext Shape = "plaintext"
	ShapeBox       Shape = "box"
	ShapeRecord    Shape = "record"
)

// Label 节点/边的标签；HTML 为 true 时按 Graphviz HTML-like 标签输出
type Label struct {
	Text string `json:"text"`
	HTML bool   `json:"html,omitempty"`
}

// HTMLLabel 创建 HTML 标签
func HTMLLabel(s string) Label {
	return Label{Text: s, HTML: true}
}

// TextLabel 创建普通文本标签
func TextLabel(s string) Label {
	return Label{Text: s}
}

// NodeAttrs 节点样式
type NodeAttrs struct {
	Shape    Shape   `json:"shape,omitempty"`
	Label    Label   `json:"label"`
	FontName string  `json:"fontname,omitempty"`
	FontSize float64 `json:"fontsize,omitempty"`
	Color    string  `json:"color,omitempty"`
}

// Node 图节点
type Node struct {
	ID    string    `json:"id"`
	Attrs NodeAttrs `json:"attrs"`
}

func (a NodeAttrs) pairs() []attr {
	var out []attr
	out = appendString(out, "shape", string(a.Shape))
	if a.Label.Text != "" {
		out = append(out, attr{key: "label", value: a.Label.Text, html: a.Label.HTML})
	}
	out = appendString(out, "fontname", a.FontName)
	out = appendFloat(out, "fontsize", a.FontSize)
	out = appendString(out, "color", a.Color)
	return out
}
