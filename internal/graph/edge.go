package graph

// ArrowType 箭头样式
type ArrowType string

const (
	ArrowNone   ArrowType = "none"
	ArrowNormal ArrowType = "normal"
	ArrowEmpty  ArrowType = "empty"
	ArrowODot   ArrowType = "odot"
	ArrowCrow   ArrowType = "crow"
	ArrowVee    ArrowType = "vee"
)

// Direction 边的方向属性
type Direction string

const (
	DirForward Direction = "forward"
	DirBack    Direction = "back"
	DirBoth    Direction = "both"
	DirNone    Direction = "none"
)

// EdgeAttrs 边样式
type EdgeAttrs struct {
	Label      string    `json:"label,omitempty"`
	HeadLabel  string    `json:"headlabel,omitempty"`
	TailLabel  string    `json:"taillabel,omitempty"`
	ArrowHead  ArrowType `json:"arrowhead,omitempty"`
	ArrowTail  ArrowType `json:"arrowtail,omitempty"`
	Dir        Direction `json:"dir,omitempty"`
	Style      string    `json:"style,omitempty"`
	Color      string    `json:"color,omitempty"`
	ArrowSize  float64   `json:"arrowsize,omitempty"`
	Constraint *bool     `json:"constraint,omitempty"`
	FontName   string    `json:"fontname,omitempty"`
	FontSize   float64   `json:"fontsize,omitempty"`
}

// Merge 用 o 中的非零字段覆盖 a
func (a EdgeAttrs) Merge(o EdgeAttrs) EdgeAttrs {
	if o.Label != "" {
		a.Label = o.Label
	}
	if o.HeadLabel != "" {
		a.HeadLabel = o.HeadLabel
	}
	if o.TailLabel != "" {
		a.TailLabel = o.TailLabel
	}
	if o.ArrowHead != "" {
		a.ArrowHead = o.ArrowHead
	}
	if o.ArrowTail != "" {
		a.ArrowTail = o.ArrowTail
	}
	if o.Dir != "" {
		a.Dir = o.Dir
	}
	if o.Style != "" {
		a.Style = o.Style
	}
	if o.Color != "" {
		a.Color = o.Color
	}
	if o.ArrowSize != 0 {
		a.ArrowSize = o.ArrowSize
	}
	if o.Constraint != nil {
		a.Constraint = o.Constraint
	}
	if o.FontName != "" {
		a.FontName = o.FontName
	}
	if o.FontSize != 0 {
		a.FontSize = o.FontSize
	}
	return a
}

// Edge 图的边
type Edge struct {
	From  string    `json:"from"` // 节点ID
	To    string    `json:"to"`   // 节点ID
	Attrs EdgeAttrs `json:"attrs"`
}

func (a EdgeAttrs) pairs() []attr {
	var out []attr
	out = appendString(out, "label", a.Label)
	out = appendString(out, "headlabel", a.HeadLabel)
	out = appendString(out, "taillabel", a.TailLabel)
	out = appendString(out, "arrowhead", string(a.ArrowHead))
	out = appendString(out, "arrowtail", string(a.ArrowTail))
	out = appendString(out, "dir", string(a.Dir))
	out = appendString(out, "style", a.Style)
	out = appendString(out, "color", a.Color)
	out = appendFloat(out, "arrowsize", a.ArrowSize)
	out = appendBool(out, "constraint", a.Constraint)
	out = appendString(out, "fontname", a.FontName)
	out = appendFloat(out, "fontsize", a.FontSize)
	return out
}
