package graph

import (
	"encoding/json"
)

// RankDir 布局方向
type RankDir string

const (
	RankTB RankDir = "TB"
	RankBT RankDir = "BT"
	RankLR RankDir = "LR"
	RankRL RankDir = "RL"
)

// GraphAttrs 图级属性
type GraphAttrs struct {
	Mode        string  `json:"mode,omitempty"`
	Overlap     string  `json:"overlap,omitempty"`
	Sep         string  `json:"sep,omitempty"`
	Concentrate *bool   `json:"concentrate,omitempty"`
	RankDir     RankDir `json:"rankdir,omitempty"`
	DPI         float64 `json:"dpi,omitempty"`
	Dim         int     `json:"dim,omitempty"`
	Pack        *bool   `json:"pack,omitempty"`
	Ratio       string  `json:"ratio,omitempty"`
}

func (a GraphAttrs) pairs() []attr {
	var out []attr
	out = appendString(out, "mode", a.Mode)
	out = appendString(out, "overlap", a.Overlap)
	out = appendString(out, "sep", a.Sep)
	out = appendBool(out, "concentrate", a.Concentrate)
	out = appendString(out, "rankdir", string(a.RankDir))
	out = appendFloat(out, "dpi", a.DPI)
	if a.Dim > 0 {
		out = appendFloat(out, "dim", float64(a.Dim))
	}
	out = appendBool(out, "pack", a.Pack)
	out = appendString(out, "ratio", a.Ratio)
	return out
}

// Graph 有向图：节点按插入顺序保存，边按添加顺序保存。
// 由构建器独占，构建完成后交给渲染层。
type Graph struct {
	Name  string     `json:"name"`
	Prog  string     `json:"prog"` // 布局程序，如 dot、neato
	Attrs GraphAttrs `json:"attrs"`

	nodes map[string]*Node
	order []string
	edges []*Edge
}

// New 创建新图
func New(name, prog string, attrs GraphAttrs) *Graph {
	return &Graph{
		Name:  name,
		Prog:  prog,
		Attrs: attrs,
		nodes: make(map[string]*Node),
	}
}

// AddNode 添加节点，ID 重复时返回 InputError
func (g *Graph) AddNode(node *Node) error {
	if node.ID == "" {
		return NewInputError("", "id", "node id is empty")
	}
	if _, exists := g.nodes[node.ID]; exists {
		return NewInputError(node.ID, "", "duplicate node id")
	}
	g.nodes[node.ID] = node
	g.order = append(g.order, node.ID)
	return nil
}

// AddEdge 添加边，两端必须都是本图中的节点
func (g *Graph) AddEdge(edge *Edge) error {
	if _, ok := g.nodes[edge.From]; !ok {
		return NewInputError(edge.From, "", "edge source is not a node of this graph")
	}
	if _, ok := g.nodes[edge.To]; !ok {
		return NewInputError(edge.To, "", "edge target is not a node of this graph")
	}
	g.edges = append(g.edges, edge)
	return nil
}

// Node 获取节点
func (g *Graph) Node(id string) *Node {
	return g.nodes[id]
}

// HasNode 节点是否存在
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Nodes 按插入顺序返回节点
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// Edges 按添加顺序返回边
func (g *Graph) Edges() []*Edge {
	out := make([]*Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// EdgesBetween 返回 from -> to 的所有边
func (g *Graph) EdgesBetween(from, to string) []*Edge {
	var out []*Edge
	for _, e := range g.edges {
		if e.From == from && e.To == to {
			out = append(out, e)
		}
	}
	return out
}

// ToJSON 导出为JSON
func (g *Graph) ToJSON() ([]byte, error) {
	return json.MarshalIndent(struct {
		*Graph
		Nodes []*Node `json:"nodes"`
		Edges []*Edge `json:"edges"`
	}{g, g.Nodes(), g.Edges()}, "", "  ")
}
