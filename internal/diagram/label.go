package diagram

import (
	"html"
	"strconv"
	"strings"
)

// formatName 按 NameFormat 包装名称；f 为 nil 时原样输出
func formatName(name string, f *NameFormat) string {
	escaped := html.EscapeString(name)
	if f == nil {
		return escaped
	}

	var sb strings.Builder
	sb.WriteString("<FONT")
	if f.Color != "" {
		sb.WriteString(` COLOR="` + f.Color + `"`)
	}
	if f.FontSize > 0 {
		sb.WriteString(` POINT-SIZE="` + strconv.FormatFloat(f.FontSize, 'f', -1, 64) + `"`)
	}
	sb.WriteString(">")
	if f.Bold {
		sb.WriteString("<B>")
	}
	if f.Italic {
		sb.WriteString("<I>")
	}
	sb.WriteString(escaped)
	if f.Italic {
		sb.WriteString("</I>")
	}
	if f.Bold {
		sb.WriteString("</B>")
	}
	sb.WriteString("</FONT>")
	return sb.String()
}

// htmlTable HTML-like 标签构造器
type htmlTable struct {
	sb strings.Builder
}

func newHTMLTable(attrs string) *htmlTable {
	t := &htmlTable{}
	t.sb.WriteString("<TABLE " + attrs + ">")
	return t
}

// row 追加一行；content 必须已经转义
func (t *htmlTable) row(tdAttrs, content string) {
	t.sb.WriteString("<TR><TD")
	if tdAttrs != "" {
		t.sb.WriteString(" " + tdAttrs)
	}
	t.sb.WriteString(">" + content + "</TD></TR>")
}

// separator 分隔线
func (t *htmlTable) separator() {
	t.row(`BORDER="1" CELLPADDING="0"`, "")
}

func (t *htmlTable) String() string {
	return t.sb.String() + "</TABLE>"
}

// leftLines 用左对齐换行连接多行
func leftLines(lines []string) string {
	return strings.Join(lines, `<BR ALIGN="LEFT"/>`)
}
