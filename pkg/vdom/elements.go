package vdom

// voidElements are elements that cannot have children.
var voidElements = map[string]bool{
	"area":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// SVGNamespace is the namespace of elements created with Svg.
const SVGNamespace = "http://www.w3.org/2000/svg"

// IsVoidElement returns true if the tag is a void element.
func IsVoidElement(tag string) bool {
	return voidElements[tag]
}

// createElement creates a new VNode with the given tag and arguments.
// Arguments can be: nil, Attr, []Attr, *VNode, []*VNode, string, EventHandler.
func createElement(tag string, args []any) *VNode {
	node := &VNode{
		Kind:     KindElement,
		Tag:      tag,
		Props:    make(Props),
		Children: make([]*VNode, 0),
	}

	setAttr := func(a Attr) {
		if a.Key == "" {
			return
		}
		if a.Key == "key" {
			if s, ok := a.Value.(string); ok {
				node.Key = s
			}
			return
		}
		node.Props[a.Key] = a.Value
	}

	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			// Ignore nil (allows conditional attributes)
			continue

		case Attr:
			setAttr(v)

		case []Attr:
			for _, a := range v {
				setAttr(a)
			}

		case *VNode:
			if v != nil {
				node.Children = append(node.Children, v)
			}

		case []*VNode:
			for _, child := range v {
				if child != nil {
					node.Children = append(node.Children, child)
				}
			}

		case string:
			// Shorthand for text node
			node.Children = append(node.Children, Text(v))

		case EventHandler:
			node.Props[v.Event] = v.Handler
		}
	}

	return node
}

// Sectioning and text

func Section(args ...any) *VNode { return createElement("section", args) }
func Header(args ...any) *VNode  { return createElement("header", args) }
func Footer(args ...any) *VNode  { return createElement("footer", args) }
func Main(args ...any) *VNode    { return createElement("main", args) }
func Nav(args ...any) *VNode     { return createElement("nav", args) }
func H1(args ...any) *VNode      { return createElement("h1", args) }
func H2(args ...any) *VNode      { return createElement("h2", args) }
func Div(args ...any) *VNode     { return createElement("div", args) }
func P(args ...any) *VNode       { return createElement("p", args) }
func Span(args ...any) *VNode    { return createElement("span", args) }
func Ul(args ...any) *VNode      { return createElement("ul", args) }
func Li(args ...any) *VNode      { return createElement("li", args) }
func A(args ...any) *VNode       { return createElement("a", args) }
func Br(args ...any) *VNode      { return createElement("br", args) }
func Hr(args ...any) *VNode      { return createElement("hr", args) }

// Forms

func Form(args ...any) *VNode     { return createElement("form", args) }
func Input(args ...any) *VNode    { return createElement("input", args) }
func Textarea(args ...any) *VNode { return createElement("textarea", args) }
func Select(args ...any) *VNode   { return createElement("select", args) }
func Option(args ...any) *VNode   { return createElement("option", args) }
func Button(args ...any) *VNode   { return createElement("button", args) }
func Label(args ...any) *VNode    { return createElement("label", args) }

// Media and composition

func Img(args ...any) *VNode      { return createElement("img", args) }
func Template(args ...any) *VNode { return createElement("template", args) }
func Slot(args ...any) *VNode     { return createElement("slot", args) }

// Svg creates an <svg> element in the SVG namespace.
func Svg(args ...any) *VNode {
	n := createElement("svg", args)
	n.Namespace = SVGNamespace
	return n
}

// CustomElement creates an element with an arbitrary tag.
func CustomElement(tag string, args ...any) *VNode {
	return createElement(tag, args)
}
