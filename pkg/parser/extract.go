package parser

import (
	"strings"

	"github.com/panbanda/hoist/pkg/models"
	sitter "github.com/smacker/go-tree-sitter"
)

// shape describes how one language spells class and method declarations.
type shape struct {
	classTypes  []string
	methodTypes []string
	returnType  func(method *sitter.Node, src []byte) string
	parameters  func(list *sitter.Node, src []byte) []models.Parameter
	body        func(method *sitter.Node) *sitter.Node
	modifiers   func(method *sitter.Node, src []byte) []string
}

var shapes = map[Language]*shape{
	LangCSharp: {
		classTypes:  []string{"class_declaration", "struct_declaration", "record_declaration"},
		methodTypes: []string{"method_declaration", "constructor_declaration"},
		returnType:  fieldText("returns", "type"),
		parameters:  typedParameters,
		body:        fieldOrChild("body", "arrow_expression_clause"),
		modifiers:   childTokens("modifier"),
	},
	LangJava: {
		classTypes:  []string{"class_declaration", "enum_declaration", "record_declaration"},
		methodTypes: []string{"method_declaration", "constructor_declaration"},
		returnType:  fieldText("type"),
		parameters:  typedParameters,
		body:        fieldOrChild("body"),
		modifiers:   javaModifiers,
	},
	LangPython: {
		classTypes:  []string{"class_definition"},
		methodTypes: []string{"function_definition"},
		returnType:  fieldText("return_type"),
		parameters:  pythonParameters,
		body:        fieldOrChild("body"),
		modifiers:   func(*sitter.Node, []byte) []string { return nil },
	},
	LangTypeScript: tsShape,
	LangTSX:        tsShape,
	LangJavaScript: tsShape,
}

var tsShape = &shape{
	classTypes:  []string{"class_declaration", "abstract_class_declaration", "class"},
	methodTypes: []string{"method_definition"},
	returnType:  annotationText("return_type"),
	parameters:  tsParameters,
	body:        fieldOrChild("body"),
	modifiers:   childTokens("accessibility_modifier", "static", "async", "override", "readonly"),
}

// ExtractClasses returns every named class in the parse tree with its
// methods in declaration order. Nested classes are returned as separate
// units after their enclosing class.
func ExtractClasses(result *ParseResult) []*models.ClassUnit {
	sh, ok := shapes[result.Language]
	if !ok || result.Tree == nil {
		return nil
	}

	var classes []*models.ClassUnit
	Walk(result.Tree.RootNode(), func(node *sitter.Node, nodeType string) bool {
		if !contains(sh.classTypes, nodeType) {
			return true
		}
		name := node.ChildByFieldName("name")
		if name == nil {
			return true
		}
		unit := &models.ClassUnit{
			Name:      GetNodeText(name, result.Source),
			Path:      result.Path,
			Language:  string(result.Language),
			StartLine: node.StartPoint().Row + 1,
			EndLine:   node.EndPoint().Row + 1,
		}
		for _, m := range members(node.ChildByFieldName("body"), sh) {
			unit.Methods = append(unit.Methods, extractMethod(m, sh, result.Source))
		}
		classes = append(classes, unit.Link())
		return true
	})
	return classes
}

// members returns the method nodes declared directly in a class body.
func members(body *sitter.Node, sh *shape) []*sitter.Node {
	var out []*sitter.Node
	for _, child := range NamedChildren(body) {
		switch t := child.Type(); {
		case contains(sh.methodTypes, t):
			out = append(out, child)
		case t == "decorated_definition":
			if def := child.ChildByFieldName("definition"); def != nil && contains(sh.methodTypes, def.Type()) {
				out = append(out, def)
			}
		case t == "enum_body_declarations":
			out = append(out, members(child, sh)...)
		}
	}
	return out
}

func extractMethod(node *sitter.Node, sh *shape, src []byte) *models.MethodSignature {
	m := &models.MethodSignature{
		Name:      GetNodeText(node.ChildByFieldName("name"), src),
		StartLine: node.StartPoint().Row + 1,
		EndLine:   node.EndPoint().Row + 1,
	}
	if node.Type() != "constructor_declaration" {
		m.ReturnType = sh.returnType(node, src)
	}
	m.Parameters = sh.parameters(node.ChildByFieldName("parameters"), src)
	m.Body = GetNodeText(sh.body(node), src)
	m.Modifiers = sh.modifiers(node, src)
	return m
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// fieldText returns the text of the first present field.
func fieldText(fields ...string) func(*sitter.Node, []byte) string {
	return func(n *sitter.Node, src []byte) string {
		for _, f := range fields {
			if c := n.ChildByFieldName(f); c != nil {
				return strings.TrimSpace(GetNodeText(c, src))
			}
		}
		return ""
	}
}

// annotationText returns a type annotation without its leading colon.
func annotationText(field string) func(*sitter.Node, []byte) string {
	return func(n *sitter.Node, src []byte) string {
		return stripAnnotation(GetNodeText(n.ChildByFieldName(field), src))
	}
}

func stripAnnotation(s string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), ":"))
}

// fieldOrChild returns the field node, falling back to the first named
// child of one of the given types.
func fieldOrChild(field string, childTypes ...string) func(*sitter.Node) *sitter.Node {
	return func(n *sitter.Node) *sitter.Node {
		if c := n.ChildByFieldName(field); c != nil {
			return c
		}
		for _, c := range NamedChildren(n) {
			if contains(childTypes, c.Type()) {
				return c
			}
		}
		return nil
	}
}

// childTokens collects the text of direct children with the given types.
func childTokens(types ...string) func(*sitter.Node, []byte) []string {
	return func(n *sitter.Node, src []byte) []string {
		var mods []string
		for i := range int(n.ChildCount()) {
			c := n.Child(i)
			if contains(types, c.Type()) {
				mods = append(mods, GetNodeText(c, src))
			}
		}
		return mods
	}
}

func javaModifiers(n *sitter.Node, src []byte) []string {
	var mods []string
	for i := range int(n.ChildCount()) {
		c := n.Child(i)
		if c.Type() != "modifiers" {
			continue
		}
		for j := range int(c.ChildCount()) {
			tok := c.Child(j)
			if t := tok.Type(); t == "annotation" || t == "marker_annotation" {
				continue
			}
			mods = append(mods, GetNodeText(tok, src))
		}
	}
	return mods
}

// typedParameters handles C# and Java parameter lists, where each parameter
// carries type and name fields.
func typedParameters(list *sitter.Node, src []byte) []models.Parameter {
	var params []models.Parameter
	for _, n := range NamedChildren(list) {
		switch n.Type() {
		case "comment", "line_comment", "block_comment", "receiver_parameter":
			continue
		}
		p := models.Parameter{Text: strings.TrimSpace(GetNodeText(n, src))}

		name := n.ChildByFieldName("name")
		if name == nil {
			// Java varargs keep the name inside a variable_declarator.
			for _, c := range NamedChildren(n) {
				if c.Type() == "variable_declarator" {
					name = c.ChildByFieldName("name")
				}
			}
		}
		if name != nil {
			p.Name = GetNodeText(name, src)
		}

		if typ := n.ChildByFieldName("type"); typ != nil && name != nil && typ.StartByte() < name.StartByte() {
			p.Type = GetNodeText(typ, src)
		} else if name != nil {
			p.Type = strings.TrimSpace(string(src[n.StartByte():name.StartByte()]))
		}
		if dims := n.ChildByFieldName("dimensions"); dims != nil {
			p.Type += GetNodeText(dims, src)
		}
		params = append(params, p)
	}
	return params
}

func pythonParameters(list *sitter.Node, src []byte) []models.Parameter {
	var params []models.Parameter
	for _, n := range NamedChildren(list) {
		p := models.Parameter{Text: GetNodeText(n, src)}
		switch n.Type() {
		case "comment":
			continue
		case "typed_parameter":
			if first := n.NamedChild(0); first != nil {
				p.Name = GetNodeText(first, src)
			}
			p.Type = GetNodeText(n.ChildByFieldName("type"), src)
		case "default_parameter":
			p.Name = GetNodeText(n.ChildByFieldName("name"), src)
		case "typed_default_parameter":
			p.Name = GetNodeText(n.ChildByFieldName("name"), src)
			p.Type = GetNodeText(n.ChildByFieldName("type"), src)
		default:
			// identifier, *args, **kwargs and the bare * and / separators
			p.Name = p.Text
		}
		params = append(params, p)
	}
	return params
}

func tsParameters(list *sitter.Node, src []byte) []models.Parameter {
	var params []models.Parameter
	for _, n := range NamedChildren(list) {
		p := models.Parameter{Text: GetNodeText(n, src)}
		switch n.Type() {
		case "comment":
			continue
		case "required_parameter", "optional_parameter":
			p.Name = GetNodeText(n.ChildByFieldName("pattern"), src)
			if n.Type() == "optional_parameter" {
				p.Name += "?"
			}
			p.Type = stripAnnotation(GetNodeText(n.ChildByFieldName("type"), src))
		case "assignment_pattern":
			p.Name = GetNodeText(n.ChildByFieldName("left"), src)
		default:
			p.Name = p.Text
		}
		params = append(params, p)
	}
	return params
}
