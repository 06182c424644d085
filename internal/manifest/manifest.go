// Package manifest decodes TOML module descriptions into bridge.Module
// values. Problems become MAN diagnostics anchored at the offending line.
package manifest

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"
	"golang.org/x/text/unicode/norm"

	"bridgegen/internal/bridge"
	"bridgegen/internal/diag"
	"bridgegen/internal/source"
)

// Ext is the extension of module description files.
const Ext = ".toml"

type fileTable struct {
	Module *moduleTable `toml:"module"`
	Types  []typeTable  `toml:"type"`
	Funcs  []funcTable  `toml:"function"`
}

type moduleTable struct {
	Name        string   `toml:"name"`
	CfgFeatures []string `toml:"cfg_features"`
}

type fieldTable struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

type variantTable struct {
	Name   string       `toml:"name"`
	Style  string       `toml:"style"`
	Fields []fieldTable `toml:"fields"`
}

type typeTable struct {
	Kind            string         `toml:"kind"`
	Name            string         `toml:"name"`
	Host            string         `toml:"host"`
	SwiftName       string         `toml:"swift_name"`
	Copy            *int64         `toml:"copy"`
	Hashable        bool           `toml:"hashable"`
	Equatable       bool           `toml:"equatable"`
	AlreadyDeclared bool           `toml:"already_declared"`
	DeclareGeneric  []string       `toml:"declare_generic"`
	Generics        []string       `toml:"generics"`
	Style           string         `toml:"style"`
	Fields          []fieldTable   `toml:"fields"`
	Variants        []variantTable `toml:"variants"`
}

type funcTable struct {
	Name         string       `toml:"name"`
	SwiftName    string       `toml:"swift_name"`
	Host         string       `toml:"host"`
	Async        bool         `toml:"async"`
	AssociatedTo string       `toml:"associated_to"`
	Receiver     string       `toml:"receiver"`
	Init         bool         `toml:"init"`
	Params       []fieldTable `toml:"params"`
	Returns      string       `toml:"returns"`
}

// Load reads path into fs and decodes it. The error is only set when the
// file cannot be read; decoding problems go to r.
func Load(fs *source.FileSet, path string, r diag.Reporter) (*bridge.Module, error) {
	id, err := fs.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return Decode(fs.Get(id), r), nil
}

// Decode turns the content of f into a module. It returns nil when the
// file is not valid TOML or has no [module] table.
func Decode(f *source.File, r diag.Reporter) *bridge.Module {
	d := &decoder{file: f, reporter: r}
	var raw fileTable
	meta, err := toml.Decode(string(f.Content), &raw)
	if err != nil {
		d.syntaxError(err)
		return nil
	}
	for _, key := range meta.Undecoded() {
		diag.ReportWarning(r, diag.ManUnknownKey, d.keySpan(key), fmt.Sprintf("unknown key %q", key.String())).Emit()
	}
	if raw.Module == nil {
		diag.ReportError(r, diag.ManMissingModuleHdr, d.fileStart(), "module description has no [module] table").Emit()
		return nil
	}
	return d.module(raw)
}

type decoder struct {
	file     *source.File
	reporter diag.Reporter
}

func (d *decoder) fileStart() source.Span {
	return source.Span{File: d.file.ID}
}

func (d *decoder) errorf(code diag.Code, sp source.Span, format string, args ...any) {
	diag.ReportError(d.reporter, code, sp, fmt.Sprintf(format, args...)).Emit()
}

func (d *decoder) syntaxError(err error) {
	var perr toml.ParseError
	if !errors.As(err, &perr) {
		d.errorf(diag.ManSyntax, d.fileStart(), "%v", err)
		return
	}
	sp := d.lineSpan(perr.Position.Line)
	d.errorf(diag.ManSyntax, sp, "%s", perr.Message)
}

// lineSpan covers line (1-based) of the file.
func (d *decoder) lineSpan(line int) source.Span {
	l, err := safecast.Conv[uint32](line)
	if err != nil || l == 0 {
		return d.fileStart()
	}
	text := d.file.GetLine(l)
	var start uint32
	if l > 1 && int(l-2) < len(d.file.LineIdx) {
		start = d.file.LineIdx[l-2] + 1
	}
	n, err := safecast.Conv[uint32](len(text))
	if err != nil {
		n = 0
	}
	return source.Span{File: d.file.ID, Start: start, End: start + n}
}

// keySpan locates the last segment of key as written in the file.
func (d *decoder) keySpan(key toml.Key) source.Span {
	if len(key) == 0 {
		return d.fileStart()
	}
	if sp, ok := d.file.SpanOf(key[len(key)-1], 0); ok {
		return sp
	}
	return d.fileStart()
}

// tableSpan finds the n-th [[header]] of the file and, inside it, the
// quoted name. It falls back to the header and then to the file start.
func (d *decoder) tableSpan(header string, n int, name string) source.Span {
	var from uint32
	var head source.Span
	for i := 0; i <= n; i++ {
		sp, ok := d.file.SpanOf("[["+header+"]]", from)
		if !ok {
			return d.nameSpan(name, 0)
		}
		head, from = sp, sp.End
	}
	if sp, ok := d.file.SpanOf(`"`+name+`"`, head.End); ok && name != "" {
		return sp
	}
	return head
}

func (d *decoder) nameSpan(name string, from uint32) source.Span {
	if name != "" {
		if sp, ok := d.file.SpanOf(`"`+name+`"`, from); ok {
			return sp
		}
	}
	return d.fileStart()
}

// ident normalises s to NFC and checks it is an identifier.
func (d *decoder) ident(s, what string, sp source.Span) (string, bool) {
	s = norm.NFC.String(strings.TrimSpace(s))
	if s == "" {
		d.errorf(diag.ManMissingField, sp, "missing %s", what)
		return "", false
	}
	if !IsIdent(s) {
		d.errorf(diag.ManInvalidIdent, sp, "%s %q is not an identifier", what, s)
		return "", false
	}
	return s, true
}

// IsIdent reports whether s is a Rust and Swift identifier.
func IsIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}

func (d *decoder) typeExpr(s string, sp source.Span) (*bridge.TypeExpr, bool) {
	e, err := bridge.ParseTypeExpr(norm.NFC.String(s))
	if err != nil {
		d.errorf(diag.ManInvalidTypeExpr, sp, "%v", err)
		return nil, false
	}
	return e, true
}

func (d *decoder) module(raw fileTable) *bridge.Module {
	head, _ := d.file.SpanOf("[module]", 0)
	mod := &bridge.Module{File: d.file.ID, Span: head}
	name, ok := d.ident(raw.Module.Name, "module name", d.nameSpan(raw.Module.Name, head.End))
	if !ok {
		return nil
	}
	mod.Name = name
	for _, f := range raw.Module.CfgFeatures {
		if f = strings.TrimSpace(f); f != "" {
			mod.CfgFeatures = append(mod.CfgFeatures, f)
		}
	}
	for i, t := range raw.Types {
		if decl := d.typeDecl(t, d.tableSpan("type", i, t.Name)); decl != nil {
			mod.Types = append(mod.Types, decl)
		}
	}
	for i, f := range raw.Funcs {
		if fn := d.funcDecl(f, d.tableSpan("function", i, f.Name)); fn != nil {
			mod.Funcs = append(mod.Funcs, fn)
		}
	}
	return mod
}

func (d *decoder) typeDecl(t typeTable, sp source.Span) bridge.TypeDecl {
	name, ok := d.ident(t.Name, "type name", sp)
	if !ok {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(t.Kind)) {
	case "opaque":
		return d.opaque(name, t, sp)
	case "struct":
		fields, ok := d.fields(inferStyle(t.Style, t.Fields), t.Fields, sp)
		if !ok {
			return nil
		}
		return &bridge.SharedStruct{
			Name:            name,
			SwiftName:       strings.TrimSpace(t.SwiftName),
			Fields:          fields,
			AlreadyDeclared: t.AlreadyDeclared,
			Span:            sp,
		}
	case "enum":
		e := &bridge.SharedEnum{Name: name, AlreadyDeclared: t.AlreadyDeclared, Span: sp}
		for _, v := range t.Variants {
			vsp := d.nameSpan(v.Name, sp.Start)
			vname, ok := d.ident(v.Name, "variant name", vsp)
			if !ok {
				return nil
			}
			fields, ok := d.fields(inferStyle(v.Style, v.Fields), v.Fields, vsp)
			if !ok {
				return nil
			}
			e.Variants = append(e.Variants, bridge.EnumVariant{Name: vname, Fields: fields, Span: vsp})
		}
		return e
	case "":
		d.errorf(diag.ManMissingField, sp, "type %s has no kind", name)
	default:
		d.errorf(diag.ManUnknownKind, sp, "unknown kind %q (expected opaque|struct|enum)", t.Kind)
	}
	return nil
}

func (d *decoder) opaque(name string, t typeTable, sp source.Span) bridge.TypeDecl {
	host, err := bridge.ParseHostLang(t.Host)
	if err != nil {
		d.errorf(diag.ManInvalidValue, sp, "%v", err)
		return nil
	}
	decl := &bridge.OpaqueType{
		Name: name,
		Host: host,
		Attrs: bridge.OpaqueAttrs{
			AlreadyDeclared: t.AlreadyDeclared,
			Hashable:        t.Hashable,
			Equatable:       t.Equatable,
		},
		Span: sp,
	}
	if t.Copy != nil {
		size, err := safecast.Conv[uint16](*t.Copy)
		if err != nil {
			d.errorf(diag.ManInvalidValue, sp, "copy size %d out of range: %v", *t.Copy, err)
			return nil
		}
		decl.Attrs.Copy = &bridge.CopyAttr{SizeBytes: int(size)}
	}
	if len(t.DeclareGeneric) > 0 {
		decl.Attrs.DeclareGeneric = true
		for _, p := range t.DeclareGeneric {
			p, ok := d.ident(p, "generic parameter", sp)
			if !ok {
				return nil
			}
			decl.GenericParams = append(decl.GenericParams, p)
		}
	}
	for _, g := range t.Generics {
		e, ok := d.typeExpr(g, sp)
		if !ok {
			return nil
		}
		decl.Generics = append(decl.Generics, e)
	}
	return decl
}

// inferStyle picks tuple for unnamed fields and unit for none when the
// description leaves style out.
func inferStyle(style string, fields []fieldTable) string {
	switch {
	case style != "":
		return style
	case len(fields) == 0:
		return "unit"
	case fields[0].Name == "":
		return "tuple"
	}
	return "named"
}

func parseStyle(s string) (bridge.FieldsStyle, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "named":
		return bridge.FieldsNamed, true
	case "tuple", "unnamed":
		return bridge.FieldsUnnamed, true
	case "unit":
		return bridge.FieldsUnit, true
	default:
		return bridge.FieldsNamed, false
	}
}

func (d *decoder) fields(style string, raw []fieldTable, sp source.Span) (bridge.StructFields, bool) {
	st, ok := parseStyle(style)
	if !ok {
		d.errorf(diag.ManInvalidValue, sp, "invalid style %q (expected named|tuple|unit)", style)
		return bridge.StructFields{}, false
	}
	if st == bridge.FieldsUnit && len(raw) > 0 {
		d.errorf(diag.ManInvalidValue, sp, "unit style cannot have fields")
		return bridge.StructFields{}, false
	}
	out := bridge.StructFields{Style: st}
	for _, f := range raw {
		fsp := d.nameSpan(f.Type, sp.Start)
		field := bridge.StructField{Span: fsp}
		if st == bridge.FieldsNamed {
			name, ok := d.ident(f.Name, "field name", fsp)
			if !ok {
				return bridge.StructFields{}, false
			}
			field.Name = name
		}
		e, ok := d.typeExpr(f.Type, fsp)
		if !ok {
			return bridge.StructFields{}, false
		}
		field.Type = e
		out.List = append(out.List, field)
	}
	return out, true
}

func (d *decoder) funcDecl(f funcTable, sp source.Span) *bridge.FuncDecl {
	name, ok := d.ident(f.Name, "function name", sp)
	if !ok {
		return nil
	}
	host, err := bridge.ParseHostLang(f.Host)
	if err != nil {
		d.errorf(diag.ManInvalidValue, sp, "%v", err)
		return nil
	}
	recv, err := bridge.ParseReceiver(f.Receiver)
	if err != nil {
		d.errorf(diag.ManInvalidValue, sp, "%v", err)
		return nil
	}
	fn := &bridge.FuncDecl{
		Name:      name,
		SwiftName: strings.TrimSpace(f.SwiftName),
		Host:      host,
		Async:     f.Async,
		Receiver:  recv,
		Init:      f.Init,
		Span:      sp,
	}
	if s := strings.TrimSpace(f.AssociatedTo); s != "" {
		if fn.AssociatedTo, ok = d.typeExpr(s, sp); !ok {
			return nil
		}
	}
	if (recv != bridge.ReceiverNone || f.Init) && fn.AssociatedTo == nil {
		d.errorf(diag.ManMissingField, sp, "method %s needs associated_to", name)
		return nil
	}
	if s := strings.TrimSpace(f.Returns); s != "" {
		if fn.Return, ok = d.typeExpr(s, sp); !ok {
			return nil
		}
	}
	seen := make(map[string]bool, len(f.Params))
	for _, p := range f.Params {
		psp := d.nameSpan(p.Name, sp.Start)
		pname, ok := d.ident(p.Name, "parameter name", psp)
		if !ok {
			return nil
		}
		if seen[pname] {
			d.errorf(diag.ManDuplicateName, psp, "duplicate parameter %s in %s", pname, name)
			return nil
		}
		seen[pname] = true
		e, ok := d.typeExpr(p.Type, psp)
		if !ok {
			return nil
		}
		fn.Params = append(fn.Params, bridge.Param{Name: pname, Type: e, Span: psp})
	}
	return fn
}
