package types

// Str is a borrowed &str, passed as a RustStr view.
type Str struct {
	noSupport
	Names
}

func (*Str) Kind() Kind            { return KindStr }
func (*Str) bridged()              {}
func (*Str) String() string        { return "&str" }
func (*Str) CType() string         { return "struct RustStr" }
func (*Str) CIncludes() []string   { return nil }
func (*Str) RustType() string      { return "&str" }
func (s *Str) RustFFIType() string { return s.SupportPath("string::RustStr") }
func (*Str) SwiftFFIType() string  { return "RustStr" }

func (s *Str) RustIntoFFI(expr string) string {
	return s.SupportPath("string::RustStr::from_str(") + expr + ")"
}

func (*Str) RustFromFFI(expr string) string {
	return expr + ".to_str()"
}

// SwiftType is String for arguments the Swift side passes in; a RustStr
// the Swift side receives is a view into Rust memory and keeps its type.
func (*Str) SwiftType(dir Direction) string {
	if dir == Outgoing {
		return "String"
	}
	return "RustStr"
}

func (s *Str) SwiftIntoFFI(expr string, dir Direction) string {
	if dir == Outgoing {
		return s.SwiftScopedName(expr)
	}
	return expr
}

func (*Str) SwiftFromFFI(expr string, _ Direction) string { return expr }

func (*Str) SwiftScope(name, body string) string {
	return name + ".toRustStr({ " + name + "AsRustStr in\n" + body + "\n})"
}

func (*Str) SwiftScopedName(name string) string { return name + "AsRustStr" }

// String is an owned String, passed as a boxed RustString.
type String struct {
	noSupport
	Names
}

func (*String) Kind() Kind           { return KindString }
func (*String) bridged()             {}
func (*String) String() string       { return "String" }
func (*String) CType() string        { return "void*" }
func (*String) CIncludes() []string  { return nil }
func (*String) RustType() string     { return "String" }
func (*String) SwiftFFIType() string { return "UnsafeMutableRawPointer" }

func (s *String) RustFFIType() string {
	return "*mut " + s.SupportPath("string::RustString")
}

func (s *String) RustIntoFFI(expr string) string {
	return s.SupportPath("string::RustString(") + expr + ").box_into_raw()"
}

func (*String) RustFromFFI(expr string) string {
	return "unsafe { Box::from_raw(" + expr + ").0 }"
}

func (*String) SwiftType(dir Direction) string {
	if dir == Outgoing {
		return "String"
	}
	return "RustString"
}

func (*String) SwiftIntoFFI(expr string, dir Direction) string {
	if dir == Outgoing {
		return "{ let rustString = " + expr + ".intoRustString(); rustString.isOwned = false; return rustString.ptr }()"
	}
	return "{" + expr + ".isOwned = false; return " + expr + ".ptr;}()"
}

func (*String) SwiftFromFFI(expr string, _ Direction) string {
	return "RustString(ptr: " + expr + ")"
}
