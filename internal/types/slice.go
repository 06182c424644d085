package types

// Slice is &[T] or &mut [T] over a primitive, passed as a start/len pair.
type Slice struct {
	noSupport
	Names
	Elem *Primitive
	Mut  bool
}

func (*Slice) Kind() Kind           { return KindSlice }
func (*Slice) bridged()             {}
func (*Slice) CType() string        { return "struct __private__FfiSlice" }
func (*Slice) SwiftFFIType() string { return "__private__FfiSlice" }

func (s *Slice) String() string { return s.RustType() }

func (s *Slice) RustType() string {
	if s.Mut {
		return "&mut [" + s.Elem.RustType() + "]"
	}
	return "&[" + s.Elem.RustType() + "]"
}

// ElemCType is the element type the header's FfiSlice_<T> typedef is named
// after.
func (s *Slice) ElemCType() string { return s.Elem.CType() }

func (s *Slice) CIncludes() []string {
	return mergeIncludes([]string{"stdint.h"}, s.Elem.CIncludes())
}

func (s *Slice) RustFFIType() string {
	return s.SupportPath("FfiSlice<" + s.Elem.RustType() + ">")
}

func (s *Slice) RustIntoFFI(expr string) string {
	return s.SupportPath("FfiSlice::from_slice(") + expr + ")"
}

func (s *Slice) RustFromFFI(expr string) string {
	if s.Mut {
		return expr + ".as_mut_slice()"
	}
	return expr + ".as_slice()"
}

func (s *Slice) SwiftType(Direction) string {
	if s.Mut {
		return "UnsafeMutableBufferPointer<" + s.Elem.SwiftType(Field) + ">"
	}
	return "UnsafeBufferPointer<" + s.Elem.SwiftType(Field) + ">"
}

func (*Slice) SwiftIntoFFI(expr string, _ Direction) string {
	return expr + ".toFfiSlice()"
}

func (s *Slice) SwiftFromFFI(expr string, dir Direction) string {
	ty := s.SwiftType(dir)
	return "{ () -> " + ty + " in let slice = " + expr + "; return " + ty +
		"(start: slice.start.assumingMemoryBound(to: " + s.Elem.SwiftType(Field) + ".self), count: Int(slice.len)) }()"
}

// Vec is an owned Vec<T> behind a boxed pointer.
type Vec struct {
	noSupport
	Names
	Elem Type
}

func (*Vec) Kind() Kind            { return KindVec }
func (*Vec) bridged()              {}
func (v *Vec) String() string      { return "Vec<" + v.Elem.String() + ">" }
func (*Vec) CType() string         { return "void*" }
func (*Vec) CIncludes() []string   { return nil }
func (v *Vec) RustType() string    { return "Vec<" + v.Elem.RustType() + ">" }
func (v *Vec) RustFFIType() string { return "*mut " + v.RustType() }
func (*Vec) SwiftFFIType() string  { return "UnsafeMutableRawPointer" }

func (*Vec) RustIntoFFI(expr string) string { return "Box::into_raw(Box::new(" + expr + "))" }
func (*Vec) RustFromFFI(expr string) string { return "unsafe { *Box::from_raw(" + expr + ") }" }

func (v *Vec) SwiftType(Direction) string {
	return "RustVec<" + v.Elem.SwiftType(Field) + ">"
}

func (*Vec) SwiftIntoFFI(expr string, _ Direction) string {
	return "{ () -> UnsafeMutableRawPointer in let val = " + expr + "; val.isOwned = false; return val.ptr }()"
}

func (v *Vec) SwiftFromFFI(expr string, dir Direction) string {
	return v.SwiftType(dir) + "(ptr: " + expr + ")"
}
