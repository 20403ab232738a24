package typesystem

import (
	"strconv"
	"strings"
)

// String reconstructs the canonical surface form:
//
//	list() int        one list layer
//	list(3) char      three layers, run-length encoded
//	(int^3, string)   tuple with a run of equal components
//	Dict[int, real]   generic type with arguments
func (t NStarType) String() string {
	var sb strings.Builder
	writeType(&sb, t)
	return sb.String()
}

// String renders the slots as a bracketed argument list.
func (l ExtraTypeList) String() string {
	var sb strings.Builder
	writeArgs(&sb, l)
	return sb.String()
}

func writeType(sb *strings.Builder, t NStarType) {
	if IsList(t) && (t.Extra.Len() == 1 || t.Extra.Len() == 2) {
		if n, elem, ok := safeListParts(t); ok {
			sb.WriteString("list(")
			if n > 1 {
				sb.WriteString(strconv.Itoa(n))
			}
			sb.WriteString(") ")
			writeType(sb, elem)
			return
		}
	}
	if IsTuple(t) && t.Extra.Len() > 0 {
		writeTuple(sb, t.Extra)
		return
	}
	sb.WriteString(t.Main.String())
	if t.Extra.Len() > 0 {
		writeArgs(sb, t.Extra)
	}
}

func writeArgs(sb *strings.Builder, l ExtraTypeList) {
	sb.WriteByte('[')
	for i := 0; i < l.Len(); i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		e := l.At(i)
		if e.IsValue {
			sb.WriteString(e.Value)
		} else {
			writeType(sb, e.Type)
		}
	}
	sb.WriteByte(']')
}

func writeTuple(sb *strings.Builder, l ExtraTypeList) {
	sb.WriteByte('(')
	first := true
	for i := 0; i < l.Len(); {
		run := 1
		for i+run < l.Len() && l.At(i+run).Equal(l.At(i)) {
			run++
		}
		if !first {
			sb.WriteString(", ")
		}
		first = false
		e := l.At(i)
		if e.IsValue {
			sb.WriteString(e.Value)
		} else {
			writeType(sb, e.Type)
		}
		if run > 1 {
			sb.WriteByte('^')
			sb.WriteString(strconv.Itoa(run))
		}
		i += run
	}
	sb.WriteByte(')')
}

// safeListParts is listParts without the invariant panic, so that malformed
// types can still be printed in diagnostics.
func safeListParts(t NStarType) (n int, elem NStarType, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			if _, isInvariant := r.(*InvariantError); !isInvariant {
				panic(r)
			}
			ok = false
		}
	}()
	return listParts(t)
}
