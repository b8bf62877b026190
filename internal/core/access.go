package core

import "strings"

// Access is a pair of vendor permission codes. The values are protocol
// codes (function numbers), not booleans: 3, 4, 6 and 16 all mean something
// different to the device library.
type Access struct {
	Read  int
	Write int
}

// AccessKind classifies an Access by which side is non-zero.
type AccessKind int

const (
	AccessAny AccessKind = iota
	AccessNone
	AccessReadOnly
	AccessWriteOnly
	AccessReadWrite
	// AccessReadable matches any pair with a non-zero read code.
	AccessReadable
)

// Kind returns the access kind of a pair.
func (a Access) Kind() AccessKind {
	switch {
	case a.Read > 0 && a.Write > 0:
		return AccessReadWrite
	case a.Read > 0:
		return AccessReadOnly
	case a.Write > 0:
		return AccessWriteOnly
	default:
		return AccessNone
	}
}

// Matches reports whether a satisfies the kind. AccessAny matches everything.
func (k AccessKind) Matches(a Access) bool {
	switch k {
	case AccessAny:
		return true
	case AccessReadable:
		return a.Read > 0
	}
	return k == a.Kind()
}

func (k AccessKind) String() string {
	switch k {
	case AccessNone:
		return "none"
	case AccessReadOnly:
		return "read-only"
	case AccessWriteOnly:
		return "write-only"
	case AccessReadWrite:
		return "read-write"
	case AccessReadable:
		return "readable"
	default:
		return "any"
	}
}

// Access literals after normalization.
const (
	LiteralRead      = "R"
	LiteralWrite     = "W"
	LiteralReadWrite = "R/W"
)

// NormalizeAccess maps the many spellings of an access type to R, W or R/W.
// Unknown text is returned upper-cased so backend tables can still key on it.
func NormalizeAccess(s string) string {
	k := strings.ToUpper(strings.Join(strings.Fields(CleanCell(s)), ""))
	switch k {
	case "":
		return ""
	case "R", "READ", "READONLY", "RO", "LECTURA", "L":
		return LiteralRead
	case "W", "WRITE", "WRITEONLY", "WO", "ESCRITURA", "E":
		return LiteralWrite
	case "RW", "WR", "R/W", "W/R", "READWRITE", "READ/WRITE", "R-W", "L/E":
		return LiteralReadWrite
	}
	return k
}

// rowAccess reads the current read/write codes of a row.
func rowAccess(r *Row) Access {
	return Access{Read: r.Int(FieldRead), Write: r.Int(FieldWrite)}
}

func setRowAccess(r *Row, a Access) {
	r.SetInt(FieldRead, a.Read)
	r.SetInt(FieldWrite, a.Write)
}
