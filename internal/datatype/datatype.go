// Package datatype defines the nominal value types attached to graph ports.
package datatype

// DataType is an enumerated, nominal type attached to a Node's Input or
// Output port. It carries no structure beyond its name; assignability is
// entirely identity-based except for None.
type DataType string

const (
	// None is the absence of a value. It is assignable to and from nothing
	// but itself.
	None DataType = "none"

	Int    DataType = "int"
	Float  DataType = "float"
	String DataType = "string"
	Bool   DataType = "bool"
	Image  DataType = "image"
	Array  DataType = "array"
)

// All lists every known DataType, in declaration order. It exists for
// validation and diagnostic tooling that wants to enumerate the registry
// rather than hold a switch statement of its own.
func All() []DataType {
	return []DataType{None, Int, Float, String, Bool, Image, Array}
}

// Valid reports whether d is one of the registered DataType values.
func Valid(d DataType) bool {
	for _, known := range All() {
		if known == d {
			return true
		}
	}
	return false
}

// CanAssign decides whether a value of type src may flow into a port
// declared as type dst. None is assignable to and from nothing except
// itself; every other pairing requires an exact nominal match.
func CanAssign(dst, src DataType) bool {
	if dst == None || src == None {
		return dst == src
	}
	return dst == src
}
