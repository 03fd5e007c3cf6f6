package gpu

// Numeric is the set of element types a device buffer can carry. Both are
// four bytes wide, which keeps every size computation a single multiply.
type Numeric interface {
	~int32 | ~float32
}

// ElemType tags the element type of a buffer at runtime, so untyped plumbing
// (slots, bind groups) can check compatibility without generics.
type ElemType int

const (
	ElemInt32 ElemType = iota
	ElemFloat32
)

func (e ElemType) String() string {
	switch e {
	case ElemInt32:
		return "int32"
	case ElemFloat32:
		return "float32"
	default:
		return "unknown"
	}
}

// elemSize is the byte width of every supported element type.
const elemSize = 4

// AccessMode describes how a kernel is expected to use a buffer. WebGPU
// enforces access through the shader's own declarations; the mode here is
// carried for intent and surfaced by the detector/CLI.
type AccessMode int

const (
	ReadWrite AccessMode = iota
	ReadOnly
	WriteOnly
)

func (m AccessMode) String() string {
	switch m {
	case ReadOnly:
		return "r"
	case WriteOnly:
		return "w"
	case ReadWrite:
		return "rw"
	default:
		return "unknown"
	}
}

// elemTypeOf maps a concrete Numeric instantiation to its runtime tag.
func elemTypeOf[T Numeric]() ElemType {
	var zero T
	switch any(zero).(type) {
	case int32:
		return ElemInt32
	default:
		return ElemFloat32
	}
}
