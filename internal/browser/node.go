package browser

import "strconv"

type Kind int

const (
	KindRoot Kind = iota
	KindDictionary
	KindClassCategory
	KindClass
	KindDefinition
	KindComment
	KindSide
	KindCategory
	KindMethod
	KindGlobal
	kindCount
)

var kindNames = [kindCount]string{
	KindRoot:          "root",
	KindDictionary:    "dictionary",
	KindClassCategory: "class-category",
	KindClass:         "class",
	KindDefinition:    "definition",
	KindComment:       "comment",
	KindSide:          "side",
	KindCategory:      "category",
	KindMethod:        "method",
	KindGlobal:        "global",
}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

func parseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return 0, false
}

// Sentinel marks synthetic grouping nodes. It is kept apart from the name
// fields so a real category called "ALL" is still an ordinary category.
type Sentinel int

const (
	SentinelNone Sentinel = iota
	SentinelAll
	SentinelOtherGlobals
)

const (
	allLabel          = "ALL"
	otherGlobalsLabel = "OTHER GLOBALS"
)

// DefaultClassCategory holds classes that declare no category.
const DefaultClassCategory = "(uncategorized)"

// Node describes one position in the browser hierarchy. It holds no
// children; they are computed by Tree.Children from the identifying fields.
type Node struct {
	Kind      Kind
	SessionID int

	DictIndex     int
	DictName      string
	ClassCategory string
	ClassName     string

	IsMeta          bool
	Environment     int
	ShowEnvironment bool

	Category   string
	Selector   string
	GlobalName string

	Sentinel Sentinel
}

func (n Node) Label() string {
	switch n.Kind {
	case KindRoot:
		return "session " + strconv.Itoa(n.SessionID)
	case KindDictionary:
		return n.DictName
	case KindClassCategory:
		switch n.Sentinel {
		case SentinelAll:
			return allLabel
		case SentinelOtherGlobals:
			return otherGlobalsLabel
		}
		return n.ClassCategory
	case KindClass:
		return n.ClassName
	case KindDefinition:
		return "definition"
	case KindComment:
		return "comment"
	case KindSide:
		label := sideName(n.IsMeta)
		if n.ShowEnvironment {
			label += " (env " + strconv.Itoa(n.Environment) + ")"
		}
		return label
	case KindCategory:
		if n.Sentinel == SentinelAll {
			return allLabel
		}
		return n.Category
	case KindMethod:
		return n.Selector
	case KindGlobal:
		return n.GlobalName
	default:
		return ""
	}
}

// Icon names the symbol a host should draw next to the label.
func (n Node) Icon() string {
	switch n.Kind {
	case KindRoot:
		return "server"
	case KindDictionary:
		return "library"
	case KindClassCategory:
		if n.Sentinel == SentinelOtherGlobals {
			return "symbol-variable"
		}
		return "folder"
	case KindClass:
		return "symbol-class"
	case KindDefinition:
		return "symbol-structure"
	case KindComment:
		return "comment"
	case KindSide:
		if n.IsMeta {
			return "symbol-namespace"
		}
		return "symbol-object"
	case KindCategory:
		return "folder-opened"
	case KindMethod:
		return "symbol-method"
	case KindGlobal:
		return "symbol-constant"
	default:
		return ""
	}
}

func (n Node) IsLeaf() bool {
	switch n.Kind {
	case KindDefinition, KindComment, KindMethod, KindGlobal:
		return true
	default:
		return false
	}
}

func sideName(isMeta bool) string {
	if isMeta {
		return "class"
	}
	return "instance"
}
