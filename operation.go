package collcache

import "strconv"

// Operation is the kind of work a Request performs. It is fixed when the
// request is built.
type Operation uint8

const (
	OpRead Operation = iota + 1
	OpAdd
	OpUpdate
	OpDelete
	OpReplace
)

func (o Operation) String() string {
	switch o {
	case OpRead:
		return "read"
	case OpAdd:
		return "add"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	case OpReplace:
		return "replace"
	default:
		return "operation(" + strconv.Itoa(int(o)) + ")"
	}
}
