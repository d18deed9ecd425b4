package importing

import (
	"fmt"
	"strings"
)

const maxKeyParts = 6

// Key is a composite business key. Two keys are equal when they have the same parts, in the same order.
type Key struct {
	parts [maxKeyParts]string
	n     int
}

func NewKey(parts ...string) Key {
	if len(parts) > maxKeyParts {
		panic(fmt.Sprintf("importing.NewKey: %d parts, max is %d", len(parts), maxKeyParts))
	}
	var k Key
	k.n = copy(k.parts[:], parts)
	return k
}

func (k Key) Parts() []string {
	return append([]string(nil), k.parts[:k.n]...)
}

func (k Key) String() string {
	quoted := make([]string, k.n)
	for i, p := range k.parts[:k.n] {
		quoted[i] = fmt.Sprintf("%q", p)
	}
	return "(" + strings.Join(quoted, ", ") + ")"
}
