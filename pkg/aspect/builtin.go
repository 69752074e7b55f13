package aspect

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"
)

//go:embed aspects.json
var builtinJSON []byte

var (
	builtinOnce  sync.Once
	builtinGraph *Graph
	builtinErr   error
)

// BuiltinSpec returns a fresh copy of the bundled Thaumcraft recipe book.
func BuiltinSpec() Spec {
	var spec Spec
	if err := json.Unmarshal(builtinJSON, &spec); err != nil {
		panic(fmt.Sprintf("aspect: bundled recipe book is malformed: %v", err))
	}
	return spec
}

// Builtin returns the graph of the bundled recipe book. It is built once and
// shared; Graph is read-only so sharing is safe.
func Builtin() (*Graph, error) {
	builtinOnce.Do(func() {
		builtinGraph, builtinErr = New(BuiltinSpec())
	})
	return builtinGraph, builtinErr
}
