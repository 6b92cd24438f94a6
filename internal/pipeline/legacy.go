package pipeline

import (
	"fmt"
	"math"
	"sync"
)

// TransformFunc is a row-level preprocessing function referenced by name from
// a saved artifact.
type TransformFunc func(row []float64) []float64

// SymbolTable resolves preprocessing functions under the lookup paths they
// were saved with. Some artifacts were serialized while referencing helpers
// under a legacy training-harness path (e.g. "__mp_main__.neg_to_nan"); the
// decoder consults this table instead of any package namespace, so artifacts
// keep loading regardless of how this service organizes its code.
type SymbolTable struct {
	mu    sync.RWMutex
	funcs map[string]TransformFunc
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{funcs: make(map[string]TransformFunc)}
}

// Register binds a transform function to a qualified name. Re-registering a
// name replaces the previous binding.
func (st *SymbolTable) Register(name string, fn TransformFunc) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.funcs[name] = fn
}

// Resolve returns the transform bound to name.
func (st *SymbolTable) Resolve(name string) (TransformFunc, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	fn, ok := st.funcs[name]
	if !ok {
		return nil, fmt.Errorf("transform %q not registered in legacy symbol table", name)
	}
	return fn, nil
}

// NegToNaN replaces negative values with NaN. MEPS uses negative codes for
// "not ascertained" style responses; the trained pipelines expect them masked
// before imputation.
func NegToNaN(row []float64) []float64 {
	out := make([]float64, len(row))
	for i, v := range row {
		if v < 0 {
			out[i] = math.NaN()
		} else {
			out[i] = v
		}
	}
	return out
}

// DefaultSymbols returns the table of transforms known to appear in saved
// artifacts, registered under their legacy training-time paths.
func DefaultSymbols() *SymbolTable {
	st := NewSymbolTable()
	st.Register("__mp_main__.neg_to_nan", NegToNaN)
	st.Register("neg_to_nan", NegToNaN)
	return st
}
