package runtimeabi

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/stretchr/testify/require"
)

type fakeLinker struct {
	added     *ir.Module
	addresses map[string]uintptr
	addErr    error
	lookupErr error
}

func (f *fakeLinker) AddModule(m *ir.Module) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.added = m
	return nil
}

func (f *fakeLinker) Lookup(name string) (uintptr, error) {
	if f.lookupErr != nil {
		return 0, f.lookupErr
	}
	addr, ok := f.addresses[name]
	if !ok {
		return 0, fmt.Errorf("undefined symbol %q", name)
	}
	return addr, nil
}

// answerFortyTwo stands in for JIT-compiled code: Execute resolves its
// address through fakeLinker exactly as it would a real linked symbol,
// then calls through it via the func() int64 trampoline.
func answerFortyTwo() int64 { return 42 }

func TestExecuteResolvesEntryAndCallsThrough(t *testing.T) {
	m := ir.NewModule()
	addr := reflect.ValueOf(answerFortyTwo).Pointer()
	l := &fakeLinker{addresses: map[string]uintptr{"__mimium_main": addr}}

	result, err := Execute(l, m, "__mimium_main")
	require.NoError(t, err)
	require.Equal(t, int64(42), result)
	require.Same(t, m, l.added)
}

func TestExecutePropagatesAddModuleFailure(t *testing.T) {
	l := &fakeLinker{addErr: fmt.Errorf("bad bitcode")}
	_, err := Execute(l, ir.NewModule(), "__mimium_main")
	require.Error(t, err)
}

func TestExecutePropagatesLookupFailure(t *testing.T) {
	l := &fakeLinker{lookupErr: fmt.Errorf("symbol not found")}
	_, err := Execute(l, ir.NewModule(), "__mimium_main")
	require.Error(t, err)
}

func TestOutputToStreamRendersTextualIR(t *testing.T) {
	m := ir.NewModule()
	out := OutputToStream(m)
	require.Equal(t, m.String(), out)
}
