package symtab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefineAndLookup(t *testing.T) {
	root := NewRoot()
	require.NoError(t, root.Define("x", Symbol{Kind: VAR}))

	sym, ok := root.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, VAR, sym.Kind)

	_, ok = root.Lookup("y")
	assert.False(t, ok)
}

func TestDuplicateDefinitionIsAnError(t *testing.T) {
	root := NewRoot()
	require.NoError(t, root.Define("x", Symbol{Kind: VAR}))
	err := root.Define("x", Symbol{Kind: VAL, Value: 1})
	assert.Error(t, err)
}

func TestLookupWalksParentChain(t *testing.T) {
	root := NewRoot()
	require.NoError(t, root.Define("x", Symbol{Kind: VAR}))

	child := root.Push()
	sym, ok := child.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, VAR, sym.Kind)
}

func TestShadowingResolvesToInnermostScope(t *testing.T) {
	root := NewRoot()
	require.NoError(t, root.Define("x", Symbol{Kind: VAR}))

	child := root.Push()
	require.NoError(t, child.Define("x", Symbol{Kind: VAL, Value: 7}))

	sym, ok := child.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, VAL, sym.Kind)
	assert.Equal(t, 7, sym.Value)

	// The outer x is untouched.
	outerSym, ok := root.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, VAR, outerSym.Kind)
}

func TestUniquifyUsesDefiningScopeDepth(t *testing.T) {
	root := NewRoot()
	require.NoError(t, root.Define("x", Symbol{Kind: VAR}))

	child := root.Push()
	// x is not redefined in child: Uniquify must walk out to root's depth.
	assert.Equal(t, "x_0", child.Uniquify("x"))

	require.NoError(t, child.Define("x", Symbol{Kind: VAR}))
	assert.Equal(t, "x_1", child.Uniquify("x"))
}

func TestMintUsesCurrentScopeDepthRegardlessOfExistingDefinitions(t *testing.T) {
	root := NewRoot()
	child := root.Push()
	grandchild := child.Push()
	assert.Equal(t, "y_2", grandchild.Mint("y"))
}

func TestReturnedIsPerScopeAndNotPropagatedToParent(t *testing.T) {
	root := NewRoot()
	child := root.Push()

	child.MarkReturned()
	assert.True(t, child.Returned())
	assert.False(t, root.Returned())
}

func TestPushIncreasesDepthByOne(t *testing.T) {
	root := NewRoot()
	child := root.Push()
	grandchild := child.Push()

	assert.Equal(t, 0, root.Depth())
	assert.Equal(t, 1, child.Depth())
	assert.Equal(t, 2, grandchild.Depth())
	assert.Same(t, child, grandchild.Parent())
}
