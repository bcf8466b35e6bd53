package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenTypes(tokens []Token) []TokenType {
	out := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Type
	}
	return out
}

func TestScanKeywordsAndIdentifiers(t *testing.T) {
	tokens := NewScanner("int const x while", "test.sy").ScanTokens()
	assert.Equal(t, []TokenType{TokInt, TokConst, TokIdent, TokWhile, TokEOF}, tokenTypes(tokens))
}

func TestScanOperatorsPreferLongestMatch(t *testing.T) {
	tokens := NewScanner("<= < == = && &", "test.sy").ScanTokens()
	require.GreaterOrEqual(t, len(tokens), 4)
	assert.Equal(t, TokLe, tokens[0].Type)
	assert.Equal(t, TokLt, tokens[1].Type)
	assert.Equal(t, TokEq, tokens[2].Type)
	assert.Equal(t, TokAssign, tokens[3].Type)
}

func TestScanDecimalHexAndOctalLiterals(t *testing.T) {
	tokens := NewScanner("123 0x1F 017", "test.sy").ScanTokens()
	require.Len(t, tokens, 4) // 3 numbers + EOF
	for _, tok := range tokens[:3] {
		assert.Equal(t, TokNumber, tok.Type)
	}
	assert.Equal(t, "123", tokens[0].Lexeme)
	assert.Equal(t, "0x1F", tokens[1].Lexeme)
	assert.Equal(t, "017", tokens[2].Lexeme)
}

func TestScanTracksLineAndColumn(t *testing.T) {
	tokens := NewScanner("int\nx", "test.sy").ScanTokens()
	require.GreaterOrEqual(t, len(tokens), 2)
	assert.Equal(t, 1, tokens[0].Line)
	assert.Equal(t, 2, tokens[1].Line)
	assert.Equal(t, 1, tokens[0].Col)
	assert.Equal(t, 1, tokens[1].Col)
}

func TestScanEmptySourceYieldsOnlyEOF(t *testing.T) {
	tokens := NewScanner("", "test.sy").ScanTokens()
	require.Len(t, tokens, 1)
	assert.Equal(t, TokEOF, tokens[0].Type)
}
