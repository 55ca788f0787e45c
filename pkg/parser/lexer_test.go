package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakubdabek/gembiler/pkg/errors"
	"github.com/jakubdabek/gembiler/pkg/parser"
)

func TestParserTagsOverflowingLiteralAsOutOfRange(t *testing.T) {
	p := parser.NewParser(`
DECLARE n BEGIN
	n ASSIGN 99999999999999999999;
	WRITE n;
END`)
	p.Parse()
	require.NotEmpty(t, p.Errors())
	assert.Equal(t, errors.LiteralOutOfRange, p.Errors()[0].Category)
}

func TestParserAcceptsNegativeLiteral(t *testing.T) {
	p := parser.NewParser(`
DECLARE n BEGIN
	n ASSIGN -5;
	WRITE n;
END`)
	p.Parse()
	assert.Empty(t, p.Errors())
}
