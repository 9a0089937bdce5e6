package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPatternWildcard(t *testing.T) {
	p := CompilePattern("user:*")
	assert.True(t, p.Match("user:profile:123"))
	assert.True(t, p.Match("user:"))
	assert.False(t, p.Match("guild:settings:123"))
	assert.False(t, p.Match("xuser:profile"))
}

func TestPatternInnerWildcard(t *testing.T) {
	p := CompilePattern("user:*:123")
	assert.True(t, p.Match("user:profile:123"))
	assert.True(t, p.Match("user:settings:123"))
	assert.False(t, p.Match("user:profile:456"))
}

func TestPatternMetacharactersAreLiteral(t *testing.T) {
	p := CompilePattern("a.b")
	assert.True(t, p.Match("a.b"))
	assert.False(t, p.Match("axb"))

	p = CompilePattern("v[1]")
	assert.True(t, p.Match("v[1]"))
	assert.False(t, p.Match("v1"))
}

func TestPatternMatchAll(t *testing.T) {
	p := CompilePattern("*")
	assert.True(t, p.Match(""))
	assert.True(t, p.Match("anything:at:all"))
}
