package bind_group_provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBindGroupProvider(t *testing.T) {
	p := NewBindGroupProvider("bones", WithIndexCount(36))
	assert.Equal(t, "bones", p.Label())
	assert.Equal(t, 36, p.IndexCount())
	assert.Nil(t, p.BindGroup())
	assert.Nil(t, p.Buffer(0))
	assert.Empty(t, p.Buffers())
	assert.Nil(t, p.VertexBuffer())
	assert.Nil(t, p.IndexBuffer())
}

func TestReleaseEmptyProvider(t *testing.T) {
	p := NewBindGroupProvider("empty")
	p.SetBuffer(1, nil)
	p.SetIndexCount(12)

	assert.NotPanics(t, p.Release)
	assert.Empty(t, p.Buffers())
	assert.Equal(t, 0, p.IndexCount())
}
