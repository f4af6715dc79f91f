package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSidecar_Apply(t *testing.T) {
	s := &Sidecar{DocumentID: "abc", ExhibitID: "ap_ireland"}

	changed := s.Apply(SidecarDelta{Data: map[string][]string{
		FieldDescriptionText: {"First"},
		FieldGrantText:       {"Grant 456"},
	}})
	assert.True(t, changed)

	t.Run("same values are a no-op", func(t *testing.T) {
		assert.False(t, s.Apply(SidecarDelta{Data: map[string][]string{FieldGrantText: {"Grant 456"}}}))
	})

	t.Run("keys overwrite and missing keys are kept", func(t *testing.T) {
		assert.True(t, s.Apply(SidecarDelta{Data: map[string][]string{FieldDescriptionText: {"Second"}}}))
		assert.Equal(t, []string{"Second"}, s.Data[FieldDescriptionText])
		assert.Equal(t, []string{"Grant 456"}, s.Data[FieldGrantText])
	})

	t.Run("private is sticky", func(t *testing.T) {
		assert.True(t, s.Apply(SidecarDelta{Private: true}))
		assert.False(t, s.Apply(SidecarDelta{Private: false}))
		assert.True(t, s.Private)
	})
}

func TestSidecar_ApplyCopiesValues(t *testing.T) {
	values := []string{"a"}
	s := &Sidecar{}
	s.Apply(SidecarDelta{Data: map[string][]string{"k": values}})
	values[0] = "b"
	assert.Equal(t, []string{"a"}, s.Data["k"])
}

func TestSidecar_CloneAndEqual(t *testing.T) {
	s := &Sidecar{DocumentID: "abc", ExhibitID: "ap_ireland", Data: map[string][]string{"k": {"v"}}}
	c := s.Clone()
	assert.True(t, s.Equal(c))

	c.Data["k"][0] = "changed"
	assert.Equal(t, "v", s.Data["k"][0])
	assert.False(t, s.Equal(c))

	c = s.Clone()
	c.Private = true
	assert.False(t, s.Equal(c))
}
