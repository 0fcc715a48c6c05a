package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reqflux/reqflux/internal/domain"
)

func TestApplyTemplate_NoTemplateNamePassesThrough(t *testing.T) {
	b := New(nil)
	d := domain.RequestDescriptor{URL: "https://example.com"}

	out, err := b.applyTemplate(d)
	require.NoError(t, err)
	assert.Equal(t, d, out)
}

func TestApplyTemplate_UnknownTemplateFails(t *testing.T) {
	b := New(nil)
	_, err := b.applyTemplate(domain.RequestDescriptor{Template: "missing"})
	assert.Error(t, err)
}

func TestApplyTemplate_DescriptorOverridesScalarFields(t *testing.T) {
	b := New(nil)
	b.RegisterTemplate("base", domain.RequestDescriptor{Method: "GET", URL: "https://example.com/base"})

	out, err := b.applyTemplate(domain.RequestDescriptor{Template: "base", Method: "POST"})
	require.NoError(t, err)
	assert.Equal(t, "POST", out.Method)
	assert.Equal(t, "https://example.com/base", out.URL)
	assert.Empty(t, out.Template)
}

func TestApplyTemplate_HeadersDeepMergeWithDescriptorWinning(t *testing.T) {
	b := New(nil)
	b.RegisterTemplate("base", domain.RequestDescriptor{
		Headers: map[string]string{"X-A": "tmpl", "X-B": "tmpl"},
	})

	out, err := b.applyTemplate(domain.RequestDescriptor{
		Template: "base",
		Headers:  map[string]string{"X-B": "override"},
	})
	require.NoError(t, err)
	assert.Equal(t, "tmpl", out.Headers["X-A"])
	assert.Equal(t, "override", out.Headers["X-B"])
}

func TestApplyTemplate_RequiredHeadersReplacedWhenSet(t *testing.T) {
	b := New(nil)
	b.RegisterTemplate("base", domain.RequestDescriptor{RequiredHeaders: []string{"X-Old"}})

	out, err := b.applyTemplate(domain.RequestDescriptor{Template: "base", RequiredHeaders: []string{"X-New"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"X-New"}, out.RequiredHeaders)
}

func TestMergeStringMap_BothEmptyYieldsNil(t *testing.T) {
	assert.Nil(t, mergeStringMap(nil, nil))
}

func TestMergeStringSliceMap_OverrideWins(t *testing.T) {
	base := map[string][]string{"q": {"base"}}
	override := map[string][]string{"q": {"override"}}

	out := mergeStringSliceMap(base, override)
	assert.Equal(t, []string{"override"}, out["q"])
}
