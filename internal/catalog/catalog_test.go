package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListKeepsDisplayOrder(t *testing.T) {
	list := List()
	require.Len(t, list, 11)
	assert.Equal(t, "soap", list[0].Key)
	assert.Equal(t, "consult_letter", list[len(list)-1].Key)

	for _, tpl := range list {
		assert.NotEmpty(t, tpl.Name, tpl.Key)
		assert.NotEmpty(t, tpl.Content, tpl.Key)
		assert.False(t, strings.HasSuffix(tpl.Content, "\n"), tpl.Key)
	}
}

func TestLookup(t *testing.T) {
	soap, ok := Lookup(DefaultKey)
	require.True(t, ok)
	assert.Equal(t, "Standard SOAP Note", soap.Name)
	assert.True(t, strings.HasPrefix(soap.Content, "### Subjective\n"))

	hp, ok := Lookup("hp")
	require.True(t, ok)
	assert.Contains(t, hp.Content, "### Review of Systems")

	_, ok = Lookup("discharge_summary")
	assert.False(t, ok)
}

func TestListReturnsCopy(t *testing.T) {
	list := List()
	list[0].Name = "changed"

	soap, _ := Lookup("soap")
	assert.Equal(t, "Standard SOAP Note", soap.Name)
	assert.Equal(t, "Standard SOAP Note", List()[0].Name)
}
