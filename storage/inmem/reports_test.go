package inmem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uautonoma/actgen/core/acta"
)

func TestReportStore(t *testing.T) {
	store := NewReportStore()

	rep := &acta.Report{Signature: "SIG-MX-1"}
	id := store.Save(rep)
	require.NotEmpty(t, id)

	got, ok := store.Get(id)
	require.True(t, ok)
	assert.Same(t, rep, got)

	other := store.Save(&acta.Report{Signature: "SIG-MX-2"})
	assert.NotEqual(t, id, other)

	_, ok = store.Get("unknown")
	assert.False(t, ok)
}
