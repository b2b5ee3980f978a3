package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/burrow/internal/config"
)

func TestRuleRequestMapping(t *testing.T) {
	prio, table := 100, 4000
	req := ruleRequest(config.RuleSpec{
		Family:   4,
		Priority: &prio,
		Table:    &table,
		Src:      "10.0.0.0",
		SrcLen:   8,
		IIFName:  "dummy0",
	})

	assert.Equal(t, 4, req.Family)
	require.NotNil(t, req.Priority)
	assert.Equal(t, 100, *req.Priority)
	require.NotNil(t, req.Table)
	assert.Equal(t, 4000, *req.Table)
	assert.Equal(t, "10.0.0.0/8", req.Src)
	assert.Equal(t, "dummy0", req.IIFName)
}

func TestRuleRequestDefaults(t *testing.T) {
	req := ruleRequest(config.RuleSpec{})
	assert.Equal(t, 4, req.Family, "unspecified family defaults to IPv4")
	assert.Nil(t, req.Priority)
	assert.Nil(t, req.Table)
	assert.Empty(t, req.Src, "no source prefix without an src field")
}
