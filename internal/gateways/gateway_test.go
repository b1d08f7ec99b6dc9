package gateways

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryResolveFallsBackToDefault(t *testing.T) {
	paystack := NewMock()
	paystack.GatewayName = "paystack"
	squadco := NewMock()
	squadco.GatewayName = "squadco"

	registry := NewRegistry("paystack", paystack, squadco)

	assert.Equal(t, "squadco", registry.Resolve("squadco").Name())
	assert.Equal(t, "paystack", registry.Resolve("").Name())
	assert.Equal(t, "paystack", registry.Resolve("stripe").Name())

	gw, ok := registry.Get("stripe")
	assert.False(t, ok)
	assert.Nil(t, gw)

	gw, ok = registry.Get("squadco")
	require.True(t, ok)
	assert.Equal(t, "squadco", gw.Name())
}
