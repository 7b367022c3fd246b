package identity

import (
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/shipchain/services/shipment/domain"
)

func TestBuildContainers(t *testing.T) {
	containers, err := BuildContainers("SHP-abc123", 3, 50)
	require.NoError(t, err)
	require.Len(t, containers, 3)

	seen := make(map[string]bool)
	for i, c := range containers {
		require.Equal(t, i+1, c.ContainerNumber)
		require.Equal(t, "SHP-abc123", c.ShipmentHash)
		require.Equal(t, 50, c.Quantity)
		require.Equal(t, string(domain.ContainerCreated), c.Status)

		// The QR payload is exactly the container id, nothing else.
		require.Equal(t, c.ContainerID, c.QRPayload)

		require.False(t, seen[c.ContainerID])
		seen[c.ContainerID] = true
	}
}

func TestBuildContainersSequentialNumbersNoGaps(t *testing.T) {
	containers, err := BuildContainers("SHP-xyz", 10, 1)
	require.NoError(t, err)

	numbers := make(map[int]bool)
	for _, c := range containers {
		numbers[c.ContainerNumber] = true
	}
	for n := 1; n <= 10; n++ {
		require.True(t, numbers[n], "missing container number %d", n)
	}
	require.Len(t, numbers, 10)
}

func TestBuildContainersRejectsInvalidSpec(t *testing.T) {
	_, err := BuildContainers("SHP-abc123", 0, 10)
	require.Equal(t, domain.ErrInvalidContainerSpec, err)

	_, err = BuildContainers("SHP-abc123", 3, 0)
	require.Equal(t, domain.ErrInvalidContainerSpec, err)

	_, err = BuildContainers("SHP-abc123", -1, -1)
	require.Equal(t, domain.ErrInvalidContainerSpec, err)
}
