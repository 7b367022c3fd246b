package identity

import (
	"example.com/shipchain/services/shipment/domain"
	"example.com/shipchain/services/shipment/models"
)

// BuildContainers produces the container set for a shipment: exactly count
// records numbered 1..count, each carrying its own unique id as the QR
// payload and starting in CREATED.
func BuildContainers(shipmentHash string, count, quantityPerContainer int) ([]models.Container, error) {
	if count < 1 || quantityPerContainer < 1 {
		return nil, domain.ErrInvalidContainerSpec
	}

	containers := make([]models.Container, 0, count)
	for seq := 1; seq <= count; seq++ {
		containerID, err := DeriveContainerID(shipmentHash, seq)
		if err != nil {
			return nil, err
		}
		containers = append(containers, models.Container{
			ContainerID:     containerID,
			ShipmentHash:    shipmentHash,
			ContainerNumber: seq,
			Quantity:        quantityPerContainer,
			Status:          string(domain.ContainerCreated),
			QRPayload:       containerID,
		})
	}

	return containers, nil
}
