package domain

// ShipmentStatus is the lifecycle status of a shipment.
type ShipmentStatus string

const (
	ShipmentCreated          ShipmentStatus = "CREATED"
	ShipmentReadyForDispatch ShipmentStatus = "READY_FOR_DISPATCH"
	ShipmentInTransit        ShipmentStatus = "IN_TRANSIT"
	ShipmentAtWarehouse      ShipmentStatus = "AT_WAREHOUSE"
	ShipmentDelivered        ShipmentStatus = "DELIVERED"
	ShipmentConcernRaised    ShipmentStatus = "CONCERN_RAISED"
)

// ContainerStatus is the scan-driven status of a single container.
type ContainerStatus string

const (
	ContainerCreated     ContainerStatus = "CREATED"
	ContainerLocked      ContainerStatus = "LOCKED"
	ContainerInTransit   ContainerStatus = "IN_TRANSIT"
	ContainerAtWarehouse ContainerStatus = "AT_WAREHOUSE"
	ContainerDelivered   ContainerStatus = "DELIVERED"
)

// Role identifies the actor performing an operation.
type Role string

const (
	RoleSupplier    Role = "supplier"
	RoleTransporter Role = "transporter"
	RoleWarehouse   Role = "warehouse"
	RoleRetailer    Role = "retailer"
)

// shipmentRank orders shipment statuses for forward-only checks.
// CONCERN_RAISED is a flag state, not part of the forward sequence.
var shipmentRank = map[ShipmentStatus]int{
	ShipmentCreated:          0,
	ShipmentReadyForDispatch: 1,
	ShipmentInTransit:        2,
	ShipmentAtWarehouse:      3,
	ShipmentDelivered:        4,
}

var containerRank = map[ContainerStatus]int{
	ContainerCreated:     0,
	ContainerLocked:      1,
	ContainerInTransit:   2,
	ContainerAtWarehouse: 3,
	ContainerDelivered:   4,
}

// ValidRole reports whether s names a known actor role.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleSupplier, RoleTransporter, RoleWarehouse, RoleRetailer:
		return true
	}
	return false
}

// ValidShipmentStatus reports whether s is a known shipment status.
func ValidShipmentStatus(s string) bool {
	_, ok := shipmentRank[ShipmentStatus(s)]
	return ok || ShipmentStatus(s) == ShipmentConcernRaised
}

// ShipmentStatusRank returns the position of a status in the forward
// sequence. CONCERN_RAISED has no rank.
func ShipmentStatusRank(s ShipmentStatus) (int, bool) {
	r, ok := shipmentRank[s]
	return r, ok
}

// ContainerStatusRank returns the position of a container status in the
// forward sequence.
func ContainerStatusRank(s ContainerStatus) (int, bool) {
	r, ok := containerRank[s]
	return r, ok
}

// ContainerAtLeast reports whether status s has reached target in the
// forward sequence.
func ContainerAtLeast(s, target ContainerStatus) bool {
	sr, ok1 := containerRank[s]
	tr, ok2 := containerRank[target]
	return ok1 && ok2 && sr >= tr
}

// NextContainerStatus resolves the transition a scan by the given role is
// asking for, based on the container's current status. The role must be
// authorized for the next state in sequence: a transporter moves
// CREATED/LOCKED containers into transit, a warehouse receives in-transit
// containers, and a warehouse or retailer completes delivery.
func NextContainerStatus(current ContainerStatus, role Role) (ContainerStatus, error) {
	switch current {
	case ContainerCreated, ContainerLocked:
		if role != RoleTransporter {
			return "", NewTransitionError(ErrCodeRoleNotPermitted, string(role), string(current), string(ContainerInTransit))
		}
		return ContainerInTransit, nil
	case ContainerInTransit:
		if role != RoleWarehouse {
			return "", NewTransitionError(ErrCodeRoleNotPermitted, string(role), string(current), string(ContainerAtWarehouse))
		}
		return ContainerAtWarehouse, nil
	case ContainerAtWarehouse:
		if role != RoleWarehouse && role != RoleRetailer {
			return "", NewTransitionError(ErrCodeRoleNotPermitted, string(role), string(current), string(ContainerDelivered))
		}
		return ContainerDelivered, nil
	case ContainerDelivered:
		return "", NewTransitionError(ErrCodeInvalidTransition, string(role), string(current), "")
	default:
		return "", NewTransitionError(ErrCodeInvalidTransition, string(role), string(current), "")
	}
}

// ShipmentStatusForContainers maps an aggregate container status to the
// shipment status it implies once every container has reached it.
func ShipmentStatusForContainers(s ContainerStatus) (ShipmentStatus, bool) {
	switch s {
	case ContainerInTransit:
		return ShipmentInTransit, true
	case ContainerAtWarehouse:
		return ShipmentAtWarehouse, true
	case ContainerDelivered:
		return ShipmentDelivered, true
	}
	return "", false
}

// CanOverrideShipmentStatus validates a direct status patch: the target
// must be strictly forward of the current status.
func CanOverrideShipmentStatus(current, target ShipmentStatus) error {
	cr, ok := shipmentRank[current]
	if !ok {
		return NewTransitionError(ErrCodeInvalidTransition, "", string(current), string(target))
	}
	tr, ok := shipmentRank[target]
	if !ok {
		return NewTransitionError(ErrCodeInvalidTransition, "", string(current), string(target))
	}
	if tr <= cr {
		return NewTransitionError(ErrCodeInvalidTransition, "", string(current), string(target))
	}
	return nil
}
