package domain

import "errors"

var (
	ErrInvalidCapacity       = errors.New("capacity usage out of range [0,1]")
	ErrInvalidEmergencyLevel = errors.New("emergency level out of range [1,5]")
	ErrInvalidBaseVolume     = errors.New("base daily emails must be non-negative")
	ErrUnknownPolicy         = errors.New("unknown ranking policy")
	ErrCustomerNotFound      = errors.New("customer not found")
	ErrPlanNotFound          = errors.New("plan not found")
)
