package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrOfferExpired    = errors.New("offer expired")
	ErrOfferDepleted   = errors.New("offer depleted")
	ErrNoBotForChannel = errors.New("no bot registered for channel")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrGuardUnbound    = errors.New("guard chat not bound")
)
