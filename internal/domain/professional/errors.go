package professional

import "errors"

var (
	ErrProfessionalNotFound = errors.New("professional not found")
	ErrNotAcceptingPatients = errors.New("professional is not accepting new patients")
)
