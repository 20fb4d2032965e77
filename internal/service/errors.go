package service

import (
	"fmt"

	"sparrow/internal/domain"
)

// InvalidStatusError reports a state-machine violation: the entity is not in
// a status that permits the requested operation.
type InvalidStatusError struct {
	Entity    string
	ID        string
	Current   string
	Requested string
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("%s %s is %s, cannot %s", e.Entity, e.ID, e.Current, e.Requested)
}

func invalidOpportunityStatus(id string, current domain.OpportunityStatus, requested string) *InvalidStatusError {
	return &InvalidStatusError{Entity: "opportunity", ID: id, Current: string(current), Requested: requested}
}

func invalidResponseStatus(id string, current domain.ResponseStatus, requested string) *InvalidStatusError {
	return &InvalidStatusError{Entity: "response", ID: id, Current: string(current), Requested: requested}
}
