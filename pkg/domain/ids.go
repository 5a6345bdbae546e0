package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Typed IDs keep the different identifier spaces from being mixed up at
// compile time. All of them are UUIDs underneath.
type (
	// ProjectID identifies one CAD project (one drawing lineage).
	ProjectID uuid.UUID

	// LinkID identifies one entity link in the registry.
	LinkID uuid.UUID

	// ObjectID identifies one row in a domain object table.
	ObjectID uuid.UUID

	// ReviewItemID identifies one queued low-confidence entity.
	ReviewItemID uuid.UUID
)

func NewProjectID() ProjectID       { return ProjectID(uuid.New()) }
func NewLinkID() LinkID             { return LinkID(uuid.New()) }
func NewObjectID() ObjectID         { return ObjectID(uuid.New()) }
func NewReviewItemID() ReviewItemID { return ReviewItemID(uuid.New()) }

func ParseProjectID(s string) (ProjectID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ProjectID{}, fmt.Errorf("parse project id: %w", err)
	}
	return ProjectID(u), nil
}

func ParseLinkID(s string) (LinkID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return LinkID{}, fmt.Errorf("parse link id: %w", err)
	}
	return LinkID(u), nil
}

func ParseObjectID(s string) (ObjectID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ObjectID{}, fmt.Errorf("parse object id: %w", err)
	}
	return ObjectID(u), nil
}

func ParseReviewItemID(s string) (ReviewItemID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ReviewItemID{}, fmt.Errorf("parse review item id: %w", err)
	}
	return ReviewItemID(u), nil
}

func (id ProjectID) String() string    { return uuid.UUID(id).String() }
func (id LinkID) String() string       { return uuid.UUID(id).String() }
func (id ObjectID) String() string     { return uuid.UUID(id).String() }
func (id ReviewItemID) String() string { return uuid.UUID(id).String() }

func (id ProjectID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id LinkID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id ObjectID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id ReviewItemID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// Text marshaling keeps the IDs as canonical UUID strings in JSON and
// database scans.

func (id ProjectID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id LinkID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }
func (id ObjectID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id ReviewItemID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *ProjectID) UnmarshalText(b []byte) error {
	parsed, err := ParseProjectID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *LinkID) UnmarshalText(b []byte) error {
	parsed, err := ParseLinkID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *ObjectID) UnmarshalText(b []byte) error {
	parsed, err := ParseObjectID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *ReviewItemID) UnmarshalText(b []byte) error {
	parsed, err := ParseReviewItemID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
