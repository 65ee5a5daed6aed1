package models

import "time"

// BoxStatusActive is the default lifecycle status of a medication box.
const BoxStatusActive = "active"

// Medication describes a single medication line stored inside a box.
// The slice of medications is persisted as one opaque JSON document.
type Medication struct {
	Name                string `json:"name"`
	Quantity            int    `json:"quantity"`
	Unit                string `json:"unit"`
	ExpirationDate      string `json:"expirationDate,omitempty"`
	LotNumber           string `json:"lotNumber,omitempty"`
	ControlledSubstance bool   `json:"controlledSubstance"`
	Schedule            string `json:"schedule,omitempty"`
}

// Box represents a medication box: a physical container with an inventory of
// medications and a list of users allowed to work with it.
type Box struct {
	ID string `json:"id"`

	// BoxNumber is the unique human-assigned label of the box.
	BoxNumber string `json:"boxNumber"`

	Description string       `json:"description"`
	Location    string       `json:"location"`
	Medications []Medication `json:"medications"`

	// AssignedTo lists the user IDs allowed to view and update the box.
	// Admins always have access regardless of assignment.
	AssignedTo []string `json:"assignedTo"`

	Status string `json:"status"`

	// LastInventoryDate is the time of the most recent inventory check.
	LastInventoryDate *time.Time `json:"lastInventoryDate,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	CreatedBy string    `json:"createdBy"`
	UpdatedBy string    `json:"updatedBy"`
}

// BoxUpdate carries a partial update of a box. Nil fields are left unchanged;
// only allow-listed fields are representable here, so arbitrary request fields
// can never reach the store.
type BoxUpdate struct {
	BoxNumber         *string       `json:"boxNumber,omitempty"`
	Description       *string       `json:"description,omitempty"`
	Location          *string       `json:"location,omitempty"`
	Medications       *[]Medication `json:"medications,omitempty"`
	Status            *string       `json:"status,omitempty"`
	LastInventoryDate *time.Time    `json:"lastInventoryDate,omitempty"`
}

// TableName returns the name of the database table
// associated with the Box model.
func (b Box) TableName() string {
	return "boxes"
}
