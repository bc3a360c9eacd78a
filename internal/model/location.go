package model

// Location — физическое место хранения автомобилей.
type Location struct {
	Base
	SoftDelete

	Name         string `gorm:"not null;index" json:"name"`
	Details      string `json:"details"`
	LocationName string `json:"location_name"`

	Cars        []Car        `gorm:"foreignKey:LocationID" json:"cars,omitempty"`
	Attachments []Attachment `gorm:"foreignKey:LocationID" json:"attachments,omitempty"`
}

// Ownership — сторона-владелец автомобилей.
type Ownership struct {
	Base
	SoftDelete

	Name         string  `gorm:"not null;index" json:"name"`
	Details      string  `json:"details"`
	LocationName string  `json:"location_name"`
	LocationID   *string `gorm:"type:uuid;index" json:"location_id,omitempty"`

	Cars []Car `gorm:"foreignKey:OwnershipID" json:"cars,omitempty"`
}
