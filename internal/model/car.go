package model

import "time"

// Car — серверная модель автомобиля.
type Car struct {
	Base
	SoftDelete

	CarType       string     `json:"car_type"`
	ChassisNumber string     `json:"chassis_number"`
	PlateNumber   string     `gorm:"index" json:"plate_number"`
	Status        string     `json:"status"`
	BodyCondition string     `json:"body_condition"`
	ReceiptDate   *time.Time `json:"receipt_date,omitempty"`
	Note          string     `json:"note"`
	TrackingCode  string     `json:"tracking_code"`

	// Связи. Ссылочная целостность поддерживается сервисным слоем, не СУБД.
	LocationID  *string    `gorm:"type:uuid;index" json:"location_id,omitempty"`
	Location    *Location  `json:"location,omitempty"`
	OwnershipID *string    `gorm:"type:uuid;index" json:"ownership_id,omitempty"`
	Ownership   *Ownership `json:"ownership,omitempty"`

	Attachments []Attachment `gorm:"foreignKey:CarID" json:"attachments"`
}

// CarFields — изменяемые поля автомобиля, заменяются целиком при обновлении.
type CarFields struct {
	CarType       string
	ChassisNumber string
	PlateNumber   string
	Status        string
	BodyCondition string
	ReceiptDate   *time.Time
	Note          string
	TrackingCode  string
	LocationID    *string
	OwnershipID   *string
}

// Apply переносит поля в модель.
func (f CarFields) Apply(c *Car) {
	c.CarType = f.CarType
	c.ChassisNumber = f.ChassisNumber
	c.PlateNumber = f.PlateNumber
	c.Status = f.Status
	c.BodyCondition = f.BodyCondition
	c.ReceiptDate = f.ReceiptDate
	c.Note = f.Note
	c.TrackingCode = f.TrackingCode
	c.LocationID = f.LocationID
	c.OwnershipID = f.OwnershipID
}

// AttachmentFor возвращает текущее вложение категории, если оно загружено.
func (c *Car) AttachmentFor(cat AttachmentCategory) *Attachment {
	for i := range c.Attachments {
		if c.Attachments[i].Category == cat {
			return &c.Attachments[i]
		}
	}
	return nil
}
