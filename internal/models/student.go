package models

import "time"

// Student represents a registered borrower identified by a unique admission number.
type Student struct {
	ID              string    `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	Name            string    `gorm:"size:200;not null" bson:"name" json:"name"`
	AdmissionNumber string    `gorm:"size:6;uniqueIndex;not null" bson:"admission_number" json:"admission_number"`
	ClassName       string    `gorm:"size:50" bson:"class_name,omitempty" json:"class_name,omitempty"`
	Section         string    `gorm:"size:50" bson:"section,omitempty" json:"section,omitempty"`
	Contact         string    `gorm:"size:100" bson:"contact,omitempty" json:"contact,omitempty"`
	Warnings        int       `gorm:"not null;default:0" bson:"warnings" json:"warnings"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
}
