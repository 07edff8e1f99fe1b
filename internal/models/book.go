package models

import "time"

// Book represents a catalogued title. A book carries at least one of two
// alternate circulation codes (SBIN or stamp); each is unique when present,
// but absent codes never collide with each other.
type Book struct {
	ID        string    `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	Title     string    `gorm:"size:300;not null" bson:"title" json:"title"`
	Author    string    `gorm:"size:200" bson:"author,omitempty" json:"author,omitempty"`
	SBIN      *string   `gorm:"column:sbin;size:100;uniqueIndex" bson:"sbin,omitempty" json:"sbin,omitempty"`
	Stamp     *string   `gorm:"size:100;uniqueIndex" bson:"stamp,omitempty" json:"stamp,omitempty"`
	Available bool      `gorm:"not null;default:true" bson:"available" json:"available"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// HasCode reports whether the book carries at least one circulation code.
func (b Book) HasCode() bool {
	return (b.SBIN != nil && *b.SBIN != "") || (b.Stamp != nil && *b.Stamp != "")
}
