package models

import "gorm.io/gorm"

// User represents a user account. The relationship core only ever reads
// its ID and Handle; everything else is registration/login glue.
type User struct {
	gorm.Model
	Handle       string `gorm:"size:255;unique;not null"`
	Email        string `gorm:"size:255;unique;not null"`
	PasswordHash string `gorm:"size:255;not null"`
}
