package models

import "time"

type User struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string     `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email     string     `gorm:"size:254;not null" json:"email"`
	Password  string     `gorm:"not null" json:"-"`
	IsStaff   bool       `gorm:"not null;default:false" json:"is_staff"`
	IsActive  bool       `gorm:"not null;default:true" json:"is_active"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Profile *UserProfile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
}

type UserProfile struct {
	ID      int64  `gorm:"primaryKey;autoIncrement" json:"-"`
	UserID  int64  `gorm:"uniqueIndex;not null" json:"-"`
	Mobile  string `gorm:"size:15;not null" json:"mobile"`
	Age     int32  `gorm:"not null" json:"age"`
	Gender  string `gorm:"size:10;not null" json:"gender"`
	Address string `gorm:"type:text;not null" json:"address"`
}
