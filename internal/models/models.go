package models

import (
	"time"
)

type Account struct {
	UserID       uint   `gorm:"primaryKey;autoIncrement"  json:"user_id"`
	Username     string `gorm:"uniqueIndex;not null"      json:"username"`
	Email        string `gorm:"uniqueIndex;not null"      json:"email"`
	PasswordHash string `gorm:"not null"                  json:"-"`
	PasswordSalt string `gorm:"not null"                  json:"-"`
}

// Login holds the single active refresh token per account. First login
// creates the row, every later login or refresh overwrites it in place.
type Login struct {
	UserID           uint      `gorm:"primaryKey"           json:"user_id"`
	RefreshTokenHash string    `gorm:"not null"             json:"-"`
	RefreshTokenSalt string    `gorm:"not null"             json:"-"`
	ExpiryDate       time.Time `gorm:"not null"             json:"expiry_date"`

	Account Account `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

type WorkSpace struct {
	WorkspaceID          uint   `gorm:"primaryKey;autoIncrement" json:"workspace_id"`
	WorkspaceDefaultName string `gorm:"uniqueIndex;not null"     json:"workspace_default_name"`
	WorkspaceOwnerID     uint   `gorm:"index;not null"           json:"workspace_owner_id"`
}

// WorkspaceAccountLink joins accounts to workspaces. The composite primary
// key keeps each user to a single membership row per workspace. LocaleAlias
// is the member's private display name for the workspace.
type WorkspaceAccountLink struct {
	UserID      uint    `gorm:"primaryKey"      json:"user_id"`
	WorkspaceID uint    `gorm:"primaryKey"      json:"workspace_id"`
	LocaleAlias *string `json:"locale_alias"`

	Account   Account   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"      json:"-"`
	WorkSpace WorkSpace `gorm:"foreignKey:WorkspaceID;constraint:OnDelete:CASCADE" json:"-"`
}

type TodoList struct {
	TodolistID   uint   `gorm:"primaryKey;autoIncrement" json:"todolist_id"`
	WorkspaceID  uint   `gorm:"index;not null"           json:"workspace_id"`
	TodolistName string `gorm:"not null"                 json:"todolist_name"`

	WorkSpace WorkSpace `gorm:"foreignKey:WorkspaceID;constraint:OnDelete:CASCADE" json:"-"`
}

// Todo carries a denormalized WorkspaceID which must always equal its
// todolist's workspace; handlers set it from the looked-up todolist.
type Todo struct {
	TodoID       uint      `gorm:"primaryKey;autoIncrement" json:"todo_id"`
	TodolistID   uint      `gorm:"index;not null"           json:"todolist_id"`
	WorkspaceID  uint      `gorm:"index;not null"           json:"workspace_id"`
	Name         string    `gorm:"index;not null"           json:"name"`
	Description  string    `gorm:"not null"                 json:"description"`
	DueDate      time.Time `gorm:"index;not null"           json:"due_date"`
	Status       string    `gorm:"index;not null"           json:"status"`
	Priority     *string   `gorm:"index"                    json:"priority"`
	LastModified time.Time `gorm:"not null"                 json:"last_modified"`

	TodoList  TodoList  `gorm:"foreignKey:TodolistID;constraint:OnDelete:CASCADE"  json:"-"`
	WorkSpace WorkSpace `gorm:"foreignKey:WorkspaceID;constraint:OnDelete:CASCADE" json:"-"`
}
