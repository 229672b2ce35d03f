package domain

import "time"

// DefaultProfileImage is the sentinel image assigned to every new profile.
const DefaultProfileImage = "default-profile.png"

// Profile is the 1:1 companion of a User, created in the same transaction.
type Profile struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"userId"`
	ProfileImage string    `json:"profileImage"`
	Bio          *string   `json:"bio"`
	Phone        *string   `json:"phone"`
	Address      *string   `json:"address"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type UpdateProfileRequest struct {
	Bio     *string `json:"bio"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}
