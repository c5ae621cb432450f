package dto

import "nemesix/internal/model"

// ============================================================================
// Model → DTO (Repository 层 → Service 层)
// ============================================================================

// ToProfile model.User → UserProfileDTO
func ToProfile(user *model.User) *UserProfileDTO {
	if user == nil {
		return nil
	}
	return &UserProfileDTO{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// ToProfiles []*model.User → []*UserProfileDTO
func ToProfiles(users []*model.User) []*UserProfileDTO {
	profiles := make([]*UserProfileDTO, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, ToProfile(u))
	}
	return profiles
}

// ============================================================================
// DTO → Model (Service 层 → Repository 层)
// ============================================================================

// ToModel RegisterDTO → model.User，passwordHash 由调用方计算
func (d *RegisterDTO) ToModel(passwordHash string) *model.User {
	return &model.User{
		Username: d.Username,
		Email:    d.Email,
		Password: passwordHash,
	}
}
