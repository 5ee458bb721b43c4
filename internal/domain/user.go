package domain

// User carries the slice of the marketplace user record that delivery
// needs: the team number connections address each other by, and the
// contact channel for offline notifications.
type User struct {
	UUID       string
	TeamNumber int
	TeamName   string
	Email      string
}

// UserModel is the GORM model for the users table.
type UserModel struct {
	UUID       string `gorm:"type:varchar(36);primaryKey"`
	TeamNumber int    `gorm:"uniqueIndex;not null"`
	TeamName   string `gorm:"type:varchar(255)"`
	Email      string `gorm:"type:varchar(255)"`
}

// TableName specifies the table name for UserModel.
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts UserModel to domain User.
func (m *UserModel) ToDomain() *User {
	return &User{
		UUID:       m.UUID,
		TeamNumber: m.TeamNumber,
		TeamName:   m.TeamName,
		Email:      m.Email,
	}
}
