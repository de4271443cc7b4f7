package schema

// UserAccountTable represents the 'users.account' table
type UserAccountTable struct {
	Table         string
	ID            string
	Username      string
	Email         string
	Password      string
	Role          string
	IsPremium     string
	TotalEarnings string
	IsVerified    string
	IsActive      string
	LastLoginAt   string
	DisplayName   string
	AvatarURL     string
	Bio           string
	Website       string
	CreatedAt     string
	UpdatedAt     string
	DeletedAt     string
}

// UserAccount is the schema definition for users.account
var UserAccount = UserAccountTable{
	Table:         "users.account",
	ID:            "id",
	Username:      "username",
	Email:         "email",
	Password:      "password_hash",
	Role:          "role",
	IsPremium:     "is_premium",
	TotalEarnings: "total_earnings",
	IsVerified:    "is_verified",
	IsActive:      "is_active",
	LastLoginAt:   "last_login_at",
	DisplayName:   "display_name",
	AvatarURL:     "avatar_url",
	Bio:           "bio",
	Website:       "website",
	CreatedAt:     "created_at",
	UpdatedAt:     "updated_at",
	DeletedAt:     "deleted_at",
}

// Columns returns all standard column names
func (t UserAccountTable) Columns() []string {
	return []string{
		t.ID, t.Username, t.Email, t.Password, t.Role, t.IsPremium,
		t.TotalEarnings, t.IsVerified, t.IsActive, t.LastLoginAt,
		t.DisplayName, t.AvatarURL, t.Bio, t.Website,
		t.CreatedAt, t.UpdatedAt, t.DeletedAt,
	}
}
