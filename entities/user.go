package entities

type User struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Username    string `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email       string `gorm:"size:254;uniqueIndex;not null" json:"email"`
	FirstName   string `gorm:"size:30" json:"first_name"`
	LastName    string `gorm:"size:150" json:"last_name"`
	Password    string `gorm:"size:150;not null" json:"-"`
	Role        string `gorm:"size:150;default:user" json:"role"`
	IsSuperuser bool   `gorm:"default:false" json:"is_superuser"`

	Timestamp
}

// Follow is a directed subscription from FollowerID to AuthorID. The
// composite unique index is the authoritative guard against concurrent
// duplicate follows.
type Follow struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	FollowerID uint `gorm:"uniqueIndex:idx_follow_pair;not null" json:"follower_id"`
	AuthorID   uint `gorm:"uniqueIndex:idx_follow_pair;not null" json:"author_id"`

	Follower *User `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE"`
	Author   *User `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Timestamp
}
