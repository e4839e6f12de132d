package models

import "time"

const (
	RoleConsultant = "consultant"
	RoleAdmin      = "admin"
)

type Agent struct {
	ID                int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name              string     `gorm:"not null" json:"name"`
	Email             string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash      string     `gorm:"not null" json:"-"`
	Role              string     `gorm:"index;not null;default:consultant" json:"role"`
	AgentCode         string     `gorm:"uniqueIndex;not null" json:"agent_code"`
	ContactDetails    string     `json:"contact_details"`
	Province          string     `gorm:"index" json:"province"`
	Town              string     `json:"town"`
	Address           string     `gorm:"type:text" json:"address"`
	AboutMe           string     `gorm:"type:text" json:"about_me"`
	PhotoURL          string     `json:"photo_url"`
	TrainingCompleted bool       `gorm:"default:false" json:"training_completed"`
	CreatedAt         *time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         *time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *Agent) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// PublicAgent is the directory projection of an Agent: the fields shown on
// the public map, nothing that identifies the account.
type PublicAgent struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Province string `json:"province"`
	Town     string `json:"town"`
	PhotoURL string `json:"photo_url"`
}

// PublicAgentProfile extends PublicAgent with the contact fields exposed by
// the scoped province search.
type PublicAgentProfile struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Province       string `json:"province"`
	Town           string `json:"town"`
	AboutMe        string `json:"about_me"`
	ContactDetails string `json:"contact_details"`
	Email          string `json:"email"`
	PhotoURL       string `json:"photo_url"`
}
