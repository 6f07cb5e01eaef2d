package models

// AuditLog records capital-moving and rule-changing operations.
type AuditLog struct {
	Base
	ActorID      string `gorm:"size:64;not null;index" json:"actor_id"`
	Action       string `gorm:"not null" json:"action"`
	ResourceType string `gorm:"not null" json:"resource_type"`
	ResourceID   string `gorm:"size:64" json:"resource_id"`
	IPAddress    string `json:"ip_address"`
	Changes      string `json:"changes,omitempty"`
}
