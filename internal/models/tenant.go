package models

// DefaultTenantID is assigned to every user and document until tenants are managed.
const DefaultTenantID uint = 1

type Tenant struct {
	ID   uint   `gorm:"primarykey"`
	Name string `gorm:"type:varchar(255);not null"`
}

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{&Tenant{}, &User{}, &Dog{}, &Transaction{}, &Achievement{}, &Document{}}
}
