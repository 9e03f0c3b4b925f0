package models

// All returns every table the service owns, in migration order.
func All() []interface{} {
	return []interface{}{
		&Organization{},
		&Role{},
		&User{},
		&RolePermission{},
		&FundRecord{},
		&WithdrawalConfig{},
		&WorkflowAuditLog{},
		&Notification{},
	}
}
