package model

// AllModels lists every persisted type, in migration order.
func AllModels() []any {
	return []any{
		&Privilege{},
		&Role{},
		&User{},
		&Brand{},
		&Category{},
		&Supplier{},
		&Product{},
		&ProductVariant{},
		&PurchaseOrder{},
		&DocumentCounter{},
		&StockReceipt{},
		&StockMovement{},
		&Sale{},
		&BusinessSetting{},
	}
}
