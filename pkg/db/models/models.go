package models

// All lists every persisted model, in dependency order, for AutoMigrate in tests
// and the sqlite development driver.
func All() []any {
	return []any{
		&User{},
		&Shop{},
		&Product{},
		&Batch{},
		&Route{},
		&RouteShop{},
		&Order{},
		&OrderLine{},
		&Transaction{},
		&Trip{},
		&TripOrder{},
	}
}
