package models

// All lists every persisted model, in dependency order.
func All() []any {
	return []any{
		&CustomerProfile{},
		&ArtisanProfile{},
		&Booking{},
		&Negotiation{},
		&NegotiationRound{},
		&Payment{},
		&Escrow{},
		&Transaction{},
		&Notification{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
