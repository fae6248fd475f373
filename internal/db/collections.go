package db

const (
	CollectionGames      = "games"
	CollectionUsers      = "users"
	CollectionPayments   = "payments"
	CollectionVenues     = "venues"
	CollectionEmailQueue = "emailqueues"
)
