package mongodb

const (
	UsersCollection    = "users"
	SessionsCollection = "sessions"
)
