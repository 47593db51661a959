package chat

// User is a reference to an account owned by the account directory.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}
