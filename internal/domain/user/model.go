package user

// Principal is the authenticated caller resolved by the account service.
type Principal struct {
	UserID string
	Email  string
}
