package core

// Principal identifies the signed-in account reported along with log entries.
// Kind is either "institute" or "itadmin".
type Principal struct {
	Kind     string
	ID       int
	Username string
	Email    string
}
