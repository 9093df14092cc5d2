package domain

// Account is an internal funds balance for one address. Purchases and
// marketplace settlements debit and credit accounts inside the same
// transaction as the state they pay for.
type Account struct {
	Address string
	Funds   int64
}
