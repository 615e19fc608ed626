package repoargs

type CreateUser struct {
	Name          string
	Email         string
	Password      string
	CreditBalance int64
}
