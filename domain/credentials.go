package domain

// DefaultCompanyID selects the caller's own account.
const DefaultCompanyID = "0"

// Credentials are the static tokens exchanged for a session.
type Credentials struct {
	ConsumerToken string
	EmployeeToken string
	CompanyID     string
}

// Validate reports a configuration error when a required token is absent.
func (c Credentials) Validate() error {
	if c.ConsumerToken == "" {
		return ErrMissingConsumerToken
	}
	if c.EmployeeToken == "" {
		return ErrMissingEmployeeToken
	}
	return nil
}

// Company returns the account identifier, defaulting to the caller's own.
func (c Credentials) Company() string {
	if c.CompanyID == "" {
		return DefaultCompanyID
	}
	return c.CompanyID
}
