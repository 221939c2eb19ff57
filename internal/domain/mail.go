package domain

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

const MailTypePasswordChanged = "password_changed"

type PasswordChangedMailData struct {
	FullName  string `json:"fullName"`
	Tenant    string `json:"tenant"`
	ChangedAt string `json:"changedAt"`
}
