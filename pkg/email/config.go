package email

type Config struct {
	Driver               string `env:"MAIL_DRIVER" envDefault:"dev"`
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"MAIL_SENDER_EMAIL" envDefault:"no-reply@localhost.dev"`
	SupportEmail         string `env:"MAIL_SUPPORT_EMAIL" envDefault:"support@localhost.dev"`
	DevDir               string `env:"MAIL_DEV_DIR" envDefault:"tmp/mail"`
}
