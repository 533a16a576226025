package email

// Config holds email settings. Postmark tokens are optional so development
// environments can use DevSender instead.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL,required"`
	SupportEmail         string `env:"SUPPORT_EMAIL,required"`
	// DevOutputDir is where DevSender writes messages.
	DevOutputDir string `env:"EMAIL_DEV_OUTPUT_DIR" envDefault:"./tmp/emails"`
	// AppName is shown in the footer of every template.
	AppName string `env:"EMAIL_APP_NAME" envDefault:"Notifyplan"`
}

// NewSender returns a Postmark sender when both tokens are set and a
// DevSender otherwise.
func NewSender(cfg Config) (EmailSender, error) {
	if cfg.PostmarkServerToken == "" && cfg.PostmarkAccountToken == "" {
		return NewDevSender(cfg.DevOutputDir), nil
	}
	return NewPostmarkClient(cfg)
}
