// Package email delivers the email channel of notifications.
//
// Transport implements notifications.EmailTransport. It renders one of the
// templ components in package templates (generic message, bill reminder or
// motivational message) inside a shared layout and hands the HTML to an
// EmailSender:
//
//   - the Postmark client sends through the Postmark transactional API;
//   - DevSender writes HTML and JSON files to a directory for local work.
//
// NewSender picks between them based on whether Postmark tokens are set:
//
//	var cfg email.Config
//	config.MustLoad(&cfg)
//
//	sender, err := email.NewSender(cfg)
//	if err != nil {
//	    return err
//	}
//	transport := email.NewTransport(sender, email.WithAppName(cfg.AppName))
package email
