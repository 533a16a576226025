// Package sms implements notifications.SMSTransport on top of a generic HTTP
// SMS gateway.
//
// Each message is posted as a form with the fields to, message and, when
// configured, from. The gateway is expected to answer with JSON of the form
// {"id": "...", "status": "queued"}; a non-2xx status or a "failed" or
// "rejected" status is reported as an unsuccessful outcome.
//
//	client, err := sms.New(sms.Config{
//	    GatewayURL: "https://sms.example.com/v1/messages",
//	    APIKey:     key,
//	    RatePerSec: 5,
//	})
package sms
