package email_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyplan/pkg/email"
)

func postmarkConfig() email.Config {
	return email.Config{
		PostmarkServerToken:  "server-token",
		PostmarkAccountToken: "account-token",
		SenderEmail:          "noreply@example.com",
		SupportEmail:         "support@example.com",
	}
}

func TestNewPostmarkClient_InvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*email.Config)
		msg    string
	}{
		{"server token", func(c *email.Config) { c.PostmarkServerToken = "" }, "PostmarkServerToken is required"},
		{"account token", func(c *email.Config) { c.PostmarkAccountToken = "" }, "PostmarkAccountToken is required"},
		{"sender", func(c *email.Config) { c.SenderEmail = "nope" }, "SenderEmail"},
		{"support", func(c *email.Config) { c.SupportEmail = "" }, "SupportEmail"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := postmarkConfig()
			tt.mutate(&cfg)

			client, err := email.NewPostmarkClient(cfg)
			assert.Nil(t, client)
			assert.ErrorIs(t, err, email.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}

	assert.Panics(t, func() { email.MustNewPostmarkClient(email.Config{}) })
}

func TestPostmarkClient_SendEmail(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("posts the message", func(t *testing.T) {
		t.Parallel()

		var got map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.True(t, strings.HasSuffix(r.URL.Path, "/email"))
			assert.Equal(t, "server-token", r.Header.Get("X-Postmark-Server-Token"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"To":"user@example.com","MessageID":"m-1","ErrorCode":0,"Message":"OK"}`))
		}))
		t.Cleanup(srv.Close)

		client, err := email.NewPostmarkClient(postmarkConfig(), email.WithPostmarkBaseURL(srv.URL), email.WithPostmarkHTTPClient(srv.Client()))
		require.NoError(t, err)

		require.NoError(t, client.SendEmail(ctx, email.SendEmailParams{
			SendTo:   "user@example.com",
			Subject:  "Hello",
			BodyHTML: "<p>Hi</p>",
			Tag:      "generic",
		}))

		assert.Equal(t, "noreply@example.com", got["From"])
		assert.Equal(t, "support@example.com", got["ReplyTo"])
		assert.Equal(t, "user@example.com", got["To"])
		assert.Equal(t, "Hello", got["Subject"])
		assert.Equal(t, "<p>Hi</p>", got["HtmlBody"])
		assert.Equal(t, "generic", got["Tag"])
	})

	t.Run("api error code", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"ErrorCode":300,"Message":"Invalid email request"}`))
		}))
		t.Cleanup(srv.Close)

		client, err := email.NewPostmarkClient(postmarkConfig(), email.WithPostmarkBaseURL(srv.URL))
		require.NoError(t, err)

		err = client.SendEmail(ctx, email.SendEmailParams{SendTo: "user@example.com", Subject: "Hi", BodyHTML: "<p>x</p>"})
		assert.ErrorIs(t, err, email.ErrFailedToSendEmail)
	})

	t.Run("invalid params are not sent", func(t *testing.T) {
		t.Parallel()

		client, err := email.NewPostmarkClient(postmarkConfig(), email.WithPostmarkBaseURL("http://127.0.0.1:1"))
		require.NoError(t, err)

		err = client.SendEmail(ctx, email.SendEmailParams{SendTo: "user@example.com"})
		assert.ErrorIs(t, err, email.ErrInvalidParams)
	})
}
