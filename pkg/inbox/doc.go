// Package inbox exposes the in-app notification inbox over HTTP.
//
// Mount the handler under any prefix:
//
//	r := chi.NewRouter()
//	r.Mount("/notifications", inbox.NewHandler(store, hub).Handle())
//
// The recipient is taken from the X-Recipient-ID header unless a
// RecipientFunc is configured. The stream endpoint pushes every record
// published to the broadcast hub as a datastar patch that prepends an Item
// to the #notifications list.
package inbox
