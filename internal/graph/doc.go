// Package graph provides a minimal Microsoft Graph client for reading one
// mailbox with application (client-credentials) permissions.
//
// It covers exactly what the poller needs:
//   - client-credentials token exchange against the tenant's v2.0 token endpoint
//   - listing a mailbox's messages, optionally restricted by receivedDateTime
//   - listing a message's attachments, with base64 content inline
//
// Any response other than 200 OK is returned as an *APIError (or *AuthError
// for the token endpoint) carrying the status code and the response body.
// Pagination links are not followed.
//
// Example usage:
//
//	client, err := graph.NewClient(ctx, graph.Credentials{
//	    TenantID:     tenant,
//	    ClientID:     id,
//	    ClientSecret: secret,
//	}, "requests@contoso.com", graph.Options{})
//	if err != nil {
//	    return err
//	}
//
//	msgs, err := client.ListMessages(ctx, time.Now().Add(-time.Hour))
package graph
