/*
Package gatesdk provides a client SDK for interacting with the idgate identity
gateway service.

# Overview

The gateway sits between an OAuth2/OIDC identity provider and resource
services. It verifies provider-issued access tokens, keeps a local user
directory in sync with the provider, and enriches token claims with
directory-backed attributes. This SDK wraps the gateway's REST surface.

# Client

Create a Client with the gateway base URL and the caller's provider-issued
access token. The token is sent as a bearer credential on every
authenticated call:

	client := gatesdk.NewClient("https://gateway.example.com", accessToken)

	// Who does the gateway think I am?
	me, err := client.Me(ctx)

	// Fetch the enhanced claim set for my token
	enhanced, err := client.EnhancedToken(ctx)

	// Directory lookups (require directory:read scope)
	user, err := client.GetUserByExternalID(ctx, "kc-1")
	user, err = client.GetUserByUsername(ctx, "a.b")
	exists, err := client.UserExists(ctx, "a.b")

	// Directory administration (requires directory:admin scope)
	err = client.DeactivateUser(ctx, "kc-1")

Health probes need no token:

	health, err := client.GetLiveness(ctx)
	health, err = client.GetReadiness(ctx)

# Scope Requirements

Each authenticated operation requires specific scopes, granted by the
identity provider and enforced server-side:

  - profile:read: read the caller's own identity and enhanced claims
  - directory:read: look up directory users
  - directory:admin: deactivate directory users

# Error Handling

Failed calls return *APIError carrying the HTTP status and the structured
error payload the gateway produced:

	user, err := client.GetUserByExternalID(ctx, "kc-404")
	if apiErr, ok := err.(*gatesdk.APIError); ok {
		fmt.Println(apiErr.StatusCode, apiErr.Code)
	}
*/
package gatesdk
