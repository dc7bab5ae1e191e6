// Package identity authenticates API callers. A bearer JWT signed with HS256
// carries the user id in "sub" and the selected organization in "org_id".
// Middleware verifies the token and stores an Identity in the request
// context. RequireOrg then rejects callers that have not picked an
// organization, since entitlements belong to organizations, not users.
package identity
