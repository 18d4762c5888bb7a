// Package directory authenticates users against external identity providers
// and reads their group memberships.
package directory

import "errors"

// Login methods backed by a directory.
const (
	MethodLDAP  = "ldap"
	MethodAD    = "ad"
	MethodAzure = "azure"
)

var (
	ErrInvalidCredentials = errors.New("directory: invalid credentials")
	ErrUserNotFound       = errors.New("directory: user not found")
	ErrAmbiguousUser      = errors.New("directory: more than one entry matches")
)

// Credentials carries whatever the method needs: username and password for
// LDAP and AD, an authorization code and redirect URI for Azure AD.
type Credentials struct {
	Username    string
	Password    string
	Code        string
	RedirectURI string
}

// Group is a directory group. ExternalID is the DN for LDAP and AD and the
// object id for Azure AD.
type Group struct {
	ExternalID  string
	Name        string
	Description string
}

// User is an authenticated directory account.
type User struct {
	ExternalID string
	Username   string
	Name       string
	Email      string
	Groups     []Group
}
