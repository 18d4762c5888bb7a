package directory

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
)

// LDAPConfig configures an LDAP or Active Directory server.
type LDAPConfig struct {
	URL          string // ldap://host:389 or ldaps://host:636
	BaseDN       string
	BindDN       string // service account used for searches
	BindPassword string
	Timeout      time.Duration
	SkipVerify   bool
}

// Complete reports whether the server can be used.
func (c LDAPConfig) Complete() bool {
	return c.URL != "" && c.BaseDN != ""
}

// conn is the part of *ldap.Conn the directory needs.
type conn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	Close() error
}

type dialFunc func(cfg LDAPConfig) (conn, error)

func dialLDAP(cfg LDAPConfig) (conn, error) {
	opts := []ldap.DialOpt{ldap.DialWithDialer(&net.Dialer{Timeout: cfg.Timeout})}
	if strings.HasPrefix(cfg.URL, "ldaps://") {
		opts = append(opts, ldap.DialWithTLSConfig(&tls.Config{InsecureSkipVerify: cfg.SkipVerify}))
	}
	c, err := ldap.DialURL(cfg.URL, opts...)
	if err != nil {
		return nil, err
	}
	c.SetTimeout(cfg.Timeout)
	return c, nil
}

// schema differs between plain LDAP and Active Directory
type schema struct {
	userFilter     func(username string) string
	groupFilter    string
	userAttributes []string
	groupName      []string // first non-empty attribute wins
	username       []string
}

var ldapSchema = schema{
	userFilter: func(u string) string {
		return fmt.Sprintf("(cn=%s)", ldap.EscapeFilter(u))
	},
	groupFilter:    "(objectClass=group)",
	userAttributes: []string{"cn", "mail", "displayName", "memberOf"},
	groupName:      []string{"cn"},
	username:       []string{"cn"},
}

var adSchema = schema{
	userFilter: func(u string) string {
		e := ldap.EscapeFilter(u)
		return fmt.Sprintf("(|(sAMAccountName=%s)(userPrincipalName=%s))", e, e)
	},
	groupFilter:    "(&(objectClass=group)(objectCategory=group))",
	userAttributes: []string{"cn", "sAMAccountName", "userPrincipalName", "mail", "displayName", "memberOf"},
	groupName:      []string{"sAMAccountName", "cn"},
	username:       []string{"sAMAccountName", "userPrincipalName", "cn"},
}

// LDAP authenticates with a search followed by a bind as the found entry.
type LDAP struct {
	method string
	cfg    LDAPConfig
	schema schema
	dial   dialFunc
}

// NewLDAP creates a directory for a generic LDAP server.
func NewLDAP(cfg LDAPConfig) *LDAP {
	return newLDAP(MethodLDAP, cfg, ldapSchema)
}

// NewActiveDirectory creates a directory for Active Directory.
func NewActiveDirectory(cfg LDAPConfig) *LDAP {
	return newLDAP(MethodAD, cfg, adSchema)
}

func newLDAP(method string, cfg LDAPConfig, s schema) *LDAP {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &LDAP{method: method, cfg: cfg, schema: s, dial: dialLDAP}
}

// Method returns ldap or ad.
func (d *LDAP) Method() string {
	return d.method
}

func (d *LDAP) connect() (conn, error) {
	c, err := d.dial(d.cfg)
	if err != nil {
		return nil, fmt.Errorf("%s dial: %w", d.method, err)
	}
	if d.cfg.BindDN != "" {
		if err := c.Bind(d.cfg.BindDN, d.cfg.BindPassword); err != nil {
			c.Close()
			return nil, fmt.Errorf("%s service bind: %w", d.method, err)
		}
	}
	return c, nil
}

// Authenticate finds the user's entry and binds with its DN and password.
func (d *LDAP) Authenticate(_ context.Context, cred Credentials) (*User, error) {
	// an empty password is an unauthenticated bind and always succeeds
	if cred.Username == "" || cred.Password == "" {
		return nil, ErrInvalidCredentials
	}
	c, err := d.connect()
	if err != nil {
		return nil, err
	}
	defer c.Close()

	res, err := c.Search(ldap.NewSearchRequest(
		d.cfg.BaseDN, ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 2, 0, false,
		d.schema.userFilter(cred.Username), d.schema.userAttributes, nil,
	))
	if err != nil && !ldap.IsErrorWithCode(err, ldap.LDAPResultSizeLimitExceeded) {
		return nil, fmt.Errorf("%s user search: %w", d.method, err)
	}
	if res == nil || len(res.Entries) == 0 {
		return nil, ErrUserNotFound
	}
	if len(res.Entries) > 1 {
		return nil, ErrAmbiguousUser
	}
	entry := res.Entries[0]

	if err := c.Bind(entry.DN, cred.Password); err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%s user bind: %w", d.method, err)
	}

	user := &User{
		ExternalID: entry.DN,
		Username:   firstAttribute(entry, d.schema.username),
		Name:       entry.GetAttributeValue("displayName"),
		Email:      entry.GetAttributeValue("mail"),
	}
	if user.Username == "" {
		user.Username = cred.Username
	}
	if user.Name == "" {
		user.Name = entry.GetAttributeValue("cn")
	}
	if user.Email == "" && d.method == MethodAD {
		user.Email = entry.GetAttributeValue("userPrincipalName")
	}
	for _, dn := range entry.GetAttributeValues("memberOf") {
		user.Groups = append(user.Groups, Group{ExternalID: dn, Name: nameFromDN(dn)})
	}
	return user, nil
}

// Groups lists every group under the base DN.
func (d *LDAP) Groups(_ context.Context) ([]Group, error) {
	c, err := d.connect()
	if err != nil {
		return nil, err
	}
	defer c.Close()

	attrs := append([]string{"description"}, d.schema.groupName...)
	res, err := c.Search(ldap.NewSearchRequest(
		d.cfg.BaseDN, ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
		d.schema.groupFilter, attrs, nil,
	))
	if err != nil {
		return nil, fmt.Errorf("%s group search: %w", d.method, err)
	}
	groups := make([]Group, 0, len(res.Entries))
	for _, e := range res.Entries {
		name := firstAttribute(e, d.schema.groupName)
		if name == "" {
			name = nameFromDN(e.DN)
		}
		groups = append(groups, Group{
			ExternalID:  e.DN,
			Name:        name,
			Description: e.GetAttributeValue("description"),
		})
	}
	return groups, nil
}

func firstAttribute(e *ldap.Entry, names []string) string {
	for _, n := range names {
		if v := e.GetAttributeValue(n); v != "" {
			return v
		}
	}
	return ""
}

// nameFromDN returns the value of the first RDN, "Buyers" for
// "CN=Buyers,OU=Groups,DC=example,DC=com".
func nameFromDN(dn string) string {
	parsed, err := ldap.ParseDN(dn)
	if err != nil || len(parsed.RDNs) == 0 || len(parsed.RDNs[0].Attributes) == 0 {
		return dn
	}
	return parsed.RDNs[0].Attributes[0].Value
}
