package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/oauth2/microsoft"
)

// DefaultGraphURL is the Microsoft Graph v1.0 endpoint.
const DefaultGraphURL = "https://graph.microsoft.com/v1.0"

const graphGroupType = "#microsoft.graph.group"

// AzureConfig configures an Azure AD app registration.
type AzureConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	AuthorityURL string // token endpoint host, login.microsoftonline.com when empty
	GraphURL     string
	Timeout      time.Duration
}

// Complete reports whether the app registration can be used.
func (c AzureConfig) Complete() bool {
	return c.TenantID != "" && c.ClientID != "" && c.ClientSecret != ""
}

// Azure signs users in with the authorization code flow and reads groups
// from Microsoft Graph.
type Azure struct {
	user       oauth2.Config
	app        clientcredentials.Config
	graphURL   string
	httpClient *http.Client
}

// NewAzure creates an Azure AD directory.
func NewAzure(cfg AzureConfig) *Azure {
	if cfg.GraphURL == "" {
		cfg.GraphURL = DefaultGraphURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	endpoint := microsoft.AzureADEndpoint(cfg.TenantID)
	if cfg.AuthorityURL != "" {
		base := strings.TrimRight(cfg.AuthorityURL, "/") + "/" + cfg.TenantID + "/oauth2/v2.0"
		endpoint = oauth2.Endpoint{AuthURL: base + "/authorize", TokenURL: base + "/token"}
	}
	graphURL := strings.TrimRight(cfg.GraphURL, "/")
	return &Azure{
		user: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
			Scopes:       []string{"User.Read", "GroupMember.Read.All"},
		},
		app: clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     endpoint.TokenURL,
			Scopes:       []string{"https://graph.microsoft.com/.default"},
		},
		graphURL:   graphURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Method returns azure.
func (d *Azure) Method() string {
	return MethodAzure
}

// AuthCodeURL is where the browser is sent to sign in.
func (d *Azure) AuthCodeURL(state, redirectURI string) string {
	cfg := d.user
	cfg.RedirectURL = redirectURI
	return cfg.AuthCodeURL(state)
}

func (d *Azure) context(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, d.httpClient)
}

// Authenticate redeems an authorization code and loads the user's profile
// and group memberships.
func (d *Azure) Authenticate(ctx context.Context, cred Credentials) (*User, error) {
	if cred.Code == "" || cred.RedirectURI == "" {
		return nil, ErrInvalidCredentials
	}
	ctx = d.context(ctx)
	cfg := d.user
	cfg.RedirectURL = cred.RedirectURI

	token, err := cfg.Exchange(ctx, cred.Code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("azure token exchange: %w", err)
	}
	client := cfg.Client(ctx, token)

	var me struct {
		ID                string `json:"id"`
		DisplayName       string `json:"displayName"`
		Mail              string `json:"mail"`
		UserPrincipalName string `json:"userPrincipalName"`
	}
	if err := d.get(ctx, client, d.graphURL+"/me", &me); err != nil {
		return nil, err
	}
	groups, err := d.listGroups(ctx, client, d.graphURL+"/me/memberOf")
	if err != nil {
		return nil, err
	}

	user := &User{
		ExternalID: me.ID,
		Username:   me.UserPrincipalName,
		Name:       me.DisplayName,
		Email:      me.Mail,
		Groups:     groups,
	}
	if user.Email == "" {
		user.Email = me.UserPrincipalName
	}
	return user, nil
}

// Groups lists every group in the tenant using the app's own credentials.
func (d *Azure) Groups(ctx context.Context) ([]Group, error) {
	ctx = d.context(ctx)
	return d.listGroups(ctx, d.app.Client(ctx), d.graphURL+"/groups")
}

type graphObject struct {
	Type        string `json:"@odata.type"`
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
}

type graphPage struct {
	Value    []graphObject `json:"value"`
	NextLink string        `json:"@odata.nextLink"`
}

// listGroups follows @odata.nextLink. Directory roles and other objects in
// memberOf are skipped.
func (d *Azure) listGroups(ctx context.Context, client *http.Client, url string) ([]Group, error) {
	groups := []Group{}
	for url != "" {
		var page graphPage
		if err := d.get(ctx, client, url, &page); err != nil {
			return nil, err
		}
		for _, o := range page.Value {
			if o.Type != "" && o.Type != graphGroupType {
				continue
			}
			groups = append(groups, Group{ExternalID: o.ID, Name: o.DisplayName, Description: o.Description})
		}
		url = page.NextLink
	}
	return groups, nil
}

func (d *Azure) get(ctx context.Context, client *http.Client, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create graph request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("graph request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("graph api error [%d]: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode graph response: %w", err)
	}
	return nil
}
