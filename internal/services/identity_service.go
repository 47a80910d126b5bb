package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pfotencard-backend/config"
	"pfotencard-backend/internal/utils"
)

var ErrIdentityNotFound = errors.New("identity provider account not found")

// IdentityUpdate carries the fields mirrored to the identity provider. Nil means unchanged.
type IdentityUpdate struct {
	Email    *string
	Password *string
	Name     *string
}

func (u IdentityUpdate) IsEmpty() bool {
	return u.Email == nil && u.Password == nil && u.Name == nil
}

// IdentityProvider is the external account store users sign in with. Accounts are
// addressed by email.
type IdentityProvider interface {
	CreateUser(ctx context.Context, email, password, name string) (string, error)
	UpdateUser(ctx context.Context, email string, update IdentityUpdate) error
	DeleteUser(ctx context.Context, email string) error
}

// NoopIdentityProvider is used when no provider is configured.
type NoopIdentityProvider struct{}

func (NoopIdentityProvider) CreateUser(context.Context, string, string, string) (string, error) {
	return "", nil
}

func (NoopIdentityProvider) UpdateUser(context.Context, string, IdentityUpdate) error { return nil }

func (NoopIdentityProvider) DeleteUser(context.Context, string) error { return nil }

// NewIdentityProvider returns the Supabase admin client when it is configured.
func NewIdentityProvider(cfg *config.Config) IdentityProvider {
	if cfg.SupabaseURL == "" || cfg.SupabaseServiceRoleKey == "" {
		return NoopIdentityProvider{}
	}
	return NewSupabaseIdentityProvider(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey)
}

// SupabaseIdentityProvider talks to the Supabase GoTrue admin API.
type SupabaseIdentityProvider struct {
	baseURL    string
	serviceKey string
	client     *http.Client
}

func NewSupabaseIdentityProvider(baseURL, serviceKey string) *SupabaseIdentityProvider {
	return &SupabaseIdentityProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		client:     utils.NewHTTPClient(15 * time.Second),
	}
}

type supabaseUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type supabaseUserList struct {
	Users []supabaseUser `json:"users"`
}

type supabaseUserAttributes struct {
	Email        *string                `json:"email,omitempty"`
	Password     *string                `json:"password,omitempty"`
	EmailConfirm *bool                  `json:"email_confirm,omitempty"`
	UserMetadata map[string]interface{} `json:"user_metadata,omitempty"`
}

func (p *SupabaseIdentityProvider) CreateUser(ctx context.Context, email, password, name string) (string, error) {
	confirm := true
	attrs := supabaseUserAttributes{
		Email:        &email,
		Password:     &password,
		EmailConfirm: &confirm,
		UserMetadata: map[string]interface{}{"name": name},
	}
	var created supabaseUser
	if err := p.do(ctx, http.MethodPost, "/auth/v1/admin/users", attrs, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

func (p *SupabaseIdentityProvider) UpdateUser(ctx context.Context, email string, update IdentityUpdate) error {
	id, err := p.findID(ctx, email)
	if err != nil {
		return err
	}
	attrs := supabaseUserAttributes{Email: update.Email, Password: update.Password}
	if update.Name != nil {
		attrs.UserMetadata = map[string]interface{}{"name": *update.Name}
	}
	return p.do(ctx, http.MethodPut, "/auth/v1/admin/users/"+id, attrs, nil)
}

func (p *SupabaseIdentityProvider) DeleteUser(ctx context.Context, email string) error {
	id, err := p.findID(ctx, email)
	if err != nil {
		return err
	}
	return p.do(ctx, http.MethodDelete, "/auth/v1/admin/users/"+id, nil, nil)
}

func (p *SupabaseIdentityProvider) findID(ctx context.Context, email string) (string, error) {
	var list supabaseUserList
	if err := p.do(ctx, http.MethodGet, "/auth/v1/admin/users?page=1&per_page=1000", nil, &list); err != nil {
		return "", err
	}
	for _, u := range list.Users {
		if strings.EqualFold(u.Email, email) {
			return u.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrIdentityNotFound, email)
}

func (p *SupabaseIdentityProvider) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", p.serviceKey)
	req.Header.Set("Authorization", "Bearer "+p.serviceKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("identity provider %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
