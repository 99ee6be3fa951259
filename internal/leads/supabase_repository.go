package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SupabaseConfig holds the PostgREST endpoint and the service-role key.
type SupabaseConfig struct {
	URL            string
	ServiceRoleKey string
	Table          string
}

// Validate reports the missing settings as a *ConfigError.
func (c SupabaseConfig) Validate() error {
	var missing []string
	if strings.TrimSpace(c.URL) == "" {
		missing = append(missing, "SUPABASE_URL")
	}
	if strings.TrimSpace(c.ServiceRoleKey) == "" {
		missing = append(missing, "SUPABASE_SERVICE_ROLE_KEY")
	}
	if len(missing) > 0 {
		return &ConfigError{Missing: missing}
	}
	return nil
}

// SupabaseRepository inserts leads through the Supabase REST (PostgREST) API.
type SupabaseRepository struct {
	baseURL string
	key     string
	table   string
	client  *http.Client
}

// NewSupabaseRepository builds a repository for one request or one runtime.
// No session state is kept between calls.
func NewSupabaseRepository(cfg SupabaseConfig, client *http.Client) (*SupabaseRepository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	table := cfg.Table
	if table == "" {
		table = "leads"
	}
	return &SupabaseRepository{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		key:     cfg.ServiceRoleKey,
		table:   table,
		client:  client,
	}, nil
}

type supabaseRow struct {
	Name     string          `json:"name"`
	Phone    string          `json:"phone"`
	Telegram *string         `json:"telegram"`
	WhatsApp *string         `json:"whatsapp"`
	Website  *string         `json:"website"`
	Budget   *string         `json:"budget"`
	Source   string          `json:"source"`
	UTM      json.RawMessage `json:"utm"`
}

type supabaseError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

// Create inserts one row and asks PostgREST to return the generated id.
func (r *SupabaseRepository) Create(ctx context.Context, lead *Lead) (*Lead, error) {
	body, err := json.Marshal([]supabaseRow{{
		Name:     lead.Name,
		Phone:    lead.Phone,
		Telegram: lead.Telegram,
		WhatsApp: lead.WhatsApp,
		Website:  lead.Website,
		Budget:   lead.Budget,
		Source:   lead.Source,
		UTM:      lead.UTM,
	}})
	if err != nil {
		return nil, fmt.Errorf("leads: marshal row: %w", err)
	}

	endpoint := fmt.Sprintf("%s/rest/v1/%s?select=id", r.baseURL, url.PathEscape(r.table))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("leads: build supabase request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apikey", r.key)
	req.Header.Set("Authorization", "Bearer "+r.key)
	req.Header.Set("Prefer", "return=representation")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &StoreError{Err: fmt.Errorf("leads: supabase request failed: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &StoreError{Err: fmt.Errorf("leads: read supabase response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr supabaseError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Message != "" {
			return nil, &StoreError{Detail: apiErr.Message, Err: fmt.Errorf("leads: supabase status %d code %s", resp.StatusCode, apiErr.Code)}
		}
		return nil, &StoreError{Err: fmt.Errorf("leads: supabase returned status %d", resp.StatusCode)}
	}

	var rows []struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(respBody, &rows); err != nil {
		return nil, &StoreError{Err: fmt.Errorf("leads: decode supabase response: %w", err)}
	}

	stored := *lead
	if len(rows) > 0 {
		stored.ID = rawID(rows[0].ID)
	}
	if stored.ID == "" {
		return nil, &StoreError{Err: errors.New("leads: supabase insert returned no id")}
	}
	stored.CreatedAt = time.Now().UTC()
	return &stored, nil
}

// rawID renders a PostgREST id that may be a bigint or a uuid string.
func rawID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "null" {
		return ""
	}
	return trimmed
}
