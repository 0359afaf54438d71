package store

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"waste-console/internal/apperr"
	"waste-console/internal/models"
)

// Tokens issued by the store. The console stores them sealed and forwards them as-is.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type LoginResult struct {
	User models.User `json:"user"`
	Tokens
}

type TicketQuery struct {
	Year     int
	From     string
	To       string
	SectorID string
	Page     int
	Limit    int
}

func (q TicketQuery) values() url.Values {
	v := url.Values{}
	if q.Year > 0 {
		v.Set("year", strconv.Itoa(q.Year))
	}
	if q.From != "" {
		v.Set("from", q.From)
	}
	if q.To != "" {
		v.Set("to", q.To)
	}
	if q.SectorID != "" {
		v.Set("sector_id", q.SectorID)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// TicketPage is one page of a ticket listing plus the side data the store sends with it.
type TicketPage struct {
	Items          []models.WasteTicket `json:"items"`
	Pagination     Pagination           `json:"pagination"`
	Summary        models.TicketSummary `json:"summary"`
	Suppliers      []models.Party       `json:"suppliers"`
	Operators      []models.Party       `json:"operators"`
	AllSectors     []models.Sector      `json:"all_sectors"`
	AvailableYears []int                `json:"available_years"`
	LocationLabel  string               `json:"location_label"`
}

const (
	// maxListPages bounds ListAllTickets against a store that never reports the last page.
	maxListPages  = 1000
	listPageLimit = 500
)

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var out LoginResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, "", http.MethodPost, "/auth/login", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	var out Tokens
	body := map[string]string{"refresh_token": refreshToken}
	if err := c.do(ctx, "", http.MethodPost, "/auth/refresh", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, token, http.MethodPost, "/auth/logout", nil, nil, nil)
}

func (c *Client) ListTickets(ctx context.Context, token string, rt models.ReportType, q TicketQuery) (*TicketPage, error) {
	var out TicketPage
	if err := c.do(ctx, token, http.MethodGet, "/tickets/"+string(rt), q.values(), nil, &out); err != nil {
		return nil, err
	}
	if out.Items == nil {
		out.Items = []models.WasteTicket{}
	}
	return &out, nil
}

// ListAllTickets walks every page of the listing. The returned page carries the side
// data of the first page and all items.
func (c *Client) ListAllTickets(ctx context.Context, token string, rt models.ReportType, q TicketQuery) (*TicketPage, error) {
	q.Limit = listPageLimit
	q.Page = 1
	first, err := c.ListTickets(ctx, token, rt, q)
	if err != nil {
		return nil, err
	}
	all := *first
	for page := 2; page <= first.Pagination.TotalPages && page <= maxListPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, apperr.Network(err, "ticket listing cancelled")
		}
		q.Page = page
		next, err := c.ListTickets(ctx, token, rt, q)
		if err != nil {
			return nil, err
		}
		if len(next.Items) == 0 {
			break
		}
		all.Items = append(all.Items, next.Items...)
	}
	all.Pagination = Pagination{Page: 1, Limit: len(all.Items), Total: len(all.Items), TotalPages: 1}
	return &all, nil
}

func (c *Client) GetTicket(ctx context.Context, token string, rt models.ReportType, id string) (*models.WasteTicket, error) {
	var out models.WasteTicket
	if err := c.do(ctx, token, http.MethodGet, "/tickets/"+string(rt)+"/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateTicket(ctx context.Context, token string, rt models.ReportType, in models.TicketInput) (*models.WasteTicket, error) {
	var out models.WasteTicket
	if err := c.do(ctx, token, http.MethodPost, "/tickets/"+string(rt), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateTicket(ctx context.Context, token string, rt models.ReportType, id string, in models.TicketInput) (*models.WasteTicket, error) {
	var out models.WasteTicket
	if err := c.do(ctx, token, http.MethodPut, "/tickets/"+string(rt)+"/"+url.PathEscape(id), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteTicket(ctx context.Context, token string, rt models.ReportType, id string) error {
	return c.do(ctx, token, http.MethodDelete, "/tickets/"+string(rt)+"/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) ListWasteCodes(ctx context.Context, token string) ([]models.WasteCode, error) {
	var out []models.WasteCode
	err := c.do(ctx, token, http.MethodGet, "/waste-codes", nil, nil, &out)
	return out, err
}

func (c *Client) ListOperators(ctx context.Context, token string) ([]models.Institution, error) {
	var out []models.Institution
	err := c.do(ctx, token, http.MethodGet, "/operators", nil, nil, &out)
	return out, err
}

func (c *Client) ListSectors(ctx context.Context, token string) ([]models.Sector, error) {
	var out []models.Sector
	err := c.do(ctx, token, http.MethodGet, "/sectors", nil, nil, &out)
	return out, err
}

func (c *Client) ListInstitutions(ctx context.Context, token string) ([]models.Institution, error) {
	var out []models.Institution
	err := c.do(ctx, token, http.MethodGet, "/institutions", nil, nil, &out)
	return out, err
}

func (c *Client) ListUsers(ctx context.Context, token string) ([]models.User, error) {
	var out []models.User
	err := c.do(ctx, token, http.MethodGet, "/users", nil, nil, &out)
	return out, err
}

func (c *Client) GetUser(ctx context.Context, token, id string) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, token, http.MethodGet, "/users/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateUser(ctx context.Context, token string, in models.UserInput) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, token, http.MethodPost, "/users", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateUser(ctx context.Context, token, id string, in models.UserInput) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, token, http.MethodPut, "/users/"+url.PathEscape(id), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteUser(ctx context.Context, token, id string) error {
	return c.do(ctx, token, http.MethodDelete, "/users/"+url.PathEscape(id), nil, nil, nil)
}
