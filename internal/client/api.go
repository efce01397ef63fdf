package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sickboy81/saphira/internal/domain/enums"
	"github.com/sickboy81/saphira/internal/domain/model"
	"github.com/sickboy81/saphira/internal/filters"
	"github.com/sickboy81/saphira/internal/session"
	"github.com/sickboy81/saphira/internal/transport/http/dto"
)

// Tokens is an issued access/refresh pair with the signed-in user.
type Tokens struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresAt    time.Time   `json:"expires_at"`
	UserID       string      `json:"user_id"`
	Email        string      `json:"email"`
	Role         *enums.Role `json:"role,omitempty"`
}

type RegisterInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	DisplayName     string
	Role            enums.Role
}

type Page struct {
	Items      []model.Profile
	NextCursor string
	Fallback   bool
}

type LookupResult struct {
	Items       []model.Profile
	Unavailable bool
}

type Overview struct {
	Profile    model.Profile
	ImageCount int
	VideoCount int
	Missing    []string
	Complete   bool
}

type TOTPSetup struct {
	Secret    string
	URL       string
	QRCodePNG []byte
}

func (c *Client) Register(ctx context.Context, in RegisterInput) (Tokens, error) {
	var resp dto.AuthTokensResponse
	err := c.do(ctx, http.MethodPost, "/v1/auth/register", "", dto.RegisterRequest{
		Email:           in.Email,
		Password:        in.Password,
		ConfirmPassword: in.ConfirmPassword,
		DisplayName:     in.DisplayName,
		Role:            string(in.Role),
	}, &resp)
	if err != nil {
		return Tokens{}, err
	}
	return decodeTokens(resp, time.Now())
}

func (c *Client) Login(ctx context.Context, email, password, otp string) (Tokens, error) {
	var resp dto.AuthTokensResponse
	err := c.do(ctx, http.MethodPost, "/v1/auth/login", "", dto.LoginRequest{
		Email:    email,
		Password: password,
		OTP:      otp,
	}, &resp)
	if err != nil {
		return Tokens{}, err
	}
	return decodeTokens(resp, time.Now())
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	var resp dto.AuthTokensResponse
	err := c.do(ctx, http.MethodPost, "/v1/auth/refresh", "", dto.RefreshRequest{RefreshToken: refreshToken}, &resp)
	if err != nil {
		return Tokens{}, err
	}
	return decodeTokens(resp, time.Now())
}

// Logout ends the server session behind accessToken.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	var resp dto.LogoutResponse
	return c.do(ctx, http.MethodPost, "/v1/auth/logout", accessToken, struct{}{}, &resp)
}

func (c *Client) Session(ctx context.Context) (*session.Session, *enums.Role, error) {
	var resp dto.SessionResponse
	if err := c.get(ctx, "/v1/session", &resp); err != nil {
		return nil, nil, err
	}
	return decodeSession(resp)
}

func (c *Client) Role(ctx context.Context, userID string) (*enums.Role, error) {
	var resp dto.RoleResponse
	if err := c.get(ctx, "/v1/users/"+url.PathEscape(userID)+"/role", &resp); err != nil {
		return nil, err
	}
	if resp.UserID != userID {
		return nil, decodeErr("role response for %q, asked %q", resp.UserID, userID)
	}
	return decodeRole(resp.Role)
}

func (c *Client) SetupTOTP(ctx context.Context) (TOTPSetup, error) {
	var resp dto.TOTPSetupResponse
	if err := c.post(ctx, "/v1/auth/totp/setup", struct{}{}, &resp); err != nil {
		return TOTPSetup{}, err
	}
	if resp.Secret == "" || !strings.HasPrefix(resp.URL, "otpauth://") {
		return TOTPSetup{}, decodeErr("totp setup without secret")
	}
	return TOTPSetup{Secret: resp.Secret, URL: resp.URL, QRCodePNG: resp.QRCodePNG}, nil
}

func (c *Client) EnableTOTP(ctx context.Context, code string) error {
	return c.post(ctx, "/v1/auth/totp/enable", dto.TOTPEnableRequest{Code: code}, nil)
}

func (c *Client) FilterOptions(ctx context.Context) (dto.FilterOptionsResponse, error) {
	var resp dto.FilterOptionsResponse
	if err := c.get(ctx, "/v1/filters/options", &resp); err != nil {
		return dto.FilterOptionsResponse{}, err
	}
	if len(resp.Locations) == 0 || resp.Bounds.AgeMin > resp.Bounds.AgeMax {
		return dto.FilterOptionsResponse{}, decodeErr("filter options without vocabularies")
	}
	return resp, nil
}

func (c *Client) Profiles(ctx context.Context, state filters.State, cursor string, limit int) (Page, error) {
	q := filters.EncodeQuery(state, c.bounds)
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	endpoint := "/v1/profiles"
	if encoded := q.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	var resp dto.ProfileListResponse
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return Page{}, err
	}
	items, err := decodeProfiles(resp.Items)
	if err != nil {
		return Page{}, err
	}
	return Page{Items: items, NextCursor: resp.NextCursor, Fallback: resp.Fallback}, nil
}

func (c *Client) Profile(ctx context.Context, id string) (model.Profile, error) {
	var resp dto.ProfileResponse
	if err := c.get(ctx, "/v1/profiles/"+url.PathEscape(id), &resp); err != nil {
		return model.Profile{}, err
	}
	p, err := decodeProfile(resp)
	if err != nil {
		return model.Profile{}, err
	}
	if p.ID != id {
		return model.Profile{}, decodeErr("profile response for %q, asked %q", p.ID, id)
	}
	return p, nil
}

func (c *Client) LookupProfiles(ctx context.Context, ids []string) (LookupResult, error) {
	var resp dto.LookupResponse
	if err := c.post(ctx, "/v1/profiles/lookup", dto.LookupRequest{IDs: ids}, &resp); err != nil {
		return LookupResult{}, err
	}
	items, err := decodeProfiles(resp.Items)
	if err != nil {
		return LookupResult{}, err
	}
	return LookupResult{Items: items, Unavailable: resp.Unavailable}, nil
}

// Favorites adapts the lookup endpoint to favorites.Resolver. A backend that
// could not answer is an error, so the list reports itself degraded instead
// of empty. Items the server resolved from its sample catalog come back with
// that error.
type Favorites struct {
	client *Client
}

func NewFavorites(c *Client) Favorites {
	return Favorites{client: c}
}

func (f Favorites) Lookup(ctx context.Context, ids []string) ([]model.Profile, error) {
	res, err := f.client.LookupProfiles(ctx, ids)
	if err != nil {
		return nil, err
	}
	if res.Unavailable {
		return res.Items, ErrUnavailable
	}
	return res.Items, nil
}

func (c *Client) DashboardOverview(ctx context.Context) (Overview, error) {
	var resp dto.DashboardOverviewResponse
	if err := c.get(ctx, "/v1/dashboard/overview", &resp); err != nil {
		return Overview{}, err
	}
	p, err := decodeProfile(resp.Profile)
	if err != nil {
		return Overview{}, err
	}
	return Overview{
		Profile:    p,
		ImageCount: resp.ImageCount,
		VideoCount: resp.VideoCount,
		Missing:    resp.Missing,
		Complete:   resp.Complete,
	}, nil
}

func (c *Client) UpdateDashboardProfile(ctx context.Context, displayName string, attrs model.ProfileAttributes) (model.Profile, error) {
	var resp dto.ProfileResponse
	err := c.put(ctx, "/v1/dashboard/profile", dto.DashboardProfileRequest{
		DisplayName: displayName,
		Attributes:  attrs,
	}, &resp)
	if err != nil {
		return model.Profile{}, err
	}
	return decodeProfile(resp)
}

func (c *Client) UploadMedia(ctx context.Context, fileName, contentType string, body io.Reader) (model.Media, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return model.Media{}, fmt.Errorf("create upload part: %w", err)
	}
	if _, err := io.Copy(part, body); err != nil {
		return model.Media{}, fmt.Errorf("copy upload body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return model.Media{}, fmt.Errorf("close upload body: %w", err)
	}

	var resp dto.MediaResponse
	if err := c.send(ctx, http.MethodPost, "/v1/dashboard/media", c.token(), mw.FormDataContentType(), &buf, &resp); err != nil {
		return model.Media{}, err
	}
	return decodeMedia(resp)
}

func (c *Client) AdminUsers(ctx context.Context, search string) ([]model.Profile, error) {
	endpoint := "/v1/admin/users"
	if search = strings.TrimSpace(search); search != "" {
		endpoint += "?" + url.Values{"search": {search}}.Encode()
	}

	var resp dto.AdminUsersResponse
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	out := make([]model.Profile, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID == "" {
			return nil, decodeErr("user without id")
		}
		role, err := enums.ParseRole(item.Role)
		if err != nil {
			return nil, decodeErr("user %s: %v", item.ID, err)
		}
		out = append(out, model.Profile{
			ID:          item.ID,
			Role:        role,
			DisplayName: item.DisplayName,
			IsBanned:    item.IsBanned,
			CreatedAt:   item.CreatedAt,
		})
	}
	return out, nil
}

func (c *Client) SetBanned(ctx context.Context, userID string, banned bool) error {
	action := "unban"
	if banned {
		action = "ban"
	}

	var resp dto.AdminBanResponse
	if err := c.post(ctx, "/v1/admin/users/"+url.PathEscape(userID)+"/"+action, struct{}{}, &resp); err != nil {
		return err
	}
	if resp.UserID != userID || resp.IsBanned != banned {
		return decodeErr("ban response does not match request")
	}
	return nil
}
